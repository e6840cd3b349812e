package oracle

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sinavlab/grader/internal/oracle/prompts"
)

// Process scores answer pairs by piping the prompt into `ollama run` as a
// subprocess. GPU inference is disabled through the environment so grading
// machines without accelerators behave the same as the reference setup.
type Process struct {
	model   string
	verbal  prompts.Variant
	timeout time.Duration
}

// NewProcess creates a subprocess-backed oracle for the given model name.
func NewProcess(modelName string, verbal prompts.Variant) *Process {
	return &Process{
		model:   modelName,
		verbal:  verbal,
		timeout: DefaultTimeout,
	}
}

// Score judges the equivalence of a normalized correct/student answer pair.
// The subprocess is killed when the timeout elapses or the run is cancelled,
// so no orphaned model processes are left behind. Failures resolve to 0.
func (p *Process) Score(ctx context.Context, correct, student string, numeric bool) int {
	prompt, err := buildPrompt(p.verbal, correct, student, numeric)
	if err != nil {
		logFailure("process", err)
		return 0
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ollama", "run", p.model)
	cmd.Stdin = strings.NewReader(prompt)
	cmd.Env = append(os.Environ(), "OLLAMA_NUM_GPU=0")

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		logFailure("process", err)
		return 0
	}

	return parseScore(stdout.String())
}
