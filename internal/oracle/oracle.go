// Package oracle adapts external language models into a prompt-in, score-out
// equivalence judge. All clients are fail-safe: a timeout, transport error or
// garbage response yields score 0 so a broken oracle never blocks a grading
// run.
package oracle

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sinavlab/grader/internal/oracle/prompts"
)

// DefaultTimeout bounds a single oracle invocation.
const DefaultTimeout = 30 * time.Second

// parseScore extracts the digit characters from the first 10 characters of an
// oracle response and clamps the value to [0,100]. Models occasionally echo
// part of the instruction, so only the head of the response is trusted.
func parseScore(response string) int {
	head := []rune(strings.TrimSpace(response))
	if len(head) > 10 {
		head = head[:10]
	}

	var digits strings.Builder
	for _, r := range head {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}

	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return min(100, max(0, n))
}

// buildPrompt selects the numeric or verbal template for this judgment.
func buildPrompt(verbal prompts.Variant, correct, student string, numeric bool) (string, error) {
	v := verbal
	if numeric {
		v = prompts.VariantNumeric
	}
	return prompts.Build(v, correct, student)
}

func logFailure(transport string, err error) {
	slog.Warn("oracle call failed, scoring 0", "transport", transport, "error", err)
}
