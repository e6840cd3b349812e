// Package eval turns raw student answers and answer-key entries into graded,
// auditable decisions and folds them into an exam report.
package eval

import (
	"context"
	"math"
	"strings"

	"github.com/sinavlab/grader/internal/model"
	"github.com/sinavlab/grader/internal/normalize"
	"github.com/sinavlab/grader/internal/similarity"
)

// shortCircuitThreshold is the lexical score at or above which the semantic
// oracle is never consulted for an alternative.
const shortCircuitThreshold = 85

// Scorer is the semantic oracle capability: judge the equivalence of a
// normalized correct/student answer pair and return a score in [0,100].
// Implementations are fail-safe and resolve failures to 0.
type Scorer interface {
	Score(ctx context.Context, correct, student string, numeric bool) int
}

// Config holds engine construction parameters.
type Config struct {
	// Policy selects the score→coefficient mapping.
	Policy Policy
	// Workers bounds concurrent question evaluations. Zero means 4.
	Workers int
	// OracleSlots bounds concurrent oracle invocations. Zero means 1,
	// which serializes oracle access like the reference deployment.
	OracleSlots int
}

// Engine evaluates answers against an answer key under a fixed policy.
type Engine struct {
	policy    Policy
	oracle    Scorer
	workers   int
	oracleSem chan struct{}
}

// New creates an evaluation engine using the given semantic oracle.
func New(scorer Scorer, cfg Config) *Engine {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	slots := cfg.OracleSlots
	if slots <= 0 {
		slots = 1
	}
	policy := cfg.Policy
	if policy == "" {
		policy = PolicyBinary
	}
	return &Engine{
		policy:    policy,
		oracle:    scorer,
		workers:   workers,
		oracleSem: make(chan struct{}, slots),
	}
}

// Policy returns the active scoring policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// best tracks the winning alternative across the evaluation loop.
type best struct {
	score    float64
	method   string
	answer   string
	lexical  float64
	semantic int
}

// Evaluate grades one student answer against one answer-key entry. The entry
// may hold several acceptable alternatives separated by "/"; the decision
// reports the alternative with the highest final score.
func (e *Engine) Evaluate(ctx context.Context, studentAnswer, keyEntry string) model.QuestionDecision {
	decision := model.QuestionDecision{
		Answer:           studentAnswer,
		AnswerNormalized: normalize.Text(studentAnswer),
		CorrectAnswer:    keyEntry,
	}

	alternatives := splitAlternatives(keyEntry)
	numeric := false
	for _, alt := range alternatives {
		if isNumeric(alt) {
			numeric = true
			break
		}
	}
	if e.policy.tracksNumeric() {
		n := numeric
		decision.Numeric = &n
	}

	// Blank answers are a terminal state: no scoring at all.
	if strings.TrimSpace(studentAnswer) == "" {
		decision.Status = model.StatusBlank
		decision.Method = model.MethodBlank
		return decision
	}

	b := best{answer: alternatives[0]}
	for _, alt := range alternatives {
		lexical := similarity.Score(studentAnswer, alt)

		if numeric {
			// Tolerance comparison overrides fuzzy matching when both
			// sides parse; otherwise the string score stands.
			if studentNum, ok := parseNumber(studentAnswer); ok {
				if altNum, ok := parseNumber(alt); ok {
					if math.Abs(studentNum-altNum) < numericTolerance {
						lexical = 100
					} else {
						lexical = 0
					}
				}
			}
		}

		// High lexical confidence skips the oracle for this alternative.
		if lexical >= shortCircuitThreshold {
			if lexical > b.score {
				b = best{
					score:   lexical,
					method:  model.MethodLexical,
					answer:  alt,
					lexical: lexical,
				}
			}
			continue
		}

		semantic := e.oracleScore(ctx, normalize.Text(alt), decision.AnswerNormalized, numeric)

		var final float64
		if numeric {
			// Numeric answers are never partially credited.
			if lexical >= 90 || semantic >= 90 {
				final = 100
			}
		} else {
			final = math.Max(lexical, float64(semantic))
		}

		if final > b.score {
			method := model.MethodSemantic
			if lexical > float64(semantic) {
				method = model.MethodLexical
			}
			b = best{
				score:    final,
				method:   method,
				answer:   alt,
				lexical:  lexical,
				semantic: semantic,
			}
		}
	}

	decision.Coefficient = e.policy.coefficient(b.score, numeric)
	decision.Status = e.policy.status(decision.Coefficient)
	decision.Method = b.method
	decision.MatchedAnswer = b.answer
	decision.LexicalScore = round1(b.lexical)
	decision.SemanticScore = b.semantic
	decision.FinalScore = round1(b.score)
	return decision
}

// oracleScore dispatches an oracle call through the bounded slot pool,
// respecting cancellation while waiting for a slot.
func (e *Engine) oracleScore(ctx context.Context, correct, student string, numeric bool) int {
	select {
	case e.oracleSem <- struct{}{}:
	case <-ctx.Done():
		return 0
	}
	defer func() { <-e.oracleSem }()

	return e.oracle.Score(ctx, correct, student, numeric)
}

// splitAlternatives breaks an answer-key entry on "/" into trimmed candidate
// answers. There is always at least one alternative.
func splitAlternatives(keyEntry string) []string {
	parts := strings.Split(keyEntry, "/")
	alternatives := make([]string, len(parts))
	for i, p := range parts {
		alternatives[i] = strings.TrimSpace(p)
	}
	return alternatives
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
