package eval

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sinavlab/grader/internal/model"
)

// Grade evaluates every question in the answer key against the submission and
// folds the decisions into an exam report. A question missing from the
// submission is graded as a blank answer; submitted answers without a key
// entry are ignored.
//
// Questions are independent, so they are evaluated on a bounded worker pool.
// Oracle access stays bounded separately through the engine's slot pool, and
// lexical short-circuiting happens before any oracle dispatch is scheduled.
func (e *Engine) Grade(ctx context.Context, sub model.StudentSubmission, key model.AnswerKey) (model.ExamReport, error) {
	decisions := make(map[int]model.QuestionDecision, len(key))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for qnum, entry := range key {
		qnum, entry := qnum, entry
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d := e.Evaluate(gctx, sub.Answers[qnum], entry)
			mu.Lock()
			decisions[qnum] = d
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.ExamReport{}, err
	}

	report := model.ExamReport{
		StudentID:   sub.StudentID,
		StudentName: sub.StudentName,
		Questions:   decisions,
		Summary:     e.summarize(decisions),
	}
	return report, nil
}

// summarize folds per-question decisions into the report totals.
func (e *Engine) summarize(decisions map[int]model.QuestionDecision) model.Summary {
	s := model.Summary{
		MaxScore:       100,
		TotalQuestions: len(decisions),
		Criteria:       e.policy.criteria(),
	}

	var totalCoefficient float64
	numericCount := 0
	verbalCount := 0
	for _, d := range decisions {
		totalCoefficient += d.Coefficient
		switch {
		case d.Status == model.StatusBlank:
			s.Blank++
		case d.Coefficient == 1.0:
			s.Correct++
		default:
			s.Wrong++
		}
		if d.Numeric != nil {
			if *d.Numeric {
				numericCount++
			} else {
				verbalCount++
			}
		}
	}

	// Defined as 0 for an empty answer key.
	if s.TotalQuestions > 0 {
		s.TotalScore = round2(totalCoefficient / float64(s.TotalQuestions) * 100)
	}

	if e.policy.tracksNumeric() {
		s.NumericCount = &numericCount
		s.VerbalCount = &verbalCount
	}
	return s
}
