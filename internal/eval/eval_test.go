package eval

import (
	"context"
	"sync"
	"testing"

	"github.com/sinavlab/grader/internal/model"
)

// stubOracle is a deterministic Scorer that records how often it is consulted.
type stubOracle struct {
	mu    sync.Mutex
	score int
	calls int
}

func (s *stubOracle) Score(_ context.Context, _, _ string, _ bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.score
}

func (s *stubOracle) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestEngine(t *testing.T, policy Policy, oracleScore int) (*Engine, *stubOracle) {
	t.Helper()
	stub := &stubOracle{score: oracleScore}
	return New(stub, Config{Policy: policy}), stub
}

func TestConfigDefaults(t *testing.T) {
	e := New(&stubOracle{}, Config{})
	if e.Policy() != PolicyBinary {
		t.Errorf("default policy = %q, want %q", e.Policy(), PolicyBinary)
	}
	if e.workers != 4 {
		t.Errorf("default workers = %d, want 4", e.workers)
	}
	if cap(e.oracleSem) != 1 {
		t.Errorf("default oracle slots = %d, want 1", cap(e.oracleSem))
	}
}

func TestEvaluateBlank(t *testing.T) {
	for _, answer := range []string{"", "   ", "\t\n"} {
		e, stub := newTestEngine(t, PolicyBinary, 100)
		d := e.Evaluate(context.Background(), answer, "Paris")

		if d.Status != model.StatusBlank {
			t.Errorf("blank answer %q: status = %q, want %q", answer, d.Status, model.StatusBlank)
		}
		if d.Method != model.MethodBlank {
			t.Errorf("blank answer %q: method = %q, want %q", answer, d.Method, model.MethodBlank)
		}
		if d.Coefficient != 0 {
			t.Errorf("blank answer %q: coefficient = %v, want 0", answer, d.Coefficient)
		}
		if d.Numeric == nil || *d.Numeric {
			t.Errorf("blank answer %q: numeric classification missing or wrong", answer)
		}
		if stub.callCount() != 0 {
			t.Errorf("blank answer %q consulted the oracle", answer)
		}
	}
}

func TestEvaluateLexicalShortCircuit(t *testing.T) {
	e, stub := newTestEngine(t, PolicyBinary, 100)
	d := e.Evaluate(context.Background(), "ankara", "Ankaro")

	if stub.callCount() != 0 {
		t.Fatalf("oracle consulted %d times despite high lexical score", stub.callCount())
	}
	if d.Method != model.MethodLexical {
		t.Errorf("method = %q, want %q", d.Method, model.MethodLexical)
	}
	if d.FinalScore != 91.7 {
		t.Errorf("final score = %v, want 91.7", d.FinalScore)
	}
	if d.Coefficient != 1.0 || d.Status != model.StatusCorrect {
		t.Errorf("decision = (%v, %q), want (1, %q)", d.Coefficient, d.Status, model.StatusCorrect)
	}
}

func TestEvaluateExactMatchAmongAlternatives(t *testing.T) {
	e, stub := newTestEngine(t, PolicyBinary, 10)
	d := e.Evaluate(context.Background(), "paris", "Paris/Paris,France")

	if d.Coefficient != 1.0 {
		t.Fatalf("coefficient = %v, want 1", d.Coefficient)
	}
	if d.MatchedAnswer != "Paris" {
		t.Errorf("matched answer = %q, want %q", d.MatchedAnswer, "Paris")
	}
	if d.Method != model.MethodLexical {
		t.Errorf("method = %q, want %q", d.Method, model.MethodLexical)
	}
	if d.FinalScore != 100 {
		t.Errorf("final score = %v, want 100", d.FinalScore)
	}
	// Only the non-matching alternative reaches the oracle.
	if stub.callCount() != 1 {
		t.Errorf("oracle calls = %d, want 1", stub.callCount())
	}
}

func TestEvaluateNumericTolerance(t *testing.T) {
	tests := []struct {
		name     string
		answer   string
		key      string
		want     float64
		wantCoef float64
	}{
		{"same value different notation", "7", "7.0", 100, 1.0},
		{"decimal comma", "3,5", "3.5", 100, 1.0},
		{"surrounding whitespace", " 42 ", "42", 100, 1.0},
		{"difference at tolerance", "41.99", "42", 0, 0.0},
		{"plainly wrong", "8", "7", 0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t, PolicyBinary, 10)
			d := e.Evaluate(context.Background(), tt.answer, tt.key)

			if d.FinalScore != tt.want {
				t.Errorf("final score = %v, want %v", d.FinalScore, tt.want)
			}
			if d.Coefficient != tt.wantCoef {
				t.Errorf("coefficient = %v, want %v", d.Coefficient, tt.wantCoef)
			}
			if d.Numeric == nil || !*d.Numeric {
				t.Error("numeric question not classified as numeric")
			}
		})
	}
}

func TestEvaluateNumericAllOrNothing(t *testing.T) {
	// A near-miss numeric answer with a weak oracle score earns nothing.
	e, stub := newTestEngine(t, PolicyBinary, 10)
	d := e.Evaluate(context.Background(), "41.99", "42")

	if stub.callCount() != 1 {
		t.Fatalf("oracle calls = %d, want 1", stub.callCount())
	}
	if d.FinalScore != 0 || d.Coefficient != 0 {
		t.Errorf("decision = (%v, %v), want (0, 0)", d.FinalScore, d.Coefficient)
	}
	if d.Status != model.StatusWrong {
		t.Errorf("status = %q, want %q", d.Status, model.StatusWrong)
	}
	if d.MatchedAnswer != "42" {
		t.Errorf("matched answer = %q, want %q", d.MatchedAnswer, "42")
	}
}

func TestEvaluateNumericKeyVerbalAnswer(t *testing.T) {
	// A key with a numeric alternative classifies the question as numeric,
	// but a spelled-out answer still matches lexically.
	e, stub := newTestEngine(t, PolicyBinary, 0)
	d := e.Evaluate(context.Background(), "kırk iki", "42/kırk iki")

	if d.Numeric == nil || !*d.Numeric {
		t.Fatal("question not classified as numeric")
	}
	if d.Coefficient != 1.0 {
		t.Errorf("coefficient = %v, want 1", d.Coefficient)
	}
	if d.MatchedAnswer != "kırk iki" {
		t.Errorf("matched answer = %q, want %q", d.MatchedAnswer, "kırk iki")
	}
	if stub.callCount() != 1 {
		t.Errorf("oracle calls = %d, want 1", stub.callCount())
	}
}

func TestEvaluateSemanticMatchGraded(t *testing.T) {
	e, stub := newTestEngine(t, PolicyGraded, 80)
	d := e.Evaluate(context.Background(), "fotosentez", "photosynthesis")

	if stub.callCount() != 1 {
		t.Fatalf("oracle calls = %d, want 1", stub.callCount())
	}
	if d.Method != model.MethodSemantic {
		t.Errorf("method = %q, want %q", d.Method, model.MethodSemantic)
	}
	if d.SemanticScore != 80 || d.FinalScore != 80 {
		t.Errorf("scores = (%d, %v), want (80, 80)", d.SemanticScore, d.FinalScore)
	}
	if d.Coefficient != 0.75 {
		t.Errorf("coefficient = %v, want 0.75", d.Coefficient)
	}
	if d.Status != model.StatusVeryClose {
		t.Errorf("status = %q, want %q", d.Status, model.StatusVeryClose)
	}
	if d.Numeric != nil {
		t.Error("graded decision carries a numeric classification")
	}
}

func TestEvaluateOracleFailureDegrades(t *testing.T) {
	// A failing oracle resolves to 0, never to an error.
	e, _ := newTestEngine(t, PolicyBinary, 0)
	d := e.Evaluate(context.Background(), "tamamen alakasız", "Paris")

	if d.SemanticScore != 0 {
		t.Errorf("semantic score = %d, want 0", d.SemanticScore)
	}
	if d.Status != model.StatusWrong {
		t.Errorf("status = %q, want %q", d.Status, model.StatusWrong)
	}
}

func TestGrade(t *testing.T) {
	e, _ := newTestEngine(t, PolicyBinary, 0)

	sub := model.StudentSubmission{
		StudentID:   "1234",
		StudentName: "Ayşe Yılmaz",
		Answers: map[int]string{
			1: "paris",
			2: "7",
			4: "göz ardı edilir",
		},
	}
	key := model.AnswerKey{
		1: "Paris",
		2: "42",
		3: "Ankara",
	}

	report, err := e.Grade(context.Background(), sub, key)
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}

	if report.StudentID != "1234" || report.StudentName != "Ayşe Yılmaz" {
		t.Errorf("student identity not carried into the report")
	}
	if len(report.Questions) != 3 {
		t.Fatalf("questions = %d, want 3", len(report.Questions))
	}
	if _, ok := report.Questions[4]; ok {
		t.Error("answer without a key entry was graded")
	}
	if got := report.Questions[3].Status; got != model.StatusBlank {
		t.Errorf("missing answer status = %q, want %q", got, model.StatusBlank)
	}

	s := report.Summary
	if s.Correct != 1 || s.Wrong != 1 || s.Blank != 1 {
		t.Errorf("counts = (%d, %d, %d), want (1, 1, 1)", s.Correct, s.Wrong, s.Blank)
	}
	if s.TotalQuestions != 3 || s.MaxScore != 100 {
		t.Errorf("totals = (%d, %v), want (3, 100)", s.TotalQuestions, s.MaxScore)
	}
	if s.TotalScore != 33.33 {
		t.Errorf("total score = %v, want 33.33", s.TotalScore)
	}
	if s.NumericCount == nil || *s.NumericCount != 1 {
		t.Errorf("numeric count = %v, want 1", s.NumericCount)
	}
	if s.VerbalCount == nil || *s.VerbalCount != 2 {
		t.Errorf("verbal count = %v, want 2", s.VerbalCount)
	}
	if s.Criteria.Numeric == "" || s.Criteria.Verbal == "" {
		t.Error("binary summary missing criteria description")
	}
}

func TestGradeGradedSummary(t *testing.T) {
	e, _ := newTestEngine(t, PolicyGraded, 0)

	sub := model.StudentSubmission{
		StudentID: "5678",
		Answers:   map[int]string{1: "ankara", 2: ""},
	}
	key := model.AnswerKey{1: "Ankara", 2: "İzmir"}

	report, err := e.Grade(context.Background(), sub, key)
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}

	s := report.Summary
	if s.NumericCount != nil || s.VerbalCount != nil {
		t.Error("graded summary carries numeric/verbal counts")
	}
	if s.Criteria.Numeric != "" {
		t.Error("graded summary carries a numeric criteria description")
	}
	if s.Correct != 1 || s.Blank != 1 || s.Wrong != 0 {
		t.Errorf("counts = (%d, %d, %d), want (1, 0, 1)", s.Correct, s.Wrong, s.Blank)
	}
	if s.TotalScore != 50 {
		t.Errorf("total score = %v, want 50", s.TotalScore)
	}
}

func TestGradeEmptyKey(t *testing.T) {
	e, _ := newTestEngine(t, PolicyBinary, 0)

	report, err := e.Grade(context.Background(), model.StudentSubmission{StudentID: "1"}, model.AnswerKey{})
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if report.Summary.TotalScore != 0 || report.Summary.TotalQuestions != 0 {
		t.Errorf("summary = (%v, %d), want (0, 0)", report.Summary.TotalScore, report.Summary.TotalQuestions)
	}
}

func TestGradeConcurrent(t *testing.T) {
	stub := &stubOracle{score: 0}
	e := New(stub, Config{Policy: PolicyBinary, Workers: 8, OracleSlots: 2})

	sub := model.StudentSubmission{StudentID: "1", Answers: map[int]string{}}
	key := model.AnswerKey{}
	for q := 1; q <= 40; q++ {
		key[q] = "Ankara"
		if q%2 == 0 {
			sub.Answers[q] = "ankara"
		} else {
			sub.Answers[q] = "yanlış bir şey"
		}
	}

	report, err := e.Grade(context.Background(), sub, key)
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if len(report.Questions) != 40 {
		t.Fatalf("questions = %d, want 40", len(report.Questions))
	}
	if report.Summary.Correct != 20 || report.Summary.Wrong != 20 {
		t.Errorf("counts = (%d, %d), want (20, 20)", report.Summary.Correct, report.Summary.Wrong)
	}
	// Exact matches short-circuit; only the wrong half consults the oracle.
	if stub.callCount() != 20 {
		t.Errorf("oracle calls = %d, want 20", stub.callCount())
	}
}

func TestGradeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e, _ := newTestEngine(t, PolicyBinary, 0)
	key := model.AnswerKey{}
	for q := 1; q <= 10; q++ {
		key[q] = "Ankara"
	}

	_, err := e.Grade(ctx, model.StudentSubmission{Answers: map[int]string{1: "x"}}, key)
	if err == nil {
		t.Fatal("Grade with cancelled context succeeded")
	}
}
