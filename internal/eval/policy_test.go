package eval

import (
	"testing"

	"github.com/sinavlab/grader/internal/model"
	"github.com/sinavlab/grader/internal/oracle/prompts"
)

func TestValidPolicy(t *testing.T) {
	for _, p := range []string{"binary", "graded"} {
		if !ValidPolicy(p) {
			t.Errorf("ValidPolicy(%q) = false, want true", p)
		}
	}
	for _, p := range []string{"", "Binary", "strict", "partial"} {
		if ValidPolicy(p) {
			t.Errorf("ValidPolicy(%q) = true, want false", p)
		}
	}
}

func TestCoefficientBinary(t *testing.T) {
	tests := []struct {
		score   float64
		numeric bool
		want    float64
	}{
		{100, true, 1.0},
		{90, true, 1.0},
		{89.9, true, 0.0},
		{30, true, 0.0},
		{100, false, 1.0},
		{30, false, 1.0},
		{29.9, false, 0.0},
		{0, false, 0.0},
	}

	for _, tt := range tests {
		got := PolicyBinary.coefficient(tt.score, tt.numeric)
		if got != tt.want {
			t.Errorf("binary coefficient(%v, numeric=%v) = %v, want %v", tt.score, tt.numeric, got, tt.want)
		}
	}
}

func TestCoefficientGraded(t *testing.T) {
	tests := []struct {
		score float64
		want  float64
	}{
		{100, 1.0},
		{90, 1.0},
		{89.9, 0.75},
		{70, 0.75},
		{69.9, 0.5},
		{50, 0.5},
		{49.9, 0.25},
		{30, 0.25},
		{29.9, 0.0},
		{0, 0.0},
	}

	for _, tt := range tests {
		// Graded scoring ignores the numeric flag.
		for _, numeric := range []bool{false, true} {
			got := PolicyGraded.coefficient(tt.score, numeric)
			if got != tt.want {
				t.Errorf("graded coefficient(%v, numeric=%v) = %v, want %v", tt.score, numeric, got, tt.want)
			}
		}
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		policy      Policy
		coefficient float64
		want        string
	}{
		{PolicyBinary, 1.0, model.StatusCorrect},
		{PolicyBinary, 0.0, model.StatusWrong},
		{PolicyGraded, 1.0, model.StatusCorrect},
		{PolicyGraded, 0.75, model.StatusVeryClose},
		{PolicyGraded, 0.5, model.StatusClose},
		{PolicyGraded, 0.25, model.StatusPartial},
		{PolicyGraded, 0.0, model.StatusWrong},
	}

	for _, tt := range tests {
		if got := tt.policy.status(tt.coefficient); got != tt.want {
			t.Errorf("%s status(%v) = %q, want %q", tt.policy, tt.coefficient, got, tt.want)
		}
	}
}

func TestVerbalVariant(t *testing.T) {
	if got := PolicyBinary.VerbalVariant(); got != prompts.VariantVerbal {
		t.Errorf("binary verbal variant = %q, want %q", got, prompts.VariantVerbal)
	}
	if got := PolicyGraded.VerbalVariant(); got != prompts.VariantVerbalBanded {
		t.Errorf("graded verbal variant = %q, want %q", got, prompts.VariantVerbalBanded)
	}
}
