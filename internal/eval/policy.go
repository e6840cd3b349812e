package eval

import (
	"github.com/sinavlab/grader/internal/model"
	"github.com/sinavlab/grader/internal/oracle/prompts"
)

// Policy names a score→coefficient mapping. The two deployments of the source
// system diverge here and both are kept as explicit configurations.
type Policy string

const (
	// PolicyBinary grades all-or-nothing: numeric questions need a final
	// score of at least 90, verbal questions at least 30. It tracks the
	// numeric/verbal split in decisions and in the report summary.
	PolicyBinary Policy = "binary"
	// PolicyGraded awards partial credit in five tiers (90/70/50/30),
	// applied uniformly with no numeric/verbal distinction in the output.
	PolicyGraded Policy = "graded"
)

// ValidPolicy checks a policy name from configuration.
func ValidPolicy(p string) bool {
	switch Policy(p) {
	case PolicyBinary, PolicyGraded:
		return true
	}
	return false
}

// coefficient maps the best final score of a question to its point value.
func (p Policy) coefficient(score float64, numeric bool) float64 {
	if p == PolicyGraded {
		switch {
		case score >= 90:
			return 1.0
		case score >= 70:
			return 0.75
		case score >= 50:
			return 0.5
		case score >= 30:
			return 0.25
		default:
			return 0.0
		}
	}

	if numeric {
		if score >= 90 {
			return 1.0
		}
		return 0.0
	}
	if score >= 30 {
		return 1.0
	}
	return 0.0
}

// status derives the report label for a non-blank answer from its coefficient.
func (p Policy) status(coefficient float64) string {
	if p == PolicyGraded {
		switch coefficient {
		case 1.0:
			return model.StatusCorrect
		case 0.75:
			return model.StatusVeryClose
		case 0.5:
			return model.StatusClose
		case 0.25:
			return model.StatusPartial
		default:
			return model.StatusWrong
		}
	}

	if coefficient == 1.0 {
		return model.StatusCorrect
	}
	return model.StatusWrong
}

// tracksNumeric reports whether the policy records the numeric/verbal
// classification in decisions and summary counts.
func (p Policy) tracksNumeric() bool {
	return p == PolicyBinary
}

// verbalVariant picks the oracle prompt banding paired with this policy.
func (p Policy) verbalVariant() prompts.Variant {
	if p == PolicyGraded {
		return prompts.VariantVerbalBanded
	}
	return prompts.VariantVerbal
}

// VerbalVariant exposes the prompt pairing for oracle construction.
func (p Policy) VerbalVariant() prompts.Variant {
	return p.verbalVariant()
}

// criteria describes the active thresholds in the report summary.
func (p Policy) criteria() model.Criteria {
	if p == PolicyGraded {
		return model.Criteria{
			Verbal: "Kademeli puanlama (90/70/50/30 eşikleri)",
		}
	}
	return model.Criteria{
		Numeric: "Tam eşleşme (90+)",
		Verbal:  "30 ve üzeri benzerlik DOĞRU",
	}
}
