package eval

import (
	"strconv"
	"strings"
)

// numericTolerance is the maximum absolute difference under which two parsed
// numbers count as the same answer.
const numericTolerance = 0.01

// isNumeric reports whether an answer string parses as a number after
// decimal-comma conversion and internal-space removal. A question is numeric
// when any of its alternatives passes this test.
func isNumeric(answer string) bool {
	if answer == "" {
		return false
	}
	cleaned := strings.TrimSpace(answer)
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	_, err := strconv.ParseFloat(cleaned, 64)
	return err == nil
}

// parseNumber parses an answer value for the tolerance comparison. Unlike the
// classifier it keeps internal spaces, so "3 5" classifies as numeric but
// falls back to string scoring here.
func parseNumber(answer string) (float64, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(answer), ",", ".")
	f, err := strconv.ParseFloat(cleaned, 64)
	return f, err == nil
}
