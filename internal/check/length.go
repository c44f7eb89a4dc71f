package check

import (
	"fmt"
	"unicode/utf8"
)

// DefaultLineLength is the line length limit applied when the caller does not
// override it.
const DefaultLineLength = 88

const (
	lineLengthTitle      = "Lines must not exceed 88 characters"
	lineLengthSuggestion = "Split the line or simplify the expression."
)

// CheckLineLength flags every line whose character count exceeds the limit.
// Characters are counted as runes with the terminator excluded; a line of
// exactly limit characters passes. Detection only: wrapping is left to the
// author.
func CheckLineLength(code string, limit int) []Violation {
	var vios []Violation
	for i, line := range splitLines(code) {
		body, _ := splitTerminator(line)
		if n := utf8.RuneCountInString(body); n > limit {
			vios = append(vios, newViolation(
				RuleLineLength,
				lineLengthTitle,
				fmt.Sprintf("Line is %d characters long (limit %d).", n, limit),
				i+1,
				i+1,
				lineLengthSuggestion,
			))
		}
	}
	return vios
}
