package check

import "strings"

const (
	trailingWSTitle      = "No trailing whitespace at end of line"
	trailingWSMessage    = "Trailing whitespace found."
	trailingWSSuggestion = "Remove the whitespace at the end of the line."
)

// FixTrailingWhitespace strips trailing spaces and tabs from every line,
// emitting one violation per changed line. Line terminators are preserved
// exactly; only horizontal whitespace before the terminator is removed. The
// corrected text is returned only when at least one line changed.
func FixTrailingWhitespace(code string) ([]Violation, string, bool) {
	var vios []Violation
	var fixed strings.Builder
	changed := false

	for i, line := range splitLines(code) {
		body, term := splitTerminator(line)
		trimmed := strings.TrimRight(body, " \t")
		if trimmed != body {
			changed = true
			vios = append(vios, newViolation(
				RuleNoTrailingWS,
				trailingWSTitle,
				trailingWSMessage,
				i+1,
				i+1,
				trailingWSSuggestion,
			))
		}
		fixed.WriteString(trimmed)
		fixed.WriteString(term)
	}

	if !changed {
		return nil, "", false
	}
	return vios, fixed.String(), true
}
