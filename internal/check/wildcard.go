package check

import "regexp"

const (
	wildcardTitle      = "Wildcard imports are forbidden"
	wildcardMessage    = "Wildcard import (`from ... import *`) found."
	wildcardSuggestion = "Import only the symbols that are needed."
)

// wildcardImportRe matches a wildcard import occupying a whole line.
var wildcardImportRe = regexp.MustCompile(`^\s*from\s+.+\s+import\s+\*\s*$`)

// CheckNoWildcardImport flags every line in the input that is a wildcard
// import, wherever it appears. Detection only: wildcard imports can hide name
// collisions, so no automatic fix is offered.
func CheckNoWildcardImport(code string) []Violation {
	var vios []Violation
	for i, line := range splitLines(code) {
		body, _ := splitTerminator(line)
		if wildcardImportRe.MatchString(body) {
			vios = append(vios, newViolation(
				RuleNoWildcard,
				wildcardTitle,
				wildcardMessage,
				i+1,
				i+1,
				wildcardSuggestion,
			))
		}
	}
	return vios
}
