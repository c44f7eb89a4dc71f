package check

// Severity classifies how serious a violation is.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Rule identifiers emitted by the analyzers. These are fixed constants owned
// by the checker and are independent of the team rule catalog.
const (
	RuleImportAlpha  = "PY-IMPORT-ALPHA"
	RuleNoWildcard   = "PY-NO-WILDCARD-IMPORT"
	RuleNoTrailingWS = "PY-NO-TRAILING-WS"
	RuleLineLength   = "PY-LINE-LENGTH-88"
)

// severities is the single authority for per-rule severities, so the HTTP
// boundary and the tool boundary cannot drift apart.
var severities = map[string]Severity{
	RuleImportAlpha:  SeverityWarning,
	RuleNoTrailingWS: SeverityWarning,
	RuleNoWildcard:   SeverityError,
	RuleLineLength:   SeverityInfo,
}

// SeverityFor returns the severity assigned to a rule identifier. Unknown
// identifiers report as warnings.
func SeverityFor(ruleID string) Severity {
	if s, ok := severities[ruleID]; ok {
		return s
	}
	return SeverityWarning
}

// Violation describes one detected rule violation.
//
// StartLine and EndLine are 1-indexed and inclusive. Zero values mean the
// violation applies to the whole input; when StartLine is set, EndLine is set
// and EndLine >= StartLine. Violations are created per call and never mutated.
type Violation struct {
	RuleID     string   `json:"rule_id"`
	Title      string   `json:"title"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	StartLine  int      `json:"start_line,omitempty"`
	EndLine    int      `json:"end_line,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
}

func newViolation(ruleID, title, message string, start, end int, suggestion string) Violation {
	return Violation{
		RuleID:     ruleID,
		Title:      title,
		Severity:   SeverityFor(ruleID),
		Message:    message,
		StartLine:  start,
		EndLine:    end,
		Suggestion: suggestion,
	}
}
