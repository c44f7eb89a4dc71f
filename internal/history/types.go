package history

import (
	"time"

	"github.com/rulekit/rulecheck/internal/check"
)

// Sources a check can be recorded from.
const (
	SourceCLI   = "cli"
	SourceHTTP  = "http"
	SourceAgent = "agent"
	SourceMCP   = "mcp"
)

// CheckRecord is one recorded check run.
type CheckRecord struct {
	ID             int64               `json:"id"`
	SessionID      string              `json:"session_id"`
	Language       string              `json:"language"`
	Source         string              `json:"source"`
	OK             bool                `json:"ok"`
	ViolationCount int                 `json:"violation_count"`
	Fixed          bool                `json:"fixed"`
	CreatedAt      time.Time           `json:"created_at"`
	Violations     []RecordedViolation `json:"violations,omitempty"`
}

// RecordedViolation is the persisted slice of a violation: enough to answer
// "which rules fire most" without keeping the checked code around.
type RecordedViolation struct {
	RuleID    string `json:"rule_id"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	StartLine int    `json:"start_line,omitempty"`
	EndLine   int    `json:"end_line,omitempty"`
}

// FromReport builds a record from a finished check run.
func FromReport(sessionID, language, source string, rep check.Report) *CheckRecord {
	rec := &CheckRecord{
		SessionID:      sessionID,
		Language:       language,
		Source:         source,
		OK:             rep.OK,
		ViolationCount: len(rep.Violations),
		Fixed:          rep.FixedCode != "",
	}
	for _, v := range rep.Violations {
		rec.Violations = append(rec.Violations, RecordedViolation{
			RuleID:    v.RuleID,
			Severity:  string(v.Severity),
			Message:   v.Message,
			StartLine: v.StartLine,
			EndLine:   v.EndLine,
		})
	}
	return rec
}

// Query filters List results. Zero values mean no filter.
type Query struct {
	SessionID string
	RuleID    string
	Limit     int
}

// Stats aggregates the recorded checks.
type Stats struct {
	TotalChecks     int64            `json:"total_checks"`
	OKChecks        int64            `json:"ok_checks"`
	FixedChecks     int64            `json:"fixed_checks"`
	TotalViolations int64            `json:"total_violations"`
	ByRule          map[string]int64 `json:"by_rule"`
	BySeverity      map[string]int64 `json:"by_severity"`
}
