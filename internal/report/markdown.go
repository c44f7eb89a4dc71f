package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/rulekit/rulecheck/internal/check"
	"github.com/rulekit/rulecheck/internal/runner"
)

// MarkdownReporter generates Markdown reports.
type MarkdownReporter struct{}

func (r *MarkdownReporter) Format() string { return "markdown" }

func (r *MarkdownReporter) Generate(result *runner.Result) (string, error) {
	var sb strings.Builder
	_ = r.Write(result, &sb)
	return sb.String(), nil
}

func (r *MarkdownReporter) Write(result *runner.Result, w io.Writer) error {
	fmt.Fprintf(w, "# Rule Check Report\n\n")

	fmt.Fprintf(w, "## Summary\n\n")
	fmt.Fprintf(w, "- **Files Checked:** %d\n", result.TotalFiles)
	fmt.Fprintf(w, "- **Total Violations:** %d\n", result.TotalViolations)
	fmt.Fprintf(w, "- **Files Fixed:** %d\n", result.FixedFiles)
	fmt.Fprintf(w, "- **Duration:** %s\n", result.Duration)
	fmt.Fprintf(w, "\n")

	if result.TotalViolations == 0 {
		fmt.Fprintf(w, "No violations found.\n")
		return nil
	}

	fmt.Fprintf(w, "## Violations\n\n")

	for i := range result.Files {
		file := &result.Files[i]
		if file.Err != "" {
			fmt.Fprintf(w, "### %s\n\n", file.Path)
			fmt.Fprintf(w, "Error: %s\n\n", file.Err)
			continue
		}

		if file.Report == nil || len(file.Report.Violations) == 0 {
			continue
		}

		fmt.Fprintf(w, "### %s\n\n", file.Path)

		for _, v := range file.Report.Violations {
			r.writeViolation(w, v)
		}

		if file.Report.UnifiedDiff != "" {
			fmt.Fprintf(w, "**Suggested Fix:**\n\n```diff\n%s```\n\n", file.Report.UnifiedDiff)
		}
	}

	return nil
}

func (r *MarkdownReporter) writeViolation(w io.Writer, v check.Violation) {
	fmt.Fprintf(w, "#### %s [%s] %s\n\n", severityTag(v.Severity), v.RuleID, v.Title)

	fmt.Fprintf(w, "%s\n\n", v.Message)

	if v.StartLine > 0 {
		fmt.Fprintf(w, "**Location:** Line %d", v.StartLine)
		if v.EndLine > v.StartLine {
			fmt.Fprintf(w, "-%d", v.EndLine)
		}
		fmt.Fprintf(w, "\n\n")
	}

	if v.Suggestion != "" {
		fmt.Fprintf(w, "**Suggestion:** %s\n\n", v.Suggestion)
	}

	fmt.Fprintf(w, "---\n\n")
}

func severityTag(severity check.Severity) string {
	switch severity {
	case check.SeverityError:
		return "[ERROR]"
	case check.SeverityWarning:
		return "[WARNING]"
	default:
		return "[INFO]"
	}
}
