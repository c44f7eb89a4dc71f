package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/rulekit/rulecheck/internal/check"
	"github.com/rulekit/rulecheck/internal/runner"
)

// TextReporter generates the plain text report the CLI prints by default.
type TextReporter struct{}

func (r *TextReporter) Format() string { return "text" }

func (r *TextReporter) Generate(result *runner.Result) (string, error) {
	var sb strings.Builder
	_ = r.Write(result, &sb)
	return sb.String(), nil
}

func (r *TextReporter) Write(result *runner.Result, w io.Writer) error {
	for i := range result.Files {
		file := &result.Files[i]
		if file.Err != "" {
			fmt.Fprintf(w, "%s: error: %s\n", file.Path, file.Err)
			continue
		}
		if file.Report == nil {
			continue
		}
		rep := file.Report
		if rep.OK {
			fmt.Fprintf(w, "%s: ok\n", file.Path)
			continue
		}

		fmt.Fprintf(w, "%s: %s\n", file.Path, rep.Summary)
		for _, v := range rep.Violations {
			fmt.Fprintf(w, "  %s[%s] %s: %s\n", lineRange(v), v.Severity, v.RuleID, v.Message)
			if v.Suggestion != "" {
				fmt.Fprintf(w, "      suggestion: %s\n", v.Suggestion)
			}
		}
		if rep.Notes != "" {
			fmt.Fprintf(w, "  note: %s\n", rep.Notes)
		}
		if rep.UnifiedDiff != "" {
			fmt.Fprintln(w)
			fmt.Fprint(w, rep.UnifiedDiff)
			if !strings.HasSuffix(rep.UnifiedDiff, "\n") {
				fmt.Fprintln(w)
			}
		}
	}

	fmt.Fprintln(w, result.Summary)
	return nil
}

// lineRange formats the violation location, or nothing when the violation
// applies to the whole input.
func lineRange(v check.Violation) string {
	switch {
	case v.StartLine == 0:
		return ""
	case v.StartLine == v.EndLine:
		return fmt.Sprintf("line %d: ", v.StartLine)
	default:
		return fmt.Sprintf("lines %d-%d: ", v.StartLine, v.EndLine)
	}
}
