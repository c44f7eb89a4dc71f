// Package report renders check results for people and machines. Text is what
// the CLI prints by default; json, markdown, and sarif exist for piping into
// other tooling.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/rulekit/rulecheck/internal/runner"
)

// Reporter renders a check run in one output format.
type Reporter interface {
	// Generate returns the rendered report.
	Generate(result *runner.Result) (string, error)

	// Write renders the report to a writer.
	Write(result *runner.Result, w io.Writer) error

	// Format returns the format name.
	Format() string
}

// NewReporter creates a reporter for the given format. An empty format means
// text.
func NewReporter(format string) (Reporter, error) {
	switch format {
	case "text", "":
		return &TextReporter{}, nil
	case "json":
		return &JSONReporter{Indent: true}, nil
	case "markdown", "md":
		return &MarkdownReporter{}, nil
	case "sarif":
		return &SARIFReporter{}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s (available: %s)",
			format, strings.Join(AvailableFormats(), ", "))
	}
}

// AvailableFormats returns the list of supported formats.
func AvailableFormats() []string {
	return []string{"text", "json", "markdown", "sarif"}
}
