// Package check implements the deterministic rule checkers for python
// snippets: import ordering, wildcard imports, trailing whitespace, and line
// length. Every analyzer is a pure function over the input text with no
// shared state and no I/O, so analyzers may run concurrently on independent
// inputs. Checking is line-based; there is no parsing beyond the
// top-of-file import block scan.
package check

import "fmt"

// Options control one pipeline run.
type Options struct {
	// AutoFix adopts the corrected text of fix-producing analyzers, so later
	// analyzers run against already-fixed input.
	AutoFix bool

	// IncludeDiff adds a unified diff to the report when a fix was adopted.
	IncludeDiff bool

	// LineLength overrides the line length limit. Zero means
	// DefaultLineLength.
	LineLength int
}

// DefaultOptions returns the options used by the boundaries when the caller
// does not specify any.
func DefaultOptions() Options {
	return Options{
		AutoFix:     true,
		IncludeDiff: true,
		LineLength:  DefaultLineLength,
	}
}

// Report aggregates one pipeline run. It is the shape shared by the HTTP
// boundary and the tool boundary; OK is true iff no violations were found.
type Report struct {
	OK          bool        `json:"ok"`
	Summary     string      `json:"summary"`
	Violations  []Violation `json:"violations"`
	FixedCode   string      `json:"fixed_code,omitempty"`
	UnifiedDiff string      `json:"unified_diff,omitempty"`
	Notes       string      `json:"notes,omitempty"`
}

// Run executes the analyzers in their canonical order: import ordering,
// trailing whitespace, wildcard imports, line length. Fix-producing analyzers
// come first, and their corrected text is adopted before the remaining
// analyzers run, so detections are reported against the text a fix would
// produce. FixedCode is present only when a fix was adopted; UnifiedDiff only
// when additionally requested and the final text differs from the original.
func Run(code string, opts Options) Report {
	limit := opts.LineLength
	if limit <= 0 {
		limit = DefaultLineLength
	}

	original := code
	current := code
	var violations []Violation
	fixedAny := false

	vios, fixed, ok := CheckImportAlphabetical(current)
	violations = append(violations, vios...)
	if opts.AutoFix && ok {
		current = fixed
		fixedAny = true
	}

	vios, fixed, ok = FixTrailingWhitespace(current)
	violations = append(violations, vios...)
	if opts.AutoFix && ok {
		current = fixed
		fixedAny = true
	}

	violations = append(violations, CheckNoWildcardImport(current)...)
	violations = append(violations, CheckLineLength(current, limit)...)

	report := Report{
		OK:         len(violations) == 0,
		Summary:    summarize(len(violations)),
		Violations: violations,
	}
	if fixedAny {
		report.FixedCode = current
		if opts.IncludeDiff && current != original {
			report.UnifiedDiff = UnifiedDiff(original, current, DiffFromLabel, DiffToLabel)
		}
	}
	return report
}

func summarize(n int) string {
	if n == 0 {
		return "No rule violations."
	}
	return fmt.Sprintf("Found %d rule violation(s).", n)
}
