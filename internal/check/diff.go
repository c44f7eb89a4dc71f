package check

import "github.com/pmezard/go-difflib/difflib"

// Default labels for diffs between the submitted and the corrected snippet.
const (
	DiffFromLabel = "before.py"
	DiffToLabel   = "after.py"
)

// UnifiedDiff renders a unified diff between two texts with three lines of
// context. It returns the empty string when the texts are identical, never an
// empty-but-present diff.
func UnifiedDiff(original, final, fromLabel, toLabel string) string {
	if original == final {
		return ""
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(final),
		FromFile: fromLabel,
		ToFile:   toLabel,
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return text
}
