package check

import (
	"slices"
	"sort"
	"strings"
	"unicode"
)

const (
	importAlphaTitle      = "Imports must be in alphabetical order"
	importAlphaMessage    = "Top import block is not in alphabetical order."
	importAlphaSuggestion = "Sort the leading import/from lines by module path in ascending order."
)

// isImportLine reports whether the line is an import statement in one of the
// two recognized forms, "import X" or "from X import Y".
func isImportLine(line string) bool {
	s := strings.TrimLeftFunc(line, unicode.IsSpace)
	return strings.HasPrefix(s, "import ") || strings.HasPrefix(s, "from ")
}

// importBlock locates the top import block: skip a shebang and any leading
// blank or comment-only lines, then consume a run of blank, comment, and
// import-form lines, stopping at the first line that is none of those. The
// returned range is 0-indexed and half-open, ending just after the last
// import-form line so trailing blanks or comments are not reported as part of
// the block. A (0, 0) result means there is nothing to check.
//
// Only the top of the file is scanned. Imports that first appear after other
// statements are never considered; that is a deliberate scope limit.
func importBlock(lines []string) (int, int) {
	i := 0
	n := len(lines)

	for i < n && (isBlank(lines[i]) || isComment(lines[i])) {
		i++
	}

	start := i
	lastImport := -1
	for i < n {
		if isBlank(lines[i]) || isComment(lines[i]) {
			i++
			continue
		}
		if isImportLine(lines[i]) {
			lastImport = i
			i++
			continue
		}
		break
	}

	if lastImport < 0 {
		return 0, 0
	}
	return start, lastImport + 1
}

// importSortKey returns the token import lines are ordered by: the module
// path (second whitespace-separated token) for both import forms, or the
// whole trimmed line when it cannot be split.
func importSortKey(line string) string {
	s := strings.TrimSpace(line)
	if strings.HasPrefix(s, "from ") || strings.HasPrefix(s, "import ") {
		if parts := strings.Fields(s); len(parts) > 1 {
			return parts[1]
		}
	}
	return s
}

// CheckImportAlphabetical verifies that the top import block is sorted by
// module path. When the block is out of order it returns exactly one
// violation covering the block's 1-indexed line range plus the corrected
// text; blank and comment lines inside the block keep their positions and
// only the import lines are reordered. The sort is stable and
// case-sensitive, so lines with equal keys keep their original order.
func CheckImportAlphabetical(code string) ([]Violation, string, bool) {
	lines := splitLines(code)
	start, end := importBlock(lines)
	if start == end {
		return nil, "", false
	}

	var positions []int
	var imports []string
	for i := start; i < end; i++ {
		if isImportLine(lines[i]) {
			positions = append(positions, i)
			imports = append(imports, lines[i])
		}
	}

	type keyedLine struct {
		key  string
		line string
	}
	keyed := make([]keyedLine, len(imports))
	for i, ln := range imports {
		keyed[i] = keyedLine{key: importSortKey(ln), line: ln}
	}
	sort.SliceStable(keyed, func(a, b int) bool {
		return keyed[a].key < keyed[b].key
	})

	sorted := make([]string, len(keyed))
	for i, k := range keyed {
		sorted[i] = k.line
	}
	if slices.Equal(imports, sorted) {
		return nil, "", false
	}

	// Reorder the import bodies but keep each position's own terminator, so
	// the file's terminator layout survives even when the unterminated final
	// line moves.
	fixed := make([]string, len(lines))
	copy(fixed, lines)
	for i, pos := range positions {
		body, _ := splitTerminator(sorted[i])
		_, term := splitTerminator(lines[pos])
		fixed[pos] = body + term
	}

	vio := newViolation(
		RuleImportAlpha,
		importAlphaTitle,
		importAlphaMessage,
		start+1,
		end,
		importAlphaSuggestion,
	)
	return []Violation{vio}, strings.Join(fixed, ""), true
}
