package check

import (
	"strings"
	"testing"
)

func TestImportBlock(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		wantStart int
		wantEnd   int
	}{
		{
			name:      "no imports",
			code:      "x = 1\ny = 2\n",
			wantStart: 0,
			wantEnd:   0,
		},
		{
			name:      "empty input",
			code:      "",
			wantStart: 0,
			wantEnd:   0,
		},
		{
			name:      "imports at top",
			code:      "import os\nimport sys\nx = 1\n",
			wantStart: 0,
			wantEnd:   2,
		},
		{
			name:      "shebang and comments skipped",
			code:      "#!/usr/bin/env python\n# setup\nimport os\nx = 1\n",
			wantStart: 2,
			wantEnd:   3,
		},
		{
			name:      "blank and comment lines inside block",
			code:      "import os\n\n# group two\nimport sys\nx = 1\n",
			wantStart: 0,
			wantEnd:   4,
		},
		{
			name:      "trailing blank not part of block",
			code:      "import sys\nimport os\n\nx = 1\n",
			wantStart: 0,
			wantEnd:   2,
		},
		{
			name:      "mid-file imports ignored",
			code:      "x = 1\nimport os\n",
			wantStart: 0,
			wantEnd:   0,
		},
		{
			name:      "comments only",
			code:      "# a\n# b\n",
			wantStart: 0,
			wantEnd:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := importBlock(splitLines(tt.code))
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("importBlock() = (%d, %d), want (%d, %d)", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestImportSortKey(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"import os\n", "os"},
		{"from collections import deque\n", "collections"},
		{"  import sys", "sys"},
		{"import", "import"},
		{"from", "from"},
		{"x = 1", "x = 1"},
	}

	for _, tt := range tests {
		if got := importSortKey(tt.line); got != tt.want {
			t.Errorf("importSortKey(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestCheckImportAlphabetical(t *testing.T) {
	t.Run("no imports means no violations and no fix", func(t *testing.T) {
		vios, fixed, ok := CheckImportAlphabetical("x = 1\ny = 2\n")
		if len(vios) != 0 {
			t.Errorf("violations = %d, want 0", len(vios))
		}
		if ok || fixed != "" {
			t.Errorf("fix = (%q, %v), want none", fixed, ok)
		}
	})

	t.Run("sorted block passes", func(t *testing.T) {
		vios, _, ok := CheckImportAlphabetical("import os\nimport sys\nx = 1\n")
		if len(vios) != 0 {
			t.Errorf("violations = %d, want 0", len(vios))
		}
		if ok {
			t.Error("sorted block should not produce a fix")
		}
	})

	t.Run("out of order block is fixed", func(t *testing.T) {
		code := "import sys\nimport os\n\nx = 1\n"
		vios, fixed, ok := CheckImportAlphabetical(code)
		if len(vios) != 1 {
			t.Fatalf("violations = %d, want 1", len(vios))
		}
		v := vios[0]
		if v.RuleID != RuleImportAlpha {
			t.Errorf("RuleID = %q, want %q", v.RuleID, RuleImportAlpha)
		}
		if v.StartLine != 1 || v.EndLine != 2 {
			t.Errorf("range = %d-%d, want 1-2", v.StartLine, v.EndLine)
		}
		if !ok {
			t.Fatal("expected a fix")
		}
		want := "import os\nimport sys\n\nx = 1\n"
		if fixed != want {
			t.Errorf("fixed = %q, want %q", fixed, want)
		}
	})

	t.Run("blank and comment lines keep their positions", func(t *testing.T) {
		code := "import sys\n\n# tools\nimport os\nx = 1\n"
		_, fixed, ok := CheckImportAlphabetical(code)
		if !ok {
			t.Fatal("expected a fix")
		}
		want := "import os\n\n# tools\nimport sys\nx = 1\n"
		if fixed != want {
			t.Errorf("fixed = %q, want %q", fixed, want)
		}
	})

	t.Run("from imports sort by module path", func(t *testing.T) {
		code := "from zoo import lion\nfrom abc import ABC\nimport os\n"
		vios, fixed, ok := CheckImportAlphabetical(code)
		if len(vios) != 1 {
			t.Fatalf("violations = %d, want 1", len(vios))
		}
		if !ok {
			t.Fatal("expected a fix")
		}
		want := "from abc import ABC\nimport os\nfrom zoo import lion\n"
		if fixed != want {
			t.Errorf("fixed = %q, want %q", fixed, want)
		}
	})

	t.Run("fix is idempotent", func(t *testing.T) {
		code := "import sys\nimport os\nimport abc\nx = 1\n"
		_, fixed, ok := CheckImportAlphabetical(code)
		if !ok {
			t.Fatal("expected a fix")
		}
		vios, _, again := CheckImportAlphabetical(fixed)
		if len(vios) != 0 || again {
			t.Errorf("re-check of fixed text = (%d violations, fix=%v), want clean", len(vios), again)
		}
	})

	t.Run("stable for equal keys", func(t *testing.T) {
		// Both lines share the key "os"; their relative order must survive.
		code := "import sys\nfrom os import path\nimport os\n"
		_, fixed, ok := CheckImportAlphabetical(code)
		if !ok {
			t.Fatal("expected a fix")
		}
		osPath := strings.Index(fixed, "from os import path")
		osPlain := strings.Index(fixed, "import os\n")
		sys := strings.Index(fixed, "import sys")
		if !(osPath < osPlain && osPlain < sys) {
			t.Errorf("order not stable: %q", fixed)
		}
	})

	t.Run("missing final newline preserved", func(t *testing.T) {
		code := "import sys\nimport os"
		_, fixed, ok := CheckImportAlphabetical(code)
		if !ok {
			t.Fatal("expected a fix")
		}
		want := "import os\nimport sys"
		if fixed != want {
			t.Errorf("fixed = %q, want %q", fixed, want)
		}
	})
}
