package runner

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/rulekit/rulecheck/internal/check"
	"github.com/rulekit/rulecheck/internal/history"
)

type fakeRecorder struct {
	mu   sync.Mutex
	recs []*history.CheckRecord
}

func (f *fakeRecorder) Record(_ context.Context, rec *history.CheckRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs = append(f.recs, rec)
	return nil
}

func TestRunSingleFile(t *testing.T) {
	r := New(Config{Check: check.Options{AutoFix: true}}, nil)

	res, err := r.Run(context.Background(), []Input{
		{Path: "snippet.py", Code: "import sys\nimport os\n"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.OK {
		t.Error("expected OK=false for unsorted imports")
	}
	if res.TotalFiles != 1 {
		t.Errorf("TotalFiles = %d, want 1", res.TotalFiles)
	}
	if res.TotalViolations != 1 {
		t.Errorf("TotalViolations = %d, want 1", res.TotalViolations)
	}
	if res.FixedFiles != 1 {
		t.Errorf("FixedFiles = %d, want 1", res.FixedFiles)
	}
	if len(res.Files) != 1 || res.Files[0].Report == nil {
		t.Fatalf("expected one file result with a report, got %+v", res.Files)
	}
	if got := res.Files[0].Report.FixedCode; got != "import os\nimport sys\n" {
		t.Errorf("FixedCode = %q", got)
	}
	if !strings.Contains(res.Summary, "1 violation") {
		t.Errorf("Summary = %q", res.Summary)
	}
}

func TestRunCleanFiles(t *testing.T) {
	r := New(Config{Check: check.DefaultOptions()}, nil)

	res, err := r.Run(context.Background(), []Input{
		{Path: "a.py", Code: "import os\nimport sys\n"},
		{Path: "b.py", Code: "x = 1\n"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !res.OK {
		t.Error("expected OK=true for clean files")
	}
	if res.TotalViolations != 0 {
		t.Errorf("TotalViolations = %d, want 0", res.TotalViolations)
	}
	if !strings.Contains(res.Summary, "no violations") {
		t.Errorf("Summary = %q", res.Summary)
	}
}

func TestRunPreservesInputOrder(t *testing.T) {
	r := New(Config{Check: check.DefaultOptions(), Concurrency: 4}, nil)

	inputs := []Input{
		{Path: "c.py", Code: "x = 1\n"},
		{Path: "a.py", Code: "from os import *\n"},
		{Path: "b.py", Code: "y = 2   \n"},
	}
	res, err := r.Run(context.Background(), inputs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Files) != len(inputs) {
		t.Fatalf("got %d file results, want %d", len(res.Files), len(inputs))
	}
	for i, in := range inputs {
		if res.Files[i].Path != in.Path {
			t.Errorf("Files[%d].Path = %q, want %q", i, res.Files[i].Path, in.Path)
		}
	}
	if res.Files[1].Report == nil || len(res.Files[1].Report.Violations) != 1 {
		t.Errorf("expected the wildcard violation on a.py, got %+v", res.Files[1].Report)
	}
}

func TestRunEmptyInput(t *testing.T) {
	r := New(Config{}, nil)

	res, err := r.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.OK {
		t.Error("expected OK=true for empty input")
	}
	if res.Summary != "No files to check." {
		t.Errorf("Summary = %q", res.Summary)
	}
}

func TestRunRecordsHistory(t *testing.T) {
	rec := &fakeRecorder{}
	r := New(Config{Check: check.DefaultOptions(), Source: history.SourceCLI}, rec)

	_, err := r.Run(context.Background(), []Input{
		{Path: "a.py", Code: "import sys\nimport os\n"},
		{Path: "b.py", Code: "x = 1\n"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(rec.recs) != 2 {
		t.Fatalf("recorded %d checks, want 2", len(rec.recs))
	}
	for _, got := range rec.recs {
		if got.Source != history.SourceCLI {
			t.Errorf("Source = %q, want %q", got.Source, history.SourceCLI)
		}
		if got.Language != "python" {
			t.Errorf("Language = %q, want python", got.Language)
		}
	}
	var total int
	for _, got := range rec.recs {
		total += got.ViolationCount
	}
	if total != 1 {
		t.Errorf("recorded %d violations across files, want 1", total)
	}
}

func TestRunAutoFixDisabled(t *testing.T) {
	r := New(Config{Check: check.Options{AutoFix: false}}, nil)

	res, err := r.Run(context.Background(), []Input{
		{Path: "a.py", Code: "import sys\nimport os\n"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.FixedFiles != 0 {
		t.Errorf("FixedFiles = %d, want 0", res.FixedFiles)
	}
	if res.TotalViolations != 1 {
		t.Errorf("TotalViolations = %d, want 1", res.TotalViolations)
	}
}

func TestNewDefaults(t *testing.T) {
	r := New(Config{}, nil)
	if r.cfg.Concurrency != DefaultConcurrency {
		t.Errorf("Concurrency = %d, want %d", r.cfg.Concurrency, DefaultConcurrency)
	}
	if r.cfg.Source != history.SourceCLI {
		t.Errorf("Source = %q, want %q", r.cfg.Source, history.SourceCLI)
	}
}
