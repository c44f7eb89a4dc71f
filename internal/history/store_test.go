package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rulekit/rulecheck/internal/check"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(StoreConfig{Path: filepath.Join(t.TempDir(), "history.db")})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewStore(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "history.db")

	store, err := NewStore(StoreConfig{Path: dbPath})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestRecordAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := &CheckRecord{
		SessionID:      "s1",
		Language:       "python",
		Source:         SourceCLI,
		OK:             false,
		ViolationCount: 2,
		Fixed:          true,
		Violations: []RecordedViolation{
			{RuleID: "PY-IMPORT-ALPHA", Severity: "warning", Message: "Import block is not alphabetically sorted.", StartLine: 1, EndLine: 2},
			{RuleID: "PY-NO-TRAILING-WS", Severity: "warning", Message: "Line has trailing whitespace.", StartLine: 4, EndLine: 4},
		},
	}

	if err := store.Record(ctx, rec); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if rec.ID == 0 {
		t.Error("Record ID was not set after insert")
	}

	records, err := store.List(ctx, Query{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}

	got := records[0]
	if got.SessionID != "s1" || got.Source != SourceCLI {
		t.Errorf("Record = %s/%s, want s1/cli", got.SessionID, got.Source)
	}
	if got.OK {
		t.Error("Record reported ok despite violations")
	}
	if !got.Fixed {
		t.Error("Fixed flag was lost")
	}
	if len(got.Violations) != 2 {
		t.Fatalf("Expected 2 violations, got %d", len(got.Violations))
	}
	if got.Violations[0].RuleID != "PY-IMPORT-ALPHA" || got.Violations[0].StartLine != 1 {
		t.Errorf("First violation = %+v", got.Violations[0])
	}
}

func TestListFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	records := []*CheckRecord{
		{
			SessionID: "s1", Language: "python", Source: SourceCLI,
			ViolationCount: 1, CreatedAt: time.Now().Add(-2 * time.Hour),
			Violations: []RecordedViolation{{RuleID: "PY-IMPORT-ALPHA", Severity: "warning", Message: "unsorted"}},
		},
		{
			SessionID: "s2", Language: "python", Source: SourceHTTP,
			ViolationCount: 1, CreatedAt: time.Now().Add(-time.Hour),
			Violations: []RecordedViolation{{RuleID: "PY-NO-WILDCARD-IMPORT", Severity: "error", Message: "wildcard"}},
		},
		{
			SessionID: "s1", Language: "python", Source: SourceAgent,
			OK: true, CreatedAt: time.Now(),
		},
	}
	for _, rec := range records {
		if err := store.Record(ctx, rec); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	t.Run("filter by session", func(t *testing.T) {
		got, err := store.List(ctx, Query{SessionID: "s1"})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("Expected 2 records for s1, got %d", len(got))
		}
	})

	t.Run("filter by rule", func(t *testing.T) {
		got, err := store.List(ctx, Query{RuleID: "PY-NO-WILDCARD-IMPORT"})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("Expected 1 record, got %d", len(got))
		}
		if got[0].SessionID != "s2" {
			t.Errorf("Record session = %s, want s2", got[0].SessionID)
		}
	})

	t.Run("newest first", func(t *testing.T) {
		got, err := store.List(ctx, Query{})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("Expected 3 records, got %d", len(got))
		}
		if got[0].Source != SourceAgent {
			t.Errorf("Newest record source = %s, want agent", got[0].Source)
		}
	})

	t.Run("limit", func(t *testing.T) {
		got, err := store.List(ctx, Query{Limit: 1})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("Expected 1 record with limit, got %d", len(got))
		}
	})
}

func TestGetStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	records := []*CheckRecord{
		{
			SessionID: "s1", Language: "python", Source: SourceCLI,
			ViolationCount: 2, Fixed: true,
			Violations: []RecordedViolation{
				{RuleID: "PY-IMPORT-ALPHA", Severity: "warning", Message: "unsorted"},
				{RuleID: "PY-NO-TRAILING-WS", Severity: "warning", Message: "trailing"},
			},
		},
		{
			SessionID: "s2", Language: "python", Source: SourceHTTP,
			ViolationCount: 1,
			Violations: []RecordedViolation{
				{RuleID: "PY-IMPORT-ALPHA", Severity: "warning", Message: "unsorted"},
			},
		},
		{SessionID: "s3", Language: "python", Source: SourceCLI, OK: true},
	}
	for _, rec := range records {
		if err := store.Record(ctx, rec); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	stats, err := store.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}

	if stats.TotalChecks != 3 {
		t.Errorf("TotalChecks = %d, want 3", stats.TotalChecks)
	}
	if stats.OKChecks != 1 {
		t.Errorf("OKChecks = %d, want 1", stats.OKChecks)
	}
	if stats.FixedChecks != 1 {
		t.Errorf("FixedChecks = %d, want 1", stats.FixedChecks)
	}
	if stats.TotalViolations != 3 {
		t.Errorf("TotalViolations = %d, want 3", stats.TotalViolations)
	}
	if stats.ByRule["PY-IMPORT-ALPHA"] != 2 {
		t.Errorf("ByRule[PY-IMPORT-ALPHA] = %d, want 2", stats.ByRule["PY-IMPORT-ALPHA"])
	}
	if stats.BySeverity["warning"] != 3 {
		t.Errorf("BySeverity[warning] = %d, want 3", stats.BySeverity["warning"])
	}
}

func TestGetStatsEmpty(t *testing.T) {
	store := newTestStore(t)

	stats, err := store.GetStats(context.Background())
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.TotalChecks != 0 || stats.TotalViolations != 0 {
		t.Errorf("Empty stats = %+v, want zeros", stats)
	}
}

func TestFromReport(t *testing.T) {
	rep := check.Run("import sys\nimport os\n", check.Options{AutoFix: true, IncludeDiff: true, LineLength: check.DefaultLineLength})

	rec := FromReport("s1", "python", SourceHTTP, rep)

	if rec.OK {
		t.Error("Expected violations to be recorded")
	}
	if rec.ViolationCount != 1 || len(rec.Violations) != 1 {
		t.Fatalf("ViolationCount = %d, Violations = %d, want 1 and 1", rec.ViolationCount, len(rec.Violations))
	}
	if rec.Violations[0].RuleID != check.RuleImportAlpha {
		t.Errorf("RuleID = %s, want %s", rec.Violations[0].RuleID, check.RuleImportAlpha)
	}
	if !rec.Fixed {
		t.Error("Fixed flag not derived from fixed code")
	}
	if rec.Source != SourceHTTP {
		t.Errorf("Source = %s, want http", rec.Source)
	}
}
