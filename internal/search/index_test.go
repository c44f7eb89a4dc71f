package search

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/rulekit/rulecheck/internal/rules"
)

func TestEmbedShape(t *testing.T) {
	e := NewEmbedder()

	vec := e.Embed("sort imports alphabetically")
	if len(vec) != EmbeddingDim {
		t.Fatalf("Embed returned %d dims, want %d", len(vec), EmbeddingDim)
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(norm)-1.0) > 1e-5 {
		t.Errorf("Embedding norm = %f, want 1.0", math.Sqrt(norm))
	}
}

func TestEmbedEmptyText(t *testing.T) {
	e := NewEmbedder()

	vec := e.Embed("")
	if len(vec) != EmbeddingDim {
		t.Fatalf("Embed returned %d dims, want %d", len(vec), EmbeddingDim)
	}
	for i, v := range vec {
		if v != 0 {
			t.Fatalf("Embedding of empty text has non-zero component at %d", i)
		}
	}
}

func TestEmbedDeterministic(t *testing.T) {
	e := NewEmbedder()

	a := e.Embed("no wildcard imports in python")
	b := e.Embed("no wildcard imports in python")
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Embedding not deterministic at component %d", i)
		}
	}
}

func TestSimilarityOrdersRelatedText(t *testing.T) {
	e := NewEmbedder()

	query := e.Embed("alphabetical import sorting")
	related := e.Embed("imports must be sorted alphabetically")
	unrelated := e.Embed("database connection pooling timeout")

	simRelated := cosineSimilarity(query, related)
	simUnrelated := cosineSimilarity(query, unrelated)

	if simRelated <= simUnrelated {
		t.Errorf("related similarity %f <= unrelated similarity %f", simRelated, simUnrelated)
	}
}

func TestDocumentText(t *testing.T) {
	r := rules.Rule{
		ID:          "PY-IMPORT-ALPHA",
		Language:    "python",
		Title:       "Imports must be alphabetically sorted",
		Description: "Sort the import block.",
	}

	got := DocumentText(r)
	want := "[PY-IMPORT-ALPHA] (python) Imports must be alphabetically sorted\nSort the import block."
	if got != want {
		t.Errorf("DocumentText = %q, want %q", got, want)
	}

	r.Language = ""
	if got := DocumentText(r); !strings.Contains(got, "(any)") {
		t.Errorf("DocumentText without language = %q, want (any) marker", got)
	}
}

func catalogRules() []rules.Rule {
	return []rules.Rule{
		{ID: "PY-IMPORT-ALPHA", Language: "python", Title: "Imports must be alphabetically sorted", Description: "The import block must be sorted alphabetically by module name."},
		{ID: "PY-NO-WILDCARD-IMPORT", Language: "python", Title: "No wildcard imports", Description: "from module import * hides which names a file uses."},
		{ID: "PY-LINE-LENGTH-88", Language: "python", Title: "Line length limit", Description: "Lines must stay within 88 characters."},
	}
}

func TestIndexSearch(t *testing.T) {
	ix := NewIndex()
	if n := ix.Rebuild(catalogRules()); n != 3 {
		t.Fatalf("Rebuild = %d, want 3", n)
	}

	matches := ix.Search("wildcard import star", 5)
	if len(matches) == 0 {
		t.Fatal("Search returned no matches")
	}
	if matches[0].RuleID != "PY-NO-WILDCARD-IMPORT" {
		t.Errorf("Top match = %s, want PY-NO-WILDCARD-IMPORT", matches[0].RuleID)
	}
	if matches[0].Language != "python" {
		t.Errorf("Top match language = %q, want %q", matches[0].Language, "python")
	}
	if !strings.Contains(matches[0].Content, "[PY-NO-WILDCARD-IMPORT]") {
		t.Errorf("Top match content = %q, want rule id marker", matches[0].Content)
	}

	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Errorf("Matches not in descending score order at %d", i)
		}
	}
}

func TestIndexRebuildReplaces(t *testing.T) {
	ix := NewIndex()
	ix.Upsert(rules.Rule{ID: "PY-OLD-0001", Language: "python", Title: "Old rule", Description: "obsolete guidance"})

	ix.Rebuild(catalogRules())

	for _, m := range ix.Search("obsolete guidance old rule", MaxK) {
		if m.RuleID == "PY-OLD-0001" {
			t.Error("Rebuild kept an entry that should have been dropped")
		}
	}
	if ix.Size() != 3 {
		t.Errorf("Size = %d, want 3", ix.Size())
	}
}

func TestIndexUpsertAndRemove(t *testing.T) {
	ix := NewIndex()
	ix.Upsert(rules.Rule{ID: "PY-X-0001", Language: "python", Title: "Naming", Description: "snake_case everywhere"})

	if ix.Size() != 1 {
		t.Fatalf("Size = %d, want 1", ix.Size())
	}

	// Upsert with the same id replaces, not duplicates.
	ix.Upsert(rules.Rule{ID: "PY-X-0001", Language: "python", Title: "Naming", Description: "snake_case for functions"})
	if ix.Size() != 1 {
		t.Errorf("Size after re-upsert = %d, want 1", ix.Size())
	}

	ix.Remove("PY-X-0001")
	if ix.Size() != 0 {
		t.Errorf("Size after remove = %d, want 0", ix.Size())
	}
}

func TestSearchClampsK(t *testing.T) {
	ix := NewIndex()

	var rs []rules.Rule
	for i := 0; i < 15; i++ {
		rs = append(rs, rules.Rule{
			ID:          fmt.Sprintf("PY-RULE-%04d", i),
			Language:    "python",
			Title:       "Formatting rule",
			Description: "formatting guidance for python code",
		})
	}
	ix.Rebuild(rs)

	if got := ix.Search("python formatting", 50); len(got) > MaxK {
		t.Errorf("Search with oversized k returned %d matches, want <= %d", len(got), MaxK)
	}
	if got := ix.Search("python formatting", 0); len(got) != DefaultK {
		t.Errorf("Search with k=0 returned %d matches, want %d", len(got), DefaultK)
	}
}
