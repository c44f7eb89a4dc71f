package search

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rulekit/rulecheck/internal/rules"
)

// Search result limits.
const (
	DefaultK = 5
	MaxK     = 10
)

// Match is one search hit.
type Match struct {
	RuleID   string  `json:"rule_id"`
	Language string  `json:"language"`
	Content  string  `json:"content"`
	Score    float64 `json:"score"`
}

// Searcher is the query side of the rule index. The agent and the HTTP
// handlers only depend on this, not on the index implementation.
type Searcher interface {
	// Search returns up to k matches ordered by descending score. k is
	// clamped to [1, MaxK]; zero and negative mean DefaultK.
	Search(query string, k int) []Match

	// Rebuild drops the index and re-adds every rule. Returns the number
	// of indexed rules.
	Rebuild(rs []rules.Rule) int
}

// Index is an in-memory rule index safe for concurrent use.
type Index struct {
	embedder *Embedder

	mu      sync.RWMutex
	entries map[string]*indexEntry
}

type indexEntry struct {
	rule      rules.Rule
	content   string
	embedding []float32
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		embedder: NewEmbedder(),
		entries:  make(map[string]*indexEntry),
	}
}

// Compile-time interface check.
var _ Searcher = (*Index)(nil)

// DocumentText renders a rule as the text that gets embedded and returned in
// match content.
func DocumentText(r rules.Rule) string {
	lang := r.Language
	if lang == "" {
		lang = "any"
	}
	return strings.TrimSpace(fmt.Sprintf("[%s] (%s) %s\n%s", r.ID, lang, r.Title, r.Description))
}

// Upsert adds a rule to the index, replacing any previous entry for its id.
func (ix *Index) Upsert(r rules.Rule) {
	content := DocumentText(r)
	entry := &indexEntry{
		rule:      r,
		content:   content,
		embedding: ix.embedder.Embed(content),
	}

	ix.mu.Lock()
	ix.entries[r.ID] = entry
	ix.mu.Unlock()
}

// Remove drops a rule from the index.
func (ix *Index) Remove(id string) {
	ix.mu.Lock()
	delete(ix.entries, id)
	ix.mu.Unlock()
}

// Rebuild replaces the whole index with the given rules.
func (ix *Index) Rebuild(rs []rules.Rule) int {
	entries := make(map[string]*indexEntry, len(rs))
	for _, r := range rs {
		content := DocumentText(r)
		entries[r.ID] = &indexEntry{
			rule:      r,
			content:   content,
			embedding: ix.embedder.Embed(content),
		}
	}

	ix.mu.Lock()
	ix.entries = entries
	ix.mu.Unlock()

	return len(entries)
}

// Search returns the rules most similar to the query.
func (ix *Index) Search(query string, k int) []Match {
	if k <= 0 {
		k = DefaultK
	}
	if k > MaxK {
		k = MaxK
	}

	queryEmbedding := ix.embedder.Embed(query)

	ix.mu.RLock()
	matches := make([]Match, 0, len(ix.entries))
	for _, entry := range ix.entries {
		score := cosineSimilarity(queryEmbedding, entry.embedding)
		if score <= 0 {
			continue
		}
		lang := entry.rule.Language
		if lang == "" {
			lang = "any"
		}
		matches = append(matches, Match{
			RuleID:   entry.rule.ID,
			Language: lang,
			Content:  entry.content,
			Score:    score,
		})
	}
	ix.mu.RUnlock()

	// Tie-break on rule id so equal scores order deterministically.
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].RuleID < matches[j].RuleID
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// Size returns the number of indexed rules.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}
