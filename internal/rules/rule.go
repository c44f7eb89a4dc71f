package rules

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
)

// Rule is one entry of the team rule catalog. The catalog is documentation
// the agent reads and searches; the deterministic checkers do not consult it
// and emit their own fixed identifiers.
type Rule struct {
	ID          string `json:"id" yaml:"id"`
	Language    string `json:"language" yaml:"language"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	AutoFix     bool   `json:"auto_fix" yaml:"auto_fix"`
}

// Document is the full stored catalog: team metadata plus the rule list.
type Document struct {
	TeamName string   `json:"team_name" yaml:"team_name"`
	Members  []string `json:"members" yaml:"members"`
	Rules    []Rule   `json:"rules" yaml:"rules"`
}

// EmptyDocument is what a store without persisted data loads as.
func EmptyDocument() *Document {
	return &Document{
		TeamName: "unknown",
		Members:  []string{},
		Rules:    []Rule{},
	}
}

// Patch holds the updatable fields of a rule. Nil fields are left unchanged.
type Patch struct {
	Language    *string
	Title       *string
	Description *string
	AutoFix     *bool
}

// Apply merges the patch into a rule. The rule id is never changed.
func (p Patch) Apply(r *Rule) {
	if p.Language != nil {
		r.Language = strings.ToLower(*p.Language)
	}
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.AutoFix != nil {
		r.AutoFix = *p.AutoFix
	}
}

var slugRe = regexp.MustCompile(`[^A-Za-z0-9]+`)

// NewRuleID derives a stable identifier from a rule title: an upper-case slug
// truncated to 20 characters plus a four digit FNV-1a suffix. The same title
// produces the same id on every platform and version, unlike seeded runtime
// hashes. Collisions are possible at the four digit granularity; Add rejects
// them as duplicates.
func NewRuleID(prefix, title string) string {
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToUpper(strings.TrimSpace(title)), "-"), "-")
	if slug == "" {
		slug = "RULE"
	}
	if len(slug) > 20 {
		slug = slug[:20]
	}

	h := fnv.New32a()
	h.Write([]byte(title))
	return fmt.Sprintf("%s-%s-%04d", prefix, slug, h.Sum32()%10000)
}

// IDPrefix returns the id prefix used for a language: "PY" for python rules,
// "RULE" for everything else.
func IDPrefix(language string) string {
	if strings.ToLower(language) == "python" {
		return "PY"
	}
	return "RULE"
}
