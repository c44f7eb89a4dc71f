package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"

	"github.com/rulekit/rulecheck/internal/check"
	"github.com/rulekit/rulecheck/internal/history"
	"github.com/rulekit/rulecheck/internal/logger"
	"github.com/rulekit/rulecheck/internal/rules"
	"github.com/rulekit/rulecheck/internal/search"
)

// Notes attached to check_code reports at the tool boundary. The checker
// itself stays silent about scope so each caller can describe its own.
const (
	notesPythonOnly    = "Other languages are not checked; the current build supports Python."
	notesDeterministic = "Deterministic checkers only; rules that need semantic analysis are not applied."
)

// toolbox bundles the agent's tools with the function schemas advertised to
// the model. Dispatch is by function name.
type toolbox struct {
	byName map[string]tools.Tool
	specs  []llms.Tool
}

func newToolbox(store rules.Store, index search.Searcher, lineLength int, hist *history.Store) *toolbox {
	tb := &toolbox{byName: make(map[string]tools.Tool)}
	tb.register(&listRulesTool{store: store}, map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	})
	tb.register(&addRuleTool{store: store}, map[string]any{
		"type": "object",
		"properties": map[string]any{
			"language": map[string]any{
				"type":        "string",
				"description": "Language the rule applies to, e.g. python.",
			},
			"title": map[string]any{
				"type":        "string",
				"description": "Short rule title.",
			},
			"description": map[string]any{
				"type":        "string",
				"description": "What the rule requires and why.",
			},
			"auto_fix": map[string]any{
				"type":        "boolean",
				"description": "Whether violations of this rule can be fixed automatically.",
			},
		},
		"required": []string{"title", "description"},
	})
	tb.register(&rebuildIndexTool{store: store, index: index}, map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	})
	tb.register(&searchRulesTool{index: index}, map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Free text to match against rule titles and descriptions.",
			},
			"k": map[string]any{
				"type":        "integer",
				"description": "How many rules to return, between 1 and 10.",
			},
		},
		"required": []string{"query"},
	})
	tb.register(&checkCodeTool{lineLength: lineLength, hist: hist}, map[string]any{
		"type": "object",
		"properties": map[string]any{
			"language": map[string]any{
				"type":        "string",
				"description": "Language of the code, e.g. python.",
			},
			"code": map[string]any{
				"type":        "string",
				"description": "Source code to check.",
			},
			"auto_fix": map[string]any{
				"type":        "boolean",
				"description": "Apply automatic fixes where possible. Defaults to true.",
			},
			"include_diff": map[string]any{
				"type":        "boolean",
				"description": "Include a unified diff of the fixes. Defaults to true.",
			},
		},
		"required": []string{"code"},
	})
	return tb
}

func (tb *toolbox) register(t tools.Tool, parameters map[string]any) {
	tb.byName[t.Name()] = t
	tb.specs = append(tb.specs, llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  parameters,
		},
	})
}

// listRulesTool renders the whole catalog as one bullet line per rule so the
// model can quote ids and titles verbatim.
type listRulesTool struct {
	store rules.Store
}

func (t *listRulesTool) Name() string { return "list_rules" }

func (t *listRulesTool) Description() string {
	return "List every registered team rule with its id, language, title, and description. Takes no input."
}

func (t *listRulesTool) Call(ctx context.Context, input string) (string, error) {
	list, err := t.store.List()
	if err != nil {
		return "", fmt.Errorf("listing rules: %w", err)
	}
	if len(list) == 0 {
		return "No rules are registered yet.", nil
	}
	var b strings.Builder
	for i, r := range list {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- [%s] (%s) %s: %s", r.ID, r.Language, r.Title, r.Description)
	}
	return b.String(), nil
}

type addRuleInput struct {
	Language    string `json:"language"`
	Title       string `json:"title"`
	Description string `json:"description"`
	AutoFix     bool   `json:"auto_fix"`
}

// addRuleTool registers a new rule in the catalog. The index is not touched;
// the model is told to call rebuild_rules_index afterwards when search
// should see the rule.
type addRuleTool struct {
	store rules.Store
}

func (t *addRuleTool) Name() string { return "add_rule" }

func (t *addRuleTool) Description() string {
	return "Register a new team rule. Input is JSON with title, description, and optionally language (default python) and auto_fix (default false). Call rebuild_rules_index afterwards so search can find the rule."
}

func (t *addRuleTool) Call(ctx context.Context, input string) (string, error) {
	var in addRuleInput
	if err := json.Unmarshal([]byte(input), &in); err != nil {
		return "", fmt.Errorf("parsing add_rule input: %w", err)
	}
	if strings.TrimSpace(in.Title) == "" {
		return "", fmt.Errorf("add_rule requires a title")
	}
	if strings.TrimSpace(in.Description) == "" {
		return "", fmt.Errorf("add_rule requires a description")
	}
	lang := strings.ToLower(strings.TrimSpace(in.Language))
	if lang == "" {
		lang = "python"
	}
	rule := rules.Rule{
		ID:          rules.NewRuleID(rules.IDPrefix(lang), in.Title),
		Language:    lang,
		Title:       in.Title,
		Description: in.Description,
		AutoFix:     in.AutoFix,
	}
	if err := t.store.Add(rule); err != nil {
		return "", fmt.Errorf("adding rule: %w", err)
	}
	out, err := json.Marshal(map[string]any{"added": true, "rule": rule})
	if err != nil {
		return "", fmt.Errorf("encoding add_rule result: %w", err)
	}
	return string(out), nil
}

// rebuildIndexTool re-reads the catalog and rebuilds the search index from
// scratch.
type rebuildIndexTool struct {
	store rules.Store
	index search.Searcher
}

func (t *rebuildIndexTool) Name() string { return "rebuild_rules_index" }

func (t *rebuildIndexTool) Description() string {
	return "Rebuild the rule search index from the current catalog. Takes no input. Returns how many rules were indexed."
}

func (t *rebuildIndexTool) Call(ctx context.Context, input string) (string, error) {
	list, err := t.store.List()
	if err != nil {
		return "", fmt.Errorf("listing rules: %w", err)
	}
	n := t.index.Rebuild(list)
	out, err := json.Marshal(map[string]int{"indexed_rules": n})
	if err != nil {
		return "", fmt.Errorf("encoding rebuild result: %w", err)
	}
	return string(out), nil
}

type searchRulesInput struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

// searchRulesTool queries the rule index. k is clamped by the index itself.
type searchRulesTool struct {
	index search.Searcher
}

func (t *searchRulesTool) Name() string { return "search_rules" }

func (t *searchRulesTool) Description() string {
	return "Search the team rules by meaning. Input is JSON with query and optionally k (how many hits, default 5, max 10). Returns the best matching rules with scores."
}

func (t *searchRulesTool) Call(ctx context.Context, input string) (string, error) {
	var in searchRulesInput
	if err := json.Unmarshal([]byte(input), &in); err != nil {
		return "", fmt.Errorf("parsing search_rules input: %w", err)
	}
	if strings.TrimSpace(in.Query) == "" {
		return "", fmt.Errorf("search_rules requires a query")
	}
	hits := t.index.Search(in.Query, in.K)
	if hits == nil {
		hits = []search.Match{}
	}
	out, err := json.Marshal(map[string]any{"hits": hits})
	if err != nil {
		return "", fmt.Errorf("encoding search result: %w", err)
	}
	return string(out), nil
}

type checkCodeInput struct {
	Language    string `json:"language"`
	Code        string `json:"code"`
	AutoFix     *bool  `json:"auto_fix"`
	IncludeDiff *bool  `json:"include_diff"`
}

// checkCodeTool runs the deterministic checkers and returns the report as
// JSON. Only Python is supported; other languages get a passing report that
// says so instead of an error, so the model can relay the limitation.
type checkCodeTool struct {
	lineLength int
	hist       *history.Store
}

func (t *checkCodeTool) Name() string { return "check_code" }

func (t *checkCodeTool) Description() string {
	return "Check source code against the team rules and optionally fix it. Input is JSON with code and optionally language (default python), auto_fix (default true), and include_diff (default true). Returns a JSON report with violations, fixed code, and a diff."
}

func (t *checkCodeTool) Call(ctx context.Context, input string) (string, error) {
	var in checkCodeInput
	if err := json.Unmarshal([]byte(input), &in); err != nil {
		return "", fmt.Errorf("parsing check_code input: %w", err)
	}
	lang := strings.ToLower(strings.TrimSpace(in.Language))
	if lang == "" {
		lang = "python"
	}
	if lang != "python" {
		rep := check.Report{
			OK:         true,
			Summary:    "MVP supports python only.",
			Violations: []check.Violation{},
			Notes:      notesPythonOnly,
		}
		return marshalReport(rep)
	}
	opts := check.Options{
		AutoFix:     true,
		IncludeDiff: true,
		LineLength:  t.lineLength,
	}
	if in.AutoFix != nil {
		opts.AutoFix = *in.AutoFix
	}
	if in.IncludeDiff != nil {
		opts.IncludeDiff = *in.IncludeDiff
	}
	rep := check.Run(in.Code, opts)
	rep.Notes = notesDeterministic
	if rep.Violations == nil {
		rep.Violations = []check.Violation{}
	}
	if t.hist != nil {
		rec := history.FromReport(sessionIDFromContext(ctx), lang, history.SourceAgent, rep)
		if err := t.hist.Record(ctx, rec); err != nil {
			logger.Default().WithPrefix("AGENT").Warn("Recording check failed: %v", err)
		}
	}
	return marshalReport(rep)
}

func marshalReport(rep check.Report) (string, error) {
	out, err := json.Marshal(rep)
	if err != nil {
		return "", fmt.Errorf("encoding check report: %w", err)
	}
	return string(out), nil
}
