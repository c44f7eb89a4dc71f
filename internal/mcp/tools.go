package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/rulekit/rulecheck/internal/check"
	"github.com/rulekit/rulecheck/internal/history"
	"github.com/rulekit/rulecheck/internal/logger"
	"github.com/rulekit/rulecheck/internal/rules"
	"github.com/rulekit/rulecheck/internal/search"
)

// Notes attached to check_code reports at this boundary. Same contract as
// the HTTP /check endpoint.
const (
	notesOnlyPython    = "Only Python is checked in this build."
	notesDeterministic = "Deterministic checkers only."
)

// RegisterRuleTools registers the rulecheck tools. Handlers run in-process
// against the store, the index, and the checker. hist may be nil when
// history recording is disabled.
func RegisterRuleTools(s *Server, store rules.Store, index search.Searcher, checkOpts check.Options, hist *history.Store) {
	s.RegisterTool(&Tool{
		Name:        "check_code",
		Description: "Check source code against the team's deterministic rules and optionally fix it. Returns a JSON report with violations, fixed code, and a unified diff.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"language": map[string]interface{}{
					"type":        "string",
					"description": "Language of the code",
					"default":     "python",
				},
				"code": map[string]interface{}{
					"type":        "string",
					"description": "Source code to check",
				},
				"auto_fix": map[string]interface{}{
					"type":        "boolean",
					"description": "Apply automatic fixes where possible",
					"default":     true,
				},
				"include_diff": map[string]interface{}{
					"type":        "boolean",
					"description": "Include a unified diff of the fixes",
					"default":     true,
				},
			},
			"required": []string{"code"},
		},
	}, handleCheckCode(checkOpts, hist))

	s.RegisterTool(&Tool{
		Name:        "list_rules",
		Description: "List every registered team rule with its id, language, title, and description.",
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
	}, handleListRules(store))

	s.RegisterTool(&Tool{
		Name:        "search_rules",
		Description: "Search the team rules by meaning and return the best matches with scores.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Free text to match against rule titles and descriptions",
				},
				"k": map[string]interface{}{
					"type":        "integer",
					"description": "How many rules to return, between 1 and 10",
					"default":     search.DefaultK,
				},
			},
			"required": []string{"query"},
		},
	}, handleSearchRules(index))
}

func handleCheckCode(defaults check.Options, hist *history.Store) ToolHandler {
	log := logger.Default().WithPrefix("MCP")
	return func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		code, ok := params["code"].(string)
		if !ok || code == "" {
			return nil, fmt.Errorf("code is required")
		}

		lang := "python"
		if v, ok := params["language"].(string); ok && v != "" {
			lang = strings.ToLower(strings.TrimSpace(v))
		}
		if lang != "python" {
			return check.Report{
				OK:         true,
				Summary:    "MVP supports python only.",
				Violations: []check.Violation{},
				Notes:      notesOnlyPython,
			}, nil
		}

		opts := defaults
		if v, ok := params["auto_fix"].(bool); ok {
			opts.AutoFix = v
		}
		if v, ok := params["include_diff"].(bool); ok {
			opts.IncludeDiff = v
		}

		rep := check.Run(code, opts)
		rep.Notes = notesDeterministic
		if rep.Violations == nil {
			rep.Violations = []check.Violation{}
		}

		if hist != nil {
			if err := hist.Record(ctx, history.FromReport("", lang, history.SourceMCP, rep)); err != nil {
				log.Warn("Recording check failed: %v", err)
			}
		}
		return rep, nil
	}
}

func handleListRules(store rules.Store) ToolHandler {
	return func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		list, err := store.List()
		if err != nil {
			return nil, fmt.Errorf("listing rules: %w", err)
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
}

func handleSearchRules(index search.Searcher) ToolHandler {
	return func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		query, ok := params["query"].(string)
		if !ok || strings.TrimSpace(query) == "" {
			return nil, fmt.Errorf("query is required")
		}
		k := 0
		if v, ok := params["k"].(float64); ok {
			k = int(v)
		}
		hits := index.Search(query, k)
		if hits == nil {
			hits = []search.Match{}
		}
		return map[string]interface{}{"hits": hits}, nil
	}
}
