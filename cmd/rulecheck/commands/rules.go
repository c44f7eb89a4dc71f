package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rulekit/rulecheck/internal/config"
	"github.com/rulekit/rulecheck/internal/rules"
	"github.com/rulekit/rulecheck/internal/search"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage the team rule catalog",
	Long:  `List, add, and search the team's coding rules.`,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all rules",
	Long: `List every rule in the catalog.

Examples:
  # Human-readable list
  rulecheck rules list

  # Full catalog as JSON
  rulecheck rules list --json`,
	Args: cobra.NoArgs,
	RunE: runRulesList,
}

var rulesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a rule to the catalog",
	Long: `Add a rule to the catalog.

The rule id is derived from the language and title, so adding the same
title twice is rejected as a duplicate.

Examples:
  # Add a python rule
  rulecheck rules add --title "Use snake_case names" --description "Functions and variables use snake_case."

  # Mark the rule as automatically fixable
  rulecheck rules add --title "No tabs" --description "Indent with four spaces." --auto-fix`,
	Args: cobra.NoArgs,
	RunE: runRulesAdd,
}

var rulesSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find rules similar to a query",
	Long: `Find the rules most similar to a free-text query.

Examples:
  # Search by topic
  rulecheck rules search import ordering

  # More results
  rulecheck rules search naming -k 10`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRulesSearch,
}

var rulesReindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the rule search index",
	Long: `Rebuild the search index from the rule catalog and report how many
rules were indexed.

Long-running processes (serve, chat, mcp-serve) index the catalog at
startup and after add_rule; this command verifies that the catalog
indexes cleanly and shows what search will see.`,
	Args: cobra.NoArgs,
	RunE: runRulesReindex,
}

var rulesListJSON bool

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesAddCmd)
	rulesCmd.AddCommand(rulesSearchCmd)
	rulesCmd.AddCommand(rulesReindexCmd)

	rulesListCmd.Flags().BoolVar(&rulesListJSON, "json", false, "output as JSON")

	rulesAddCmd.Flags().String("title", "", "Short rule title")
	rulesAddCmd.Flags().String("description", "", "What the rule requires")
	rulesAddCmd.Flags().String("language", "python", "Language the rule applies to")
	rulesAddCmd.Flags().Bool("auto-fix", false, "Mark the rule as automatically fixable")
	_ = rulesAddCmd.MarkFlagRequired("title")
	_ = rulesAddCmd.MarkFlagRequired("description")

	rulesSearchCmd.Flags().IntP("top", "k", search.DefaultK, "How many matches to return")
}

func runRulesList(cmd *cobra.Command, args []string) error {
	store, err := openRuleStore()
	if err != nil {
		return err
	}
	defer store.Close()

	doc, err := store.Load()
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	if rulesListJSON {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling catalog: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(doc.Rules) == 0 {
		fmt.Println("No rules are registered yet.")
		return nil
	}

	fmt.Printf("📋 Rules for team %s (%d)\n", doc.TeamName, len(doc.Rules))
	fmt.Println(repeatChar('=', 50))
	for _, r := range doc.Rules {
		marker := "  "
		if r.AutoFix {
			marker = "🔧"
		}
		fmt.Printf("%s [%s] (%s) %s\n", marker, r.ID, r.Language, r.Title)
		fmt.Printf("   %s\n", r.Description)
	}
	return nil
}

func runRulesAdd(cmd *cobra.Command, args []string) error {
	title, _ := cmd.Flags().GetString("title")
	description, _ := cmd.Flags().GetString("description")
	language, _ := cmd.Flags().GetString("language")
	autoFix, _ := cmd.Flags().GetBool("auto-fix")

	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" {
		return fmt.Errorf("title must not be blank")
	}
	if description == "" {
		return fmt.Errorf("description must not be blank")
	}

	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		language = "python"
	}

	store, err := openRuleStore()
	if err != nil {
		return err
	}
	defer store.Close()

	rule := rules.Rule{
		ID:          rules.NewRuleID(rules.IDPrefix(language), title),
		Language:    language,
		Title:       title,
		Description: description,
		AutoFix:     autoFix,
	}
	if err := store.Add(rule); err != nil {
		return fmt.Errorf("adding rule: %w", err)
	}

	if !isQuiet() {
		fmt.Printf("Added rule %s\n", rule.ID)
	}
	return nil
}

func runRulesSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	k, _ := cmd.Flags().GetInt("top")

	store, err := openRuleStore()
	if err != nil {
		return err
	}
	defer store.Close()

	list, err := store.List()
	if err != nil {
		return fmt.Errorf("loading rules: %w", err)
	}

	index := search.NewIndex()
	index.Rebuild(list)

	matches := index.Search(query, k)
	if len(matches) == 0 {
		fmt.Printf("No rules match %q.\n", query)
		return nil
	}

	for _, m := range matches {
		fmt.Printf("%.3f [%s] (%s)\n", m.Score, m.RuleID, m.Language)
		fmt.Printf("      %s\n", truncate(m.Content, 100))
	}
	return nil
}

func runRulesReindex(cmd *cobra.Command, args []string) error {
	store, err := openRuleStore()
	if err != nil {
		return err
	}
	defer store.Close()

	list, err := store.List()
	if err != nil {
		return fmt.Errorf("loading rules: %w", err)
	}

	n := search.NewIndex().Rebuild(list)
	fmt.Printf("Indexed %d rule(s)\n", n)
	return nil
}

// ruleStorePath picks the backend-specific storage path.
func ruleStorePath(cfg config.RulesConfig) string {
	if cfg.Backend == rules.BackendSQLite {
		return cfg.SQLitePath
	}
	return cfg.Path
}

// openRuleStore opens the configured rule catalog backend.
func openRuleStore() (rules.Store, error) {
	store, err := rules.Open(appConfig.Rules.Backend, ruleStorePath(appConfig.Rules))
	if err != nil {
		return nil, fmt.Errorf("opening rule catalog: %w", err)
	}
	return store, nil
}
