package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/rulekit/rulecheck/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded check runs",
	Long: `Display recorded check runs and aggregate statistics.

Every check run through the CLI, the HTTP API, the agent, or the MCP
server is recorded unless history is disabled in config.

Examples:
  # Recent checks
  rulecheck history

  # Aggregate statistics
  rulecheck history --stats

  # Checks from one conversation
  rulecheck history --session 4f7c1e02-...

  # Checks that violated one rule
  rulecheck history --rule PY-IMPORT-ALPHA`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().Bool("stats", false, "Show aggregate statistics instead of records")
	historyCmd.Flags().Int("limit", 20, "Number of checks to show")
	historyCmd.Flags().String("session", "", "Only checks from this session")
	historyCmd.Flags().String("rule", "", "Only checks that violated this rule")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if !appConfig.History.Enabled {
		return fmt.Errorf("history is disabled in config")
	}

	store, err := history.NewStore(history.StoreConfig{Path: historyStorePath()})
	if err != nil {
		return fmt.Errorf("opening history database: %w", err)
	}
	defer store.Close()

	ctx := context.Background()

	if stats, _ := cmd.Flags().GetBool("stats"); stats {
		return printHistoryStats(ctx, store)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	sessionID, _ := cmd.Flags().GetString("session")
	ruleID, _ := cmd.Flags().GetString("rule")

	records, err := store.List(ctx, history.Query{
		SessionID: sessionID,
		RuleID:    ruleID,
		Limit:     limit,
	})
	if err != nil {
		return fmt.Errorf("listing history: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No checks recorded yet.")
		return nil
	}

	printHistoryHeader(len(records))
	for _, rec := range records {
		printCheckRecord(rec)
	}
	return nil
}

func printHistoryHeader(n int) {
	fmt.Printf("📋 Recent Checks (%d)\n", n)
	fmt.Println(repeatChar('=', 50))
	fmt.Println()
}

func printCheckRecord(rec history.CheckRecord) {
	status := "❌"
	if rec.OK {
		status = "✅"
	}
	fixed := ""
	if rec.Fixed {
		fixed = " 🔧 fixed"
	}

	fmt.Printf("%s #%d %s [%s] %d violation(s)%s\n",
		status, rec.ID, rec.CreatedAt.Format("2006-01-02 15:04"), rec.Source, rec.ViolationCount, fixed)
	if rec.SessionID != "" {
		fmt.Printf("   session: %s\n", rec.SessionID)
	}
	for _, v := range rec.Violations {
		location := ""
		if v.StartLine > 0 {
			location = fmt.Sprintf(" (lines %d-%d)", v.StartLine, v.EndLine)
		}
		fmt.Printf("   %s [%s]%s %s\n", getSeverityEmoji(v.Severity), v.RuleID, location, truncate(v.Message, 70))
	}
	fmt.Println()
}

func printHistoryStats(ctx context.Context, store *history.Store) error {
	stats, err := store.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("computing stats: %w", err)
	}

	if stats.TotalChecks == 0 {
		fmt.Println("No checks recorded yet.")
		return nil
	}

	okRate := float64(stats.OKChecks) / float64(stats.TotalChecks) * 100

	fmt.Printf("📊 Check Statistics\n")
	fmt.Println(repeatChar('=', 50))
	fmt.Println()
	fmt.Printf("   Total Checks:     %d\n", stats.TotalChecks)
	fmt.Printf("   Clean:            %d (%.1f%%)\n", stats.OKChecks, okRate)
	fmt.Printf("   Fixed:            %d\n", stats.FixedChecks)
	fmt.Printf("   Total Violations: %d\n", stats.TotalViolations)
	fmt.Println()

	printSeverityBreakdown(stats)
	printRuleBreakdown(stats)
	return nil
}

func printSeverityBreakdown(stats *history.Stats) {
	if len(stats.BySeverity) == 0 {
		return
	}
	fmt.Printf("🎯 By Severity\n")
	severityOrder := []string{"error", "warning", "info"}
	for _, sev := range severityOrder {
		if count, ok := stats.BySeverity[sev]; ok && count > 0 {
			bar := progressBar(int(count), int(stats.TotalViolations), 20)
			fmt.Printf("   %s %-8s %s %d\n", getSeverityEmoji(sev), sev, bar, count)
		}
	}
	fmt.Println()
}

func printRuleBreakdown(stats *history.Stats) {
	if len(stats.ByRule) == 0 {
		return
	}

	type ruleCount struct {
		id    string
		count int64
	}
	counts := make([]ruleCount, 0, len(stats.ByRule))
	for id, count := range stats.ByRule {
		counts = append(counts, ruleCount{id, count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].id < counts[j].id
	})

	fmt.Printf("🏷️  By Rule\n")
	for _, rc := range counts {
		bar := progressBar(int(rc.count), int(stats.TotalViolations), 20)
		fmt.Printf("   %-24s %s %d\n", rc.id, bar, rc.count)
	}
	fmt.Println()
}

// historyStorePath returns the configured history database path, creating
// the parent directory best effort.
func historyStorePath() string {
	path := appConfig.History.Path
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0750)
	}
	return path
}

func getSeverityEmoji(severity string) string {
	switch severity {
	case "error":
		return "❌"
	case "warning":
		return "⚠️"
	default:
		return "ℹ️"
	}
}

func progressBar(current, total, width int) string {
	if total == 0 {
		return repeatChar('░', width)
	}

	filled := int(float64(current) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}

	return repeatChar('█', filled) + repeatChar('░', width-filled)
}

func repeatChar(c rune, n int) string {
	if n <= 0 {
		return ""
	}
	result := make([]rune, n)
	for i := range result {
		result[i] = c
	}
	return string(result)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
