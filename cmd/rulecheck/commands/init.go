package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rulekit/rulecheck/internal/rules"
)

const configFileName = ".rulecheck.yaml"

// starterConfig is the config file written by `rulecheck init`. Values
// match the built-in defaults.
const starterConfig = `# rulecheck configuration
# Every value shown is the default; edit what you need.
# Environment variables override the file: RULECHECK_AGENT_MODEL, etc.

agent:
  provider: openai # openai, ollama
  model: gpt-4.1-mini
  # base_url: http://localhost:11434
  # api_key: prefer RULECHECK_AGENT_API_KEY or OPENAI_API_KEY
  temperature: 0
  max_iterations: 8
  max_execution_time: 25s

check:
  line_length: 88
  auto_fix: true
  include_diff: true

rules:
  backend: file # file, sqlite
  path: rules/rules.json
  sqlite_path: rules/rules.db

server:
  host: 127.0.0.1
  port: 8000

sessions:
  backend: file # file, badger
  dir: chat_histories
  badger_path: .rulecheck/sessions
  max_sessions: 50

history:
  enabled: true
  path: .rulecheck/history.db

logging:
  level: info # debug, info, warn, error
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize rulecheck in this directory",
	Long: `Initialize rulecheck in the current directory.

Writes a starter .rulecheck.yaml and seeds the rule catalog with the
built-in defaults, so check and chat work out of the box.

Examples:
  # Initialize with defaults
  rulecheck init

  # Overwrite an existing config file
  rulecheck init --force

  # Config file only, no seed rules
  rulecheck init --no-seed`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().Bool("force", false, "Overwrite existing configuration")
	initCmd.Flags().Bool("no-seed", false, "Do not seed the rule catalog")
}

func runInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	wrote, err := writeStarterConfig(configFileName, force)
	if err != nil {
		return err
	}
	if wrote {
		fmt.Printf("Wrote %s\n", configFileName)
	} else if !isQuiet() {
		fmt.Printf("%s already exists (use --force to overwrite)\n", configFileName)
	}

	if noSeed, _ := cmd.Flags().GetBool("no-seed"); !noSeed {
		n, err := seedCatalog()
		if err != nil {
			return err
		}
		if n > 0 {
			fmt.Printf("Seeded %d default rule(s)\n", n)
		} else if !isQuiet() {
			fmt.Println("Rule catalog already has rules, not seeding")
		}
	}

	return nil
}

// writeStarterConfig writes the starter config unless path already exists.
func writeStarterConfig(path string, force bool) (bool, error) {
	if _, err := os.Stat(path); err == nil && !force {
		return false, nil
	}
	if err := os.WriteFile(path, []byte(starterConfig), 0600); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}

// seedCatalog loads the default rules into an empty catalog. A catalog
// that already has rules is left alone.
func seedCatalog() (int, error) {
	store, err := openRuleStore()
	if err != nil {
		return 0, err
	}
	defer store.Close()

	existing, err := store.List()
	if err != nil {
		return 0, fmt.Errorf("loading catalog: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	doc, err := rules.SeedDocument()
	if err != nil {
		return 0, fmt.Errorf("loading seed rules: %w", err)
	}
	if err := store.Save(doc); err != nil {
		return 0, fmt.Errorf("seeding catalog: %w", err)
	}
	return len(doc.Rules), nil
}
