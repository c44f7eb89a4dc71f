package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rulekit/rulecheck/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and manage rulecheck configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the current configuration, including values from
config file, environment variables, and defaults.

Examples:
  # Show config in YAML format
  rulecheck config show

  # Show config as JSON
  rulecheck config show --json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configShowJSON bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)

	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "output as JSON")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader()

	// Use config file from flag if provided
	if cfgFile != "" {
		loader.SetConfigFile(cfgFile)
	}

	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Mask sensitive values
	maskedCfg := maskSensitiveConfig(cfg)

	// Show config file location
	if !isQuiet() {
		if configFile := loader.ConfigFileUsed(); configFile != "" {
			fmt.Printf("# Config file: %s\n\n", configFile)
		} else {
			fmt.Println("# No config file found, using defaults")
			fmt.Println()
		}
	}

	if configShowJSON {
		return outputConfigJSON(maskedCfg)
	}

	return outputConfigYAML(maskedCfg)
}

// maskSensitiveConfig creates a copy with sensitive values masked
func maskSensitiveConfig(cfg *config.Config) *config.Config {
	masked := *cfg // Shallow copy

	if masked.Agent.APIKey != "" {
		masked.Agent.APIKey = "***REDACTED***"
	}

	return &masked
}

func outputConfigJSON(cfg *config.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func outputConfigYAML(cfg *config.Config) error {
	fmt.Println("agent:")
	fmt.Printf("  provider: %s\n", cfg.Agent.Provider)
	fmt.Printf("  model: %s\n", cfg.Agent.Model)
	if cfg.Agent.BaseURL != "" {
		fmt.Printf("  base_url: %s\n", cfg.Agent.BaseURL)
	}
	if cfg.Agent.APIKey != "" {
		// Already masked by maskSensitiveConfig
		fmt.Printf("  api_key: %s\n", cfg.Agent.APIKey)
	}
	fmt.Printf("  temperature: %.2f\n", cfg.Agent.Temperature)
	fmt.Printf("  max_iterations: %d\n", cfg.Agent.MaxIterations)
	fmt.Printf("  max_execution_time: %s\n", cfg.Agent.MaxExecutionTime)

	fmt.Println("\ncheck:")
	fmt.Printf("  line_length: %d\n", cfg.Check.LineLength)
	fmt.Printf("  auto_fix: %v\n", cfg.Check.AutoFix)
	fmt.Printf("  include_diff: %v\n", cfg.Check.IncludeDiff)

	fmt.Println("\nrules:")
	fmt.Printf("  backend: %s\n", cfg.Rules.Backend)
	fmt.Printf("  path: %s\n", cfg.Rules.Path)
	fmt.Printf("  sqlite_path: %s\n", cfg.Rules.SQLitePath)

	fmt.Println("\nserver:")
	fmt.Printf("  host: %s\n", cfg.Server.Host)
	fmt.Printf("  port: %d\n", cfg.Server.Port)

	fmt.Println("\nsessions:")
	fmt.Printf("  backend: %s\n", cfg.Sessions.Backend)
	fmt.Printf("  dir: %s\n", cfg.Sessions.Dir)
	fmt.Printf("  badger_path: %s\n", cfg.Sessions.BadgerPath)
	fmt.Printf("  max_sessions: %d\n", cfg.Sessions.MaxSessions)

	fmt.Println("\nhistory:")
	fmt.Printf("  enabled: %v\n", cfg.History.Enabled)
	fmt.Printf("  path: %s\n", cfg.History.Path)

	fmt.Println("\nlogging:")
	fmt.Printf("  level: %s\n", cfg.Logging.Level)

	return nil
}
