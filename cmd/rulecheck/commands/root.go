// Package commands contains all CLI commands for rulecheck.
//
// This package uses the Cobra library for CLI management.
// Each command is defined in its own file and registered in init().
package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rulekit/rulecheck/internal/config"
	"github.com/rulekit/rulecheck/internal/logger"
)

// ErrViolationsFound signals a completed check that found violations.
// main maps it to exit code 1 without printing anything extra, since the
// report already told the user what is wrong.
var ErrViolationsFound = errors.New("violations found")

var (
	// cfgFile holds the path to the config file (from --config flag)
	cfgFile string

	// verbose enables detailed output
	verbose bool

	// quiet suppresses all output except errors
	quiet bool

	// appConfig is loaded once in PersistentPreRunE and shared by all
	// commands
	appConfig *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rulecheck",
	Short: "Team coding rule checker",
	Long: `Rulecheck keeps your team's coding rules and checks Python code against them.

It runs deterministic checkers (import order, trailing whitespace, wildcard
imports, line length), fixes what it can, and shows the diff. An optional
LLM-backed assistant answers questions about the rules and runs the same
checkers through tool calls.

Examples:
  # Check files
  rulecheck check app.py util.py

  # Check staged changes before committing
  rulecheck check --staged

  # Check code from stdin
  cat app.py | rulecheck check -

  # Start the HTTP API
  rulecheck serve

  # Talk to the assistant
  rulecheck chat

  # Show current configuration
  rulecheck config show`,

	// SilenceUsage prevents printing usage on errors
	// We want clean error messages, not the full help text
	SilenceUsage: true,

	// SilenceErrors lets us handle errors ourselves
	SilenceErrors: true,

	// PersistentPreRunE runs before any command (including subcommands)
	// Use this for initialization that all commands need
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Persistent flags are available to this command and all subcommands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is .rulecheck.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
}

// initializeConfig loads configuration and sets the log level. Every RunE
// can rely on appConfig being set afterwards.
func initializeConfig() error {
	loader := config.NewLoader()
	if cfgFile != "" {
		// Use config file from the flag
		loader.SetConfigFile(cfgFile)
	}

	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	appConfig = cfg

	level := logger.ParseLevel(cfg.Logging.Level)
	if verbose && !quiet {
		level = logger.LevelDebug
	}
	if quiet {
		level = logger.LevelError
	}
	logger.SetLevel(level)

	if isVerbose() {
		if used := loader.ConfigFileUsed(); used != "" {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", used)
		}
	}

	return nil
}

// isVerbose returns true if verbose mode is enabled
func isVerbose() bool {
	return verbose && !quiet
}

// isQuiet returns true if quiet mode is enabled
func isQuiet() bool {
	return quiet
}
