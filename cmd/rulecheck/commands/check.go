package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rulekit/rulecheck/internal/check"
	"github.com/rulekit/rulecheck/internal/git"
	"github.com/rulekit/rulecheck/internal/history"
	"github.com/rulekit/rulecheck/internal/report"
	"github.com/rulekit/rulecheck/internal/runner"
)

var checkCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Check Python code against the team rules",
	Long: `Check Python files against the deterministic rule set.

Violations are reported per file with line ranges and suggestions. Rules
that can fix code do so, and the fixed version ships with a unified diff.

Examples:
  # Check specific files
  rulecheck check app.py util.py

  # Check staged changes (pre-commit)
  rulecheck check --staged

  # Check code from stdin
  cat app.py | rulecheck check -

  # Report only, no fixes
  rulecheck check app.py --fix=false

  # Rewrite files in place with the fixes applied
  rulecheck check --write app.py

  # Output as JSON
  rulecheck check app.py --format json

  # Save a SARIF report
  rulecheck check app.py -o report.sarif`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	// Mode flags
	checkCmd.Flags().Bool("staged", false, "Check python files staged in git")

	// Check flags
	checkCmd.Flags().Bool("fix", true, "Apply automatic fixes")
	checkCmd.Flags().Bool("diff", true, "Include a unified diff when a fix changed the code")
	checkCmd.Flags().Int("line-length", 0, "Maximum line length (0 = from config)")
	checkCmd.Flags().BoolP("write", "w", false, "Rewrite checked files with the fixes applied (stdin prints the fixed code)")

	// Output flags
	checkCmd.Flags().StringP("format", "f", "text", "Output format (text, json, markdown, sarif)")
	checkCmd.Flags().StringP("output", "o", "", "Write report to file")

	// Behavior flags
	checkCmd.Flags().Int("concurrency", 0, "Max concurrent file checks (0=auto)")
	checkCmd.Flags().Bool("no-history", false, "Do not record this run in check history")
}

func runCheck(cmd *cobra.Command, args []string) error {
	if err := validateCheckFlags(cmd, args); err != nil {
		return err
	}

	opts := checkOptions(cmd)
	write, _ := cmd.Flags().GetBool("write")
	if write && !opts.AutoFix {
		return fmt.Errorf("--write needs fixes enabled, drop --fix=false")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	inputs, err := collectInputs(ctx, cmd, args)
	if err != nil {
		return err
	}

	// Recorder stays a nil interface unless a store actually opened
	var rec runner.Recorder
	if noHistory, _ := cmd.Flags().GetBool("no-history"); !noHistory && appConfig.History.Enabled {
		store, err := history.NewStore(history.StoreConfig{Path: historyStorePath()})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: not recording history: %v\n", err)
		} else {
			defer store.Close()
			rec = store
		}
	}

	concurrency, _ := cmd.Flags().GetInt("concurrency")
	r := runner.New(runner.Config{
		Check:       opts,
		Concurrency: concurrency,
		Source:      history.SourceCLI,
	}, rec)

	result, err := r.Run(ctx, inputs)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	if write {
		stdin, err := writeFixes(inputs, result)
		if err != nil {
			return err
		}
		// Stdin mode already printed the fixed source; a report on top
		// of it would corrupt the output stream.
		if stdin {
			if !result.OK {
				return ErrViolationsFound
			}
			return nil
		}
	}

	format, _ := cmd.Flags().GetString("format")
	outputFile, _ := cmd.Flags().GetString("output")
	if outputFile != "" && !cmd.Flags().Changed("format") {
		if detected := DetectFormatFromPath(outputFile); detected != "" {
			format = detected
		}
	}

	reporter, err := report.NewReporter(format)
	if err != nil {
		return err
	}
	output, err := reporter.Generate(result)
	if err != nil {
		return fmt.Errorf("generating report: %w", err)
	}

	if err := WriteOutput(output, outputFile); err != nil {
		return err
	}

	if !result.OK {
		return ErrViolationsFound
	}
	return nil
}

func validateCheckFlags(cmd *cobra.Command, args []string) error {
	staged, _ := cmd.Flags().GetBool("staged")

	if staged && len(args) > 0 {
		return fmt.Errorf("cannot combine --staged with file arguments")
	}
	if write, _ := cmd.Flags().GetBool("write"); write && staged {
		return fmt.Errorf("--write cannot be used with --staged: staged content comes from the index, not the working tree")
	}
	if !staged && len(args) == 0 {
		return fmt.Errorf("must specify files to check, \"-\" for stdin, or --staged")
	}
	if len(args) > 1 {
		for _, a := range args {
			if a == "-" {
				return fmt.Errorf("\"-\" cannot be combined with file arguments")
			}
		}
	}

	format, _ := cmd.Flags().GetString("format")
	validFormats := map[string]bool{"text": true, "json": true, "markdown": true, "sarif": true}
	if !validFormats[format] {
		return fmt.Errorf("invalid format %q, must be: text, json, markdown, or sarif", format)
	}

	return nil
}

// configCheckOptions returns the check defaults from the loaded config.
func configCheckOptions() check.Options {
	return check.Options{
		AutoFix:     appConfig.Check.AutoFix,
		IncludeDiff: appConfig.Check.IncludeDiff,
		LineLength:  appConfig.Check.LineLength,
	}
}

// checkOptions merges config defaults with flag overrides. Only flags the
// user actually set win over the config file.
func checkOptions(cmd *cobra.Command) check.Options {
	opts := configCheckOptions()
	if cmd.Flags().Changed("fix") {
		opts.AutoFix, _ = cmd.Flags().GetBool("fix")
	}
	if cmd.Flags().Changed("diff") {
		opts.IncludeDiff, _ = cmd.Flags().GetBool("diff")
	}
	if n, _ := cmd.Flags().GetInt("line-length"); n > 0 {
		opts.LineLength = n
	}
	return opts
}

// writeFixes applies adopted fixes to the checked inputs, in the gofmt -w
// manner: files are rewritten in place, stdin input prints the fixed source
// (or the unchanged original) to stdout. Reports true when the input was
// stdin. Inputs and result files are index-aligned; the runner preserves
// input order.
func writeFixes(inputs []runner.Input, result *runner.Result) (bool, error) {
	if len(inputs) == 1 && inputs[0].Path == "<stdin>" {
		fixed := inputs[0].Code
		if f := result.Files[0]; f.Err == "" && f.Report != nil && f.Report.FixedCode != "" {
			fixed = f.Report.FixedCode
		}
		fmt.Print(fixed)
		return true, nil
	}

	written := 0
	for i, f := range result.Files {
		if f.Err != "" || f.Report == nil || f.Report.FixedCode == "" {
			continue
		}
		mode := os.FileMode(0644)
		if info, err := os.Stat(inputs[i].Path); err == nil {
			mode = info.Mode().Perm()
		}
		if err := os.WriteFile(inputs[i].Path, []byte(f.Report.FixedCode), mode); err != nil {
			return false, fmt.Errorf("writing fixes to %s: %w", inputs[i].Path, err)
		}
		written++
	}
	if written > 0 && !isQuiet() {
		fmt.Fprintf(os.Stderr, "Fixed %d file(s) in place\n", written)
	}
	return false, nil
}

// collectInputs resolves what to check: explicit paths, "-" for stdin, or
// the staged snapshot from git.
func collectInputs(ctx context.Context, cmd *cobra.Command, args []string) ([]runner.Input, error) {
	if staged, _ := cmd.Flags().GetBool("staged"); staged {
		return stagedInputs(ctx)
	}

	if len(args) == 1 && args[0] == "-" {
		code, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return []runner.Input{{Path: "<stdin>", Code: string(code)}}, nil
	}

	inputs := make([]runner.Input, 0, len(args))
	for _, path := range args {
		code, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		inputs = append(inputs, runner.Input{Path: path, Code: string(code)})
	}
	return inputs, nil
}

// stagedInputs reads the staged copy of every staged python file. In a
// pre-commit hook the staged content is what will be committed and can
// differ from the working tree.
func stagedInputs(ctx context.Context) ([]runner.Input, error) {
	repo, err := git.NewRepo(".")
	if err != nil {
		return nil, err
	}

	paths, err := repo.StagedFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing staged files: %w", err)
	}
	paths = git.PythonFiles(paths)

	inputs := make([]runner.Input, 0, len(paths))
	for _, path := range paths {
		code, err := repo.ReadStaged(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("reading staged %s: %w", path, err)
		}
		inputs = append(inputs, runner.Input{Path: path, Code: code})
	}
	return inputs, nil
}
