// Package runner fans rule checks out over the worker pool so the CLI can
// address many files in one invocation, and records every outcome to check
// history.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/rulekit/rulecheck/internal/check"
	"github.com/rulekit/rulecheck/internal/history"
	"github.com/rulekit/rulecheck/internal/logger"
	"github.com/rulekit/rulecheck/internal/worker"
)

// DefaultConcurrency bounds the pool when the caller does not choose a size.
const DefaultConcurrency = 5

// Input is one snippet to check. Path is only a label for reporting; the
// runner never touches the filesystem.
type Input struct {
	Path string
	Code string
}

// Recorder persists check outcomes. *history.Store satisfies it. A nil
// Recorder disables recording.
type Recorder interface {
	Record(ctx context.Context, rec *history.CheckRecord) error
}

// Config configures a Runner.
type Config struct {
	Check       check.Options
	Concurrency int
	Source      string // history source tag, e.g. history.SourceCLI
}

// Runner executes the check pipeline across a batch of inputs.
type Runner struct {
	cfg Config
	rec Recorder
	log *logger.Logger
}

// New creates a Runner. Zero-valued Config fields fall back to defaults.
func New(cfg Config, rec Recorder) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Source == "" {
		cfg.Source = history.SourceCLI
	}
	return &Runner{
		cfg: cfg,
		rec: rec,
		log: logger.Default().WithPrefix("RUNNER"),
	}
}

// Result aggregates one batch of checks. Files keeps the input order
// regardless of which worker finished first.
type Result struct {
	OK              bool          `json:"ok"`
	TotalFiles      int           `json:"total_files"`
	TotalViolations int           `json:"total_violations"`
	FixedFiles      int           `json:"fixed_files"`
	Duration        time.Duration `json:"duration"`
	Summary         string        `json:"summary"`
	Files           []FileResult  `json:"files,omitempty"`
}

// FileResult is the outcome for a single input.
type FileResult struct {
	Path   string        `json:"path"`
	Report *check.Report `json:"report,omitempty"`
	Err    string        `json:"error,omitempty"`
}

// Run checks every input and aggregates the outcomes. The pipeline itself is
// pure, so inputs are checked concurrently; results land in input order.
func (r *Runner) Run(ctx context.Context, inputs []Input) (*Result, error) {
	start := time.Now()

	if len(inputs) == 0 {
		return &Result{OK: true, Summary: "No files to check."}, nil
	}

	workers := r.cfg.Concurrency
	if len(inputs) < workers {
		workers = len(inputs)
	}
	pool := worker.NewPool(worker.Config{
		Workers:   workers,
		QueueSize: len(inputs),
	})
	pool.Start()

	files := make([]FileResult, len(inputs))
	slots := make(map[string]int, len(inputs))
	submitted := 0
	for i, in := range inputs {
		id := fmt.Sprintf("check:%d:%s", i, in.Path)
		slots[id] = i
		slot := &files[i]
		code := in.Code
		slot.Path = in.Path
		task := worker.NewFuncTask(id, func(context.Context) error {
			rep := check.Run(code, r.cfg.Check)
			slot.Report = &rep
			return nil
		})
		if err := pool.Submit(task); err != nil {
			r.log.Error("Failed to submit %s: %v", in.Path, err)
			slot.Err = err.Error()
			continue
		}
		submitted++
	}

	if err := r.collect(ctx, pool, submitted, files, slots); err != nil {
		return nil, err
	}
	pool.StopWait()

	result := r.aggregate(files)
	result.Duration = time.Since(start)

	r.record(ctx, result)

	r.log.Info("Check completed: %d files, %d violations in %v",
		result.TotalFiles, result.TotalViolations, result.Duration)

	return result, nil
}

// collect waits for the submitted tasks, honoring cancellation.
func (r *Runner) collect(ctx context.Context, pool *worker.Pool, want int, files []FileResult, slots map[string]int) error {
	for collected := 0; collected < want; {
		select {
		case res := <-pool.Results():
			collected++
			if res.Error != nil {
				if i, ok := slots[res.TaskID]; ok {
					files[i].Err = res.Error.Error()
				}
			}
		case <-ctx.Done():
			r.log.Warn("Check run cancelled: %v", ctx.Err())
			pool.Stop()
			return ctx.Err()
		}
	}
	return nil
}

func (r *Runner) aggregate(files []FileResult) *Result {
	result := &Result{
		OK:         true,
		TotalFiles: len(files),
		Files:      files,
	}
	for i := range files {
		f := &files[i]
		if f.Err != "" {
			result.OK = false
			continue
		}
		if f.Report == nil {
			continue
		}
		result.TotalViolations += len(f.Report.Violations)
		if !f.Report.OK {
			result.OK = false
		}
		if f.Report.FixedCode != "" {
			result.FixedFiles++
		}
	}
	result.Summary = summarize(result)
	return result
}

func summarize(res *Result) string {
	if res.TotalViolations == 0 && res.OK {
		return fmt.Sprintf("Checked %d file(s): no violations.", res.TotalFiles)
	}
	return fmt.Sprintf("Checked %d file(s): %d violation(s).", res.TotalFiles, res.TotalViolations)
}

// record persists each file outcome; failures are logged, never fatal, so a
// broken history database cannot block a check.
func (r *Runner) record(ctx context.Context, result *Result) {
	if r.rec == nil {
		return
	}
	for i := range result.Files {
		f := &result.Files[i]
		if f.Report == nil {
			continue
		}
		rec := history.FromReport("", "python", r.cfg.Source, *f.Report)
		if err := r.rec.Record(ctx, rec); err != nil {
			r.log.Warn("Failed to record check for %s: %v", f.Path, err)
		}
	}
}
