// Package git shells out to the git CLI to resolve the staged snapshot for
// `rulecheck check --staged`. Checking the staged content rather than the
// working tree matters in a pre-commit hook, where the two can differ.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Repo runs git commands inside one working tree.
type Repo struct {
	path string
}

// NewRepo opens the repository containing path, failing when path is not
// inside a git working tree.
func NewRepo(path string) (*Repo, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	repo := &Repo{path: absPath}
	if _, err := repo.Root(context.Background()); err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}

	return repo, nil
}

// runGit executes a git command and returns its stdout.
func (r *Repo) runGit(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.path

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg != "" {
			return "", fmt.Errorf("git %s: %w: %s", args[0], err, errMsg)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}

	return stdout.String(), nil
}

// Root returns the top-level directory of the working tree.
func (r *Repo) Root(ctx context.Context) (string, error) {
	out, err := r.runGit(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// StagedFiles lists the paths staged for commit. Deleted files are excluded
// since there is nothing left to check.
func (r *Repo) StagedFiles(ctx context.Context) ([]string, error) {
	out, err := r.runGit(ctx, "diff", "--cached", "--name-only", "--diff-filter=ACMR")
	if err != nil {
		return nil, err
	}
	return splitPaths(out), nil
}

// ReadStaged returns the staged content of one file, which is what will be
// committed and may differ from the working tree copy.
func (r *Repo) ReadStaged(ctx context.Context, path string) (string, error) {
	return r.runGit(ctx, "show", ":"+path)
}

// PythonFiles filters paths down to python sources.
func PythonFiles(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if strings.HasSuffix(p, ".py") {
			out = append(out, p)
		}
	}
	return out
}

// splitPaths parses --name-only output into a path list.
func splitPaths(out string) []string {
	var paths []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			paths = append(paths, line)
		}
	}
	return paths
}
