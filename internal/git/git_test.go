package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSplitPaths(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: nil},
		{name: "trailing newline", in: "a.py\nb.py\n", want: []string{"a.py", "b.py"}},
		{name: "blank lines", in: "a.py\n\n\nb.py\n", want: []string{"a.py", "b.py"}},
		{name: "crlf", in: "a.py\r\nb.py\r\n", want: []string{"a.py", "b.py"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitPaths(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitPaths(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPythonFiles(t *testing.T) {
	in := []string{"src/app.py", "README.md", "tests/test_app.py", "setup.cfg", "bin/tool"}
	want := []string{"src/app.py", "tests/test_app.py"}

	got := PythonFiles(in)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PythonFiles = %v, want %v", got, want)
	}

	if got := PythonFiles(nil); len(got) != 0 {
		t.Errorf("PythonFiles(nil) = %v, want empty", got)
	}
}

func gitCmd(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

func initTestRepo(t *testing.T) (string, *Repo) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	gitCmd(t, dir, "init")
	gitCmd(t, dir, "config", "user.email", "test@example.com")
	gitCmd(t, dir, "config", "user.name", "Test")

	repo, err := NewRepo(dir)
	if err != nil {
		t.Fatalf("NewRepo: %v", err)
	}
	return dir, repo
}

func TestNewRepoOutsideWorkTree(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	if _, err := NewRepo(t.TempDir()); err == nil {
		t.Fatal("expected error for a directory that is not a git repository")
	}
}

func TestStagedFiles(t *testing.T) {
	dir, repo := initTestRepo(t)
	ctx := context.Background()

	files, err := repo.StagedFiles(ctx)
	if err != nil {
		t.Fatalf("StagedFiles: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected no staged files, got %v", files)
	}

	if err := os.WriteFile(filepath.Join(dir, "app.py"), []byte("import os\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	gitCmd(t, dir, "add", ".")

	files, err = repo.StagedFiles(ctx)
	if err != nil {
		t.Fatalf("StagedFiles: %v", err)
	}
	want := []string{"app.py", "notes.txt"}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("StagedFiles = %v, want %v", files, want)
	}
}

func TestReadStagedReturnsIndexContent(t *testing.T) {
	dir, repo := initTestRepo(t)
	ctx := context.Background()

	path := filepath.Join(dir, "app.py")
	if err := os.WriteFile(path, []byte("import os\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	gitCmd(t, dir, "add", "app.py")

	// Change the working copy after staging; ReadStaged must still see the
	// staged version.
	if err := os.WriteFile(path, []byte("import sys\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := repo.ReadStaged(ctx, "app.py")
	if err != nil {
		t.Fatalf("ReadStaged: %v", err)
	}
	if got != "import os\n" {
		t.Errorf("ReadStaged = %q, want staged content", got)
	}
}
