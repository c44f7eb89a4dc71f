package commands

import (
	"encoding/json"
	"runtime"
	"strings"
	"testing"
)

func TestGetVersionInfo(t *testing.T) {
	origVersion := Version
	Version = "test-version"
	defer func() { Version = origVersion }()

	info := GetVersionInfo()

	if info.Version != "test-version" {
		t.Errorf("GetVersionInfo().Version = %v, want %v", info.Version, "test-version")
	}

	if info.GoVersion != runtime.Version() {
		t.Errorf("GetVersionInfo().GoVersion = %v, want %v", info.GoVersion, runtime.Version())
	}

	if info.OS != runtime.GOOS {
		t.Errorf("GetVersionInfo().OS = %v, want %v", info.OS, runtime.GOOS)
	}

	if info.Arch != runtime.GOARCH {
		t.Errorf("GetVersionInfo().Arch = %v, want %v", info.Arch, runtime.GOARCH)
	}
}

func TestVersionInfoJSON(t *testing.T) {
	info := VersionInfo{
		Version:   "1.0.0",
		Commit:    "abc123",
		BuildDate: "2024-01-15",
		GoVersion: "go1.24.0",
		OS:        "linux",
		Arch:      "amd64",
	}

	data, err := json.Marshal(info)
	if err != nil {
		t.Fatalf("Failed to marshal VersionInfo: %v", err)
	}

	var decoded VersionInfo
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal VersionInfo: %v", err)
	}

	if decoded.Version != info.Version {
		t.Errorf("Version mismatch: got %v, want %v", decoded.Version, info.Version)
	}

	jsonStr := string(data)
	expectedFields := []string{"version", "commit", "build_date", "go_version", "os", "arch"}
	for _, field := range expectedFields {
		if !strings.Contains(jsonStr, field) {
			t.Errorf("JSON missing field: %s", field)
		}
	}
}

func TestVersionCommandArgs(t *testing.T) {
	// Args validation runs before PersistentPreRunE, so no config is needed
	rootCmd.SetArgs([]string{"version", "unexpected-arg"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err == nil {
		t.Error("Expected error for unexpected argument, got nil")
	}
}
