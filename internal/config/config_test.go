package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Agent.Provider != "openai" {
		t.Errorf("Agent.Provider = %v, want openai", cfg.Agent.Provider)
	}
	if cfg.Agent.Model != "gpt-4.1-mini" {
		t.Errorf("Agent.Model = %v, want gpt-4.1-mini", cfg.Agent.Model)
	}
	if cfg.Agent.Temperature != 0 {
		t.Errorf("Agent.Temperature = %v, want 0", cfg.Agent.Temperature)
	}
	if cfg.Agent.MaxIterations != 8 {
		t.Errorf("Agent.MaxIterations = %v, want 8", cfg.Agent.MaxIterations)
	}
	if cfg.Agent.MaxExecutionTime != 25*time.Second {
		t.Errorf("Agent.MaxExecutionTime = %v, want 25s", cfg.Agent.MaxExecutionTime)
	}

	if cfg.Check.LineLength != 88 {
		t.Errorf("Check.LineLength = %v, want 88", cfg.Check.LineLength)
	}
	if !cfg.Check.AutoFix {
		t.Error("Check.AutoFix = false, want true")
	}
	if !cfg.Check.IncludeDiff {
		t.Error("Check.IncludeDiff = false, want true")
	}

	if cfg.Rules.Backend != "file" {
		t.Errorf("Rules.Backend = %v, want file", cfg.Rules.Backend)
	}
	if cfg.Rules.Path != "rules/rules.json" {
		t.Errorf("Rules.Path = %v, want rules/rules.json", cfg.Rules.Path)
	}
	if cfg.Rules.SQLitePath != "rules/rules.db" {
		t.Errorf("Rules.SQLitePath = %v, want rules/rules.db", cfg.Rules.SQLitePath)
	}

	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 8000 {
		t.Errorf("Server = %v:%v, want 127.0.0.1:8000", cfg.Server.Host, cfg.Server.Port)
	}

	if cfg.Sessions.Backend != "file" {
		t.Errorf("Sessions.Backend = %v, want file", cfg.Sessions.Backend)
	}
	if cfg.Sessions.Dir != "chat_histories" {
		t.Errorf("Sessions.Dir = %v, want chat_histories", cfg.Sessions.Dir)
	}

	if !cfg.History.Enabled {
		t.Error("History.Enabled = false, want true")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %v, want info", cfg.Logging.Level)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "invalid provider",
			modify: func(c *Config) {
				c.Agent.Provider = "anthropic"
			},
			wantErr: true,
			errMsg:  "agent.provider",
		},
		{
			name: "missing model",
			modify: func(c *Config) {
				c.Agent.Model = ""
			},
			wantErr: true,
			errMsg:  "agent.model",
		},
		{
			name: "openai without api key is fine at load time",
			modify: func(c *Config) {
				c.Agent.Provider = "openai"
				c.Agent.APIKey = ""
			},
			wantErr: false,
		},
		{
			name: "zero max iterations",
			modify: func(c *Config) {
				c.Agent.MaxIterations = 0
			},
			wantErr: true,
			errMsg:  "agent.max_iterations",
		},
		{
			name: "zero line length",
			modify: func(c *Config) {
				c.Check.LineLength = 0
			},
			wantErr: true,
			errMsg:  "check.line_length",
		},
		{
			name: "invalid rules backend",
			modify: func(c *Config) {
				c.Rules.Backend = "postgres"
			},
			wantErr: true,
			errMsg:  "rules.backend",
		},
		{
			name: "missing rules path",
			modify: func(c *Config) {
				c.Rules.Path = ""
			},
			wantErr: true,
			errMsg:  "rules.path",
		},
		{
			name: "sqlite backend without sqlite path",
			modify: func(c *Config) {
				c.Rules.Backend = "sqlite"
				c.Rules.SQLitePath = ""
			},
			wantErr: true,
			errMsg:  "rules.sqlite_path",
		},
		{
			name: "invalid port",
			modify: func(c *Config) {
				c.Server.Port = 0
			},
			wantErr: true,
			errMsg:  "server.port",
		},
		{
			name: "invalid sessions backend",
			modify: func(c *Config) {
				c.Sessions.Backend = "redis"
			},
			wantErr: true,
			errMsg:  "sessions.backend",
		},
		{
			name: "badger backend without badger path",
			modify: func(c *Config) {
				c.Sessions.Backend = "badger"
				c.Sessions.BadgerPath = ""
			},
			wantErr: true,
			errMsg:  "sessions.badger_path",
		},
		{
			name: "history enabled without path",
			modify: func(c *Config) {
				c.History.Enabled = true
				c.History.Path = ""
			},
			wantErr: true,
			errMsg:  "history.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()

			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if tt.wantErr && tt.errMsg != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("Validate() error = %v, want error containing %q", err, tt.errMsg)
				}
			}
		})
	}
}

func TestLoaderDefaults(t *testing.T) {
	loader := NewLoader()

	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Agent.Provider != "openai" {
		t.Errorf("Agent.Provider = %v, want openai", cfg.Agent.Provider)
	}
}

func TestLoaderEnvOverride(t *testing.T) {
	// Viper with AutomaticEnv binds RULECHECK_AGENT_MODEL to agent.model
	_ = os.Setenv("RULECHECK_AGENT_MODEL", "gpt-4o-mini")
	_ = os.Setenv("RULECHECK_SERVER_PORT", "9000")
	defer func() {
		_ = os.Unsetenv("RULECHECK_AGENT_MODEL")
		_ = os.Unsetenv("RULECHECK_SERVER_PORT")
	}()

	loader := NewLoader()
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Agent.Model != "gpt-4o-mini" {
		t.Errorf("Agent.Model = %v, want gpt-4o-mini", cfg.Agent.Model)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %v, want 9000", cfg.Server.Port)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rulecheck.yaml")

	content := `
check:
  line_length: 100
  auto_fix: false
rules:
  backend: sqlite
  sqlite_path: /tmp/rules.db
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Check.LineLength != 100 {
		t.Errorf("Check.LineLength = %v, want 100", cfg.Check.LineLength)
	}
	if cfg.Check.AutoFix {
		t.Error("Check.AutoFix = true, want false from file")
	}
	if cfg.Rules.Backend != "sqlite" {
		t.Errorf("Rules.Backend = %v, want sqlite", cfg.Rules.Backend)
	}
	if cfg.Rules.SQLitePath != "/tmp/rules.db" {
		t.Errorf("Rules.SQLitePath = %v, want /tmp/rules.db", cfg.Rules.SQLitePath)
	}

	// Values the file does not touch keep their defaults.
	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %v, want default 8000", cfg.Server.Port)
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{
		Field:   "test.field",
		Message: "test message",
	}

	want := "config validation error: test.field: test message"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}
