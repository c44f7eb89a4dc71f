// Package config handles all configuration management for rulecheck.
//
// Configuration is loaded from multiple sources in order of precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables (RULECHECK_*)
// 3. Configuration file (.rulecheck.yaml)
// 4. Default values (lowest priority)
package config

import (
	"time"
)

// Config is the main configuration structure for rulecheck.
type Config struct {
	// Agent configures the LLM-backed assistant
	Agent AgentConfig `mapstructure:"agent" yaml:"agent" json:"agent"`

	// Check configures the deterministic checkers
	Check CheckConfig `mapstructure:"check" yaml:"check" json:"check"`

	// Rules configures the rule catalog storage
	Rules RulesConfig `mapstructure:"rules" yaml:"rules" json:"rules"`

	// Server configures the HTTP API
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// Sessions configures conversation history storage
	Sessions SessionsConfig `mapstructure:"sessions" yaml:"sessions" json:"sessions"`

	// History configures check run recording
	History HistoryConfig `mapstructure:"history" yaml:"history" json:"history"`

	// Logging configures log output
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging" json:"logging"`
}

// AgentConfig configures the LLM provider and the agent loop.
type AgentConfig struct {
	// Provider is the LLM provider: "openai", "ollama"
	Provider string `mapstructure:"provider" yaml:"provider" json:"provider"`

	// Model is the model to use (e.g. "gpt-4.1-mini", "llama3.1")
	Model string `mapstructure:"model" yaml:"model" json:"model"`

	// BaseURL is the provider API base URL. Empty means the provider's own
	// default (http://localhost:11434 for ollama)
	BaseURL string `mapstructure:"base_url" yaml:"base_url" json:"base_url"`

	// APIKey is the provider API key (for OpenAI).
	// This should be set via environment variable, not config file
	APIKey string `mapstructure:"api_key" yaml:"api_key" json:"api_key"`

	// Temperature controls randomness (0.0 = deterministic)
	Temperature float64 `mapstructure:"temperature" yaml:"temperature" json:"temperature"`

	// MaxIterations caps the tool-call loop per request
	MaxIterations int `mapstructure:"max_iterations" yaml:"max_iterations" json:"max_iterations"`

	// MaxExecutionTime caps wall time per request
	MaxExecutionTime time.Duration `mapstructure:"max_execution_time" yaml:"max_execution_time" json:"max_execution_time"`
}

// CheckConfig configures the deterministic checkers.
type CheckConfig struct {
	// LineLength is the maximum allowed line length
	LineLength int `mapstructure:"line_length" yaml:"line_length" json:"line_length"`

	// AutoFix applies fixes when a checker can produce them
	AutoFix bool `mapstructure:"auto_fix" yaml:"auto_fix" json:"auto_fix"`

	// IncludeDiff includes a unified diff when a fix changed the code
	IncludeDiff bool `mapstructure:"include_diff" yaml:"include_diff" json:"include_diff"`
}

// RulesConfig configures the rule catalog storage.
type RulesConfig struct {
	// Backend is the storage backend: "file", "sqlite"
	Backend string `mapstructure:"backend" yaml:"backend" json:"backend"`

	// Path is the JSON catalog path for the file backend
	Path string `mapstructure:"path" yaml:"path" json:"path"`

	// SQLitePath is the database path for the sqlite backend
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path" json:"sqlite_path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// Host is the listen address
	Host string `mapstructure:"host" yaml:"host" json:"host"`

	// Port is the listen port
	Port int `mapstructure:"port" yaml:"port" json:"port"`
}

// SessionsConfig configures conversation history storage.
type SessionsConfig struct {
	// Backend is the storage backend: "file", "badger"
	Backend string `mapstructure:"backend" yaml:"backend" json:"backend"`

	// Dir is the per-session JSON directory for the file backend
	Dir string `mapstructure:"dir" yaml:"dir" json:"dir"`

	// BadgerPath is the database directory for the badger backend
	BadgerPath string `mapstructure:"badger_path" yaml:"badger_path" json:"badger_path"`

	// MaxSessions caps stored sessions for the file backend (0 = unlimited)
	MaxSessions int `mapstructure:"max_sessions" yaml:"max_sessions" json:"max_sessions"`

	// TTL expires idle sessions (0 = never)
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl" json:"ttl"`

	// GCInterval is the badger value log GC interval (0 = disabled)
	GCInterval time.Duration `mapstructure:"gc_interval" yaml:"gc_interval" json:"gc_interval"`
}

// HistoryConfig configures check run recording.
type HistoryConfig struct {
	// Enabled turns check recording on
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// Path is the SQLite database path
	Path string `mapstructure:"path" yaml:"path" json:"path"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error"
	Level string `mapstructure:"level" yaml:"level" json:"level"`
}

// Validate validates the configuration and returns an error if invalid.
// Provider credentials are checked later, when a command actually builds an
// LLM client, so the deterministic commands keep working without them.
func (c *Config) Validate() error {
	validProviders := map[string]bool{"ollama": true, "openai": true}
	if !validProviders[c.Agent.Provider] {
		return &ValidationError{Field: "agent.provider", Message: "invalid provider, must be one of: ollama, openai"}
	}
	if c.Agent.Model == "" {
		return &ValidationError{Field: "agent.model", Message: "model is required"}
	}
	if c.Agent.MaxIterations < 1 {
		return &ValidationError{Field: "agent.max_iterations", Message: "must be at least 1"}
	}

	if c.Check.LineLength < 1 {
		return &ValidationError{Field: "check.line_length", Message: "must be at least 1"}
	}

	switch c.Rules.Backend {
	case "file":
		if c.Rules.Path == "" {
			return &ValidationError{Field: "rules.path", Message: "path is required for the file backend"}
		}
	case "sqlite":
		if c.Rules.SQLitePath == "" {
			return &ValidationError{Field: "rules.sqlite_path", Message: "sqlite_path is required for the sqlite backend"}
		}
	default:
		return &ValidationError{Field: "rules.backend", Message: "invalid backend, must be one of: file, sqlite"}
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return &ValidationError{Field: "server.port", Message: "must be between 1 and 65535"}
	}

	switch c.Sessions.Backend {
	case "file":
		if c.Sessions.Dir == "" {
			return &ValidationError{Field: "sessions.dir", Message: "dir is required for the file backend"}
		}
	case "badger":
		if c.Sessions.BadgerPath == "" {
			return &ValidationError{Field: "sessions.badger_path", Message: "badger_path is required for the badger backend"}
		}
	default:
		return &ValidationError{Field: "sessions.backend", Message: "invalid backend, must be one of: file, badger"}
	}

	if c.History.Enabled && c.History.Path == "" {
		return &ValidationError{Field: "history.path", Message: "path is required when history is enabled"}
	}

	return nil
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "config validation error: " + e.Field + ": " + e.Message
}
