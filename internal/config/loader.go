package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const configFileName = ".rulecheck.yaml"

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configFile string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()

	v.SetConfigName(".rulecheck")
	v.SetConfigType("yaml")

	// Search paths in order of priority
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME")
	v.AddConfigPath("/etc/rulecheck")

	// Environment variable support
	v.SetEnvPrefix("RULECHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// SetConfigFile sets a specific config file to use.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
	l.v.SetConfigFile(path)
}

// Load loads the configuration from all sources.
// Priority (highest to lowest):
// 1. Explicit config file (if set via SetConfigFile)
// 2. Environment variables (RULECHECK_*)
// 3. Config file from search paths (.rulecheck.yaml)
// 4. Default values
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	l.setDefaults(cfg)

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine, defaults apply
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults sets all default values in viper.
func (l *Loader) setDefaults(cfg *Config) {
	// Agent defaults
	l.v.SetDefault("agent.provider", cfg.Agent.Provider)
	l.v.SetDefault("agent.model", cfg.Agent.Model)
	l.v.SetDefault("agent.base_url", cfg.Agent.BaseURL)
	l.v.SetDefault("agent.api_key", cfg.Agent.APIKey)
	l.v.SetDefault("agent.temperature", cfg.Agent.Temperature)
	l.v.SetDefault("agent.max_iterations", cfg.Agent.MaxIterations)
	l.v.SetDefault("agent.max_execution_time", cfg.Agent.MaxExecutionTime)

	// Check defaults
	l.v.SetDefault("check.line_length", cfg.Check.LineLength)
	l.v.SetDefault("check.auto_fix", cfg.Check.AutoFix)
	l.v.SetDefault("check.include_diff", cfg.Check.IncludeDiff)

	// Rules defaults
	l.v.SetDefault("rules.backend", cfg.Rules.Backend)
	l.v.SetDefault("rules.path", cfg.Rules.Path)
	l.v.SetDefault("rules.sqlite_path", cfg.Rules.SQLitePath)

	// Server defaults
	l.v.SetDefault("server.host", cfg.Server.Host)
	l.v.SetDefault("server.port", cfg.Server.Port)

	// Sessions defaults
	l.v.SetDefault("sessions.backend", cfg.Sessions.Backend)
	l.v.SetDefault("sessions.dir", cfg.Sessions.Dir)
	l.v.SetDefault("sessions.badger_path", cfg.Sessions.BadgerPath)
	l.v.SetDefault("sessions.max_sessions", cfg.Sessions.MaxSessions)
	l.v.SetDefault("sessions.ttl", cfg.Sessions.TTL)
	l.v.SetDefault("sessions.gc_interval", cfg.Sessions.GCInterval)

	// History defaults
	l.v.SetDefault("history.enabled", cfg.History.Enabled)
	l.v.SetDefault("history.path", cfg.History.Path)

	// Logging defaults
	l.v.SetDefault("logging.level", cfg.Logging.Level)
}

// ConfigFileUsed returns the path of the config file used, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// LoadFromFile loads configuration from a specific file.
func LoadFromFile(path string) (*Config, error) {
	loader := NewLoader()
	loader.SetConfigFile(path)
	return loader.Load()
}

// LoadDefault loads configuration with default search paths.
func LoadDefault() (*Config, error) {
	loader := NewLoader()
	return loader.Load()
}

// FindConfigFile searches for a config file and returns its path.
// Returns empty string if no config file is found.
func FindConfigFile() string {
	if _, err := os.Stat(configFileName); err == nil {
		if abs, err := filepath.Abs(configFileName); err == nil {
			return abs
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, configFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	etcPath := "/etc/rulecheck/" + configFileName
	if _, err := os.Stat(etcPath); err == nil {
		return etcPath
	}

	return ""
}
