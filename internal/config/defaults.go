package config

import "time"

// DefaultConfig returns a Config with sensible default values. Paths are
// relative to the working directory so a checkout carries its own catalog,
// sessions, and history.
func DefaultConfig() *Config {
	return &Config{
		Agent:    defaultAgentConfig(),
		Check:    defaultCheckConfig(),
		Rules:    defaultRulesConfig(),
		Server:   defaultServerConfig(),
		Sessions: defaultSessionsConfig(),
		History:  defaultHistoryConfig(),
		Logging:  LoggingConfig{Level: "info"},
	}
}

// defaultAgentConfig returns the default agent configuration.
func defaultAgentConfig() AgentConfig {
	return AgentConfig{
		Provider:         "openai",
		Model:            "gpt-4.1-mini",
		Temperature:      0,
		MaxIterations:    8,
		MaxExecutionTime: 25 * time.Second,
	}
}

// defaultCheckConfig returns the default checker configuration.
func defaultCheckConfig() CheckConfig {
	return CheckConfig{
		LineLength:  88,
		AutoFix:     true,
		IncludeDiff: true,
	}
}

// defaultRulesConfig returns the default rule catalog configuration.
func defaultRulesConfig() RulesConfig {
	return RulesConfig{
		Backend:    "file",
		Path:       "rules/rules.json",
		SQLitePath: "rules/rules.db",
	}
}

// defaultServerConfig returns the default HTTP server configuration.
func defaultServerConfig() ServerConfig {
	return ServerConfig{
		Host: "127.0.0.1",
		Port: 8000,
	}
}

// defaultSessionsConfig returns the default session storage configuration.
func defaultSessionsConfig() SessionsConfig {
	return SessionsConfig{
		Backend:     "file",
		Dir:         "chat_histories",
		BadgerPath:  ".rulecheck/sessions",
		MaxSessions: 50,
		TTL:         0,
		GCInterval:  5 * time.Minute,
	}
}

// defaultHistoryConfig returns the default check recording configuration.
func defaultHistoryConfig() HistoryConfig {
	return HistoryConfig{
		Enabled: true,
		Path:    ".rulecheck/history.db",
	}
}
