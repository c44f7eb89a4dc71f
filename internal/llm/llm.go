// Package llm builds the language model client the agent talks to.
package llm

import (
	"fmt"
	"os"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/rulekit/rulecheck/internal/config"
)

const defaultOllamaURL = "http://localhost:11434"

// New creates an llms.Model for the configured provider. Credentials are
// resolved here rather than at config load time, so commands that never talk
// to a model run without them.
func New(cfg config.AgentConfig) (llms.Model, error) {
	switch cfg.Provider {
	case "openai":
		return newOpenAI(cfg)
	case "ollama":
		return newOllama(cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}

// AvailableProviders returns the list of supported provider names.
func AvailableProviders() []string {
	return []string{"openai", "ollama"}
}

func newOpenAI(cfg config.AgentConfig) (llms.Model, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key required (set agent.api_key or OPENAI_API_KEY)")
	}

	opts := []openai.Option{
		openai.WithModel(cfg.Model),
		openai.WithToken(apiKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating openai client: %w", err)
	}
	return model, nil
}

func newOllama(cfg config.AgentConfig) (llms.Model, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}

	model, err := ollama.New(
		ollama.WithModel(cfg.Model),
		ollama.WithServerURL(baseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ollama client: %w", err)
	}
	return model, nil
}
