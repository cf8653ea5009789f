package llm

import (
	"fmt"
	"strings"
)

const (
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	ollamaBaseURL     = "http://localhost:11434/v1"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "openrouter":
		if config.BaseURL == "" {
			config.BaseURL = openRouterBaseURL
		}
		return NewOpenAIProvider(config)

	case "ollama":
		// Ollama serves an OpenAI-compatible API and ignores the key
		if config.BaseURL == "" {
			config.BaseURL = ollamaBaseURL
		}
		if config.APIKey == "" {
			config.APIKey = "ollama"
		}
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	default:
		return nil, fmt.Errorf("unknown LLM provider: %q (supported: openai, openrouter, ollama, anthropic)", config.Provider)
	}
}
