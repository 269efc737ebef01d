package llm

import (
	"fmt"
	"strings"
)

// NewProvider creates an LLM provider from config. An empty provider
// name means summarization is disabled and (nil, nil) is returned.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "ollama":
		// Ollama exposes an OpenAI-compatible endpoint; route through
		// the same client with a local base URL.
		if config.BaseURL == "" {
			config.BaseURL = "http://localhost:11434/v1"
		}
		if config.APIKey == "" {
			config.APIKey = "ollama"
		}
		return NewOpenAIProvider(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, ollama)", config.Provider)
	}
}
