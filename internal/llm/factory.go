package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/fundus/internal/model"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, &model.ConfigurationError{Option: "llm.provider", Reason: "required for the llm scorer backend"}

	default:
		return nil, &model.ConfigurationError{
			Option: "llm.provider",
			Reason: fmt.Sprintf("unknown provider %q (supported: openai, anthropic, ollama)", config.Provider),
		}
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config. Empty provider,
// timeout and token settings fall back to DefaultConfig.
func ConfigFromModel(c model.LLMConfig) Config {
	config := DefaultConfig()
	if c.Provider != "" {
		config.Provider = c.Provider
	}
	if c.Timeout > 0 {
		config.Timeout = c.Timeout
	}
	if c.MaxTokens > 0 {
		config.MaxTokens = c.MaxTokens
	}

	config.Model = c.Model
	config.APIKey = c.APIKey
	config.BaseURL = c.BaseURL
	config.HTTPProxy = c.HTTPProxy
	config.HTTPSProxy = c.HTTPSProxy
	config.NoProxy = c.NoProxy
	return config
}
