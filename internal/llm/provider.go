package llm

import (
	"context"
	"time"
)

// Provider is a chat-completion backend used to score records against labels
type Provider interface {
	// Name returns the provider name
	Name() string

	// Endpoint returns the base URL requests are sent to
	Endpoint() string

	// Complete sends one system+user exchange and returns the reply
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest is one prompt sent to a provider
type CompletionRequest struct {
	System      string
	Prompt      string
	Model       string // Overrides the configured model
	MaxTokens   int    // Overrides the configured limit
	Temperature float32
}

// CompletionResponse is the provider's reply
type CompletionResponse struct {
	Content    string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama or an OpenAI-compatible gateway)
	BaseURL string

	Timeout   time.Duration
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

const (
	defaultTimeout   = 30 * time.Second
	defaultMaxTokens = 300
)

// DefaultConfig returns the settings used where the configuration leaves a field empty
func DefaultConfig() Config {
	return Config{
		Provider:  "openai",
		Timeout:   defaultTimeout,
		MaxTokens: defaultMaxTokens,
	}
}

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return fallback
}

func (c Config) maxTokens(override int) int {
	if override > 0 {
		return override
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return defaultMaxTokens
}
