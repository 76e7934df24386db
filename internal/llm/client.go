package llm

import (
	"context"
	"time"
)

// Supported providers.
const (
	ProviderNone      = "none"
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Client defines the interface for LLM providers.
type Client interface {
	// Generate sends prompt and returns the model's raw text answer.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds provider and enrichment settings.
type Config struct {
	Provider          string
	APIKey            string
	Model             string
	BaseURL           string
	Timeout           time.Duration
	RetryDelay        time.Duration
	CacheTTL          time.Duration
	Temperature       float64
	MaxTokens         int
	MaxRetries        int
	RequestsPerMinute int
}

func (c Config) temperature() float64 {
	if c.Temperature == 0 {
		return 0.1
	}
	return c.Temperature
}

func (c Config) maxTokens() int {
	if c.MaxTokens == 0 {
		return 256
	}
	return c.MaxTokens
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 15 * time.Second
	}
	return c.Timeout
}

func (c Config) modelOr(def string) string {
	if c.Model == "" {
		return def
	}
	return c.Model
}

func (c Config) baseURLOr(def string) string {
	if c.BaseURL == "" {
		return def
	}
	return c.BaseURL
}
