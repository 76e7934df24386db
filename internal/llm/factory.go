package llm

import (
	"fmt"
	"strings"

	"github.com/Veraticus/the-listings-must-flow/internal/common"
)

// Enabled reports whether provider names a real backend.
func Enabled(provider string) bool {
	p := strings.ToLower(strings.TrimSpace(provider))
	return p != "" && p != ProviderNone
}

// KnownProvider reports whether provider is one NewClient understands.
// The empty string counts as none.
func KnownProvider(provider string) bool {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", ProviderNone, ProviderOllama, ProviderOpenAI, ProviderAnthropic, ProviderGemini:
		return true
	}
	return false
}

// NewClient creates a raw LLM client based on the provided configuration.
func NewClient(cfg Config) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderOllama:
		return newOllamaClient(cfg)
	case ProviderOpenAI:
		return newOpenAIClient(cfg)
	case ProviderAnthropic:
		return newAnthropicClient(cfg)
	case ProviderGemini:
		return newGeminiClient(cfg)
	case "", ProviderNone:
		return nil, common.ErrEnrichmentUnavailable
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q: %w", cfg.Provider, common.ErrInvalidConfig)
	}
}
