// Package llm is the boundary to the remote text completion services that
// produce billing analyses. Providers only move text; parsing and
// validation of the returned text happen in package normalize.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudcost-guard/internal/domain"
)

// Provider defines the interface for completion backends
type Provider interface {
	// Name returns the provider name, e.g. "gemini/gemini-2.5-flash"
	Name() string

	// Complete sends the prompt and returns the raw completion text
	Complete(ctx context.Context, apiKey, prompt string) (string, error)
}

// ProviderType represents the type of completion provider
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// Config holds provider configuration
type Config struct {
	Provider ProviderType
	Model    string
	Endpoint string
	Timeout  time.Duration
}

// DefaultConfig returns the default provider configuration
func DefaultConfig() Config {
	return Config{
		Provider: ProviderGemini,
		Model:    defaultGeminiModel,
		Timeout:  60 * time.Second,
	}
}

// ParseProviderType parses a string into a ProviderType
func ParseProviderType(s string) (ProviderType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "gemini", "google":
		return ProviderGemini, nil
	case "openai", "gpt":
		return ProviderOpenAI, nil
	case "ollama":
		return ProviderOllama, nil
	default:
		return "", fmt.Errorf("%w: unknown provider %q", domain.ErrProviderMisconfig, s)
	}
}

// String returns the string representation of the provider type
func (p ProviderType) String() string {
	return string(p)
}

// New creates the provider selected by cfg
func New(cfg Config) (Provider, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	switch cfg.Provider {
	case ProviderGemini, "":
		return NewGeminiProvider(cfg.Model, cfg.Endpoint, cfg.Timeout), nil
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.Model, cfg.Endpoint, cfg.Timeout), nil
	case ProviderOllama:
		return NewOllamaProvider(cfg.Endpoint, cfg.Model, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", domain.ErrProviderMisconfig, cfg.Provider)
	}
}

// transportError marks a failed remote call
func transportError(provider string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrTransport, provider, err)
}
