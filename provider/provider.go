package provider

import (
	"context"
	"fmt"

	"github.com/mohammad-safakhou/mindtutor/config"
	openai_provider "github.com/mohammad-safakhou/mindtutor/provider/openai"
)

// Provider is the interface every LLM implementation must satisfy. A call
// sends one filled prompt and returns the raw completion text; any network
// or provider failure surfaces as an error for the caller to retry.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewProvider creates an LLM client from configuration.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "", "openai":
		return openai_provider.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Temperature, cfg.MaxTokens, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}
