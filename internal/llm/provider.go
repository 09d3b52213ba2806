package llm

import (
	"context"
	"fmt"

	"github.com/kayz/techwatch/internal/config"
)

// Provider is one generation backend. A call either returns text or an
// error; the chain decides what happens next.
type Provider interface {
	Name() string
	Generate(ctx context.Context, system, user string) (string, error)
}

// NewProvider builds a provider from its config entry.
func NewProvider(cfg config.ProviderConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("provider %s: missing API key", cfg.Name)
	}
	switch cfg.Type {
	case "openai":
		return NewOpenAI(cfg), nil
	case "anthropic":
		return NewAnthropic(cfg), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}
}

// FromConfig builds every configured provider, in preference order.
// Misconfigured entries are skipped, not fatal.
func FromConfig(cfg config.LLMConfig) []Provider {
	providers := make([]Provider, 0, len(cfg.Providers))
	for _, pc := range cfg.Providers {
		p, err := NewProvider(pc)
		if err != nil {
			continue
		}
		providers = append(providers, p)
	}
	return providers
}
