package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/kayz/techwatch/internal/logger"
)

// ErrNoProvider is returned when the chain holds no providers at all.
var ErrNoProvider = errors.New("no generation provider configured")

// Chain tries providers in order; the first success wins and no provider is
// retried. The synthesizer falls back to template rendering when the chain
// itself fails.
type Chain struct {
	providers []Provider
}

func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

func (c *Chain) Empty() bool { return len(c.providers) == 0 }

// Generate returns the digest text and the name of the provider that
// produced it.
func (c *Chain) Generate(ctx context.Context, system, user string) (string, string, error) {
	if len(c.providers) == 0 {
		return "", "", ErrNoProvider
	}

	var lastErr error
	for _, p := range c.providers {
		text, err := p.Generate(ctx, system, user)
		if err == nil {
			return text, p.Name(), nil
		}
		lastErr = err
		logger.Warn("generation provider failed, trying next", "provider", p.Name(), "error", err)
	}
	return "", "", fmt.Errorf("all generation providers failed: %w", lastErr)
}
