package ai

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"skillatlas/internal/metrics"
)

// ErrUnavailable is returned when every configured provider failed (or none is
// configured). Callers with a safe default degrade on it instead of failing.
var ErrUnavailable = errors.New("no completion provider available")

// Chain tries an ordered list of providers and short-circuits on the first
// usable completion. Individual provider failures are soft: logged and skipped.
type Chain struct {
	providers []Completer
	logger    *slog.Logger
}

// NewChain builds a provider chain. Nil providers are dropped so callers can
// pass optionally-configured entries directly.
func NewChain(logger *slog.Logger, providers ...Completer) *Chain {
	kept := make([]Completer, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			kept = append(kept, p)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{providers: kept, logger: logger}
}

// Name implements Completer.
func (c *Chain) Name() string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// Complete returns the first provider's successful completion, or ErrUnavailable.
func (c *Chain) Complete(ctx context.Context, prompt string) (string, error) {
	for _, provider := range c.providers {
		start := time.Now()
		text, err := provider.Complete(ctx, prompt)
		metrics.ObserveAICall(provider.Name(), start, err)
		if err == nil {
			return text, nil
		}
		c.logger.Warn("completion provider failed, trying next",
			slog.String("provider", provider.Name()),
			slog.Any("error", err),
		)
		if ctx.Err() != nil {
			break
		}
	}
	return "", ErrUnavailable
}
