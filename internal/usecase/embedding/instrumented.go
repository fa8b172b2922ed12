// Package embedding holds the embedder decorators applied on top of the
// provider adapter: per-call timeout, logging and dimension checks.
package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/fundsearch/internal/domain"
)

// InstrumentedEmbedder wraps Embedder with a per-call timeout and logging.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
type InstrumentedEmbedder struct {
	inner    domain.Embedder
	provider string
	model    string
	timeout  time.Duration
	dim      int
	logger   *zap.Logger
}

// Option configures an InstrumentedEmbedder.
type Option func(*InstrumentedEmbedder)

// WithTimeout bounds every Embed call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(p *InstrumentedEmbedder) { p.timeout = d }
}

// WithDimension rejects vectors whose length differs from dim. Zero disables the check.
func WithDimension(dim int) Option {
	return func(p *InstrumentedEmbedder) { p.dim = dim }
}

// NewInstrumentedEmbedder wraps an embedder with a timeout and observability.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string,
	logger *zap.Logger, opts ...Option,
) *InstrumentedEmbedder {
	p := &InstrumentedEmbedder{
		inner:    inner,
		provider: provider,
		model:    model,
		logger:   logger,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Embed delegates to the inner embedder under the configured timeout.
func (p *InstrumentedEmbedder) Embed(
	ctx context.Context, text string,
) (domain.EmbeddingResult, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := p.inner.Embed(ctx, text)
	duration := time.Since(start)

	if err != nil {
		p.logger.Warn("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	if p.dim > 0 && len(result.Embedding) != p.dim {
		return domain.EmbeddingResult{}, fmt.Errorf("embedding has %d dimensions, want %d: %w",
			len(result.Embedding), p.dim, domain.ErrDimensionMismatch)
	}

	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

// HealthCheck forwards to the inner embedder when it supports health checks.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := p.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
