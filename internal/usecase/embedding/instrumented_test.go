package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/fundsearch/internal/domain"
)

type mockEmbedder struct {
	result    domain.EmbeddingResult
	err       error
	healthErr error
	block     bool
}

func (m *mockEmbedder) Embed(ctx context.Context, _ string) (domain.EmbeddingResult, error) {
	if m.block {
		<-ctx.Done()
		return domain.EmbeddingResult{}, ctx.Err()
	}
	return m.result, m.err
}

func (m *mockEmbedder) HealthCheck(_ context.Context) error { return m.healthErr }

func TestInstrumentedEmbedder_Success(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 7,
		TotalTokens:  7,
	}}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", zap.NewNop(), WithDimension(3))

	result, err := p.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.TotalTokens != 7 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestInstrumentedEmbedder_Error(t *testing.T) {
	inner := &mockEmbedder{err: domain.ErrEmbeddingProviderError}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", zap.NewNop())

	_, err := p.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestInstrumentedEmbedder_Timeout(t *testing.T) {
	inner := &mockEmbedder{block: true}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", zap.NewNop(), WithTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := p.Embed(context.Background(), "hello")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("timeout not applied")
	}
}

func TestInstrumentedEmbedder_DimensionMismatch(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 2}}}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", zap.NewNop(), WithDimension(3))

	_, err := p.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestInstrumentedEmbedder_HealthCheck(t *testing.T) {
	down := errors.New("down")
	p := NewInstrumentedEmbedder(&mockEmbedder{healthErr: down}, "test", "m", zap.NewNop())
	if err := p.HealthCheck(context.Background()); !errors.Is(err, down) {
		t.Errorf("expected forwarded error, got %v", err)
	}

	plain := NewInstrumentedEmbedder(domain.EmbedderFunc(func(context.Context, string) (domain.EmbeddingResult, error) {
		return domain.EmbeddingResult{}, nil
	}), "test", "m", zap.NewNop())
	if err := plain.HealthCheck(context.Background()); err != nil {
		t.Errorf("expected nil for embedder without health check, got %v", err)
	}
}
