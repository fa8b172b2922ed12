package fundsearch

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/fundsearch/internal/domain"
	"github.com/kailas-cloud/fundsearch/internal/domain/intent"
)

// Embedder converts text to a vector embedding.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Classifier returns a chat model's raw reply for a user query. The reply
// must contain one JSON object with "type" and either "entity" or "filters";
// surrounding text is ignored.
type Classifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

// ClassifierFunc adapts a plain function to Classifier.
type ClassifierFunc func(ctx context.Context, text string) (string, error)

// Classify calls f.
func (f ClassifierFunc) Classify(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w: %w", domain.ErrEmbeddingProviderError, err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

type classifierAdapter struct {
	inner Classifier
}

func (a *classifierAdapter) Classify(ctx context.Context, text string) (intent.Intent, error) {
	reply, err := a.inner.Classify(ctx, text)
	if err != nil {
		return intent.Intent{}, fmt.Errorf("classify: %w: %w", domain.ErrClassifierUnavailable, err)
	}
	return intent.Extract(reply)
}
