package entity

import (
	"context"

	"github.com/kailas-cloud/fundsearch/internal/domain"
	"github.com/kailas-cloud/fundsearch/internal/usecase/registry"
)

// Datasets lists the ready dataset snapshots.
type Datasets interface {
	Datasets() []*registry.Dataset
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Defaults for Config.
const (
	DefaultTopK  = 5
	DefaultLimit = 5
)

// Config bounds the per-variant neighbor count and the result count.
type Config struct {
	TopK  int
	Limit int
}
