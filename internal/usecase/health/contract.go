package health

import (
	"context"

	"github.com/kailas-cloud/fundsearch/internal/usecase/registry"
)

// CachePinger checks embedding cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// DatasetReporter reports dataset readiness.
type DatasetReporter interface {
	Status() []registry.Status
}
