package fundsearch

import (
	"github.com/kailas-cloud/fundsearch/internal/app"
	"github.com/kailas-cloud/fundsearch/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrDatasetNotFound        = domain.ErrDatasetNotFound
	ErrDatasetNotReady        = domain.ErrDatasetNotReady
	ErrSourceMissing          = domain.ErrSourceMissing
	ErrSourceMalformed        = domain.ErrSourceMalformed
	ErrDimensionMismatch      = domain.ErrDimensionMismatch
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrNoDatasetReady         = app.ErrNoDatasetReady
)
