package query

import (
	"context"

	"github.com/kailas-cloud/fundsearch/internal/domain/filter"
	"github.com/kailas-cloud/fundsearch/internal/domain/intent"
	"github.com/kailas-cloud/fundsearch/internal/domain/rerank"
)

// Classifier turns free text into a validated intent.
type Classifier interface {
	Classify(ctx context.Context, text string) (intent.Intent, error)
}

// EntityResolver resolves a named entity.
type EntityResolver interface {
	Search(ctx context.Context, entity string) []rerank.Scored
}

// FilterResolver resolves metadata filters.
type FilterResolver interface {
	Search(ctx context.Context, filters filter.Set) []rerank.Scored
}

// Route labels used in metrics and logs.
const (
	RouteEntity       = "entity"
	RouteFilter       = "filter"
	RouteUnclassified = "unclassified"
	RouteUnsupported  = "unsupported"
)

// Resolution outcomes.
const (
	OutcomeResults         = "results"
	OutcomeEmpty           = "empty"
	OutcomeClassifierError = "classifier_error"
	OutcomeUnsupported     = "unsupported_type"
)
