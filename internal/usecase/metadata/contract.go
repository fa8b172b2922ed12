package metadata

import (
	"github.com/kailas-cloud/fundsearch/internal/domain/record"
	"github.com/kailas-cloud/fundsearch/internal/usecase/registry"
)

// Datasets lists the ready dataset snapshots.
type Datasets interface {
	Datasets() []*registry.Dataset
}

// Enricher attaches related rows to a match without modifying it.
type Enricher interface {
	Enrich(r record.Record) record.Record
}

// DefaultLimit bounds the result count when Config.Limit is unset.
const DefaultLimit = 5

// Config bounds the result count.
type Config struct {
	Limit int
}
