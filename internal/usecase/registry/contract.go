package registry

import (
	"time"

	"github.com/kailas-cloud/fundsearch/internal/domain/record"
	"github.com/kailas-cloud/fundsearch/internal/vectorindex"
)

// Spec describes where a dataset comes from and where its index lives.
type Spec struct {
	ID           string
	Source       string
	IndexFile    string
	MetadataFile string
	Enrich       *EnrichSpec
}

// EnrichSpec joins rows of a dataset to another dataset's raw source:
// rows whose LocalKey equals a foreign row's ForeignKey get Fields copied.
type EnrichSpec struct {
	Dataset    string
	LocalKey   string
	ForeignKey string
	Fields     []string
}

// State is the lifecycle state of a dataset.
type State string

// Dataset states.
const (
	StatePending  State = "pending"
	StateBuilding State = "building"
	StateReady    State = "ready"
	StateFailed   State = "failed"
)

// Status reports one dataset's readiness.
type Status struct {
	ID          string    `json:"id"`
	State       State     `json:"state"`
	Rows        int       `json:"rows"`
	Dim         int       `json:"dim"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	BuiltAt     time.Time `json:"built_at,omitzero"`
	Error       string    `json:"error,omitempty"`
}

// Dataset is an immutable, published snapshot: row i of Index is Rows()[i].
type Dataset struct {
	id       string
	index    *vectorindex.Flat
	rows     []record.Record
	manifest manifestInfo
}

type manifestInfo struct {
	fingerprint string
	builtAt     time.Time
}

// ID returns the dataset identifier.
func (d *Dataset) ID() string { return d.id }

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Dim returns the vector dimension.
func (d *Dataset) Dim() int { return d.index.Dim() }

// Rows returns the metadata list. Callers must not modify it.
func (d *Dataset) Rows() []record.Record { return d.rows }

// Neighbors returns the metadata rows nearest to q, closest first.
func (d *Dataset) Neighbors(q []float32, k int) ([]record.Record, error) {
	hits, err := d.index.Search(q, k)
	if err != nil {
		return nil, err
	}
	out := make([]record.Record, 0, len(hits))
	for _, h := range hits {
		out = append(out, d.rows[h.Row])
	}
	return out, nil
}

// NewDatasetForTest publishes rows with the given vectors without touching disk (test-only).
func NewDatasetForTest(id string, dim int, rows []record.Record, vectors [][]float32) (*Dataset, error) {
	idx, err := vectorindex.New(dim)
	if err != nil {
		return nil, err
	}
	if err := idx.Add(vectors...); err != nil {
		return nil, err
	}
	return &Dataset{id: id, index: idx, rows: rows}, nil
}
