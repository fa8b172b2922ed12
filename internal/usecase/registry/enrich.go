package registry

import (
	"fmt"

	"github.com/kailas-cloud/fundsearch/internal/domain"
	"github.com/kailas-cloud/fundsearch/internal/domain/record"
	"github.com/kailas-cloud/fundsearch/internal/repository/dataset"
)

// enrichRows copies e.Fields from the foreign dataset's raw rows into rows
// that reference them. Keys compare by text rendering. Rows are copied, never
// mutated; a field absent on the foreign row is removed from the copy.
func (r *Registry) enrichRows(rows []record.Record, e *EnrichSpec) ([]record.Record, int, error) {
	foreign, ok := r.spec(e.Dataset)
	if !ok {
		return nil, 0, fmt.Errorf("enrich from %q: %w", e.Dataset, domain.ErrDatasetNotFound)
	}
	src, err := dataset.LoadSource(foreign.Source)
	if err != nil {
		return nil, 0, fmt.Errorf("enrich from %q: %w", e.Dataset, err)
	}

	lookup := make(map[string]record.Record, len(src.Records))
	for _, fr := range src.Records {
		if key, ok := fr.Text(e.ForeignKey); ok {
			lookup[key] = fr
		}
	}

	out := make([]record.Record, len(rows))
	matched := 0
	for i, row := range rows {
		out[i] = row
		key, ok := row.Text(e.LocalKey)
		if !ok {
			continue
		}
		parent, ok := lookup[key]
		if !ok {
			continue
		}
		enriched := row.Clone()
		for _, f := range e.Fields {
			if v, ok := parent.Get(f); ok {
				enriched[f] = v
			} else {
				delete(enriched, f)
			}
		}
		out[i] = enriched
		matched++
	}
	return out, matched, nil
}
