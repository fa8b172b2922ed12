// Package registry builds, persists, loads and publishes the per-dataset
// vector indexes that the resolvers search.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fundsearch/internal/domain"
	"github.com/kailas-cloud/fundsearch/internal/metrics"
	"github.com/kailas-cloud/fundsearch/internal/repository/dataset"
	"github.com/kailas-cloud/fundsearch/internal/vectorindex"
)

// Options tune builds.
type Options struct {
	// Workers bounds concurrent embedding calls during a build.
	Workers int
	// RebuildStale rebuilds a persisted dataset whose raw source changed since its build.
	RebuildStale bool
}

// Registry owns every configured dataset. Readers get immutable snapshots;
// builds of one dataset are serialized.
type Registry struct {
	specs    []Spec
	embedder domain.Embedder
	pool     *ants.Pool
	opts     Options
	logger   *zap.Logger
	now      func() time.Time

	buildMu map[string]*sync.Mutex

	mu     sync.RWMutex
	ready  map[string]*Dataset
	status map[string]Status
}

// New creates a registry for specs, embedding document texts with embedder.
// Call Release when done.
func New(specs []Spec, embedder domain.Embedder, opts Options, logger *zap.Logger) (*Registry, error) {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	pool, err := ants.NewPool(opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("create build pool: %w", err)
	}

	r := &Registry{
		specs:    specs,
		embedder: embedder,
		pool:     pool,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
		buildMu:  make(map[string]*sync.Mutex, len(specs)),
		ready:    make(map[string]*Dataset, len(specs)),
		status:   make(map[string]Status, len(specs)),
	}
	for _, s := range specs {
		r.buildMu[s.ID] = &sync.Mutex{}
		r.status[s.ID] = Status{ID: s.ID, State: StatePending}
	}
	return r, nil
}

// Release stops the build worker pool.
func (r *Registry) Release() {
	r.pool.Release()
}

// BuildOrLoadAll loads every dataset whose persisted index and metadata
// exist and are consistent, and builds the rest. A failing dataset is
// reported and skipped. Statuses come back in configuration order.
func (r *Registry) BuildOrLoadAll(ctx context.Context) []Status {
	for _, s := range r.specs {
		if ctx.Err() != nil {
			break
		}
		log := r.logger.With(zap.String("dataset", s.ID))

		if dataset.Exists(s.IndexFile) && dataset.Exists(s.MetadataFile) {
			stale, err := r.isStale(s)
			switch {
			case err != nil:
				log.Warn("Cannot check source fingerprint, rebuilding", zap.Error(err))
			case stale:
				log.Info("Source changed since last build, rebuilding")
			default:
				if err := r.load(s); err == nil {
					continue
				} else {
					log.Warn("Persisted index unusable, rebuilding", zap.Error(err))
				}
			}
		}

		if _, err := r.BuildIndexFor(ctx, s.ID); err != nil {
			log.Error("Dataset build failed", zap.Error(err))
		}
	}
	return r.Status()
}

// isStale reports whether the raw source no longer matches the build manifest.
// Always false unless RebuildStale is set or when no manifest exists.
func (r *Registry) isStale(s Spec) (bool, error) {
	if !r.opts.RebuildStale {
		return false, nil
	}
	m, ok, err := dataset.ReadManifest(s.MetadataFile)
	if err != nil || !ok {
		return false, err
	}
	fp, err := dataset.FingerprintFile(s.Source)
	if err != nil {
		return false, err
	}
	return fp != m.Fingerprint, nil
}

func (r *Registry) load(s Spec) error {
	idx, err := vectorindex.ReadFile(s.IndexFile)
	if err != nil {
		r.countBuild(s.ID, "load", "error")
		return err
	}
	rows, err := dataset.LoadMetadata(s.MetadataFile)
	if err != nil {
		r.countBuild(s.ID, "load", "error")
		return err
	}
	if idx.Len() != len(rows) {
		r.countBuild(s.ID, "load", "error")
		return fmt.Errorf("index has %d rows, metadata %d: %w", idx.Len(), len(rows), domain.ErrIndexCorrupt)
	}

	var info manifestInfo
	if m, ok, err := dataset.ReadManifest(s.MetadataFile); err == nil && ok {
		info = manifestInfo{fingerprint: m.Fingerprint, builtAt: m.BuiltAt}
	}

	r.publish(&Dataset{id: s.ID, index: idx, rows: rows, manifest: info})
	r.countBuild(s.ID, "load", "success")
	r.logger.Info("Dataset loaded",
		zap.String("dataset", s.ID),
		zap.Int("rows", len(rows)),
		zap.Int("dim", idx.Dim()),
	)
	return nil
}

// BuildIndexFor rebuilds dataset id from its raw source, persists it and
// publishes it. The previous snapshot stays readable until the new one is
// published; on failure it stays published.
func (r *Registry) BuildIndexFor(ctx context.Context, id string) (Status, error) {
	s, ok := r.spec(id)
	if !ok {
		return Status{}, fmt.Errorf("build %q: %w", id, domain.ErrDatasetNotFound)
	}

	mu := r.buildMu[id]
	mu.Lock()
	defer mu.Unlock()

	r.setState(id, StateBuilding, nil)
	start := r.now()

	ds, err := r.build(ctx, s)
	if err != nil {
		r.countBuild(id, "build", "error")
		err = domain.NewBuildError(id, err)
		r.setState(id, StateFailed, err)
		return r.statusOf(id), err
	}

	r.publish(ds)
	r.countBuild(id, "build", "success")
	r.logger.Info("Dataset built",
		zap.String("dataset", id),
		zap.Int("rows", ds.Len()),
		zap.Int("dim", ds.Dim()),
		zap.Duration("duration", r.now().Sub(start)),
	)
	return r.statusOf(id), nil
}

func (r *Registry) build(ctx context.Context, s Spec) (*Dataset, error) {
	src, err := dataset.LoadSource(s.Source)
	if err != nil {
		return nil, err
	}
	if len(src.Records) == 0 {
		return nil, fmt.Errorf("source %s has no records: %w", s.Source, domain.ErrSourceMalformed)
	}

	rows := src.Records
	if s.Enrich != nil {
		var matched int
		rows, matched, err = r.enrichRows(rows, s.Enrich)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("Rows enriched",
			zap.String("dataset", s.ID),
			zap.String("from", s.Enrich.Dataset),
			zap.Int("matched", matched),
			zap.Int("rows", len(rows)),
		)
	}

	texts := make([]string, len(rows))
	for i, row := range rows {
		texts[i] = SearchableText(row)
	}

	vectors, err := r.embedAll(ctx, texts)
	if err != nil {
		return nil, err
	}

	idx, err := vectorindex.New(len(vectors[0]))
	if err != nil {
		return nil, err
	}
	if err := idx.Add(vectors...); err != nil {
		return nil, err
	}

	if err := idx.WriteFile(s.IndexFile); err != nil {
		return nil, fmt.Errorf("persist index: %w", err)
	}
	if err := dataset.SaveMetadata(s.MetadataFile, rows); err != nil {
		return nil, fmt.Errorf("persist metadata: %w", err)
	}
	info := manifestInfo{fingerprint: src.Fingerprint, builtAt: r.now().UTC()}
	err = dataset.WriteManifest(s.MetadataFile, dataset.Manifest{
		Dataset:     s.ID,
		Fingerprint: info.fingerprint,
		Rows:        len(rows),
		Dim:         idx.Dim(),
		BuiltAt:     info.builtAt,
	})
	if err != nil {
		return nil, fmt.Errorf("persist manifest: %w", err)
	}

	return &Dataset{id: s.ID, index: idx, rows: rows, manifest: info}, nil
}

// embedAll embeds texts on the worker pool. Vectors keep input order; the
// first failure cancels the remaining calls and fails the whole batch.
func (r *Registry) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	vectors := make([][]float32, len(texts))
	var wg sync.WaitGroup
	for i, text := range texts {
		wg.Add(1)
		err := r.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			res, err := r.embedder.Embed(ctx, text)
			if err != nil {
				cancel(fmt.Errorf("embed row %d: %w", i, err))
				return
			}
			vectors[i] = res.Embedding
		})
		if err != nil {
			wg.Done()
			cancel(fmt.Errorf("submit row %d: %w", i, err))
			break
		}
	}
	wg.Wait()

	if err := context.Cause(ctx); err != nil {
		return nil, err
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim || dim == 0 {
			return nil, fmt.Errorf("row %d has %d dimensions, row 0 has %d: %w", i, len(v), dim, domain.ErrDimensionMismatch)
		}
	}
	return vectors, nil
}

// Get returns the published snapshot of dataset id.
func (r *Registry) Get(id string) (*Dataset, error) {
	if _, ok := r.spec(id); !ok {
		return nil, fmt.Errorf("dataset %q: %w", id, domain.ErrDatasetNotFound)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ds, ok := r.ready[id]
	if !ok {
		return nil, fmt.Errorf("dataset %q: %w", id, domain.ErrDatasetNotReady)
	}
	return ds, nil
}

// Datasets returns every published snapshot in configuration order.
func (r *Registry) Datasets() []*Dataset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Dataset, 0, len(r.ready))
	for _, s := range r.specs {
		if ds, ok := r.ready[s.ID]; ok {
			out = append(out, ds)
		}
	}
	return out
}

// Status reports every configured dataset in configuration order.
func (r *Registry) Status() []Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Status, 0, len(r.specs))
	for _, s := range r.specs {
		out = append(out, r.status[s.ID])
	}
	return out
}

// IDs returns the configured dataset identifiers in order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.specs))
	for i, s := range r.specs {
		out[i] = s.ID
	}
	return out
}

func (r *Registry) statusOf(id string) Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status[id]
}

func (r *Registry) publish(ds *Dataset) {
	r.mu.Lock()
	r.ready[ds.id] = ds
	r.status[ds.id] = Status{
		ID:          ds.id,
		State:       StateReady,
		Rows:        ds.Len(),
		Dim:         ds.Dim(),
		Fingerprint: ds.manifest.fingerprint,
		BuiltAt:     ds.manifest.builtAt,
	}
	r.mu.Unlock()
	metrics.DatasetRows.WithLabelValues(ds.id).Set(float64(ds.Len()))
}

// setState records a transition. A dataset with a published snapshot keeps
// its row counts while building or after a failed rebuild.
func (r *Registry) setState(id string, state State, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.status[id]
	st.State = state
	st.Error = ""
	if err != nil {
		st.Error = err.Error()
	}
	r.status[id] = st
}

func (r *Registry) spec(id string) (Spec, bool) {
	for _, s := range r.specs {
		if s.ID == id {
			return s, true
		}
	}
	return Spec{}, false
}

func (r *Registry) countBuild(id, action, status string) {
	metrics.DatasetBuildsTotal.WithLabelValues(id, action, status).Inc()
}

// IsUnavailable reports whether err means a dataset cannot serve queries.
func IsUnavailable(err error) bool {
	return errors.Is(err, domain.ErrDatasetNotFound) || errors.Is(err, domain.ErrDatasetNotReady)
}

