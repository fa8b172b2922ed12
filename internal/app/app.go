// Package app wires configuration into the running object graph shared by
// the HTTP server and the operator CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/fundsearch/internal/config"
	"github.com/kailas-cloud/fundsearch/internal/db"
	dbBadger "github.com/kailas-cloud/fundsearch/internal/db/badger"
	dbRedis "github.com/kailas-cloud/fundsearch/internal/db/redis"
	"github.com/kailas-cloud/fundsearch/internal/domain"
	"github.com/kailas-cloud/fundsearch/internal/metrics"
	"github.com/kailas-cloud/fundsearch/internal/repository/embcache"
	chiTransport "github.com/kailas-cloud/fundsearch/internal/transport/chi"
	"github.com/kailas-cloud/fundsearch/internal/transport/llm"
	openaiEmb "github.com/kailas-cloud/fundsearch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/fundsearch/internal/usecase/embedding"
	"github.com/kailas-cloud/fundsearch/internal/usecase/enrich"
	"github.com/kailas-cloud/fundsearch/internal/usecase/entity"
	healthuc "github.com/kailas-cloud/fundsearch/internal/usecase/health"
	"github.com/kailas-cloud/fundsearch/internal/usecase/metadata"
	"github.com/kailas-cloud/fundsearch/internal/usecase/query"
	"github.com/kailas-cloud/fundsearch/internal/usecase/registry"
)

// App is the assembled service.
type App struct {
	Config        config.Config
	Cache         db.Store
	DocEmbedder   domain.Embedder
	QueryEmbedder domain.Embedder
	Registry      *registry.Registry
	Holdings      *enrich.Holdings
	Query         *query.Service
	Health        *healthuc.Service

	logger  *zap.Logger
	closers []func()
}

// Gateways lets callers replace the network-facing adapters. Nil fields are
// built from configuration.
type Gateways struct {
	Embedder   domain.Embedder
	Classifier query.Classifier
}

// New assembles the service from cfg. Datasets are not built or loaded;
// call Registry.BuildOrLoadAll for that.
func New(ctx context.Context, cfg config.Config, gw Gateways, logger *zap.Logger) (*App, error) {
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterQueryMetrics()

	a := &App{Config: cfg, logger: logger}

	store, err := openCache(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, err
	}
	if store != nil {
		a.Cache = store
		a.closers = append(a.closers, store.Close)
	}

	base := gw.Embedder
	if base == nil {
		base = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   cfg.Embedding.Provider,
			Logger:     logger,
		})
	}
	a.DocEmbedder = buildEmbedder(base, cfg.Embedding, cfg.Embedding.DocumentInstruction, a.Cache, cfg.Cache, logger)
	a.QueryEmbedder = buildEmbedder(base, cfg.Embedding, cfg.Embedding.QueryInstruction, a.Cache, cfg.Cache, logger)

	reg, err := registry.New(specsFrom(cfg.Datasets), a.DocEmbedder, registry.Options{
		Workers:      cfg.Index.BuildWorkers,
		RebuildStale: cfg.Index.RebuildStale,
	}, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create registry: %w", err)
	}
	a.Registry = reg
	a.closers = append(a.closers, reg.Release)

	holdings, err := enrich.LoadHoldings(cfg.Holdings.Path, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Holdings = holdings

	classifier := gw.Classifier
	if classifier == nil {
		c, err := llm.NewClassifier(llm.Config{
			BaseURL:  cfg.Classifier.BaseURL,
			APIKey:   cfg.Classifier.APIKey,
			Model:    cfg.Classifier.Model,
			JSONMode: cfg.Classifier.JSONMode,
		}, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create classifier: %w", err)
		}
		classifier = c
	}

	entities := entity.New(reg, a.QueryEmbedder, entity.Config{
		TopK:  cfg.Search.TopK,
		Limit: cfg.Search.ResultLimit,
	}, logger)
	filters := metadata.New(reg, holdings, metadata.Config{Limit: cfg.Search.ResultLimit}, logger)
	a.Query = query.New(classifier, entities, filters,
		time.Duration(cfg.Classifier.TimeoutSec)*time.Second, logger)

	var cachePinger healthuc.CachePinger
	if a.Cache != nil {
		cachePinger = a.Cache
	}
	a.Health = healthuc.New(reg, cachePinger, newEmbeddingHealthChecker(a.DocEmbedder))

	return a, nil
}

// Handler returns the HTTP API.
func (a *App) Handler() http.Handler {
	server := chiTransport.NewServer(a.Query, a.Registry, a.Health, a.logger)
	return chiTransport.NewRouter(server, a.Config.Auth.APIKeys, a.logger)
}

// Close releases the cache connection and the build pool.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// ErrNoDatasetReady is returned by Start when every dataset failed.
var ErrNoDatasetReady = errors.New("no dataset is ready")

// Start builds or loads every dataset and fails only when none is usable.
func (a *App) Start(ctx context.Context) ([]registry.Status, error) {
	statuses := a.Registry.BuildOrLoadAll(ctx)
	for _, st := range statuses {
		if st.State == registry.StateReady {
			return statuses, nil
		}
	}
	return statuses, ErrNoDatasetReady
}

func openCache(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (db.Store, error) {
	var (
		store db.Store
		err   error
	)
	switch cfg.Driver {
	case config.CacheRedis:
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	case config.CacheBadger:
		store, err = dbBadger.Open(dbBadger.Config{Path: cfg.Path}, logger)
	case config.CacheNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", cfg.Driver, err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("%s cache not ready: %w", cfg.Driver, err)
	}
	logger.Info("Embedding cache ready", zap.String("driver", cfg.Driver))
	return store, nil
}

// buildEmbedder assembles the decorator chain: provider -> cache -> instrumented -> instruction.
func buildEmbedder(
	base domain.Embedder,
	embCfg config.EmbeddingConfig,
	instruction string,
	store db.Store,
	cacheCfg config.CacheConfig,
	logger *zap.Logger,
) domain.Embedder {
	embedder := base
	if store != nil {
		ttl := time.Duration(cacheCfg.TTLSec) * time.Second
		embedder = embcache.New(embedder, store, embCfg.Model, ttl, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(
		embedder, embCfg.Provider, embCfg.Model, logger,
		embeddinguc.WithTimeout(time.Duration(embCfg.TimeoutSec)*time.Second),
		embeddinguc.WithDimension(embCfg.Dimensions),
	)

	// Outermost, so the cache key includes the instruction.
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}

func specsFrom(datasets []config.DatasetConfig) []registry.Spec {
	specs := make([]registry.Spec, len(datasets))
	for i, d := range datasets {
		specs[i] = registry.Spec{
			ID:           d.ID,
			Source:       d.Source,
			IndexFile:    d.IndexFile,
			MetadataFile: d.MetadataFile,
		}
		if e := d.EnrichFrom; e != nil {
			specs[i].Enrich = &registry.EnrichSpec{
				Dataset:    e.Dataset,
				LocalKey:   e.LocalKey,
				ForeignKey: e.ForeignKey,
				Fields:     e.Fields,
			}
		}
	}
	return specs
}

// embeddingHealthChecker adapts domain.Embedder to health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	hc, ok := h.embedder.(domain.HealthChecker)
	if !ok {
		return nil
	}
	if err := hc.HealthCheck(ctx); err != nil {
		return fmt.Errorf("embedding health check: %w", err)
	}
	return nil
}
