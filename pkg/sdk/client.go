package fundsearch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/fundsearch/internal/app"
	"github.com/kailas-cloud/fundsearch/internal/config"
	"github.com/kailas-cloud/fundsearch/internal/domain/result"
	"github.com/kailas-cloud/fundsearch/internal/usecase/registry"
)

// Result is one query match.
type Result = result.Result

// DatasetStatus reports one dataset's readiness.
type DatasetStatus = registry.Status

// Dataset states.
const (
	StatePending  = registry.StatePending
	StateBuilding = registry.StateBuilding
	StateReady    = registry.StateReady
	StateFailed   = registry.StateFailed
)

// Client is the fundsearch entry point.
type Client struct {
	app *app.App
	obs *observer
}

// New loads configuration, connects the embedding cache and, unless
// WithoutStart is given, builds or loads every dataset. New fails when no
// dataset becomes ready; per-dataset failures are reported by Datasets.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{env: config.GetEnv()}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	var (
		conf config.Config
		err  error
	)
	if cfg.configPath != "" {
		conf, err = config.LoadFile(cfg.configPath)
	} else {
		conf, err = config.Load(cfg.env)
	}
	if err != nil {
		return nil, fmt.Errorf("fundsearch: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var gw app.Gateways
	if cfg.embedder != nil {
		gw.Embedder = &embedderAdapter{inner: cfg.embedder}
	}
	if cfg.classifier != nil {
		gw.Classifier = &classifierAdapter{inner: cfg.classifier}
	}

	a, err := app.New(ctx, conf, gw, cfg.logger)
	if err != nil {
		return nil, fmt.Errorf("fundsearch: %w", err)
	}
	c := &Client{app: a, obs: obs}

	if !cfg.skipStart {
		if _, err := c.Start(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}
	return c, nil
}

// Close releases the cache connection and the build pool.
func (c *Client) Close() {
	c.app.Close()
}

// Start builds or loads every configured dataset.
func (c *Client) Start(ctx context.Context) (statuses []DatasetStatus, err error) {
	start := time.Now()
	defer func() { c.obs.observe("start", start, err) }()

	statuses, err = c.app.Start(ctx)
	if err != nil {
		return statuses, fmt.Errorf("fundsearch: %w", err)
	}
	return statuses, nil
}

// Query answers a free-text query. It never fails; an unresolvable query
// yields no results.
func (c *Client) Query(ctx context.Context, text string) []Result {
	start := time.Now()
	defer func() { c.obs.observe("query", start, nil) }()

	return result.FormatAll(c.app.Query.Resolve(ctx, text))
}

// Build rebuilds one dataset from its source, replacing the persisted index.
func (c *Client) Build(ctx context.Context, dataset string) (st DatasetStatus, err error) {
	start := time.Now()
	defer func() { c.obs.observe("build", start, err) }()

	st, err = c.app.Registry.BuildIndexFor(ctx, dataset)
	if err != nil {
		return st, fmt.Errorf("fundsearch: %w", err)
	}
	return st, nil
}

// Datasets reports every configured dataset in configuration order.
func (c *Client) Datasets() []DatasetStatus {
	return c.app.Registry.Status()
}
