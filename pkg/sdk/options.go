package fundsearch

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	configPath string
	env        string

	embedder   Embedder
	classifier Classifier

	skipStart bool

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithConfigFile reads configuration from an explicit YAML file.
func WithConfigFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.configPath = path
	})
}

// WithEnv selects config/<env>.yaml. Ignored when WithConfigFile is set.
// Defaults to $ENV, then "local".
func WithEnv(env string) Option {
	return optionFunc(func(c *clientConfig) {
		c.env = env
	})
}

// WithEmbedder replaces the configured embedding provider. Caching,
// instrumentation and instructions still wrap it.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithClassifier replaces the configured intent classifier.
func WithClassifier(cl Classifier) Option {
	return optionFunc(func(c *clientConfig) {
		c.classifier = cl
	})
}

// WithoutStart skips building or loading datasets in New. Call Start or
// Build before querying.
func WithoutStart() Option {
	return optionFunc(func(c *clientConfig) {
		c.skipStart = true
	})
}

// WithLogger sets the logger passed to every component. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
