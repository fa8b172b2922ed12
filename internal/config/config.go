package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the fundsearch configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Cache      CacheConfig      `yaml:"cache"`
	Index      IndexConfig      `yaml:"index"`
	Search     SearchConfig     `yaml:"search"`
	Datasets   []DatasetConfig  `yaml:"datasets"`
	Holdings   HoldingsConfig   `yaml:"holdings"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// EmbeddingConfig holds the embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // label for metrics (ollama, openai, nebius)
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	TimeoutSec int    `yaml:"timeout_sec"`
	// Instructions are prepended to indexed texts and to query variants respectively.
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
}

// ClassifierConfig holds the intent classifier chat model settings.
type ClassifierConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
	JSONMode   bool   `yaml:"json_mode"`
}

// Cache drivers.
const (
	CacheNone   = "none"
	CacheRedis  = "redis"
	CacheBadger = "badger"
)

// CacheConfig holds embedding cache settings.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // none, redis, badger (default: none)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	Path             string   `yaml:"path"`
	TTLSec           int      `yaml:"ttl_sec"` // 0 = no expiry
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig holds index build and persistence settings.
type IndexConfig struct {
	Dir          string `yaml:"dir"`
	BuildWorkers int    `yaml:"build_workers"`
	RebuildStale bool   `yaml:"rebuild_stale"`
}

// SearchConfig holds retrieval settings.
type SearchConfig struct {
	TopK        int `yaml:"top_k"`        // neighbours per variant per dataset
	ResultLimit int `yaml:"result_limit"` // results returned to callers
}

// DatasetConfig describes one indexed dataset.
type DatasetConfig struct {
	ID           string        `yaml:"id"`
	Source       string        `yaml:"source"`
	IndexFile    string        `yaml:"index_file"`
	MetadataFile string        `yaml:"metadata_file"`
	EnrichFrom   *EnrichConfig `yaml:"enrich_from"`
}

// EnrichConfig joins a dataset's rows to another dataset's raw source at build time.
type EnrichConfig struct {
	Dataset    string   `yaml:"dataset"`
	LocalKey   string   `yaml:"local_key"`
	ForeignKey string   `yaml:"foreign_key"`
	Fields     []string `yaml:"fields"`
}

// HoldingsConfig locates the enrichment source for metadata results.
type HoldingsConfig struct {
	Path string `yaml:"path"`
}

// DefaultEnrichFields are copied when enrich_from lists no fields.
var DefaultEnrichFields = []string{"amcName", "schemeName", "category", "subCategory", "riskOMeter", "assetType"}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path. A .env file in the
// working directory is loaded first; variables already set win.
func LoadFile(configPath string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "ollama"
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 30
	}
	if c.Classifier.TimeoutSec <= 0 {
		c.Classifier.TimeoutSec = 30
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = CacheNone
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Index.Dir == "" {
		c.Index.Dir = "data/index"
	}
	if c.Index.BuildWorkers <= 0 {
		c.Index.BuildWorkers = runtime.NumCPU()
	}
	if c.Search.TopK <= 0 {
		c.Search.TopK = 5
	}
	if c.Search.ResultLimit <= 0 {
		c.Search.ResultLimit = 5
	}
	for i := range c.Datasets {
		d := &c.Datasets[i]
		if d.IndexFile == "" {
			d.IndexFile = filepath.Join(c.Index.Dir, d.ID+".index")
		}
		if d.MetadataFile == "" {
			d.MetadataFile = filepath.Join(c.Index.Dir, d.ID+"_metadata.json")
		}
		if d.EnrichFrom != nil && len(d.EnrichFrom.Fields) == 0 {
			d.EnrichFrom.Fields = append([]string(nil), DefaultEnrichFields...)
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Embedding.Model == "" {
		return errors.New("embedding.model is required")
	}
	if c.Classifier.Model == "" {
		return errors.New("classifier.model is required")
	}
	switch c.Cache.Driver {
	case CacheNone:
	case CacheRedis:
		if len(c.Cache.Addrs) == 0 {
			return errors.New("cache.addrs is required for the redis driver")
		}
	case CacheBadger:
		if c.Cache.Path == "" {
			return errors.New("cache.path is required for the badger driver")
		}
	default:
		return fmt.Errorf("cache.driver must be %q, %q or %q, got %q", CacheNone, CacheRedis, CacheBadger, c.Cache.Driver)
	}
	return c.validateDatasets()
}

func (c *Config) validateDatasets() error {
	if len(c.Datasets) == 0 {
		return errors.New("at least one dataset is required")
	}
	seen := make(map[string]bool, len(c.Datasets))
	for i, d := range c.Datasets {
		if d.ID == "" {
			return fmt.Errorf("datasets[%d].id is required", i)
		}
		if seen[d.ID] {
			return fmt.Errorf("datasets[%d].id %q is duplicated", i, d.ID)
		}
		seen[d.ID] = true
		if d.Source == "" {
			return fmt.Errorf("datasets.%s.source is required", d.ID)
		}
	}
	for _, d := range c.Datasets {
		e := d.EnrichFrom
		if e == nil {
			continue
		}
		if e.Dataset == d.ID || !seen[e.Dataset] {
			return fmt.Errorf("datasets.%s.enrich_from.dataset %q must name another configured dataset", d.ID, e.Dataset)
		}
		if e.LocalKey == "" || e.ForeignKey == "" {
			return fmt.Errorf("datasets.%s.enrich_from requires local_key and foreign_key", d.ID)
		}
	}
	return nil
}

// Dataset returns the configuration of dataset id.
func (c *Config) Dataset(id string) (DatasetConfig, bool) {
	for _, d := range c.Datasets {
		if d.ID == id {
			return d, true
		}
	}
	return DatasetConfig{}, false
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := env + ".yaml"

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// Relative to the source file, for tests run from package directories.
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
