package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig indicates a configuration value outside its allowed range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Default values for configuration fields.
const (
	DefaultSPARQLEndpoint   = "http://database:8890/sparql"
	DefaultMigrationsDir    = "/data/migrations"
	DefaultMigrationsGraph  = "http://mu.semte.ch/graphs/migrations"
	DefaultGraph            = "http://mu.semte.ch/application"
	DefaultBatchSize        = 12000
	DefaultMinimumBatchSize = 100
	DefaultCountBatchSize   = 100
	DefaultWaitInterval     = 2 * time.Second
	DefaultLogLevel         = "info"
)

// Config holds the application configuration loaded from file, environment, and flags.
type Config struct {
	SPARQLEndpoint   string
	MigrationsDir    string
	MigrationsGraph  string
	DefaultGraph     string
	BatchSize        int
	MinimumBatchSize int
	CountBatchSize   int
	WaitInterval     time.Duration
	RequestTimeout   time.Duration // zero means no timeout
	Headers          map[string]string
	LogLevel         string
	LogFile          string
}

// yamlConfig is the raw YAML file representation with string durations.
type yamlConfig struct {
	SPARQLEndpoint   string            `yaml:"sparql_endpoint"`
	MigrationsDir    string            `yaml:"migrations_dir"`
	MigrationsGraph  string            `yaml:"migrations_graph"`
	DefaultGraph     string            `yaml:"default_graph"`
	BatchSize        int               `yaml:"batch_size"`
	MinimumBatchSize int               `yaml:"minimum_batch_size"`
	CountBatchSize   int               `yaml:"count_batch_size"`
	WaitInterval     string            `yaml:"wait_interval"`
	RequestTimeout   string            `yaml:"request_timeout"`
	Headers          map[string]string `yaml:"headers"`
	LogLevel         string            `yaml:"log_level"`
	LogFile          string            `yaml:"log_file"`
}

// New returns a Config populated with default values.
func New() *Config {
	return &Config{
		SPARQLEndpoint:   DefaultSPARQLEndpoint,
		MigrationsDir:    DefaultMigrationsDir,
		MigrationsGraph:  DefaultMigrationsGraph,
		DefaultGraph:     DefaultGraph,
		BatchSize:        DefaultBatchSize,
		MinimumBatchSize: DefaultMinimumBatchSize,
		CountBatchSize:   DefaultCountBatchSize,
		WaitInterval:     DefaultWaitInterval,
		LogLevel:         DefaultLogLevel,
	}
}

// Load reads a YAML configuration file and returns a Config.
// If allowMissing is true and the file does not exist, defaults are returned.
func Load(path string, allowMissing bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && allowMissing {
			return New(), nil
		}

		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return fromYAML(&raw)
}

// fromYAML converts the raw YAML representation to a Config with defaults applied.
func fromYAML(raw *yamlConfig) (*Config, error) {
	cfg := New()

	setString(&cfg.SPARQLEndpoint, raw.SPARQLEndpoint)
	setString(&cfg.MigrationsDir, raw.MigrationsDir)
	setString(&cfg.MigrationsGraph, raw.MigrationsGraph)
	setString(&cfg.DefaultGraph, raw.DefaultGraph)
	setString(&cfg.LogLevel, raw.LogLevel)
	setString(&cfg.LogFile, raw.LogFile)

	if raw.BatchSize != 0 {
		cfg.BatchSize = raw.BatchSize
	}

	if raw.MinimumBatchSize != 0 {
		cfg.MinimumBatchSize = raw.MinimumBatchSize
	}

	if raw.CountBatchSize != 0 {
		cfg.CountBatchSize = raw.CountBatchSize
	}

	if raw.WaitInterval != "" {
		d, err := time.ParseDuration(raw.WaitInterval)
		if err != nil {
			return nil, fmt.Errorf("parsing wait_interval %q: %w", raw.WaitInterval, err)
		}

		cfg.WaitInterval = d
	}

	if raw.RequestTimeout != "" {
		d, err := time.ParseDuration(raw.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("parsing request_timeout %q: %w", raw.RequestTimeout, err)
		}

		cfg.RequestTimeout = d
	}

	if len(raw.Headers) > 0 {
		cfg.Headers = raw.Headers
	}

	return cfg, nil
}

// MergeEnv overrides config fields from MIGRATE_* environment variables.
// Values that fail to parse leave the field unchanged.
func MergeEnv(cfg *Config) {
	setString(&cfg.SPARQLEndpoint, os.Getenv("MIGRATE_SPARQL_ENDPOINT"))
	setString(&cfg.MigrationsDir, os.Getenv("MIGRATE_MIGRATIONS_DIR"))
	setString(&cfg.MigrationsGraph, os.Getenv("MIGRATE_MIGRATIONS_GRAPH"))
	setString(&cfg.DefaultGraph, os.Getenv("MIGRATE_DEFAULT_GRAPH"))
	setString(&cfg.LogLevel, os.Getenv("MIGRATE_LOG_LEVEL"))
	setString(&cfg.LogFile, os.Getenv("MIGRATE_LOG_FILE"))

	setInt(&cfg.BatchSize, os.Getenv("MIGRATE_BATCH_SIZE"))
	setInt(&cfg.MinimumBatchSize, os.Getenv("MIGRATE_MINIMUM_BATCH_SIZE"))
	setInt(&cfg.CountBatchSize, os.Getenv("MIGRATE_COUNT_BATCH_SIZE"))

	setDuration(&cfg.WaitInterval, os.Getenv("MIGRATE_WAIT_INTERVAL"))
	setDuration(&cfg.RequestTimeout, os.Getenv("MIGRATE_REQUEST_TIMEOUT"))
}

// Validate checks the numeric settings.
func (c *Config) Validate() error {
	switch {
	case c.BatchSize <= 0:
		return fmt.Errorf("%w: batch_size must be positive, got %d", ErrInvalidConfig, c.BatchSize)
	case c.MinimumBatchSize <= 0:
		return fmt.Errorf("%w: minimum_batch_size must be positive, got %d", ErrInvalidConfig, c.MinimumBatchSize)
	case c.MinimumBatchSize > c.BatchSize:
		return fmt.Errorf("%w: minimum_batch_size %d exceeds batch_size %d",
			ErrInvalidConfig, c.MinimumBatchSize, c.BatchSize)
	case c.CountBatchSize <= 0:
		return fmt.Errorf("%w: count_batch_size must be positive, got %d", ErrInvalidConfig, c.CountBatchSize)
	case c.WaitInterval <= 0:
		return fmt.Errorf("%w: wait_interval must be positive, got %s", ErrInvalidConfig, c.WaitInterval)
	case c.RequestTimeout < 0:
		return fmt.Errorf("%w: request_timeout must not be negative, got %s", ErrInvalidConfig, c.RequestTimeout)
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v string) {
	if v == "" {
		return
	}

	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}

func setDuration(dst *time.Duration, v string) {
	if v == "" {
		return
	}

	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}
