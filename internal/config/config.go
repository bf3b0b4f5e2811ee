// Package config loads reposteria settings from defaults, an optional YAML
// file and REPOSTERIA_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g.
// REPOSTERIA_ONTOLOGY_PATH or REPOSTERIA_DBPEDIA_ENABLED.
const EnvPrefix = "REPOSTERIA"

// DefaultFile is read when no config file is given and it exists.
const DefaultFile = "reposteria.yaml"

// Config holds all settings.
type Config struct {
	Ontology OntologyConfig `mapstructure:"ontology"`
	Search   SearchConfig   `mapstructure:"search"`
	DBpedia  DBpediaConfig  `mapstructure:"dbpedia"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

// OntologyConfig locates the ontology.
type OntologyConfig struct {
	// Path is an RDF/XML document or a directory of documents.
	Path            string        `mapstructure:"path"`
	DefaultLanguage string        `mapstructure:"default_language"`
	Watch           bool          `mapstructure:"watch"`
	Debounce        time.Duration `mapstructure:"debounce"`
}

// SearchConfig holds local search defaults.
type SearchConfig struct {
	// Limit caps results per search. Zero means no cap.
	Limit           int  `mapstructure:"limit"`
	RequireAllTerms bool `mapstructure:"require_all_terms"`
}

// DBpediaConfig configures the remote lookups.
type DBpediaConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Endpoint    string        `mapstructure:"endpoint"`
	Timeout     time.Duration `mapstructure:"timeout"`
	ResultLimit int           `mapstructure:"result_limit"`
	Language    string        `mapstructure:"language"`

	// CachePath is the badger directory. Empty keeps the cache in memory.
	CachePath string        `mapstructure:"cache_path"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
	PoolSize  int           `mapstructure:"pool_size"`

	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// CircuitBreakerConfig configures the breaker around the endpoint.
type CircuitBreakerConfig struct {
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MinRequests      uint32        `mapstructure:"min_requests"`
	ReadyToTripRatio float64       `mapstructure:"ready_to_trip_ratio"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// Load reads configuration. path names a YAML file; when empty,
// DefaultFile in the working directory is used if present.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if _, err := os.Stat(DefaultFile); err == nil {
		v.SetConfigFile(DefaultFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", DefaultFile, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	// Defaults always decode.
	_ = v.Unmarshal(cfg)
	return cfg
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("ontology.path", "reposteria.owl")
	v.SetDefault("ontology.default_language", "es")
	v.SetDefault("ontology.watch", false)
	v.SetDefault("ontology.debounce", 2*time.Second)

	v.SetDefault("search.limit", 0)
	v.SetDefault("search.require_all_terms", false)

	v.SetDefault("dbpedia.enabled", false)
	v.SetDefault("dbpedia.endpoint", "https://dbpedia.org/sparql")
	v.SetDefault("dbpedia.timeout", 30*time.Second)
	v.SetDefault("dbpedia.result_limit", 10)
	v.SetDefault("dbpedia.language", "en")
	v.SetDefault("dbpedia.cache_path", "")
	v.SetDefault("dbpedia.cache_ttl", 24*time.Hour)
	v.SetDefault("dbpedia.pool_size", 4)
	v.SetDefault("dbpedia.circuit_breaker.max_requests", 1)
	v.SetDefault("dbpedia.circuit_breaker.interval", time.Minute)
	v.SetDefault("dbpedia.circuit_breaker.timeout", 30*time.Second)
	v.SetDefault("dbpedia.circuit_breaker.min_requests", 3)
	v.SetDefault("dbpedia.circuit_breaker.ready_to_trip_ratio", 0.6)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Ontology.Path) == "" {
		errs = append(errs, errors.New("ontology.path must not be empty"))
	}
	if c.Ontology.Debounce <= 0 {
		errs = append(errs, fmt.Errorf("ontology.debounce must be positive, got %s", c.Ontology.Debounce))
	}
	if c.Search.Limit < 0 {
		errs = append(errs, fmt.Errorf("search.limit must not be negative, got %d", c.Search.Limit))
	}
	if c.DBpedia.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("dbpedia.timeout must be positive, got %s", c.DBpedia.Timeout))
	}
	if c.DBpedia.ResultLimit <= 0 {
		errs = append(errs, fmt.Errorf("dbpedia.result_limit must be positive, got %d", c.DBpedia.ResultLimit))
	}
	if c.DBpedia.PoolSize <= 0 {
		errs = append(errs, fmt.Errorf("dbpedia.pool_size must be positive, got %d", c.DBpedia.PoolSize))
	}
	if c.DBpedia.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("dbpedia.cache_ttl must be positive, got %s", c.DBpedia.CacheTTL))
	}
	if r := c.DBpedia.CircuitBreaker.ReadyToTripRatio; r <= 0 || r > 1 {
		errs = append(errs, fmt.Errorf("dbpedia.circuit_breaker.ready_to_trip_ratio must be in (0, 1], got %v", r))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port))
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not a known level", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}
