package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reposteria.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, "reposteria.owl", cfg.Ontology.Path)
	assert.Equal(t, "es", cfg.Ontology.DefaultLanguage)
	assert.Equal(t, 2*time.Second, cfg.Ontology.Debounce)
	assert.Equal(t, 30*time.Second, cfg.DBpedia.Timeout)
	assert.Equal(t, 10, cfg.DBpedia.ResultLimit)
	assert.Equal(t, 24*time.Hour, cfg.DBpedia.CacheTTL)
	assert.Equal(t, 0.6, cfg.DBpedia.CircuitBreaker.ReadyToTripRatio)
	assert.Equal(t, "localhost:8080", cfg.Server.Addr())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
ontology:
  path: /data/reposteria.owl
  default_language: en
search:
  limit: 5
  require_all_terms: true
dbpedia:
  enabled: true
  timeout: 10s
  cache_path: /tmp/cache
  circuit_breaker:
    min_requests: 5
server:
  port: 9090
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/reposteria.owl", cfg.Ontology.Path)
	assert.Equal(t, "en", cfg.Ontology.DefaultLanguage)
	assert.Equal(t, 5, cfg.Search.Limit)
	assert.True(t, cfg.Search.RequireAllTerms)
	assert.True(t, cfg.DBpedia.Enabled)
	assert.Equal(t, 10*time.Second, cfg.DBpedia.Timeout)
	assert.Equal(t, "/tmp/cache", cfg.DBpedia.CachePath)
	assert.EqualValues(t, 5, cfg.DBpedia.CircuitBreaker.MinRequests)
	assert.EqualValues(t, 1, cfg.DBpedia.CircuitBreaker.MaxRequests)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	t.Run("MissingFile", func(t *testing.T) {
		t.Parallel()
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorContains(t, err, "reading config")
	})

	t.Run("MalformedYAML", func(t *testing.T) {
		t.Parallel()
		_, err := Load(writeConfig(t, "ontology: [unclosed"))
		assert.Error(t, err)
	})

	t.Run("BadDuration", func(t *testing.T) {
		t.Parallel()
		_, err := Load(writeConfig(t, "dbpedia:\n  timeout: soon\n"))
		assert.ErrorContains(t, err, "unable to decode config")
	})
}

// Environment tests cannot run in parallel.
func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "ontology:\n  path: from-file.owl\nserver:\n  port: 9090\n")

	t.Setenv("REPOSTERIA_ONTOLOGY_PATH", "from-env.owl")
	t.Setenv("REPOSTERIA_DBPEDIA_ENABLED", "true")
	t.Setenv("REPOSTERIA_DBPEDIA_CACHE_TTL", "1h")
	t.Setenv("REPOSTERIA_SEARCH_LIMIT", "3")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env.owl", cfg.Ontology.Path)
	assert.True(t, cfg.DBpedia.Enabled)
	assert.Equal(t, time.Hour, cfg.DBpedia.CacheTTL)
	assert.Equal(t, 3, cfg.Search.Limit)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		message string
	}{
		{name: "EmptyOntologyPath", mutate: func(c *Config) { c.Ontology.Path = " " }, message: "ontology.path"},
		{name: "NegativeLimit", mutate: func(c *Config) { c.Search.Limit = -1 }, message: "search.limit"},
		{name: "ZeroTimeout", mutate: func(c *Config) { c.DBpedia.Timeout = 0 }, message: "dbpedia.timeout"},
		{name: "ZeroResultLimit", mutate: func(c *Config) { c.DBpedia.ResultLimit = 0 }, message: "dbpedia.result_limit"},
		{name: "ZeroPoolSize", mutate: func(c *Config) { c.DBpedia.PoolSize = 0 }, message: "dbpedia.pool_size"},
		{name: "ZeroCacheTTL", mutate: func(c *Config) { c.DBpedia.CacheTTL = 0 }, message: "dbpedia.cache_ttl"},
		{name: "TripRatio", mutate: func(c *Config) { c.DBpedia.CircuitBreaker.ReadyToTripRatio = 2 }, message: "ready_to_trip_ratio"},
		{name: "Port", mutate: func(c *Config) { c.Server.Port = 70000 }, message: "server.port"},
		{name: "Mode", mutate: func(c *Config) { c.Server.Mode = "prod" }, message: "server.mode"},
		{name: "LogLevel", mutate: func(c *Config) { c.Log.Level = "loud" }, message: "log.level"},
		{name: "LogFormat", mutate: func(c *Config) { c.Log.Format = "xml" }, message: "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}

	t.Run("ReportsAllProblems", func(t *testing.T) {
		t.Parallel()
		cfg := Default()
		cfg.Ontology.Path = ""
		cfg.Server.Port = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ontology.path")
		assert.Contains(t, err.Error(), "server.port")
	})
}
