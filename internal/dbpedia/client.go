// Package dbpedia queries the public DBpedia SPARQL endpoint for desserts
// that are not in the local ontology.
//
// Remote hits are returned as search results with source "dbpedia". They are
// never ranked against local hits.
package dbpedia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/storage"
)

const (
	// DefaultEndpoint is the public DBpedia SPARQL endpoint.
	DefaultEndpoint = "https://dbpedia.org/sparql"

	// DefaultTimeout bounds a single SPARQL request.
	DefaultTimeout = 30 * time.Second

	// DefaultLimit is the number of resources Search returns.
	DefaultLimit = 10

	// DefaultCacheTTL is how long a cached response stays valid.
	DefaultCacheTTL = 24 * time.Hour

	sparqlResultsFormat = "application/sparql-results+json"
)

// Outcomes passed to Recorder.ObserveDBpedia.
const (
	OutcomeOK          = "ok"
	OutcomeError       = "error"
	OutcomeCacheHit    = "cache_hit"
	OutcomeBreakerOpen = "breaker_open"
)

var (
	// ErrEmptyTerm is returned by Search for a blank term.
	ErrEmptyTerm = errors.New("empty search term")

	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("dbpedia unavailable")
)

// Recorder observes remote calls.
type Recorder interface {
	ObserveDBpedia(outcome string)
}

// BreakerSettings configures the circuit breaker around the endpoint.
type BreakerSettings struct {
	// MaxRequests allowed through while half-open.
	MaxRequests uint32

	// Interval clears the failure counts while closed. Zero never clears.
	Interval time.Duration

	// Timeout is how long the breaker stays open.
	Timeout time.Duration

	// MinRequests before the failure ratio is considered.
	MinRequests uint32

	// FailureRatio at or above which the breaker opens.
	FailureRatio float64
}

// DefaultBreakerSettings returns the breaker configuration used when none
// is given.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  3,
		FailureRatio: 0.6,
	}
}

// Client talks to a SPARQL endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	settings   BreakerSettings
	cache      storage.Cache
	cacheTTL   time.Duration
	language   string
	logger     *slog.Logger
	recorder   Recorder
}

// Option configures a Client.
type Option func(*Client) error

// WithEndpoint sets the SPARQL endpoint URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) error {
		u, err := url.Parse(endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid endpoint %q", endpoint)
		}
		c.endpoint = endpoint
		return nil
	}
}

// WithHTTPClient sets the HTTP client. Its timeout is left untouched.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc != nil {
			c.httpClient = hc
		}
		return nil
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", d)
		}
		c.httpClient = &http.Client{Timeout: d, Transport: c.httpClient.Transport}
		return nil
	}
}

// WithCache stores raw responses in cache for ttl.
func WithCache(cache storage.Cache, ttl time.Duration) Option {
	return func(c *Client) error {
		c.cache = cache
		if ttl > 0 {
			c.cacheTTL = ttl
		}
		return nil
	}
}

// WithBreaker replaces the default circuit breaker settings.
func WithBreaker(s BreakerSettings) Option {
	return func(c *Client) error {
		if s.FailureRatio <= 0 || s.FailureRatio > 1 {
			return fmt.Errorf("breaker failure ratio must be in (0, 1], got %v", s.FailureRatio)
		}
		c.settings = s
		return nil
	}
}

// WithLanguage sets the abstract language used by Fetch. Default is "en".
func WithLanguage(lang string) Option {
	return func(c *Client) error {
		if lang != "" {
			c.language = strings.ToLower(lang)
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// WithRecorder reports every call outcome to r.
func WithRecorder(r Recorder) Option {
	return func(c *Client) error {
		c.recorder = r
		return nil
	}
}

// NewClient creates a client for the DBpedia endpoint.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		endpoint:   DefaultEndpoint,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		settings:   DefaultBreakerSettings(),
		cacheTTL:   DefaultCacheTTL,
		language:   "en",
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	s := c.settings
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "dbpedia",
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= s.MinRequests && failureRatio >= s.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			// Callers giving up is not the endpoint's fault.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return c, nil
}

// Endpoint returns the SPARQL endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// binding is one variable binding of a SPARQL JSON result row.
type binding struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Lang  string `json:"xml:lang,omitempty"`
}

type row map[string]binding

type sparqlResponse struct {
	Results struct {
		Bindings []row `json:"bindings"`
	} `json:"results"`
}

// query runs a SELECT query and returns its rows, consulting the cache first.
func (c *Client) query(ctx context.Context, q string) ([]row, error) {
	key := storage.Key("sparql", c.endpoint, q)
	if c.cache != nil {
		data, err := c.cache.Get(ctx, key)
		if err == nil {
			var rows []row
			if err := json.Unmarshal(data, &rows); err == nil {
				c.observe(OutcomeCacheHit)
				return rows, nil
			}
			c.logger.Warn("discarding corrupt cache entry", "key", key)
		} else if !errors.Is(err, storage.ErrNotFound) {
			c.logger.Warn("cache lookup failed", "err", err)
		}
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, q)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.observe(OutcomeBreakerOpen)
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		c.observe(OutcomeError)
		return nil, err
	}
	c.observe(OutcomeOK)

	rows := out.([]row)
	if c.cache != nil {
		if data, err := json.Marshal(rows); err == nil {
			if err := c.cache.Set(ctx, key, data, c.cacheTTL); err != nil {
				c.logger.Warn("cache store failed", "err", err)
			}
		}
	}
	return rows, nil
}

// do performs one HTTP round trip.
func (c *Client) do(ctx context.Context, q string) ([]row, error) {
	params := url.Values{}
	params.Set("query", q)
	params.Set("format", sparqlResultsFormat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", sparqlResultsFormat)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying dbpedia: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("dbpedia returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var decoded sparqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding dbpedia response: %w", err)
	}
	if decoded.Results.Bindings == nil {
		return []row{}, nil
	}
	return decoded.Results.Bindings, nil
}

func (c *Client) observe(outcome string) {
	if c.recorder != nil {
		c.recorder.ObserveDBpedia(outcome)
	}
}
