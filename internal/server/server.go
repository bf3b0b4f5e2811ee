// Package server exposes the search engine as a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/search"
)

// RemoteSearcher looks up results outside the local ontology.
type RemoteSearcher interface {
	Search(ctx context.Context, term string, limit int) ([]*search.Result, error)
}

// Enricher fills in missing descriptions of local results.
type Enricher interface {
	Enrich(ctx context.Context, results []*search.Result) (int, error)
}

// Server represents the HTTP server
type Server struct {
	catalog     *search.Catalog
	remote      RemoteSearcher
	remoteLimit int
	enricher    Enricher
	metrics     http.Handler
	logger      *slog.Logger
	mode        string
	addr        string
	version     string

	router *gin.Engine
	server *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithAddr sets the listen address. Default is localhost:8080.
func WithAddr(addr string) Option {
	return func(s *Server) {
		if addr != "" {
			s.addr = addr
		}
	}
}

// WithMode sets the gin mode: debug, release or test.
func WithMode(mode string) Option {
	return func(s *Server) {
		if mode != "" {
			s.mode = mode
		}
	}
}

// WithRemote enables DBpedia lookups on the combined search route.
func WithRemote(r RemoteSearcher, limit int) Option {
	return func(s *Server) {
		s.remote = r
		s.remoteLimit = limit
	}
}

// WithEnricher enables description enrichment of local results.
func WithEnricher(e Enricher) Option {
	return func(s *Server) {
		s.enricher = e
	}
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithMetrics serves h on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a server answering from catalog and sets up its routes.
func New(catalog *search.Catalog, opts ...Option) *Server {
	s := &Server{
		catalog: catalog,
		logger:  slog.Default(),
		mode:    gin.ReleaseMode,
		addr:    "localhost:8080",
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setup()
	return s
}

// setup sets up the router, middleware and routes.
func (s *Server) setup() {
	gin.SetMode(s.mode)

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(loggingMiddleware(s.logger))
	s.router.Use(corsMiddleware())

	s.setupRoutes()

	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// setupRoutes sets up all the routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.health)
	s.router.GET("/ready", s.ready)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics))
	}

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/search", s.searchAll)
		v1.GET("/search/instances", s.searchInstances)
		v1.GET("/search/classes", s.searchClasses)
		v1.GET("/stats", s.stats)
	}
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.addr)
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("http server stopping")
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
