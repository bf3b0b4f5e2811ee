package dbpedia

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/search"
)

// Fetcher retrieves the abstract of one resource.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (*Abstract, error)
}

// Enricher fills in descriptions of local results from their linked
// DBpedia resources.
type Enricher struct {
	fetcher Fetcher
	pool    *ants.Pool
	logger  *slog.Logger
}

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher) error

// WithPoolSize sets the number of concurrent fetches.
// Default is half the number of CPUs, at least one.
func WithPoolSize(size int) EnricherOption {
	return func(e *Enricher) error {
		if size <= 0 {
			return fmt.Errorf("pool size must be positive, got %d", size)
		}
		e.pool.Tune(size)
		return nil
	}
}

// WithEnricherLogger sets a custom logger.
// Default is slog.Default().
func WithEnricherLogger(logger *slog.Logger) EnricherOption {
	return func(e *Enricher) error {
		if logger != nil {
			e.logger = logger
		}
		return nil
	}
}

// NewEnricher creates an enricher backed by f. Call Release when done.
func NewEnricher(f Fetcher, opts ...EnricherOption) (*Enricher, error) {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, fmt.Errorf("creating fetch pool: %w", err)
	}

	e := &Enricher{
		fetcher: f,
		pool:    pool,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			e.Release()
			return nil, err
		}
	}
	return e, nil
}

// Release stops the worker pool.
func (e *Enricher) Release() {
	e.pool.Release()
}

// Enrich fetches abstracts for results that link a DBpedia resource but
// carry no description, and fills Description and Image in place. Failed
// fetches are logged and leave the result unchanged. Returns the number of
// results updated.
func (e *Enricher) Enrich(ctx context.Context, results []*search.Result) (int, error) {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		updated int
	)

	for _, r := range results {
		if r == nil || r.DBpediaURI == "" || r.Description != "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			break
		}

		r := r
		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()

			abs, err := e.fetcher.Fetch(ctx, r.DBpediaURI)
			if err != nil {
				e.logger.Warn("dbpedia enrichment failed", "uri", r.DBpediaURI, "err", err)
				return
			}
			if abs.Abstract == "" {
				return
			}
			r.Description = truncate(abs.Abstract, abstractLimit)
			if r.Image == "" {
				r.Image = abs.Thumbnail
			}

			mu.Lock()
			updated++
			mu.Unlock()
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return updated, fmt.Errorf("submitting fetch: %w", err)
		}
	}

	wg.Wait()
	return updated, ctx.Err()
}
