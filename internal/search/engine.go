// Package search implements instance and class search over an ontology
// graph: tokenization, hierarchy resolution, scoring and result assembly.
package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/graph"
	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/hierarchy"
	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/tokenize"
)

// cancelCheckInterval is how many candidates are visited between context checks.
const cancelCheckInterval = 128

// Recorder receives search observations.
type Recorder interface {
	ObserveSearch(kind string, results int, elapsed time.Duration)
}

// Options tune a single search call.
type Options struct {
	// RequireAll keeps only hits where every distinct token matched.
	RequireAll bool
	// Limit caps the number of results; zero means no limit.
	Limit int
}

// Engine answers search queries against one immutable graph index.
// An Engine is safe for concurrent use.
type Engine struct {
	idx      *graph.Index
	resolver *hierarchy.Resolver
	logger   *slog.Logger
	recorder Recorder
	language string
	defaults Options
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithLanguage sets the language used when a call passes an empty one.
func WithLanguage(lang string) Option {
	return func(e *Engine) error {
		e.language = lang
		return nil
	}
}

// WithRequireAll makes every search keep only hits matching all tokens.
func WithRequireAll(requireAll bool) Option {
	return func(e *Engine) error {
		e.defaults.RequireAll = requireAll
		return nil
	}
}

// WithLimit caps the number of results of every search.
func WithLimit(limit int) Option {
	return func(e *Engine) error {
		if limit > 0 {
			e.defaults.Limit = limit
		}
		return nil
	}
}

// WithRecorder sets the receiver of search metrics.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) error {
		e.recorder = r
		return nil
	}
}

// NewEngine creates an engine over idx.
func NewEngine(idx *graph.Index, opts ...Option) (*Engine, error) {
	if idx == nil {
		return nil, ErrNilIndex
	}
	e := &Engine{
		idx:    idx,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.resolver = hierarchy.New(idx, hierarchy.WithLogger(e.logger))
	return e, nil
}

// Index returns the graph the engine searches.
func (e *Engine) Index() *graph.Index {
	return e.idx
}

// Resolver returns the hierarchy resolver bound to the engine's index.
func (e *Engine) Resolver() *hierarchy.Resolver {
	return e.resolver
}

// Language returns the default search language.
func (e *Engine) Language() string {
	return e.language
}

// Defaults returns the options applied by SearchInstances and SearchClasses.
func (e *Engine) Defaults() Options {
	return e.defaults
}

// SearchInstances ranks the instances matching query. An empty or
// stop-word-only query returns an empty slice and no error.
func (e *Engine) SearchInstances(ctx context.Context, query, lang string) ([]*Result, error) {
	return e.SearchInstancesWith(ctx, query, lang, e.defaults)
}

// SearchClasses ranks the classes whose names match query.
func (e *Engine) SearchClasses(ctx context.Context, query, lang string) ([]*Result, error) {
	return e.SearchClassesWith(ctx, query, lang, e.defaults)
}

// SearchInstancesWith is SearchInstances with explicit options.
func (e *Engine) SearchInstancesWith(ctx context.Context, query, lang string, opts Options) ([]*Result, error) {
	return e.run(ctx, KindInstance, query, lang, opts, e.searchInstances)
}

// SearchClassesWith is SearchClasses with explicit options.
func (e *Engine) SearchClassesWith(ctx context.Context, query, lang string, opts Options) ([]*Result, error) {
	return e.run(ctx, KindClass, query, lang, opts, e.searchClasses)
}

type searchFunc func(ctx context.Context, tokens []string, lang string, opts Options) ([]*Result, error)

func (e *Engine) run(ctx context.Context, kind Kind, query, lang string, opts Options, fn searchFunc) ([]*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	if lang == "" {
		lang = e.language
	}
	norm := tokenize.Normalize(lang)
	tokens := tokenize.Tokenize(query, norm)

	results := []*Result{}
	if len(tokens) > 0 {
		var err error
		results, err = fn(ctx, tokens, norm, opts)
		if err != nil {
			return nil, err
		}
		sortByRelevance(results)
		if opts.Limit > 0 && len(results) > opts.Limit {
			results = results[:opts.Limit]
		}
	}

	elapsed := time.Since(start)
	e.logger.Debug("search completed",
		"kind", string(kind),
		"query", query,
		"lang", norm,
		"tokens", len(tokens),
		"results", len(results),
		"elapsed", elapsed,
	)
	if e.recorder != nil {
		e.recorder.ObserveSearch(string(kind), len(results), elapsed)
	}
	return results, nil
}
