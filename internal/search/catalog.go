package search

import (
	"context"
	"sync/atomic"
)

// Catalog holds the engine currently serving searches. A reload builds a
// new engine and swaps it in; in-flight searches finish on the engine they
// started with.
type Catalog struct {
	current atomic.Pointer[Engine]
}

// NewCatalog creates a catalog serving e, which may be nil.
func NewCatalog(e *Engine) *Catalog {
	c := &Catalog{}
	if e != nil {
		c.current.Store(e)
	}
	return c
}

// Engine returns the current engine, or ErrNotLoaded.
func (c *Catalog) Engine() (*Engine, error) {
	e := c.current.Load()
	if e == nil {
		return nil, ErrNotLoaded
	}
	return e, nil
}

// Swap installs e and returns the engine it replaced.
func (c *Catalog) Swap(e *Engine) *Engine {
	return c.current.Swap(e)
}

// Ready reports whether an engine is installed.
func (c *Catalog) Ready() bool {
	return c.current.Load() != nil
}

// SearchInstances searches instances on the current engine.
func (c *Catalog) SearchInstances(ctx context.Context, query, lang string, opts Options) ([]*Result, error) {
	e, err := c.Engine()
	if err != nil {
		return nil, err
	}
	return e.SearchInstancesWith(ctx, query, lang, opts)
}

// SearchClasses searches classes on the current engine.
func (c *Catalog) SearchClasses(ctx context.Context, query, lang string, opts Options) ([]*Result, error) {
	e, err := c.Engine()
	if err != nil {
		return nil, err
	}
	return e.SearchClassesWith(ctx, query, lang, opts)
}
