// Package hierarchy resolves transitive class relations over a graph index.
package hierarchy

import (
	"log/slog"
	"sync"

	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/graph"
)

// Resolver computes subclass and superclass closures and class membership
// over one immutable Index. Closures are computed once per class and cached;
// a Resolver is safe for concurrent use.
type Resolver struct {
	idx    *graph.Index
	logger *slog.Logger

	subs map[string][]string // direct subclasses
	sups map[string][]string // direct superclasses

	subCache   sync.Map // class -> *closure
	supCache   sync.Map
	cycleWarns sync.Map
}

type closure struct {
	once sync.Once
	ids  []string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for data quality warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Resolver over idx.
func New(idx *graph.Index, opts ...Option) *Resolver {
	r := &Resolver{
		idx:    idx,
		logger: slog.Default(),
		subs:   make(map[string][]string),
		sups:   make(map[string][]string),
	}
	for _, opt := range opts {
		opt(r)
	}

	for _, t := range idx.Triples() {
		if t.Predicate != graph.RDFSSubClassOf || !t.Object.IsReference() || graph.IsBlank(t.Object.Ref) {
			continue
		}
		r.subs[t.Object.Ref] = append(r.subs[t.Object.Ref], t.Subject)
		r.sups[t.Subject] = append(r.sups[t.Subject], t.Object.Ref)
	}
	return r
}

// SubclassesOf returns the transitive subclasses of cls, excluding cls.
func (r *Resolver) SubclassesOf(cls string) []string {
	return r.closure(&r.subCache, r.subs, cls)
}

// SuperclassesOf returns the transitive superclasses of cls, excluding cls.
func (r *Resolver) SuperclassesOf(cls string) []string {
	return r.closure(&r.supCache, r.sups, cls)
}

// SuperclassesOfAll returns the union of the transitive superclasses of
// every class in classes, excluding the classes themselves.
func (r *Resolver) SuperclassesOfAll(classes []string) []string {
	own := make(map[string]bool, len(classes))
	for _, c := range classes {
		own[c] = true
	}
	seen := make(map[string]bool)
	var out []string
	for _, c := range classes {
		for _, s := range r.SuperclassesOf(c) {
			if own[s] || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// InstancesOf returns the direct type members of cls and of every
// transitive subclass, deduplicated, in index order.
func (r *Resolver) InstancesOf(cls string) []string {
	classes := append([]string{cls}, r.SubclassesOf(cls)...)
	seen := make(map[string]bool)
	var out []string
	for _, c := range classes {
		for _, id := range r.idx.SubjectsWithType(c) {
			if seen[id] || r.idx.IsClass(id) {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// IsProduct reports whether any of classes, or any of their transitive
// superclasses, is the product sentinel class.
func (r *Resolver) IsProduct(classes []string) bool {
	for _, c := range classes {
		if graph.IsProductClass(c) {
			return true
		}
		for _, s := range r.SuperclassesOf(c) {
			if graph.IsProductClass(s) {
				return true
			}
		}
	}
	return false
}

// closure returns the cached transitive closure of start over edges.
func (r *Resolver) closure(cache *sync.Map, edges map[string][]string, start string) []string {
	v, _ := cache.LoadOrStore(start, &closure{})
	c := v.(*closure)
	c.once.Do(func() {
		c.ids = r.walk(edges, start)
	})
	return append([]string(nil), c.ids...)
}

// walk is a depth-first traversal guarded by a visited set, so cyclic
// subclass declarations terminate.
func (r *Resolver) walk(edges map[string][]string, start string) []string {
	visited := map[string]bool{start: true}
	var out []string
	stack := append([]string(nil), edges[start]...)
	for i, j := 0, len(stack)-1; i < j; i, j = i+1, j-1 {
		stack[i], stack[j] = stack[j], stack[i]
	}
	for len(stack) > 0 {
		n := len(stack) - 1
		cur := stack[n]
		stack = stack[:n]
		if visited[cur] {
			if cur == start {
				r.warnCycle(start)
			}
			continue
		}
		visited[cur] = true
		out = append(out, cur)
		next := edges[cur]
		for i := len(next) - 1; i >= 0; i-- {
			stack = append(stack, next[i])
		}
	}
	return out
}

func (r *Resolver) warnCycle(class string) {
	if _, loaded := r.cycleWarns.LoadOrStore(class, true); loaded {
		return
	}
	r.logger.Warn("cyclic subclass relation", "class", class)
}
