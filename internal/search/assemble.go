package search

import (
	"sort"
	"strings"

	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/graph"
)

// Kind tells instance hits from class hits.
type Kind string

const (
	KindInstance Kind = "instance"
	KindClass    Kind = "class"
)

// Source tells local hits from DBpedia hits.
type Source string

const (
	SourceLocal   Source = "local"
	SourceDBpedia Source = "dbpedia"
)

// Result is one search hit. Instance and class hits share the shape; fields
// that do not apply to a kind are left empty. Slices and the attribute map
// are never nil so they encode as [] and {}.
type Result struct {
	Kind         Kind                `json:"kind"`
	Name         string              `json:"name"`
	URI          string              `json:"uri"`
	Classes      []string            `json:"classes"`
	Superclasses []string            `json:"superclasses"`
	IsProduct    bool                `json:"is_product"`
	Ingredients  []string            `json:"ingredients"`
	Tools        []string            `json:"tools"`
	Techniques   []string            `json:"techniques"`
	Attributes   map[string][]string `json:"attributes"`
	UsedBy       []string            `json:"used_by"`
	Subclasses   []string            `json:"subclasses"`
	Instances    []string            `json:"instances"`
	Categories   []string            `json:"categories"`
	Description  string              `json:"description"`
	DBpediaURI   string              `json:"dbpedia_uri"`
	Image        string              `json:"image,omitempty"`
	Source       Source              `json:"source"`
	Relevance    int                 `json:"relevance"`
}

// NewResult creates an empty result of the given kind and source.
func NewResult(kind Kind, source Source) *Result {
	r := &Result{Kind: kind, Source: source}
	r.Normalize()
	return r
}

// Normalize replaces nil slices and maps with empty ones.
func (r *Result) Normalize() {
	for _, s := range []*[]string{
		&r.Classes, &r.Superclasses, &r.Ingredients, &r.Tools,
		&r.Techniques, &r.UsedBy, &r.Subclasses, &r.Instances,
		&r.Categories,
	} {
		if *s == nil {
			*s = []string{}
		}
	}
	if r.Attributes == nil {
		r.Attributes = map[string][]string{}
	}
}

// AttributeKeys returns the attribute names in sorted order.
func (r *Result) AttributeKeys() []string {
	keys := make([]string, 0, len(r.Attributes))
	for k := range r.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortByRelevance orders results by descending relevance, keeping the
// input order of ties.
func sortByRelevance(results []*Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})
}

// displayNames maps ids to their short display names.
func displayNames(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, graph.DisplayName(id))
	}
	return out
}

// appendUnique appends s unless it is empty or already present.
func appendUnique(list []string, s string) []string {
	if s == "" {
		return list
	}
	for _, have := range list {
		if have == s {
			return list
		}
	}
	return append(list, s)
}

// attributeSet accumulates multi-valued attributes keyed by predicate
// display name, keeping first-seen order of values.
type attributeSet struct {
	order  []string
	values map[string][]graph.Value
}

func newAttributeSet() *attributeSet {
	return &attributeSet{values: make(map[string][]graph.Value)}
}

func (a *attributeSet) add(predicate string, v graph.Value) {
	key := graph.DisplayName(predicate)
	if _, ok := a.values[key]; !ok {
		a.order = append(a.order, key)
	}
	a.values[key] = append(a.values[key], v)
}

// render resolves language variants and references into display strings.
// When a predicate carries tagged literals only the variant picked by the
// preferred-literal chain survives, along with untagged literals.
func (a *attributeSet) render(lang string) map[string][]string {
	out := make(map[string][]string, len(a.order))
	for _, key := range a.order {
		values := a.values[key]
		keepLang, tagged := "", false
		if v, ok := graph.PreferredLiteral(values, lang); ok && v.Lang != "" {
			keepLang, tagged = graph.BaseLanguage(v.Lang), true
		}

		var rendered []string
		for _, v := range values {
			switch v.Kind {
			case graph.KindLiteral:
				if tagged && v.Lang != "" && graph.BaseLanguage(v.Lang) != keepLang {
					continue
				}
				rendered = appendUnique(rendered, strings.TrimSpace(v.Text))
			case graph.KindReference:
				rendered = appendUnique(rendered, graph.DisplayName(v.Ref))
			}
		}
		if len(rendered) > 0 {
			out[key] = rendered
		}
	}
	return out
}
