package search

import (
	"context"
	"strings"

	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/graph"
	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/scoring"
)

func (e *Engine) searchClasses(ctx context.Context, tokens []string, lang string, _ Options) ([]*Result, error) {
	results := []*Result{}

	for i, cls := range e.idx.Classes() {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if graph.IsBlank(cls) {
			continue
		}

		name := e.idx.PreferredName(cls, lang)
		relevance := scoring.CountMatching(tokens, []string{graph.DisplayName(cls), name})
		if relevance == 0 {
			continue
		}

		r := e.assembleClass(cls, name, lang)
		r.Relevance = relevance
		results = append(results, r)
	}
	return results, nil
}

// assembleClass builds the result record of a class. Attributes leave out
// rdf:type and rdfs:subClassOf, whose targets are reported through the
// hierarchy fields. They also drop any predicate whose name contains
// "domain" and references to blank nodes such as OWL restrictions.
func (e *Engine) assembleClass(cls, name, lang string) *Result {
	r := NewResult(KindClass, SourceLocal)
	r.URI = cls
	r.Name = name

	attrs := newAttributeSet()
	var descriptions []graph.Value
	for _, t := range e.idx.PredicateObjects(cls) {
		if t.Predicate == graph.RDFType || t.Predicate == graph.RDFSSubClassOf {
			continue
		}
		if strings.Contains(strings.ToLower(graph.DisplayName(t.Predicate)), "domain") {
			continue
		}
		if t.Object.IsReference() && graph.IsBlank(t.Object.Ref) {
			continue
		}
		if graph.IsDescription(t.Predicate) {
			descriptions = append(descriptions, t.Object)
		}
		if graph.IsDBpediaLink(t.Predicate) && r.DBpediaURI == "" {
			r.DBpediaURI = valueText(t.Object)
		}
		attrs.add(t.Predicate, t.Object)
	}
	r.Attributes = attrs.render(lang)
	if d, ok := graph.PreferredLiteral(descriptions, lang); ok {
		r.Description = strings.TrimSpace(d.Text)
	}

	r.Subclasses = displayNames(e.resolver.SubclassesOf(cls))
	for _, s := range e.resolver.SuperclassesOf(cls) {
		if graph.IsMetaType(s) || graph.IsBlank(s) {
			continue
		}
		r.Superclasses = appendUnique(r.Superclasses, graph.DisplayName(s))
	}
	r.Instances = displayNames(e.resolver.InstancesOf(cls))
	r.IsProduct = e.resolver.IsProduct([]string{cls})
	return r
}
