package search

import (
	"context"
	"strings"

	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/graph"
	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/scoring"
)

// languageAliases map language names used as marker values to codes.
var languageAliases = map[string]string{
	"español":    "es",
	"espanol":    "es",
	"castellano": "es",
	"spanish":    "es",
	"inglés":     "en",
	"ingles":     "en",
	"english":    "en",
}

func (e *Engine) searchInstances(ctx context.Context, tokens []string, lang string, opts Options) ([]*Result, error) {
	seen := make(map[string]bool)
	results := []*Result{}

	for i, id := range e.idx.Instances() {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		if !e.inLanguage(id, lang) {
			continue
		}

		r, surfaces := e.assembleInstance(id, lang)
		r.Relevance = scoring.Score(tokens, surfaces)
		if r.Relevance == 0 {
			continue
		}
		if opts.RequireAll && !scoring.MatchedAll(tokens, surfaces) {
			continue
		}
		results = append(results, r)
	}
	return results, nil
}

// inLanguage applies the language filters of a pinned language: an explicit
// language marker must agree with it, and an instance with name literals
// must have one in that language, in English or untagged.
func (e *Engine) inLanguage(id, lang string) bool {
	if lang == "" {
		return true
	}

	for _, t := range e.idx.PredicateObjects(id) {
		if !graph.IsLanguageMarker(t.Predicate) {
			continue
		}
		if marker := markerLanguage(t.Object); marker != "" && marker != lang {
			return false
		}
	}

	names := e.idx.NameLiterals(id)
	if len(names) == 0 {
		return true
	}
	for _, n := range names {
		switch graph.BaseLanguage(n.Lang) {
		case lang, "en", "":
			return true
		}
	}
	return false
}

// markerLanguage returns the language code a marker value declares, or ""
// when it cannot be told.
func markerLanguage(v graph.Value) string {
	text := v.Text
	if v.IsReference() {
		text = graph.DisplayName(v.Ref)
	}
	text = strings.ToLower(strings.TrimSpace(text))
	if code, ok := languageAliases[text]; ok {
		return code
	}
	base := graph.BaseLanguage(text)
	if len(base) < 2 || len(base) > 3 {
		return ""
	}
	for _, r := range base {
		if r < 'a' || r > 'z' {
			return ""
		}
	}
	return base
}

// assembleInstance builds the result record of an instance and the
// surfaces its relevance is scored on.
func (e *Engine) assembleInstance(id, lang string) (*Result, scoring.Surfaces) {
	r := NewResult(KindInstance, SourceLocal)
	r.URI = id
	r.Name = e.idx.PreferredName(id, lang)

	var s scoring.Surfaces
	s.Names = appendUnique(s.Names, r.Name)
	s.Names = appendUnique(s.Names, graph.DisplayName(id))
	for _, n := range e.idx.NameLiterals(id) {
		s.Names = appendUnique(s.Names, n.Text)
	}

	var classes []string
	for _, c := range e.idx.Types(id) {
		if graph.IsMetaType(c) || graph.IsBlank(c) {
			continue
		}
		classes = append(classes, c)
		r.Classes = appendUnique(r.Classes, graph.DisplayName(c))
	}
	for _, c := range e.resolver.SuperclassesOfAll(classes) {
		if graph.IsMetaType(c) {
			continue
		}
		r.Superclasses = appendUnique(r.Superclasses, graph.DisplayName(c))
	}
	for _, c := range append(append([]string(nil), r.Classes...), r.Superclasses...) {
		s.Classes = appendUnique(s.Classes, c)
	}
	r.IsProduct = e.resolver.IsProduct(classes)

	attrs := newAttributeSet()
	related := make(map[graph.RelationKind]map[string]bool)
	var descriptions []graph.Value

	for _, t := range e.idx.PredicateObjects(id) {
		if t.Predicate == graph.RDFType {
			continue
		}
		if graph.IsDescription(t.Predicate) {
			descriptions = append(descriptions, t.Object)
		}
		if graph.IsDBpediaLink(t.Predicate) && r.DBpediaURI == "" {
			r.DBpediaURI = valueText(t.Object)
		}
		if graph.IsCategoryLink(t.Predicate) {
			category := valueText(t.Object)
			if t.Object.IsReference() {
				category = graph.DisplayName(t.Object.Ref)
			}
			r.Categories = appendUnique(r.Categories, category)
			s.Categories = appendUnique(s.Categories, category)
			continue
		}

		if kind := graph.ClassifyPredicate(t.Predicate); kind != graph.RelationNone {
			if !r.IsProduct {
				continue
			}
			key := valueText(t.Object)
			if related[kind] == nil {
				related[kind] = make(map[string]bool)
			}
			if related[kind][key] {
				continue
			}
			related[kind][key] = true

			name, group := e.relatedNames(t.Object, lang)
			switch kind {
			case graph.RelationIngredient:
				r.Ingredients = appendUnique(r.Ingredients, name)
				s.Ingredients = append(s.Ingredients, group)
			case graph.RelationTool:
				r.Tools = appendUnique(r.Tools, name)
				s.Tools = append(s.Tools, group)
			case graph.RelationTechnique:
				r.Techniques = appendUnique(r.Techniques, name)
				s.Techniques = append(s.Techniques, group)
			}
			continue
		}

		if t.Object.IsReference() && r.IsProduct {
			continue
		}
		attrs.add(t.Predicate, t.Object)
	}

	r.Attributes = attrs.render(lang)
	for _, key := range r.AttributeKeys() {
		// Names are scored under the name weight already.
		if graph.NamePredicateRank(key) >= 0 {
			continue
		}
		for _, v := range r.Attributes[key] {
			s.Attributes = append(s.Attributes, scoring.Group{v})
		}
	}

	if d, ok := graph.PreferredLiteral(descriptions, lang); ok {
		r.Description = strings.TrimSpace(d.Text)
	}

	for _, t := range e.idx.Incoming(id) {
		if t.Subject == id || graph.IsBlank(t.Subject) {
			continue
		}
		r.UsedBy = appendUnique(r.UsedBy, graph.DisplayName(t.Subject))
	}

	return r, s
}

// relatedNames returns the localized display name of a related entity and
// every name it can be matched by.
func (e *Engine) relatedNames(v graph.Value, lang string) (string, scoring.Group) {
	if v.IsLiteral() {
		text := strings.TrimSpace(v.Text)
		return text, scoring.Group{text}
	}
	name := e.idx.PreferredName(v.Ref, lang)
	group := scoring.Group{name}
	if short := graph.DisplayName(v.Ref); short != name {
		group = append(group, short)
	}
	for _, n := range e.idx.NameLiterals(v.Ref) {
		group = append(group, n.Text)
	}
	return name, group
}

func valueText(v graph.Value) string {
	if v.IsReference() {
		return v.Ref
	}
	return strings.TrimSpace(v.Text)
}
