package graph

import (
	"strings"

	"golang.org/x/text/language"
)

// Index is an immutable in-memory ontology graph.
//
// Triples are kept in insertion order; secondary indexes by subject, by
// referenced object and by type make every lookup O(result) rather than
// O(graph). An Index is built once by a Builder and never mutated, so it is
// safe for concurrent readers without locking.
type Index struct {
	triples []Triple

	// Secondary indexes, all holding positions into triples.
	bySubject map[string][]int
	incoming  map[string][]int
	byType    map[string][]string

	subjects  []string
	typed     []string
	classes   []string
	classSet  map[string]bool
	instances []string
}

// Builder accumulates triples and produces an Index.
// A Builder is not safe for concurrent use.
type Builder struct {
	triples []Triple
	seen    map[tripleKey]struct{}
}

type tripleKey struct {
	subject, predicate string
	object             Value
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{seen: make(map[tripleKey]struct{})}
}

// Add appends a triple. Duplicate statements are ignored, since a graph is a
// set of triples. Returns true when the triple was new.
func (b *Builder) Add(t Triple) bool {
	key := tripleKey{subject: t.Subject, predicate: t.Predicate, object: t.Object}
	if _, dup := b.seen[key]; dup {
		return false
	}
	b.seen[key] = struct{}{}
	b.triples = append(b.triples, t)
	return true
}

// AddAll appends every triple in ts.
func (b *Builder) AddAll(ts []Triple) {
	for _, t := range ts {
		b.Add(t)
	}
}

// Len returns the number of distinct triples added so far.
func (b *Builder) Len() int {
	return len(b.triples)
}

// Build freezes the accumulated triples into an Index. The builder may keep
// being used afterwards; the Index does not share its slices.
func (b *Builder) Build() *Index {
	idx := &Index{
		triples:   make([]Triple, len(b.triples)),
		bySubject: make(map[string][]int),
		incoming:  make(map[string][]int),
		byType:    make(map[string][]string),
		classSet:  make(map[string]bool),
	}
	copy(idx.triples, b.triples)

	typedSeen := make(map[string]bool)
	classSeen := idx.classSet
	typeEdgeSeen := make(map[[2]string]bool)
	declaredTypes := make(map[string][]string)

	addClass := func(id string) {
		if id == "" || classSeen[id] || IsMetaType(id) {
			return
		}
		classSeen[id] = true
		idx.classes = append(idx.classes, id)
	}

	for i, t := range idx.triples {
		if _, ok := idx.bySubject[t.Subject]; !ok {
			idx.subjects = append(idx.subjects, t.Subject)
		}
		idx.bySubject[t.Subject] = append(idx.bySubject[t.Subject], i)

		if t.Object.IsReference() {
			idx.incoming[t.Object.Ref] = append(idx.incoming[t.Object.Ref], i)
		}

		switch t.Predicate {
		case RDFType:
			if !t.Object.IsReference() {
				continue
			}
			if !typedSeen[t.Subject] {
				typedSeen[t.Subject] = true
				idx.typed = append(idx.typed, t.Subject)
			}
			edge := [2]string{t.Object.Ref, t.Subject}
			if !typeEdgeSeen[edge] {
				typeEdgeSeen[edge] = true
				idx.byType[t.Object.Ref] = append(idx.byType[t.Object.Ref], t.Subject)
			}
			declaredTypes[t.Subject] = append(declaredTypes[t.Subject], t.Object.Ref)
			if classTypes[t.Object.Ref] {
				addClass(t.Subject)
			}
		case RDFSSubClassOf:
			addClass(t.Subject)
			if t.Object.IsReference() && !IsBlank(t.Object.Ref) {
				addClass(t.Object.Ref)
			}
		}
	}

	for _, subject := range idx.typed {
		if classSeen[subject] || IsBlank(subject) {
			continue
		}
		schema := false
		for _, typ := range declaredTypes[subject] {
			if schemaTypes[typ] {
				schema = true
				break
			}
		}
		if !schema {
			idx.instances = append(idx.instances, subject)
		}
	}

	return idx
}

// TripleCount returns the number of triples in the index.
func (g *Index) TripleCount() int {
	return len(g.triples)
}

// SubjectCount returns the number of distinct subjects.
func (g *Index) SubjectCount() int {
	return len(g.subjects)
}

// Triples returns every triple in insertion order.
func (g *Index) Triples() []Triple {
	out := make([]Triple, len(g.triples))
	copy(out, g.triples)
	return out
}

// Subjects returns every distinct subject in order of first appearance.
func (g *Index) Subjects() []string {
	return append([]string(nil), g.subjects...)
}

// SubjectsWithType returns the subjects declared with an rdf:type edge to
// typ. An empty typ returns every subject that has any rdf:type edge.
func (g *Index) SubjectsWithType(typ string) []string {
	if typ == "" {
		return append([]string(nil), g.typed...)
	}
	return append([]string(nil), g.byType[typ]...)
}

// Instances returns the typed subjects that are neither classes nor schema
// declarations, in order of first appearance.
func (g *Index) Instances() []string {
	return append([]string(nil), g.instances...)
}

// Classes returns every node declared or used as a class.
func (g *Index) Classes() []string {
	return append([]string(nil), g.classes...)
}

// IsClass reports whether id is a class of the index.
func (g *Index) IsClass(id string) bool {
	return g.classSet[id]
}

// Has reports whether id appears as a subject.
func (g *Index) Has(id string) bool {
	_, ok := g.bySubject[id]
	return ok
}

// Objects returns every value linked from subject by predicate.
func (g *Index) Objects(subject, predicate string) []Value {
	var out []Value
	for _, i := range g.bySubject[subject] {
		if g.triples[i].Predicate == predicate {
			out = append(out, g.triples[i].Object)
		}
	}
	return out
}

// References returns the entity IDs linked from subject by predicate,
// ignoring literal values.
func (g *Index) References(subject, predicate string) []string {
	var out []string
	for _, v := range g.Objects(subject, predicate) {
		if v.IsReference() {
			out = append(out, v.Ref)
		}
	}
	return out
}

// PredicateObjects returns every outgoing triple of subject.
func (g *Index) PredicateObjects(subject string) []Triple {
	positions := g.bySubject[subject]
	out := make([]Triple, 0, len(positions))
	for _, i := range positions {
		out = append(out, g.triples[i])
	}
	return out
}

// Incoming returns every triple whose object references id.
func (g *Index) Incoming(id string) []Triple {
	positions := g.incoming[id]
	out := make([]Triple, 0, len(positions))
	for _, i := range positions {
		out = append(out, g.triples[i])
	}
	return out
}

// Types returns the declared rdf:type references of subject.
func (g *Index) Types(subject string) []string {
	return g.References(subject, RDFType)
}

// NameLiterals returns the literals of every name predicate of id, ordered
// by predicate rank (nombre, name, label) and then by insertion order.
func (g *Index) NameLiterals(id string) []Value {
	buckets := make([][]Value, len(namePredicates))
	for _, i := range g.bySubject[id] {
		t := g.triples[i]
		if !t.Object.IsLiteral() {
			continue
		}
		if rank := NamePredicateRank(t.Predicate); rank >= 0 {
			buckets[rank] = append(buckets[rank], t.Object)
		}
	}
	var out []Value
	for _, b := range buckets {
		out = append(out, b...)
	}
	return out
}

// PreferredName resolves the display name of id in lang through the
// preferred-literal chain, falling back to DisplayName(id) when the entity
// has no name literal.
func (g *Index) PreferredName(id, lang string) string {
	if v, ok := PreferredLiteral(g.NameLiterals(id), lang); ok && strings.TrimSpace(v.Text) != "" {
		return v.Text
	}
	return DisplayName(id)
}

// PreferredLiteral returns the literal of subject's predicate in lang, or
// the English literal, or the first literal; ok is false when subject has
// no literal for predicate.
func (g *Index) PreferredLiteral(subject, predicate, lang string) (Value, bool) {
	return PreferredLiteral(g.Objects(subject, predicate), lang)
}

// PreferredLiteral picks from values the literal tagged lang, else the one
// tagged "en", else the first literal. Tags are compared by base language.
// References in values are ignored.
func PreferredLiteral(values []Value, lang string) (Value, bool) {
	want := BaseLanguage(lang)
	var english, first *Value
	for i := range values {
		v := &values[i]
		if !v.IsLiteral() {
			continue
		}
		have := BaseLanguage(v.Lang)
		if want != "" && have == want {
			return *v, true
		}
		if english == nil && have == "en" {
			english = v
		}
		if first == nil {
			first = v
		}
	}
	if english != nil {
		return *english, true
	}
	if first != nil {
		return *first, true
	}
	return Value{}, false
}

// BaseLanguage reduces a BCP 47 tag to its lower-case base language
// ("es-MX" -> "es"). Empty or unparseable tags yield their lower-cased input.
func BaseLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	t, err := language.Parse(tag)
	if err != nil {
		return strings.ToLower(tag)
	}
	base, conf := t.Base()
	if conf == language.No {
		return strings.ToLower(tag)
	}
	return base.String()
}

// Stats returns a summary of graph size.
func (g *Index) Stats() map[string]int {
	return map[string]int{
		"triples":   len(g.triples),
		"subjects":  len(g.subjects),
		"classes":   len(g.classes),
		"instances": len(g.instances),
	}
}
