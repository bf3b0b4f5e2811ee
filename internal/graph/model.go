// Package graph provides the ontology data model for the reposteria search tool.
//
// It defines the value and triple types that represent an RDF-like graph of
// desserts, ingredients, tools, techniques and the classes they belong to.
package graph

import "strings"

// ValueKind distinguishes the two shapes an object of a triple can take.
type ValueKind int

const (
	// KindLiteral is a plain or language-tagged text value.
	KindLiteral ValueKind = iota
	// KindReference points at another entity in the graph.
	KindReference
)

// String returns a readable name for the kind.
func (k ValueKind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindReference:
		return "reference"
	default:
		return "unknown"
	}
}

// Value is the object position of a triple. It is either a Literal (Text,
// optionally Lang or Datatype) or a Reference (Ref holds the entity ID).
type Value struct {
	// Kind selects which of the remaining fields are meaningful.
	Kind ValueKind

	// Text is the lexical form of a literal.
	Text string

	// Lang is the language tag of a literal, lower-cased ("es", "en-gb").
	Lang string

	// Datatype is the datatype IRI of a typed literal.
	Datatype string

	// Ref is the identifier of the referenced entity.
	Ref string
}

// Literal creates a literal value with an optional language tag.
func Literal(text, lang string) Value {
	return Value{Kind: KindLiteral, Text: text, Lang: strings.ToLower(lang)}
}

// TypedLiteral creates a literal value carrying a datatype IRI.
func TypedLiteral(text, datatype string) Value {
	return Value{Kind: KindLiteral, Text: text, Datatype: datatype}
}

// Reference creates a value pointing at another entity.
func Reference(id string) Value {
	return Value{Kind: KindReference, Ref: id}
}

// IsLiteral reports whether v is a literal.
func (v Value) IsLiteral() bool {
	return v.Kind == KindLiteral
}

// IsReference reports whether v points at another entity.
func (v Value) IsReference() bool {
	return v.Kind == KindReference
}

// String returns the literal text, or the display name of a reference.
func (v Value) String() string {
	if v.Kind == KindReference {
		return DisplayName(v.Ref)
	}
	return v.Text
}

// Triple is a single subject-predicate-object statement.
type Triple struct {
	// Subject is the identifier of the described entity.
	Subject string

	// Predicate is the full IRI of the property.
	Predicate string

	// Object is the literal or referenced entity.
	Object Value
}

// DisplayName derives the short human name of an identifier: the fragment
// after the last '#' or '/'. Identifiers without either separator, or ending
// in one, are returned trimmed of the trailing separator.
func DisplayName(id string) string {
	trimmed := strings.TrimRight(id, "#/")
	if trimmed == "" {
		return id
	}
	if i := strings.LastIndexAny(trimmed, "#/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// IsBlank reports whether id names a blank node.
func IsBlank(id string) bool {
	return strings.HasPrefix(id, "_:")
}
