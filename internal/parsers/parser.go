// Package parsers provides ontology document parsers.
//
// A parser turns the bytes of one serialized ontology document into the
// triples of the graph model. Parsers are stateless and safe to reuse.
package parsers

import (
	"path/filepath"
	"strings"

	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/graph"
)

// Parser defines the interface for format-specific ontology parsers.
type Parser interface {
	// Parse parses a document and returns its triples in document order.
	// source names the document and is used as the default base IRI.
	Parse(source string, content []byte) ([]graph.Triple, error)

	// Format returns the serialization format this parser handles.
	Format() string
}

// ParserForFile returns the parser for a file path based on its extension,
// or nil if the extension is not an ontology format.
func ParserForFile(path string) Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".rdf", ".owl", ".xml":
		return NewRDFXMLParser()
	default:
		return nil
	}
}

// SupportedExtensions lists the file extensions ParserForFile understands.
func SupportedExtensions() []string {
	return []string{".rdf", ".owl", ".xml"}
}
