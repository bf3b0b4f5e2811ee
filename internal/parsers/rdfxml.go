package parsers

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/graph"
)

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// ErrEmptyDocument is returned when a document contains no root element.
var ErrEmptyDocument = errors.New("document has no root element")

// RDFXMLParser parses RDF/XML documents, the format Protégé and rdflib
// write ontologies in.
//
// Supported: rdf:RDF root (optional), rdf:Description and typed node
// elements, rdf:about, rdf:ID, rdf:nodeID, xml:base, inherited xml:lang,
// rdf:resource, rdf:datatype, property attributes, nested node elements,
// rdf:li, rdf:parseType Resource, Literal and Collection, and rdf:ID on
// property elements, which reifies the statement. Literal XML content is
// reduced to its character data.
type RDFXMLParser struct{}

// NewRDFXMLParser creates a new RDF/XML parser.
func NewRDFXMLParser() *RDFXMLParser {
	return &RDFXMLParser{}
}

// Format returns the serialization format this parser handles.
func (p *RDFXMLParser) Format() string {
	return "rdfxml"
}

// Parse parses an RDF/XML document.
func (p *RDFXMLParser) Parse(source string, content []byte) ([]graph.Triple, error) {
	st := &rdfxmlState{dec: xml.NewDecoder(bytes.NewReader(content))}
	st.dec.Strict = true

	root, err := st.nextStart()
	if err == io.EOF {
		return nil, ErrEmptyDocument
	}
	if err != nil {
		return nil, fmt.Errorf("reading root element: %w", err)
	}

	sc := scope{base: source}.with(root.Attr)
	if isRDF(root.Name, "RDF") {
		if err := st.nodeList(sc); err != nil {
			return nil, err
		}
	} else if _, err := st.node(root, scope{base: source}); err != nil {
		return nil, err
	}

	return st.triples, nil
}

type rdfxmlState struct {
	dec     *xml.Decoder
	triples []graph.Triple
	blanks  int
}

// scope carries the inherited xml:base and xml:lang of an element.
type scope struct {
	base string
	lang string
}

func (s scope) with(attrs []xml.Attr) scope {
	for _, a := range attrs {
		if a.Name.Space != xmlNamespace && a.Name.Space != "xml" {
			continue
		}
		switch a.Name.Local {
		case "base":
			s.base = resolveIRI(s.base, a.Value)
		case "lang":
			s.lang = strings.ToLower(a.Value)
		}
	}
	return s
}

func (st *rdfxmlState) emit(subject, predicate string, object graph.Value) {
	st.triples = append(st.triples, graph.Triple{Subject: subject, Predicate: predicate, Object: object})
}

// reify describes the statement (subject, predicate, object) as the
// rdf:Statement node id.
func (st *rdfxmlState) reify(id, subject, predicate string, object graph.Value) {
	st.emit(id, graph.RDFType, graph.Reference(graph.RDFStatement))
	st.emit(id, graph.RDFNamespace+"subject", graph.Reference(subject))
	st.emit(id, graph.RDFNamespace+"predicate", graph.Reference(predicate))
	st.emit(id, graph.RDFNamespace+"object", object)
}

func (st *rdfxmlState) newBlank() string {
	st.blanks++
	return "_:genid" + strconv.Itoa(st.blanks)
}

// nextStart skips to the next start element.
func (st *rdfxmlState) nextStart() (xml.StartElement, error) {
	for {
		tok, err := st.dec.Token()
		if err != nil {
			return xml.StartElement{}, err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se, nil
		}
	}
}

// nodeList parses node elements until the enclosing end element.
func (st *rdfxmlState) nodeList(sc scope) error {
	for {
		tok, err := st.dec.Token()
		if err != nil {
			return fmt.Errorf("reading node elements: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if _, err := st.node(t, sc); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

// node parses a node element and returns its subject identifier.
func (st *rdfxmlState) node(start xml.StartElement, parent scope) (string, error) {
	sc := parent.with(start.Attr)

	subject := ""
	for _, a := range start.Attr {
		switch {
		case isRDFAttr(a.Name, "about"):
			subject = resolveIRI(sc.base, a.Value)
		case isRDFAttr(a.Name, "ID"):
			subject = resolveIRI(sc.base, "#"+a.Value)
		case isRDFAttr(a.Name, "nodeID"):
			subject = "_:" + a.Value
		}
	}
	if subject == "" {
		subject = st.newBlank()
	}

	if !isRDF(start.Name, "Description") {
		st.emit(subject, graph.RDFType, graph.Reference(iri(start.Name)))
	}

	for _, a := range start.Attr {
		if isSyntaxAttr(a.Name) {
			continue
		}
		if isRDFAttr(a.Name, "type") {
			st.emit(subject, graph.RDFType, graph.Reference(resolveIRI(sc.base, a.Value)))
			continue
		}
		st.emit(subject, iri(a.Name), graph.Literal(a.Value, sc.lang))
	}

	li := 0
	for {
		tok, err := st.dec.Token()
		if err != nil {
			return "", fmt.Errorf("reading properties of %s: %w", subject, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := st.property(t, subject, sc, &li); err != nil {
				return "", err
			}
		case xml.EndElement:
			return subject, nil
		}
	}
}

// property parses a property element of subject.
func (st *rdfxmlState) property(start xml.StartElement, subject string, parent scope, li *int) error {
	sc := parent.with(start.Attr)

	predicate := iri(start.Name)
	if isRDF(start.Name, "li") {
		*li++
		predicate = graph.RDFNamespace + "_" + strconv.Itoa(*li)
	}

	var (
		resource  string
		datatype  string
		parseType string
		reifyID   string
		propAttrs []xml.Attr
	)
	for _, a := range start.Attr {
		switch {
		case isRDFAttr(a.Name, "ID"):
			reifyID = resolveIRI(sc.base, "#"+a.Value)
		case isRDFAttr(a.Name, "resource"):
			resource = resolveIRI(sc.base, a.Value)
		case isRDFAttr(a.Name, "nodeID"):
			resource = "_:" + a.Value
		case isRDFAttr(a.Name, "datatype"):
			datatype = resolveIRI(sc.base, a.Value)
		case isRDFAttr(a.Name, "parseType"):
			parseType = a.Value
		case isSyntaxAttr(a.Name):
		default:
			propAttrs = append(propAttrs, a)
		}
	}

	link := func(object graph.Value) {
		st.emit(subject, predicate, object)
		if reifyID != "" {
			st.reify(reifyID, subject, predicate, object)
		}
	}

	switch parseType {
	case "":
	case "Resource":
		object := st.newBlank()
		link(graph.Reference(object))
		inner := 0
		for {
			tok, err := st.dec.Token()
			if err != nil {
				return fmt.Errorf("reading %s: %w", predicate, err)
			}
			switch t := tok.(type) {
			case xml.StartElement:
				if err := st.property(t, object, sc, &inner); err != nil {
					return err
				}
			case xml.EndElement:
				return nil
			}
		}
	case "Collection":
		return st.collection(predicate, sc, link)
	default:
		text, err := st.innerText()
		if err != nil {
			return fmt.Errorf("reading literal %s: %w", predicate, err)
		}
		link(graph.TypedLiteral(text, graph.RDFNamespace+"XMLLiteral"))
		return nil
	}

	if resource != "" || (len(propAttrs) > 0 && datatype == "") {
		object := resource
		if object == "" {
			object = st.newBlank()
		}
		link(graph.Reference(object))
		for _, a := range propAttrs {
			if isRDFAttr(a.Name, "type") {
				st.emit(object, graph.RDFType, graph.Reference(resolveIRI(sc.base, a.Value)))
				continue
			}
			st.emit(object, iri(a.Name), graph.Literal(a.Value, sc.lang))
		}
		return st.skipToEnd()
	}

	var text strings.Builder
	for {
		tok, err := st.dec.Token()
		if err != nil {
			return fmt.Errorf("reading %s: %w", predicate, err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			object, err := st.node(t, sc)
			if err != nil {
				return err
			}
			link(graph.Reference(object))
			return st.skipToEnd()
		case xml.EndElement:
			value := strings.TrimSpace(text.String())
			if datatype != "" {
				link(graph.TypedLiteral(value, datatype))
			} else {
				link(graph.Literal(value, sc.lang))
			}
			return nil
		}
	}
}

// collection parses rdf:parseType="Collection" into an rdf:first/rdf:rest
// list and passes its head to link.
func (st *rdfxmlState) collection(predicate string, sc scope, link func(graph.Value)) error {
	var members []string
	for {
		tok, err := st.dec.Token()
		if err != nil {
			return fmt.Errorf("reading collection %s: %w", predicate, err)
		}
		if t, ok := tok.(xml.StartElement); ok {
			member, err := st.node(t, sc)
			if err != nil {
				return err
			}
			members = append(members, member)
			continue
		}
		if _, ok := tok.(xml.EndElement); ok {
			break
		}
	}

	const (
		first = graph.RDFNamespace + "first"
		rest  = graph.RDFNamespace + "rest"
		null  = graph.RDFNamespace + "nil"
	)
	if len(members) == 0 {
		link(graph.Reference(null))
		return nil
	}
	head := st.newBlank()
	link(graph.Reference(head))
	cell := head
	for i, m := range members {
		st.emit(cell, first, graph.Reference(m))
		next := null
		if i < len(members)-1 {
			next = st.newBlank()
		}
		st.emit(cell, rest, graph.Reference(next))
		cell = next
	}
	return nil
}

// skipToEnd consumes tokens up to the end of the current element.
func (st *rdfxmlState) skipToEnd() error {
	depth := 0
	for {
		tok, err := st.dec.Token()
		if err != nil {
			return err
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return nil
			}
			depth--
		}
	}
}

// innerText returns the character data of the current element, consuming it.
func (st *rdfxmlState) innerText() (string, error) {
	var sb strings.Builder
	depth := 0
	for {
		tok, err := st.dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return strings.TrimSpace(sb.String()), nil
			}
			depth--
		}
	}
}

func iri(name xml.Name) string {
	return name.Space + name.Local
}

func isRDF(name xml.Name, local string) bool {
	return name.Space == graph.RDFNamespace && name.Local == local
}

// isRDFAttr matches rdf-qualified attributes and their deprecated
// unqualified spellings.
func isRDFAttr(name xml.Name, local string) bool {
	return name.Local == local && (name.Space == graph.RDFNamespace || name.Space == "")
}

// isSyntaxAttr reports whether an attribute is RDF/XML syntax rather than a
// property attribute.
func isSyntaxAttr(name xml.Name) bool {
	if name.Space == "xmlns" || (name.Space == "" && name.Local == "xmlns") {
		return true
	}
	if name.Space == xmlNamespace || name.Space == "xml" {
		return true
	}
	if name.Space == graph.RDFNamespace || name.Space == "" {
		switch name.Local {
		case "about", "ID", "nodeID", "resource", "datatype", "parseType", "bagID", "aboutEach", "aboutEachPrefix":
			return true
		}
	}
	return false
}

// resolveIRI resolves ref against base. Absolute IRIs are returned as is,
// fragment references replace the fragment of base and relative paths are
// appended to the directory of base. Strings are joined verbatim so that
// non-ASCII fragments survive unescaped.
func resolveIRI(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if base == "" || isAbsoluteIRI(ref) {
		return ref
	}
	docBase := base
	if i := strings.IndexByte(docBase, '#'); i >= 0 {
		docBase = docBase[:i]
	}
	switch {
	case ref == "":
		return docBase
	case strings.HasPrefix(ref, "#"):
		return docBase + ref
	case strings.HasPrefix(ref, "/"):
		if scheme := strings.Index(docBase, "://"); scheme >= 0 {
			if slash := strings.IndexByte(docBase[scheme+3:], '/'); slash >= 0 {
				return docBase[:scheme+3+slash] + ref
			}
			return docBase + ref
		}
		return ref
	default:
		if i := strings.LastIndexByte(docBase, '/'); i >= 0 {
			return docBase[:i+1] + ref
		}
		return ref
	}
}

func isAbsoluteIRI(s string) bool {
	colon := strings.IndexByte(s, ':')
	if colon <= 0 {
		return false
	}
	for i, r := range s[:colon] {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !isAlpha && (i == 0 || !(r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.')) {
			return false
		}
	}
	return true
}
