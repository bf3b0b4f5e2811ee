package graph

import "strings"

// Standard vocabulary IRIs.
const (
	RDFNamespace  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNamespace = "http://www.w3.org/2000/01/rdf-schema#"
	OWLNamespace  = "http://www.w3.org/2002/07/owl#"
	XSDNamespace  = "http://www.w3.org/2001/XMLSchema#"

	RDFType         = RDFNamespace + "type"
	RDFProperty     = RDFNamespace + "Property"
	RDFStatement    = RDFNamespace + "Statement"
	RDFSClass       = RDFSNamespace + "Class"
	RDFSSubClassOf  = RDFSNamespace + "subClassOf"
	RDFSLabel       = RDFSNamespace + "label"
	RDFSComment     = RDFSNamespace + "comment"
	RDFSSeeAlso     = RDFSNamespace + "seeAlso"
	RDFSDomain      = RDFSNamespace + "domain"
	RDFSRange       = RDFSNamespace + "range"
	OWLClass        = OWLNamespace + "Class"
	OWLOntology     = OWLNamespace + "Ontology"
	OWLThing        = OWLNamespace + "Thing"
	OWLNamedIndiv   = OWLNamespace + "NamedIndividual"
	OWLObjectProp   = OWLNamespace + "ObjectProperty"
	OWLDatatypeProp = OWLNamespace + "DatatypeProperty"
	OWLAnnotProp    = OWLNamespace + "AnnotationProperty"
	OWLRestriction  = OWLNamespace + "Restriction"
)

// DefaultNamespace is the namespace of the reposteria ontology.
const DefaultNamespace = "http://www.semanticweb.org/ontologies/reposteria#"

// classTypes mark a node as a class.
var classTypes = map[string]bool{
	OWLClass:  true,
	RDFSClass: true,
}

// schemaTypes mark schema declarations that are neither classes nor
// instances: properties, restrictions, reified statements and the ontology
// header.
var schemaTypes = map[string]bool{
	RDFProperty:     true,
	RDFStatement:    true,
	OWLObjectProp:   true,
	OWLDatatypeProp: true,
	OWLAnnotProp:    true,
	OWLOntology:     true,
	OWLRestriction:  true,
}

// IsMetaType reports whether typ belongs to the RDF/RDFS/OWL meta vocabulary
// rather than to the domain ontology. Meta types are never reported as the
// class of an instance.
func IsMetaType(typ string) bool {
	return classTypes[typ] || schemaTypes[typ] || typ == OWLNamedIndiv || typ == OWLThing
}

// namePredicates are the predicates that carry the human name of an entity,
// matched by lower-cased display name, in lookup order.
var namePredicates = []string{"nombre", "name", "label"}

// NamePredicateRank returns the lookup rank of a name predicate, or -1 when
// predicate does not carry a name.
func NamePredicateRank(predicate string) int {
	local := strings.ToLower(DisplayName(predicate))
	for i, name := range namePredicates {
		if local == name {
			return i
		}
	}
	return -1
}

// RelationKind classifies the domain predicates of a product.
type RelationKind string

const (
	RelationNone       RelationKind = ""
	RelationIngredient RelationKind = "ingredient"
	RelationTool       RelationKind = "tool"
	RelationTechnique  RelationKind = "technique"
)

var relationNames = map[string]RelationKind{
	"tieneingrediente":    RelationIngredient,
	"hasingredient":       RelationIngredient,
	"requiereingrediente": RelationIngredient,
	"usaherramienta":      RelationTool,
	"usestool":            RelationTool,
	"requiereutensilio":   RelationTool,
	"requieretecnica":     RelationTechnique,
	"requirestechnique":   RelationTechnique,
}

var relationPrefixes = []struct {
	prefix string
	kind   RelationKind
}{
	{"ingredient", RelationIngredient},
	{"tool", RelationTool},
	{"herramienta", RelationTool},
	{"utensilio", RelationTool},
	{"technique", RelationTechnique},
	{"tecnica", RelationTechnique},
}

// ClassifyPredicate returns the domain relation a predicate stands for, or
// RelationNone for generic attributes.
func ClassifyPredicate(predicate string) RelationKind {
	local := strings.ToLower(DisplayName(predicate))
	if kind, ok := relationNames[local]; ok {
		return kind
	}
	for _, p := range relationPrefixes {
		if strings.HasPrefix(local, p.prefix) {
			return p.kind
		}
	}
	return RelationNone
}

// languageMarkers are the predicates an instance may use to declare the
// language it is written in.
var languageMarkers = map[string]bool{
	"idioma":   true,
	"language": true,
	"lang":     true,
}

// IsLanguageMarker reports whether predicate declares the language of its subject.
func IsLanguageMarker(predicate string) bool {
	return languageMarkers[strings.ToLower(DisplayName(predicate))]
}

// productNames are the display names of the product sentinel class.
var productNames = map[string]bool{
	"producto": true,
	"product":  true,
}

// IsProductClass reports whether a class is the product sentinel.
func IsProductClass(id string) bool {
	return productNames[strings.ToLower(DisplayName(id))]
}

// dbpediaLinkNames are predicates linking a local entity to its DBpedia resource.
var dbpediaLinkNames = map[string]bool{
	"dbpediauri": true,
	"seealso":    true,
}

// IsDBpediaLink reports whether predicate links to an external DBpedia resource.
func IsDBpediaLink(predicate string) bool {
	return dbpediaLinkNames[strings.ToLower(DisplayName(predicate))]
}

// IsDescription reports whether predicate carries a free-text description.
func IsDescription(predicate string) bool {
	switch strings.ToLower(DisplayName(predicate)) {
	case "descripcion", "descripciondbpedia", "description", "abstract", "comment":
		return true
	}
	return false
}

// categoryLinkNames are predicates filing an entity under a (usually
// DBpedia) category.
var categoryLinkNames = map[string]bool{
	"tienecategoriadbpedia": true,
	"tienecategoria":        true,
	"hascategory":           true,
	"hasdbpediacategory":    true,
	"categoria":             true,
	"category":              true,
}

// IsCategoryLink reports whether predicate files its subject under a category.
func IsCategoryLink(predicate string) bool {
	return categoryLinkNames[strings.ToLower(DisplayName(predicate))]
}
