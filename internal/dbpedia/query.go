package dbpedia

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidURI is returned by Fetch for URIs that cannot be written as a
// SPARQL IRI reference.
var ErrInvalidURI = errors.New("invalid resource URI")

// rowLimit caps the rows one search query returns. A resource spans one row
// per ingredient, so this is well above the result limit.
const rowLimit = 100

const searchQueryTemplate = `PREFIX dbo: <http://dbpedia.org/ontology/>
PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>

SELECT DISTINCT ?dessert ?label ?abstract ?description ?ingredientName ?ingredient ?ingredientLabel
WHERE {
    {
        ?dessert a dbo:Food ;
                 rdfs:label ?label .
    }
    UNION
    {
        ?dessert rdfs:label ?label .
        FILTER regex(?label, "%[1]s", "i")
    }

    FILTER (lang(?label) = "en" || lang(?label) = "es")
    FILTER regex(?label, "%[1]s", "i")

    OPTIONAL {
        ?dessert dbo:abstract ?abstract .
        FILTER (lang(?abstract) = "en" || lang(?abstract) = "es")
    }
    OPTIONAL {
        ?dessert dbo:description ?description .
        FILTER (lang(?description) = "en" || lang(?description) = "es")
    }
    OPTIONAL {
        ?dessert dbo:ingredientName ?ingredientName .
        FILTER (lang(?ingredientName) = "en" || lang(?ingredientName) = "es" || lang(?ingredientName) = "")
    }
    OPTIONAL {
        ?dessert dbo:ingredient ?ingredient .
        OPTIONAL {
            ?ingredient rdfs:label ?ingredientLabel .
            FILTER (lang(?ingredientLabel) = "en" || lang(?ingredientLabel) = "es")
        }
    }
}
LIMIT %[2]d
`

const fetchQueryTemplate = `PREFIX dbo: <http://dbpedia.org/ontology/>

SELECT ?abstract ?thumbnail WHERE {
    <%[1]s> dbo:abstract ?abstract .
    OPTIONAL { <%[1]s> dbo:thumbnail ?thumbnail . }
    FILTER (lang(?abstract) = "%[2]s")
}
LIMIT 1
`

// buildSearchQuery returns the label search query for term. The term is
// matched literally, case-insensitively.
func buildSearchQuery(term string) string {
	return fmt.Sprintf(searchQueryTemplate, escapeRegex(term), rowLimit)
}

// buildFetchQuery returns the abstract/thumbnail query for one resource.
func buildFetchQuery(uri, lang string) (string, error) {
	if !validIRI(uri) {
		return "", fmt.Errorf("%w: %q", ErrInvalidURI, uri)
	}
	return fmt.Sprintf(fetchQueryTemplate, uri, lang), nil
}

// escapeRegex quotes term for use inside a double-quoted SPARQL string that
// is passed to regex(). Regex metacharacters get a backslash, which itself
// has to be escaped once more for the string literal.
func escapeRegex(term string) string {
	var b strings.Builder
	for _, r := range term {
		switch r {
		case '.', '^', '$', '*', '+', '?', '(', ')', '[', ']', '{', '}', '|':
			b.WriteString(`\\`)
			b.WriteRune(r)
		case '\\':
			b.WriteString(`\\\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n', '\r', '\t':
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// validIRI reports whether uri is an absolute http(s) IRI without the
// characters SPARQL forbids inside <...>.
func validIRI(uri string) bool {
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		return false
	}
	for _, r := range uri {
		if r <= ' ' || strings.ContainsRune("<>\"{}|^`\\", r) {
			return false
		}
	}
	return true
}
