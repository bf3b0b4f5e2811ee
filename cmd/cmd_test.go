package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/ingestion"
)

const ontologyRDF = `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:owl="http://www.w3.org/2002/07/owl#"
         xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#"
         xmlns:r="http://www.semanticweb.org/ontologies/reposteria#"
         xml:base="http://www.semanticweb.org/ontologies/reposteria">
  <owl:Class rdf:about="#Producto"/>
  <owl:Class rdf:about="#Pastel">
    <rdfs:subClassOf rdf:resource="#Producto"/>
  </owl:Class>
  <owl:Class rdf:about="#Ingrediente"/>
  <owl:NamedIndividual rdf:about="#TartaChocolate">
    <rdf:type rdf:resource="#Pastel"/>
    <r:nombre xml:lang="es">Tarta de Chocolate</r:nombre>
    <r:tieneIngrediente rdf:resource="#Chocolate"/>
  </owl:NamedIndividual>
  <owl:NamedIndividual rdf:about="#Chocolate">
    <rdf:type rdf:resource="#Ingrediente"/>
    <r:nombre xml:lang="es">Chocolate</r:nombre>
  </owl:NamedIndividual>
</rdf:RDF>
`

const dbpediaResponse = `{
  "results": {"bindings": [
    {
      "dessert": {"type": "uri", "value": "http://dbpedia.org/resource/Chocolate_brownie"},
      "label": {"type": "literal", "xml:lang": "en", "value": "Chocolate brownie"},
      "description": {"type": "literal", "xml:lang": "en", "value": "Baked chocolate dessert"}
    }
  ]}
}`

// writeOntology writes the fixture ontology and returns its path.
func writeOntology(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reposteria.owl")
	require.NoError(t, os.WriteFile(path, []byte(ontologyRDF), 0o644))
	return path
}

// writeConfigFile writes a config file pointing DBpedia at endpoint.
func writeConfigFile(t *testing.T, endpoint string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reposteria.yaml")
	content := fmt.Sprintf("dbpedia:\n  endpoint: %s\n  timeout: 5s\nlog:\n  level: error\n", endpoint)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes the CLI with args and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cli := NewCLI()
	cli.Stdout = &out
	err := cli.Execute(args)
	return out.String(), err
}

func dbpediaServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/sparql-results+json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(dbpediaResponse))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestInstancesCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("Text", func(t *testing.T) {
		t.Parallel()
		out, err := run(t, "--ontology", writeOntology(t), "--quiet", "instances", "chocolate")
		require.NoError(t, err)
		assert.Contains(t, out, "1. Tarta de Chocolate (Pastel) relevance")
		assert.Contains(t, out, "Ingredients: Chocolate")
	})

	t.Run("JSON", func(t *testing.T) {
		t.Parallel()
		out, err := run(t, "--ontology", writeOntology(t), "--quiet", "--json", "instances", "chocolate", "-n", "1")
		require.NoError(t, err)

		var results []map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &results))
		require.Len(t, results, 1)
		assert.Equal(t, "Tarta de Chocolate", results[0]["name"])
		assert.Equal(t, true, results[0]["is_product"])
	})

	t.Run("RequireAll", func(t *testing.T) {
		t.Parallel()
		out, err := run(t, "--ontology", writeOntology(t), "--quiet", "--json", "instances", "tarta chocolate", "--all")
		require.NoError(t, err)

		var results []map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &results))
		assert.Len(t, results, 1)
	})

	t.Run("NoResults", func(t *testing.T) {
		t.Parallel()
		out, err := run(t, "--ontology", writeOntology(t), "--quiet", "instances", "merengue")
		require.NoError(t, err)
		assert.Contains(t, out, "No results found")
	})

	t.Run("MissingOntology", func(t *testing.T) {
		t.Parallel()
		_, err := run(t, "--ontology", filepath.Join(t.TempDir(), "missing.owl"), "--quiet", "instances", "tarta")
		var loadErr *ingestion.GraphLoadError
		assert.ErrorAs(t, err, &loadErr)
	})
}

func TestClassesCmd_Run(t *testing.T) {
	t.Parallel()

	out, err := run(t, "--ontology", writeOntology(t), "--quiet", "classes", "pastel")
	require.NoError(t, err)
	assert.Contains(t, out, "1. Pastel relevance 1")
	assert.Contains(t, out, "Superclasses: Producto")
	assert.Contains(t, out, "Instances: TartaChocolate")
}

func TestSearchCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("LocalOnly", func(t *testing.T) {
		t.Parallel()
		out, err := run(t, "--ontology", writeOntology(t), "--quiet", "--json", "search", "pastel")
		require.NoError(t, err)

		var resp map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Equal(t, "pastel", resp["query"])
		assert.Len(t, resp["local"], 1)
		assert.Len(t, resp["classes"], 1)
		assert.Empty(t, resp["dbpedia"])
		assert.NotContains(t, resp, "dbpedia_error")
	})

	t.Run("WithDBpedia", func(t *testing.T) {
		t.Parallel()
		cfg := writeConfigFile(t, dbpediaServer(t, http.StatusOK).URL)
		out, err := run(t, "--config", cfg, "--ontology", writeOntology(t), "search", "chocolate", "--dbpedia")
		require.NoError(t, err)
		assert.Contains(t, out, "== Instances ==")
		assert.Contains(t, out, "== DBpedia ==")
		assert.Contains(t, out, "Chocolate brownie [DBpedia]")
	})

	t.Run("DBpediaFailureIsReported", func(t *testing.T) {
		t.Parallel()
		cfg := writeConfigFile(t, dbpediaServer(t, http.StatusBadGateway).URL)
		out, err := run(t, "--config", cfg, "--ontology", writeOntology(t), "--json", "search", "chocolate", "--dbpedia")
		require.NoError(t, err)

		var resp map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Len(t, resp["local"], 2)
		assert.Contains(t, resp["dbpedia_error"], "502")
	})
}

func TestStatsCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("Text", func(t *testing.T) {
		t.Parallel()
		out, err := run(t, "--ontology", writeOntology(t), "--quiet", "stats")
		require.NoError(t, err)
		assert.Contains(t, out, "Instances:        2")
		assert.Contains(t, out, "Products:         1")
		assert.Contains(t, out, "Default language: es")
	})

	t.Run("JSON", func(t *testing.T) {
		t.Parallel()
		out, err := run(t, "--ontology", writeOntology(t), "--quiet", "--json", "stats")
		require.NoError(t, err)

		var resp map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		graphStats := resp["graph"].(map[string]any)
		assert.EqualValues(t, 3, graphStats["classes"])
		assert.EqualValues(t, 1, graphStats["products"])
		assert.Equal(t, []any{"reposteria.owl"}, resp["files"])
	})
}

func TestDBpediaCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("Success", func(t *testing.T) {
		t.Parallel()
		cfg := writeConfigFile(t, dbpediaServer(t, http.StatusOK).URL)
		out, err := run(t, "--config", cfg, "--json", "dbpedia", "brownie")
		require.NoError(t, err)

		var results []map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &results))
		require.Len(t, results, 1)
		assert.Equal(t, "Chocolate brownie", results[0]["name"])
		assert.Equal(t, "dbpedia", results[0]["source"])
		assert.Equal(t, "Baked chocolate dessert", results[0]["description"])
	})

	t.Run("ServerError", func(t *testing.T) {
		t.Parallel()
		cfg := writeConfigFile(t, dbpediaServer(t, http.StatusInternalServerError).URL)
		_, err := run(t, "--config", cfg, "dbpedia", "brownie")
		assert.ErrorContains(t, err, "searching dbpedia")
	})
}

func TestCLI_Execute(t *testing.T) {
	t.Parallel()

	t.Run("UnknownCommand", func(t *testing.T) {
		t.Parallel()
		_, err := run(t, "bake")
		assert.Error(t, err)
	})

	t.Run("MissingArgument", func(t *testing.T) {
		t.Parallel()
		_, err := run(t, "instances")
		assert.Error(t, err)
	})

	t.Run("InvalidConfig", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 0\n"), 0o644))
		_, err := run(t, "--config", path, "--ontology", writeOntology(t), "stats")
		assert.ErrorContains(t, err, "server.port")
	})
}

func TestGlobals_SearchOptions(t *testing.T) {
	t.Parallel()

	g := &Globals{Ontology: "unused.owl", Quiet: true}
	a, err := g.newApp()
	require.NoError(t, err)
	a.cfg.Search.Limit = 5

	tests := []struct {
		name  string
		all   bool
		limit int
		want  int
	}{
		{"ConfiguredLimit", false, 0, 5},
		{"FlagOverrides", true, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := a.searchOptions(tt.all, tt.limit)
			assert.Equal(t, tt.want, opts.Limit)
			assert.Equal(t, tt.all, opts.RequireAll)
		})
	}
}
