package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/graph"
)

const ns = graph.DefaultNamespace

func find(triples []graph.Triple, subject, predicate string) []graph.Value {
	var out []graph.Value
	for _, t := range triples {
		if t.Subject == subject && t.Predicate == predicate {
			out = append(out, t.Object)
		}
	}
	return out
}

func TestRDFXMLParser_Parse(t *testing.T) {
	t.Parallel()

	parser := NewRDFXMLParser()

	t.Run("DescriptionWithLiteralsAndReferences", func(t *testing.T) {
		t.Parallel()
		content := []byte(`<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:r="http://www.semanticweb.org/ontologies/reposteria#">
  <rdf:Description rdf:about="http://www.semanticweb.org/ontologies/reposteria#TartaChocolate">
    <rdf:type rdf:resource="http://www.semanticweb.org/ontologies/reposteria#Pastel"/>
    <r:nombre xml:lang="es">Tarta de Chocolate</r:nombre>
    <r:nombre xml:lang="en">Chocolate Cake</r:nombre>
    <r:tieneIngrediente rdf:resource="http://www.semanticweb.org/ontologies/reposteria#Chocolate"/>
  </rdf:Description>
</rdf:RDF>`)

		triples, err := parser.Parse("test.rdf", content)
		require.NoError(t, err)
		require.Len(t, triples, 4)

		types := find(triples, ns+"TartaChocolate", graph.RDFType)
		require.Len(t, types, 1)
		assert.Equal(t, graph.Reference(ns+"Pastel"), types[0])

		names := find(triples, ns+"TartaChocolate", ns+"nombre")
		require.Len(t, names, 2)
		assert.Equal(t, graph.Literal("Tarta de Chocolate", "es"), names[0])
		assert.Equal(t, "en", names[1].Lang)

		assert.Equal(t, []graph.Value{graph.Reference(ns + "Chocolate")},
			find(triples, ns+"TartaChocolate", ns+"tieneIngrediente"))
	})

	t.Run("TypedNodeElementsAndBase", func(t *testing.T) {
		t.Parallel()
		content := []byte(`<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:owl="http://www.w3.org/2002/07/owl#"
         xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#"
         xml:base="http://www.semanticweb.org/ontologies/reposteria">
  <owl:Class rdf:about="#Pastel">
    <rdfs:subClassOf rdf:resource="#Producto"/>
  </owl:Class>
  <owl:NamedIndividual rdf:ID="Azúcar"/>
</rdf:RDF>`)

		triples, err := parser.Parse("onto.owl", content)
		require.NoError(t, err)

		assert.Equal(t, []graph.Value{graph.Reference(graph.OWLClass)}, find(triples, ns+"Pastel", graph.RDFType))
		assert.Equal(t, []graph.Value{graph.Reference(ns + "Producto")}, find(triples, ns+"Pastel", graph.RDFSSubClassOf))
		assert.Equal(t, []graph.Value{graph.Reference(graph.OWLNamedIndiv)}, find(triples, ns+"Azúcar", graph.RDFType))
	})

	t.Run("InheritedLanguageAndDatatype", func(t *testing.T) {
		t.Parallel()
		content := []byte(`<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:r="http://example.org/r#" xml:lang="es">
  <rdf:Description rdf:about="http://example.org/r#Flan">
    <r:nombre>Flan</r:nombre>
    <r:tiempo rdf:datatype="http://www.w3.org/2001/XMLSchema#integer">45</r:tiempo>
  </rdf:Description>
</rdf:RDF>`)

		triples, err := parser.Parse("test.rdf", content)
		require.NoError(t, err)

		assert.Equal(t, []graph.Value{graph.Literal("Flan", "es")}, find(triples, "http://example.org/r#Flan", "http://example.org/r#nombre"))
		assert.Equal(t, []graph.Value{graph.TypedLiteral("45", graph.XSDNamespace+"integer")},
			find(triples, "http://example.org/r#Flan", "http://example.org/r#tiempo"))
	})

	t.Run("PropertyAttributes", func(t *testing.T) {
		t.Parallel()
		content := []byte(`<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:r="http://example.org/r#">
  <rdf:Description rdf:about="http://example.org/r#Flan" r:nombre="Flan" rdf:type="http://example.org/r#Postre"/>
</rdf:RDF>`)

		triples, err := parser.Parse("test.rdf", content)
		require.NoError(t, err)

		assert.Equal(t, []graph.Value{graph.Literal("Flan", "")}, find(triples, "http://example.org/r#Flan", "http://example.org/r#nombre"))
		assert.Equal(t, []graph.Value{graph.Reference("http://example.org/r#Postre")}, find(triples, "http://example.org/r#Flan", graph.RDFType))
	})

	t.Run("NestedNodeAndBlankNodes", func(t *testing.T) {
		t.Parallel()
		content := []byte(`<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:r="http://example.org/r#">
  <rdf:Description rdf:about="http://example.org/r#Brownie">
    <r:tieneIngrediente>
      <r:Ingrediente rdf:about="http://example.org/r#Nuez">
        <r:nombre>Nuez</r:nombre>
      </r:Ingrediente>
    </r:tieneIngrediente>
    <r:receta rdf:parseType="Resource">
      <r:pasos>Hornear</r:pasos>
    </r:receta>
    <r:autor rdf:nodeID="a1"/>
  </rdf:Description>
</rdf:RDF>`)

		triples, err := parser.Parse("test.rdf", content)
		require.NoError(t, err)

		assert.Equal(t, []graph.Value{graph.Reference("http://example.org/r#Nuez")},
			find(triples, "http://example.org/r#Brownie", "http://example.org/r#tieneIngrediente"))
		assert.Equal(t, []graph.Value{graph.Reference("http://example.org/r#Ingrediente")},
			find(triples, "http://example.org/r#Nuez", graph.RDFType))

		receta := find(triples, "http://example.org/r#Brownie", "http://example.org/r#receta")
		require.Len(t, receta, 1)
		require.True(t, graph.IsBlank(receta[0].Ref))
		assert.Equal(t, []graph.Value{graph.Literal("Hornear", "")}, find(triples, receta[0].Ref, "http://example.org/r#pasos"))

		assert.Equal(t, []graph.Value{graph.Reference("_:a1")}, find(triples, "http://example.org/r#Brownie", "http://example.org/r#autor"))
	})

	t.Run("LiteralParseType", func(t *testing.T) {
		t.Parallel()
		content := []byte(`<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:r="http://example.org/r#">
  <rdf:Description rdf:about="http://example.org/r#Flan">
    <r:notas rdf:parseType="Literal"><b>Muy</b> rico</r:notas>
  </rdf:Description>
</rdf:RDF>`)

		triples, err := parser.Parse("test.rdf", content)
		require.NoError(t, err)

		notas := find(triples, "http://example.org/r#Flan", "http://example.org/r#notas")
		require.Len(t, notas, 1)
		assert.Equal(t, "Muy rico", notas[0].Text)
		assert.Equal(t, graph.RDFNamespace+"XMLLiteral", notas[0].Datatype)
	})

	t.Run("CollectionAndListItems", func(t *testing.T) {
		t.Parallel()
		content := []byte(`<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:r="http://example.org/r#">
  <rdf:Description rdf:about="http://example.org/r#Menu">
    <r:postres rdf:parseType="Collection">
      <rdf:Description rdf:about="http://example.org/r#Flan"/>
      <rdf:Description rdf:about="http://example.org/r#Tarta"/>
    </r:postres>
  </rdf:Description>
  <rdf:Seq rdf:about="http://example.org/r#Pasos">
    <rdf:li>Batir</rdf:li>
    <rdf:li>Hornear</rdf:li>
  </rdf:Seq>
</rdf:RDF>`)

		triples, err := parser.Parse("test.rdf", content)
		require.NoError(t, err)

		head := find(triples, "http://example.org/r#Menu", "http://example.org/r#postres")
		require.Len(t, head, 1)
		first := find(triples, head[0].Ref, graph.RDFNamespace+"first")
		assert.Equal(t, []graph.Value{graph.Reference("http://example.org/r#Flan")}, first)

		assert.Equal(t, []graph.Value{graph.Literal("Batir", "")}, find(triples, "http://example.org/r#Pasos", graph.RDFNamespace+"_1"))
		assert.Equal(t, []graph.Value{graph.Literal("Hornear", "")}, find(triples, "http://example.org/r#Pasos", graph.RDFNamespace+"_2"))
	})

	t.Run("BaseOnPropertyElements", func(t *testing.T) {
		t.Parallel()
		content := []byte(`<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:r="http://example.org/r#"
         xml:base="http://example.org/r">
  <rdf:Description rdf:about="#Flan">
    <r:tieneIngrediente rdf:resource="#Huevo"/>
    <r:tieneIngrediente xml:base="http://example.org/despensa/" rdf:resource="leche"/>
    <r:origen xml:base="http://dbpedia.org/resource/x" rdf:resource="#Espana"/>
    <r:usaHerramienta rdf:resource="#Molde"/>
  </rdf:Description>
</rdf:RDF>`)

		triples, err := parser.Parse("test.rdf", content)
		require.NoError(t, err)

		assert.Equal(t, []graph.Value{
			graph.Reference("http://example.org/r#Huevo"),
			graph.Reference("http://example.org/despensa/leche"),
		}, find(triples, "http://example.org/r#Flan", "http://example.org/r#tieneIngrediente"))
		assert.Equal(t, []graph.Value{graph.Reference("http://dbpedia.org/resource/x#Espana")},
			find(triples, "http://example.org/r#Flan", "http://example.org/r#origen"))
		// The override does not leak into sibling properties.
		assert.Equal(t, []graph.Value{graph.Reference("http://example.org/r#Molde")},
			find(triples, "http://example.org/r#Flan", "http://example.org/r#usaHerramienta"))
	})

	t.Run("ReifiedProperty", func(t *testing.T) {
		t.Parallel()
		content := []byte(`<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:r="http://example.org/r#"
         xml:base="http://example.org/r">
  <rdf:Description rdf:about="#Flan">
    <r:tiempo rdf:ID="t1" xml:lang="es">45 minutos</r:tiempo>
    <r:tieneIngrediente rdf:ID="t2" rdf:resource="#Huevo"/>
  </rdf:Description>
</rdf:RDF>`)

		triples, err := parser.Parse("test.rdf", content)
		require.NoError(t, err)

		flan := "http://example.org/r#Flan"
		assert.Equal(t, []graph.Value{graph.Literal("45 minutos", "es")}, find(triples, flan, "http://example.org/r#tiempo"))
		assert.Equal(t, []graph.Value{graph.Reference("http://example.org/r#Huevo")}, find(triples, flan, "http://example.org/r#tieneIngrediente"))

		tests := []struct {
			id        string
			predicate string
			object    graph.Value
		}{
			{"http://example.org/r#t1", "http://example.org/r#tiempo", graph.Literal("45 minutos", "es")},
			{"http://example.org/r#t2", "http://example.org/r#tieneIngrediente", graph.Reference("http://example.org/r#Huevo")},
		}
		for _, tt := range tests {
			assert.Equal(t, []graph.Value{graph.Reference(graph.RDFStatement)}, find(triples, tt.id, graph.RDFType))
			assert.Equal(t, []graph.Value{graph.Reference(flan)}, find(triples, tt.id, graph.RDFNamespace+"subject"))
			assert.Equal(t, []graph.Value{graph.Reference(tt.predicate)}, find(triples, tt.id, graph.RDFNamespace+"predicate"))
			assert.Equal(t, []graph.Value{tt.object}, find(triples, tt.id, graph.RDFNamespace+"object"))
		}

		// Statements are neither classes nor instances.
		b := graph.NewBuilder()
		b.AddAll(triples)
		idx := b.Build()
		assert.Empty(t, idx.Instances())
	})

	t.Run("BareNodeElementRoot", func(t *testing.T) {
		t.Parallel()
		content := []byte(`<rdf:Description xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:r="http://example.org/r#" rdf:about="http://example.org/r#Flan">
  <r:nombre>Flan</r:nombre>
</rdf:Description>`)

		triples, err := parser.Parse("test.rdf", content)
		require.NoError(t, err)
		assert.Len(t, triples, 1)
	})

	t.Run("Malformed", func(t *testing.T) {
		t.Parallel()
		_, err := parser.Parse("bad.rdf", []byte(`<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"><rdf:Description>`))
		assert.Error(t, err)
	})

	t.Run("Empty", func(t *testing.T) {
		t.Parallel()
		_, err := parser.Parse("empty.rdf", []byte(""))
		assert.ErrorIs(t, err, ErrEmptyDocument)
	})
}

func TestResolveIRI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		base     string
		ref      string
		expected string
	}{
		{name: "Absolute", base: "http://a.org/x", ref: "http://b.org/y#z", expected: "http://b.org/y#z"},
		{name: "Fragment", base: "http://a.org/onto", ref: "#Pastel", expected: "http://a.org/onto#Pastel"},
		{name: "FragmentReplacesFragment", base: "http://a.org/onto#x", ref: "#Pastel", expected: "http://a.org/onto#Pastel"},
		{name: "NonASCIIFragment", base: "http://a.org/onto", ref: "#Azúcar", expected: "http://a.org/onto#Azúcar"},
		{name: "Relative", base: "http://a.org/dir/onto", ref: "other", expected: "http://a.org/dir/other"},
		{name: "RootRelative", base: "http://a.org/dir/onto", ref: "/top", expected: "http://a.org/top"},
		{name: "Empty", base: "http://a.org/onto#x", ref: "", expected: "http://a.org/onto"},
		{name: "NoBase", base: "", ref: "#x", expected: "#x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, resolveIRI(tt.base, tt.ref))
		})
	}
}

func TestParserForFile(t *testing.T) {
	t.Parallel()

	assert.NotNil(t, ParserForFile("onto.owl"))
	assert.NotNil(t, ParserForFile("DATA.RDF"))
	assert.NotNil(t, ParserForFile("x.xml"))
	assert.Nil(t, ParserForFile("main.go"))
	assert.Equal(t, "rdfxml", ParserForFile("a.rdf").Format())
}
