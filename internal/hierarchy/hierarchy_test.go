package hierarchy

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/graph"
)

const ns = graph.DefaultNamespace

func subClass(sub, super string) graph.Triple {
	return graph.Triple{Subject: ns + sub, Predicate: graph.RDFSSubClassOf, Object: graph.Reference(ns + super)}
}

func typeOf(subject, class string) graph.Triple {
	return graph.Triple{Subject: ns + subject, Predicate: graph.RDFType, Object: graph.Reference(ns + class)}
}

func build(triples ...graph.Triple) *graph.Index {
	b := graph.NewBuilder()
	b.AddAll(triples)
	return b.Build()
}

func chainIndex() *graph.Index {
	return build(
		subClass("Pastel", "Producto"),
		subClass("TartaFria", "Pastel"),
		subClass("Galleta", "Producto"),
		typeOf("Cheesecake", "TartaFria"),
		typeOf("Bizcocho", "Pastel"),
		typeOf("Bizcocho", "TartaFria"),
		typeOf("Harina", "Ingrediente"),
	)
}

func TestResolver_Closures(t *testing.T) {
	t.Parallel()
	r := New(chainIndex())

	t.Run("SubclassesOf", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []string{ns + "Pastel", ns + "TartaFria", ns + "Galleta"}, r.SubclassesOf(ns+"Producto"))
		assert.Equal(t, []string{ns + "TartaFria"}, r.SubclassesOf(ns+"Pastel"))
		assert.Empty(t, r.SubclassesOf(ns+"TartaFria"))
	})

	t.Run("SuperclassesOf", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []string{ns + "Pastel", ns + "Producto"}, r.SuperclassesOf(ns+"TartaFria"))
		assert.Empty(t, r.SuperclassesOf(ns+"Producto"))
		assert.Empty(t, r.SuperclassesOf(ns+"Unknown"))
	})

	t.Run("SuperclassesOfAll", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []string{ns + "Producto"}, r.SuperclassesOfAll([]string{ns + "Pastel", ns + "TartaFria"}))
	})

	t.Run("InstancesOf", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []string{ns + "Bizcocho", ns + "Cheesecake"}, r.InstancesOf(ns+"Pastel"))
		assert.Equal(t, []string{ns + "Cheesecake", ns + "Bizcocho"}, r.InstancesOf(ns+"TartaFria"))
		assert.Empty(t, r.InstancesOf(ns+"Galleta"))
	})

	t.Run("IsProduct", func(t *testing.T) {
		t.Parallel()
		assert.True(t, r.IsProduct([]string{ns + "TartaFria"}))
		assert.True(t, r.IsProduct([]string{ns + "Producto"}))
		assert.False(t, r.IsProduct([]string{ns + "Ingrediente"}))
		assert.False(t, r.IsProduct(nil))
	})
}

func TestResolver_ResultsAreCopies(t *testing.T) {
	t.Parallel()
	r := New(chainIndex())

	subs := r.SubclassesOf(ns + "Producto")
	subs[0] = "mutated"
	assert.Equal(t, ns+"Pastel", r.SubclassesOf(ns+"Producto")[0])
}

func TestResolver_Cycle(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	r := New(build(
		subClass("A", "B"),
		subClass("B", "C"),
		subClass("C", "A"),
	), WithLogger(logger))

	assert.ElementsMatch(t, []string{ns + "B", ns + "C"}, r.SuperclassesOf(ns+"A"))
	assert.ElementsMatch(t, []string{ns + "B", ns + "C"}, r.SubclassesOf(ns+"A"))
	assert.Equal(t, 1, strings.Count(buf.String(), "cyclic subclass relation"))
	assert.Contains(t, buf.String(), "level=WARN")
}

func TestResolver_Concurrent(t *testing.T) {
	t.Parallel()
	r := New(chainIndex())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Len(t, r.SubclassesOf(ns+"Producto"), 3)
			assert.True(t, r.IsProduct([]string{ns + "TartaFria"}))
		}()
	}
	wg.Wait()
}
