package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/dbpedia"
	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/search"
)

var (
	_ search.Recorder  = (*Metrics)(nil)
	_ dbpedia.Recorder = (*Metrics)(nil)
)

func TestMetrics_ObserveSearch(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveSearch("instance", 3, 20*time.Millisecond)
	m.ObserveSearch("instance", 0, time.Millisecond)
	m.ObserveSearch("class", 1, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SearchRequests.WithLabelValues("instance")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchRequests.WithLabelValues("class")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.SearchResults))
	assert.Equal(t, 2, testutil.CollectAndCount(m.SearchDuration))
}

func TestMetrics_ObserveDBpedia(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveDBpedia(dbpedia.OutcomeOK)
	m.ObserveDBpedia(dbpedia.OutcomeCacheHit)
	m.ObserveDBpedia(dbpedia.OutcomeCacheHit)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DBpediaRequests.WithLabelValues(dbpedia.OutcomeOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DBpediaRequests.WithLabelValues(dbpedia.OutcomeCacheHit)))
}

func TestMetrics_ObserveReload(t *testing.T) {
	t.Parallel()

	m := New()
	m.SetTriples(10)
	m.ObserveReload(true, 42)
	m.ObserveReload(false, 7)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.OntologyReloads.WithLabelValues(ReloadOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OntologyReloads.WithLabelValues(ReloadFailed)))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.OntologyTriples))
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveSearch("instance", 1, time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `reposteria_search_requests_total{kind="instance"} 1`)
	assert.Contains(t, string(body), "reposteria_ontology_triples")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNew_IndependentRegistries(t *testing.T) {
	t.Parallel()

	a, b := New(), New()
	a.ObserveDBpedia("ok")
	assert.Equal(t, 0.0, testutil.ToFloat64(b.DBpediaRequests.WithLabelValues("ok")))
	assert.NotSame(t, a.Registry(), b.Registry())
}
