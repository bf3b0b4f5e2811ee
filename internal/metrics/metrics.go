// Package metrics exposes search, DBpedia and reload counters on a private
// Prometheus registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "reposteria"

// Reload outcomes passed to ObserveReload.
const (
	ReloadOK     = "ok"
	ReloadFailed = "failed"
)

// Metrics holds every collector. The zero value is not usable; call New.
type Metrics struct {
	registry *prometheus.Registry

	SearchRequests  *prometheus.CounterVec
	SearchResults   *prometheus.HistogramVec
	SearchDuration  *prometheus.HistogramVec
	DBpediaRequests *prometheus.CounterVec
	OntologyReloads *prometheus.CounterVec
	OntologyTriples prometheus.Gauge
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		SearchRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "search",
				Name:      "requests_total",
				Help:      "Total number of searches by kind",
			},
			[]string{"kind"},
		),

		SearchResults: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "search",
				Name:      "results",
				Help:      "Number of results returned per search",
				Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
			},
			[]string{"kind"},
		),

		SearchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "search",
				Name:      "duration_seconds",
				Help:      "Search duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),

		DBpediaRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "dbpedia",
				Name:      "requests_total",
				Help:      "DBpedia lookups by outcome (ok, error, cache_hit, breaker_open)",
			},
			[]string{"outcome"},
		),

		OntologyReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ontology",
				Name:      "reloads_total",
				Help:      "Ontology reloads by outcome",
			},
			[]string{"outcome"},
		),

		OntologyTriples: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "ontology",
				Name:      "triples",
				Help:      "Number of triples in the loaded ontology",
			},
		),
	}

	m.registry.MustRegister(
		m.SearchRequests,
		m.SearchResults,
		m.SearchDuration,
		m.DBpediaRequests,
		m.OntologyReloads,
		m.OntologyTriples,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveSearch records one completed search.
func (m *Metrics) ObserveSearch(kind string, results int, elapsed time.Duration) {
	m.SearchRequests.WithLabelValues(kind).Inc()
	m.SearchResults.WithLabelValues(kind).Observe(float64(results))
	m.SearchDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveDBpedia records one DBpedia lookup.
func (m *Metrics) ObserveDBpedia(outcome string) {
	m.DBpediaRequests.WithLabelValues(outcome).Inc()
}

// ObserveReload records a reload attempt. triples is ignored on failure.
func (m *Metrics) ObserveReload(ok bool, triples int) {
	if !ok {
		m.OntologyReloads.WithLabelValues(ReloadFailed).Inc()
		return
	}
	m.OntologyReloads.WithLabelValues(ReloadOK).Inc()
	m.OntologyTriples.Set(float64(triples))
}

// SetTriples records the size of the initially loaded ontology.
func (m *Metrics) SetTriples(triples int) {
	m.OntologyTriples.Set(float64(triples))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
