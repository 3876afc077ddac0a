package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "track_resolver"

// Search results as recorded in the searches counter.
const (
	ResultHit   = "hit"
	ResultEmpty = "empty"
	ResultError = "error"
)

// Resolution outcomes.
const (
	OutcomeFound         = "found"
	OutcomeNotFound      = "not_found"
	OutcomeUpstreamError = "upstream_error"
)

// Metrics holds the resolver's collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	SearchesTotal    *prometheus.CounterVec
	SearchDuration   *prometheus.HistogramVec
	ResolutionsTotal *prometheus.CounterVec
}

// New creates the collectors on a fresh registry, together with the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_searches_total",
				Help:      "Total number of catalog searches by filter and result",
			},
			[]string{"backend", "filter", "result"},
		),
		SearchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "catalog_search_duration_seconds",
				Help:      "Time spent waiting on the catalog per search",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"backend", "filter"},
		),
		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_total",
				Help:      "Total number of resolved queries by outcome",
			},
			[]string{"outcome"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.SearchesTotal,
		m.SearchDuration,
		m.ResolutionsTotal,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) RecordSearch(backend, filter, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(backend, filter, result).Inc()
	m.SearchDuration.WithLabelValues(backend, filter).Observe(d.Seconds())
}

func (m *Metrics) RecordResolution(outcome string) {
	if m == nil {
		return
	}
	m.ResolutionsTotal.WithLabelValues(outcome).Inc()
}
