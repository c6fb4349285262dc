// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics exposes Prometheus collectors for the query pipeline.
//
// A nil *Metrics is valid and records nothing, so stages and tests that do
// not care about metrics can pass nil.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pdiddy/genoscope/pkg/types"
)

const namespace = "genoscope"

// Query outcomes used as the "outcome" label.
const (
	OutcomeResults   = "results"
	OutcomeNoMatches = "no_matches"
	OutcomeFailed    = "all_failed"
	OutcomeEmpty     = "empty_query"
)

// Metrics holds the collectors registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	queries         *prometheus.CounterVec
	queryDuration   prometheus.Histogram
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	retries         *prometheus.CounterVec
	failures        *prometheus.CounterVec
	results         *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Processed queries by outcome.",
		}, []string{"outcome"}),
		queryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "End-to-end query latency.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Outbound E-utilities requests by database and endpoint.",
		}, []string{"database", "endpoint"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Connector execution latency, including retries.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"database"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_retries_total",
			Help:      "Retries of transient backend failures.",
		}, []string{"database"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partial_failures_total",
			Help:      "Backends that did not contribute results to a query.",
		}, []string{"database"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_results_total",
			Help:      "Raw records returned by each backend.",
		}, []string{"database"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.queries, m.queryDuration, m.requests, m.requestDuration,
		m.retries, m.failures, m.results,
	)
	return m
}

// Handler returns an HTTP handler for Prometheus scraping.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveQuery records one processed query.
func (m *Metrics) ObserveQuery(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(outcome).Inc()
	m.queryDuration.Observe(elapsed.Seconds())
}

// Request counts one outbound request attempt sequence.
func (m *Metrics) Request(db types.DatabaseID, endpoint string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(string(db), endpoint).Inc()
}

// Retry counts one retry against db.
func (m *Metrics) Retry(db types.DatabaseID) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(string(db)).Inc()
}

// ObserveBackend records how long a connector ran and how many records it
// returned.
func (m *Metrics) ObserveBackend(db types.DatabaseID, n int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(string(db)).Observe(elapsed.Seconds())
	m.results.WithLabelValues(string(db)).Add(float64(n))
}

// PartialFailure counts a backend that failed for one query.
func (m *Metrics) PartialFailure(db types.DatabaseID) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(string(db)).Inc()
}
