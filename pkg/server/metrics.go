package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors on a private registry
type Metrics struct {
	registry            *prometheus.Registry
	aggregationDuration *prometheus.HistogramVec
	aggregationFailures *prometheus.CounterVec
	httpRequests        *prometheus.CounterVec
}

// NewMetrics creates and registers the server collectors
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		aggregationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "costboard",
			Name:      "aggregation_duration_seconds",
			Help:      "Time taken to build a dashboard, by outcome.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"outcome"}),
		aggregationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "costboard",
			Name:      "aggregation_failures_total",
			Help:      "Failed aggregations by error kind.",
		}, []string{"kind"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "costboard",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}

	m.registry.MustRegister(
		m.aggregationDuration,
		m.aggregationFailures,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveAggregation records the duration of an aggregation and, on
// failure, its error kind
func (m *Metrics) ObserveAggregation(elapsed time.Duration, errKind string) {
	outcome := "success"
	if errKind != "" {
		outcome = "failure"
		m.aggregationFailures.WithLabelValues(errKind).Inc()
	}
	m.aggregationDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
