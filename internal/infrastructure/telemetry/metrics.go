package telemetry

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/crm/backend/internal/application/consistency"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsNamespace prefixes every metric name
const MetricsNamespace = "crm"

// Metrics holds the Prometheus collectors exposed on the metrics endpoint.
// It is safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	syncOperations *prometheus.CounterVec
	corrections    prometheus.Counter
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// NewMetrics creates a private registry with the Go runtime and process
// collectors plus the CRM metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		syncOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "sync_operations_total",
			Help:      "Cross-entity synchronizing operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		corrections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "reconcile_corrections_total",
			Help:      "Customers whose derived fields were changed by reconciliation.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.syncOperations,
		m.corrections,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// RecordSync counts one synchronizing operation
func (m *Metrics) RecordSync(operation, outcome string) {
	m.syncOperations.WithLabelValues(operation, outcome).Inc()
}

// RecordCorrection counts one reconciled customer
func (m *Metrics) RecordCorrection() {
	m.corrections.Inc()
}

// ObserveHTTPRequest records a finished request. route is the matched route
// pattern, never the raw path.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RegisterDB exports connection pool statistics for db under dbName.
func (m *Metrics) RegisterDB(db *sql.DB, dbName string) error {
	return m.registry.Register(collectors.NewDBStatsCollector(db, dbName))
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

var _ consistency.Recorder = (*Metrics)(nil)
