package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors of the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter
	cacheErrors  *prometheus.CounterVec
	invalidated  prometheus.Counter
	auditWritten prometheus.Counter
	auditFailed  prometheus.Counter
	auditDropped prometheus.Counter
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

// New creates and registers all collectors on a dedicated registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		cacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "projects_cache_hits_total",
			Help: "Total number of project list cache hits",
		}),
		cacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "projects_cache_misses_total",
			Help: "Total number of project list cache misses",
		}),
		cacheErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "projects_cache_errors_total",
			Help: "Cache operations that failed and were degraded to a miss or no-op",
		}, []string{"op"}),
		invalidated: f.NewCounter(prometheus.CounterOpts{
			Name: "projects_cache_invalidated_keys_total",
			Help: "Cache keys removed by invalidation",
		}),
		auditWritten: f.NewCounter(prometheus.CounterOpts{
			Name: "audit_entries_written_total",
			Help: "Audit log entries persisted",
		}),
		auditFailed: f.NewCounter(prometheus.CounterOpts{
			Name: "audit_entries_failed_total",
			Help: "Audit log entries that failed to persist",
		}),
		auditDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "audit_entries_dropped_total",
			Help: "Audit log entries dropped because the queue was full or closed",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		httpLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route and method",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"route", "method"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.cacheMisses.Inc()
	}
}

func (m *Metrics) CacheError(op string) {
	if m != nil {
		m.cacheErrors.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) CacheInvalidated(n int) {
	if m != nil && n > 0 {
		m.invalidated.Add(float64(n))
	}
}

func (m *Metrics) AuditWritten() {
	if m != nil {
		m.auditWritten.Inc()
	}
}

func (m *Metrics) AuditFailed() {
	if m != nil {
		m.auditFailed.Inc()
	}
}

func (m *Metrics) AuditDropped() {
	if m != nil {
		m.auditDropped.Inc()
	}
}

func (m *Metrics) ObserveRequest(route, method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, status).Inc()
	m.httpLatency.WithLabelValues(route, method).Observe(seconds)
}
