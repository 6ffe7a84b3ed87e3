package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes the portal's prometheus collectors on a private registry.
type Metrics struct {
	registry      *prometheus.Registry
	requests      *prometheus.CounterVec
	durations     *prometheus.HistogramVec
	errors        *prometheus.CounterVec
	backendCalls  *prometheus.CounterVec
	redirects     *prometheus.CounterVec
	sessionEvents *prometheus.CounterVec
}

// NewMetrics registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_http_requests_total",
			Help: "HTTP requests served by the portal.",
		}, []string{"method", "route", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_http_request_duration_seconds",
			Help:    "Latency of portal HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_http_errors_total",
			Help: "Error responses by route and error code.",
		}, []string{"route", "code"}),
		backendCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_backend_requests_total",
			Help: "Calls made to the document backend.",
		}, []string{"operation", "status"}),
		redirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_edge_redirects_total",
			Help: "Redirects issued by the edge filter.",
		}, []string{"location"}),
		sessionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_session_events_total",
			Help: "Session lifecycle events.",
		}, []string{"type"}),
	}
	m.registry.MustRegister(m.requests, m.durations, m.errors, m.backendCalls, m.redirects, m.sessionEvents)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.durations.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, code).Inc()
}

// RecordBackendCall counts a backend round trip; status 0 means the call never got a response.
func (m *Metrics) RecordBackendCall(operation string, status int) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.backendCalls.WithLabelValues(operation, label).Inc()
}

func (m *Metrics) RecordRedirect(location string) {
	if m == nil {
		return
	}
	m.redirects.WithLabelValues(location).Inc()
}

func (m *Metrics) RecordSessionEvent(eventType string) {
	if m == nil {
		return
	}
	m.sessionEvents.WithLabelValues(eventType).Inc()
}
