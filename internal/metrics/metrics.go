// Package metrics exposes Prometheus collectors for backend calls and
// console requests. All methods are safe on a nil receiver.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BackendMetrics records outbound calls to the retail backend.
type BackendMetrics struct {
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
}

// NewBackendMetrics registers the backend metrics on reg.
func NewBackendMetrics(reg prometheus.Registerer) *BackendMetrics {
	if reg == nil {
		return &BackendMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "shopadmin",
		Name:      "backend_request_duration_seconds",
		Help:      "Duration of backend API calls in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "outcome"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shopadmin",
		Name:      "backend_request_failures_total",
		Help:      "Failed backend API calls by error kind.",
	}, []string{"operation", "kind"})
	reg.MustRegister(duration, failures)
	return &BackendMetrics{duration: duration, failures: failures}
}

// Observe records one call. kind is empty for successful calls.
func (m *BackendMetrics) Observe(operation, kind string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	outcome := "ok"
	if kind != "" {
		outcome = "error"
		m.failures.WithLabelValues(normalizeLabel(operation), kind).Inc()
	}
	m.duration.WithLabelValues(normalizeLabel(operation), outcome).Observe(d.Seconds())
}

// HTTPMetrics records console API requests.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	sessions prometheus.Gauge
}

// NewHTTPMetrics registers the console request metrics on reg.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shopadmin",
		Name:      "http_requests_total",
		Help:      "Console API requests by route and status.",
	}, []string{"route", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "shopadmin",
		Name:      "http_request_duration_seconds",
		Help:      "Console API request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
	sessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "shopadmin",
		Name:      "active_workspaces",
		Help:      "Operator workspaces currently held in memory.",
	})
	reg.MustRegister(requests, duration, sessions)
	return &HTTPMetrics{requests: requests, duration: duration, sessions: sessions}
}

// ObserveRequest records one handled request.
func (m *HTTPMetrics) ObserveRequest(route string, status int, d time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	route = normalizeLabel(route)
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route).Observe(d.Seconds())
}

// SetWorkspaces reports the number of live workspaces.
func (m *HTTPMetrics) SetWorkspaces(n int) {
	if m == nil || m.sessions == nil {
		return
	}
	m.sessions.Set(float64(n))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
