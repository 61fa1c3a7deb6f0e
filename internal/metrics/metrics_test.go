package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestBackendMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBackendMetrics(reg)

	m.Observe("search_device", "", 10*time.Millisecond)
	m.Observe("search_device", "TRANSPORT_ERROR", 20*time.Millisecond)
	m.Observe("", "SERVER_ERROR", time.Millisecond)

	if got := testutil.ToFloat64(m.failures.WithLabelValues("search_device", "TRANSPORT_ERROR")); got != 1 {
		t.Errorf("expected 1 transport failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.failures.WithLabelValues("unknown", "SERVER_ERROR")); got != 1 {
		t.Errorf("expected empty operation to be labelled unknown, got %v", got)
	}
	if n := testutil.CollectAndCount(m.duration); n != 3 {
		t.Errorf("expected 3 duration series, got %d", n)
	}
}

func TestHTTPMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	m.ObserveRequest("GET /api/orders", 200, time.Millisecond)
	m.ObserveRequest("GET /api/orders", 200, time.Millisecond)
	m.ObserveRequest("GET /api/orders", 502, time.Millisecond)
	m.SetWorkspaces(4)

	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET /api/orders", "200")); got != 2 {
		t.Errorf("expected 2 ok requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.sessions); got != 4 {
		t.Errorf("expected 4 workspaces, got %v", got)
	}
}

func TestNilSafe(t *testing.T) {
	var b *BackendMetrics
	b.Observe("x", "", time.Second)
	var h *HTTPMetrics
	h.ObserveRequest("x", 200, time.Second)
	h.SetWorkspaces(1)

	NewBackendMetrics(nil).Observe("x", "y", time.Second)
	NewHTTPMetrics(nil).ObserveRequest("x", 500, time.Second)
}
