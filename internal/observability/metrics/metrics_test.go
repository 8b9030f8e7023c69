package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.ObserveRequest("POST", "201", 0.05)
	m.ObserveRequest("GET", "200", 0.01)
}

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveOperation("create", "success")
	m.ObserveOperation("create", "conflict")
	m.ObserveOperation("reschedule", "invalid_state")
}

func TestMetricsNilSafe(t *testing.T) {
	var h *HTTPMetrics
	h.ObserveRequest("GET", "200", 0.1)

	var b *BookingMetrics
	b.ObserveOperation("cancel", "success")
}
