package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetricsObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.ObserveRequest("POST", "/api/v1/reservations/{reservationID}/check-in", 200, 20*time.Millisecond)
	m.ObserveRequest("POST", "/api/v1/reservations/{reservationID}/check-in", 200, 30*time.Millisecond)
	m.ObserveRequest("GET", "", 404, time.Millisecond)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "innkeeper_http_requests_total", "route", "/api/v1/reservations/{reservationID}/check-in")
	require.NoError(t, err)
	assert.Equal(t, float64(2), got)

	got, err = fetchCounterValue(mfs, "innkeeper_http_requests_total", "route", "unmatched")
	require.NoError(t, err)
	assert.Equal(t, float64(1), got)

	sum, err := fetchHistogramSum(mfs, "innkeeper_http_request_duration_seconds", "method", "POST")
	require.NoError(t, err)
	assert.InDelta(t, 0.05, sum, 1e-9)
}

func TestNilHTTPMetricsIsNoop(t *testing.T) {
	var m *HTTPMetrics
	m.ObserveRequest("GET", "/", 200, time.Millisecond)
	NewHTTPMetrics(nil).ObserveRequest("GET", "/", 200, time.Millisecond)
}
