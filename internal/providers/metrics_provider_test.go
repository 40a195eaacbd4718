package providers

import (
	"appero/internal/structures"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopMetrics_WhenDisabled(t *testing.T) {
	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: false},
	}
	m := NewMetricsProvider(conf)
	_, ok := m.(*noopMetrics)
	assert.True(t, ok, "should return noopMetrics when disabled")

	m.IncRequestsTotal("/test", 200)
	m.ObserveRequestDuration("/test", time.Millisecond)
	m.IncCacheHits()
	m.IncCacheMisses()
	m.ObservePersistenceDuration(time.Millisecond)
	m.ObserveTransportDuration("experiences", 0, time.Millisecond)
	m.IncDeliveries("experience", OutcomeQueued)
	m.SetQueueSize("experience", 3)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMetricsProvider_WhenEnabled(t *testing.T) {
	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: true},
	}
	m := NewMetricsProvider(conf)
	_, ok := m.(*MetricsProvider)
	assert.True(t, ok, "should return MetricsProvider when enabled")
}

func TestMetricsProvider_IndependentRegistries(t *testing.T) {
	conf := &structures.Config{Metrics: structures.MetricsConfig{Enabled: true}}
	assert.NotPanics(t, func() {
		NewMetricsProvider(conf)
		NewMetricsProvider(conf)
	})
}

func TestMetricsProvider_ExposesRecordedSeries(t *testing.T) {
	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: true},
	}
	m := NewMetricsProvider(conf)

	m.IncRequestsTotal("/prompt", 200)
	m.IncRequestsTotal("/prompt", 404)
	m.ObserveRequestDuration("/prompt", 5*time.Millisecond)
	m.IncCacheHits()
	m.IncCacheMisses()
	m.ObservePersistenceDuration(100 * time.Millisecond)
	m.ObserveTransportDuration("experiences", 0, time.Second)
	m.ObserveTransportDuration("experiences", 201, time.Second)
	m.IncDeliveries("feedback", OutcomeSent)
	m.SetQueueSize("experience", 7)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, `appero_queue_size{kind="experience"} 7`)
	assert.Contains(t, body, `appero_deliveries_total{kind="feedback",outcome="sent"} 1`)
	assert.Contains(t, body, `appero_bridge_requests_total{endpoint="/prompt",status="4xx"} 1`)
	assert.Contains(t, body, `appero_transport_duration_seconds_count{endpoint="experiences",status="none"} 1`)
}

func TestHttpStatusBucket(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{100, "1xx"},
		{200, "2xx"},
		{204, "2xx"},
		{301, "3xx"},
		{401, "4xx"},
		{422, "4xx"},
		{500, "5xx"},
		{503, "5xx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, httpStatusBucket(tt.code))
	}
}
