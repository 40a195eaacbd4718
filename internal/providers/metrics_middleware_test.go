package providers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type mockMetrics struct {
	requestEndpoint string
	requestStatus   int
	requestCalls    int
	durationCalls   int
}

func (m *mockMetrics) IncRequestsTotal(endpoint string, status int) {
	m.requestEndpoint = endpoint
	m.requestStatus = status
	m.requestCalls++
}
func (m *mockMetrics) ObserveRequestDuration(_ string, _ time.Duration)          { m.durationCalls++ }
func (m *mockMetrics) IncCacheHits()                                             {}
func (m *mockMetrics) IncCacheMisses()                                           {}
func (m *mockMetrics) ObservePersistenceDuration(_ time.Duration)                {}
func (m *mockMetrics) ObserveTransportDuration(_ string, _ int, _ time.Duration) {}
func (m *mockMetrics) IncDeliveries(_, _ string)                                 {}
func (m *mockMetrics) SetQueueSize(_ string, _ int)                              {}
func (m *mockMetrics) Handler() http.Handler                                     { return http.NotFoundHandler() }

func TestMetricsMiddleware_CapturesStatusAndEndpoint(t *testing.T) {
	metrics := &mockMetrics{}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	mw := MetricsMiddleware(metrics, handler)

	req := httptest.NewRequest(http.MethodGet, "/prompt", nil)
	rr := httptest.NewRecorder()
	mw.ServeHTTP(rr, req)

	assert.Equal(t, 1, metrics.requestCalls)
	assert.Equal(t, "/prompt", metrics.requestEndpoint)
	assert.Equal(t, http.StatusCreated, metrics.requestStatus)
	assert.Equal(t, 1, metrics.durationCalls)
}

func TestMetricsMiddleware_DefaultStatus200(t *testing.T) {
	metrics := &mockMetrics{}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	mw := MetricsMiddleware(metrics, handler)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()
	mw.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, metrics.requestStatus)
}

func TestStatusWriter_WriteHeader(t *testing.T) {
	rr := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rr, status: http.StatusOK}

	sw.WriteHeader(http.StatusNotFound)
	assert.Equal(t, http.StatusNotFound, sw.status)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

type recordingLogger struct {
	types []TypeEnum
	lines []string
}

func (l *recordingLogger) Errorf(_ TypeEnum, _ string, _ ...interface{}) {}
func (l *recordingLogger) Warnf(_ TypeEnum, _ string, _ ...interface{})  {}
func (l *recordingLogger) Debugf(t TypeEnum, format string, args ...interface{}) {
	l.types = append(l.types, t)
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}
func (l *recordingLogger) Infof(_ TypeEnum, _ string, _ ...interface{})  {}
func (l *recordingLogger) Fatalf(_ TypeEnum, _ string, _ ...interface{}) {}
func (l *recordingLogger) Close()                                        {}

func TestAccessLogMiddleware_LogsByMethod(t *testing.T) {
	logger := &recordingLogger{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	mw := AccessLogMiddleware(logger, handler)
	mw.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/experience", nil))
	mw.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/prompt", nil))

	assert.Equal(t, []TypeEnum{TypePost, TypeGet}, logger.types)
	assert.Contains(t, logger.lines[0], "POST /experience 202")
}
