package providers

import (
	"appero/internal/structures"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	ObservePersistenceDuration(duration time.Duration)
	ObserveTransportDuration(endpoint string, status int, duration time.Duration)
	IncDeliveries(kind, outcome string)
	SetQueueSize(kind string, size int)
	Handler() http.Handler
}

// Delivery outcomes reported by the sync engine.
const (
	OutcomeSent   = "sent"
	OutcomeQueued = "queued"
	OutcomeFailed = "failed"
)

type MetricsProvider struct {
	registry            *prometheus.Registry
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	persistenceDuration prometheus.Histogram
	transportDuration   *prometheus.HistogramVec
	deliveries          *prometheus.CounterVec
	queueSize           *prometheus.GaugeVec
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

// ObserveTransportDuration records an outbound call. status 0 means no HTTP response arrived.
func (m *MetricsProvider) ObserveTransportDuration(endpoint string, status int, duration time.Duration) {
	bucket := "none"
	if status > 0 {
		bucket = httpStatusBucket(status)
	}
	m.transportDuration.WithLabelValues(endpoint, bucket).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncDeliveries(kind, outcome string) {
	m.deliveries.WithLabelValues(kind, outcome).Inc()
}

func (m *MetricsProvider) SetQueueSize(kind string, size int) {
	m.queueSize.WithLabelValues(kind).Set(float64(size))
}

func (m *MetricsProvider) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	return &MetricsProvider{
		registry: reg,

		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "appero_bridge_requests_total",
			Help: "Total number of bridge HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "appero_bridge_request_duration_seconds",
			Help:    "Bridge HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "appero_cache_hits_total",
			Help: "Total number of cache hits",
		}),

		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "appero_cache_misses_total",
			Help: "Total number of cache misses",
		}),

		persistenceDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "appero_persistence_duration_seconds",
			Help:    "Duration of state file writes in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		transportDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "appero_transport_duration_seconds",
			Help:    "Duration of collection endpoint calls in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"endpoint", "status"}),

		deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "appero_deliveries_total",
			Help: "Delivery attempts by item kind and outcome",
		}, []string{"kind", "outcome"}),

		queueSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "appero_queue_size",
			Help: "Number of items waiting for delivery",
		}, []string{"kind"}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                          {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration)          {}
func (n *noopMetrics) IncCacheHits()                                             {}
func (n *noopMetrics) IncCacheMisses()                                           {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)                {}
func (n *noopMetrics) ObserveTransportDuration(_ string, _ int, _ time.Duration) {}
func (n *noopMetrics) IncDeliveries(_, _ string)                                 {}
func (n *noopMetrics) SetQueueSize(_ string, _ int)                              {}
func (n *noopMetrics) Handler() http.Handler                                     { return http.NotFoundHandler() }

// NewNoopMetrics is used by the embedded facade, which has no scrape endpoint.
func NewNoopMetrics() MetricsProviderInterface {
	return &noopMetrics{}
}
