package providers

import (
	"appero/internal/structures"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// local mock logger to avoid import cycle with testutil
type cacheTestLogger struct{}

func (m *cacheTestLogger) Errorf(_ TypeEnum, _ string, _ ...interface{}) {}
func (m *cacheTestLogger) Warnf(_ TypeEnum, _ string, _ ...interface{})  {}
func (m *cacheTestLogger) Debugf(_ TypeEnum, _ string, _ ...interface{}) {}
func (m *cacheTestLogger) Infof(_ TypeEnum, _ string, _ ...interface{})  {}
func (m *cacheTestLogger) Fatalf(_ TypeEnum, _ string, _ ...interface{}) {}
func (m *cacheTestLogger) Close()                                        {}

type cacheTestMetrics struct {
	hits   int
	misses int
}

func (m *cacheTestMetrics) IncRequestsTotal(_ string, _ int)                          {}
func (m *cacheTestMetrics) ObserveRequestDuration(_ string, _ time.Duration)          {}
func (m *cacheTestMetrics) IncCacheHits()                                             { m.hits++ }
func (m *cacheTestMetrics) IncCacheMisses()                                           { m.misses++ }
func (m *cacheTestMetrics) ObservePersistenceDuration(_ time.Duration)                {}
func (m *cacheTestMetrics) ObserveTransportDuration(_ string, _ int, _ time.Duration) {}
func (m *cacheTestMetrics) IncDeliveries(_, _ string)                                 {}
func (m *cacheTestMetrics) SetQueueSize(_ string, _ int)                              {}
func (m *cacheTestMetrics) Handler() http.Handler                                     { return nil }

func cacheConfig(enabled bool, size int, ttl time.Duration) *structures.Config {
	return &structures.Config{
		Cache: structures.CacheConfig{
			Enabled: enabled,
			Size:    size,
			TTL:     ttl,
		},
	}
}

func TestCacheProvider_DisabledReturnsNoop(t *testing.T) {
	c := NewCacheProvider(cacheConfig(false, 10, time.Minute), &cacheTestLogger{})
	_, ok := c.Get("any")
	assert.False(t, ok)
	assert.IsType(t, &noopCache{}, c)
}

func TestCacheProvider_ZeroSizeReturnsNoop(t *testing.T) {
	c := NewCacheProvider(cacheConfig(true, 0, time.Minute), &cacheTestLogger{})
	assert.IsType(t, &noopCache{}, c)
}

func TestCacheProvider_DefaultTTL(t *testing.T) {
	c := NewCacheProvider(cacheConfig(true, 1, 0), &cacheTestLogger{})
	cp, ok := c.(*CacheProvider)
	assert.True(t, ok)
	assert.Equal(t, int(defaultCacheTTL.Seconds()), cp.ttl)
}

func TestCacheProvider_SetAndGet(t *testing.T) {
	c := NewCacheProvider(cacheConfig(true, 1, time.Minute), &cacheTestLogger{})

	c.Set("prompt:1", []byte(`{"should_show":true}`))
	val, ok := c.Get("prompt:1")
	assert.True(t, ok)
	assert.Equal(t, []byte(`{"should_show":true}`), val)

	_, ok = c.Get("prompt:2")
	assert.False(t, ok)
}

func TestCacheProvider_Clear(t *testing.T) {
	c := NewCacheProvider(cacheConfig(true, 1, time.Minute), &cacheTestLogger{})
	c.Set("state:4", []byte("x"))
	c.Clear()

	_, ok := c.Get("state:4")
	assert.False(t, ok)
}

func TestNoopCache_AlwaysMiss(t *testing.T) {
	c := &noopCache{}
	c.Set("key1", []byte("value1"))
	c.Clear()

	val, ok := c.Get("key1")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestCacheProvider_TTLExpiry(t *testing.T) {
	c := NewCacheProvider(cacheConfig(true, 1, time.Second), &cacheTestLogger{})

	c.Set("key1", []byte("value1"))
	_, ok := c.Get("key1")
	assert.True(t, ok)

	time.Sleep(2100 * time.Millisecond)

	_, ok = c.Get("key1")
	assert.False(t, ok)
}

func TestInstrumentedCacheProvider_CountsHitsAndMisses(t *testing.T) {
	metrics := &cacheTestMetrics{}
	c := NewInstrumentedCacheProvider(cacheConfig(true, 1, time.Minute), &cacheTestLogger{}, metrics)

	c.Set("prompt:3", []byte("{}"))
	c.Get("prompt:3")
	c.Get("prompt:4")
	c.Get("prompt:3")

	assert.Equal(t, 2, metrics.hits)
	assert.Equal(t, 1, metrics.misses)
}

func TestInstrumentedCacheProvider_DisabledReportsNothing(t *testing.T) {
	metrics := &cacheTestMetrics{}
	c := NewInstrumentedCacheProvider(cacheConfig(false, 1, time.Minute), &cacheTestLogger{}, metrics)
	assert.IsType(t, &noopCache{}, c)

	c.Get("prompt:1")
	assert.Zero(t, metrics.hits+metrics.misses)
}

func TestCacheProvider_WithoutMetrics(t *testing.T) {
	c := NewCacheProvider(cacheConfig(true, 1, time.Minute), &cacheTestLogger{})
	assert.NotPanics(t, func() { c.Get("state:1") })
}
