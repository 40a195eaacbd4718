package providers

import (
	"appero/internal/structures"
	"time"
	"unsafe"

	"github.com/coocood/freecache"
)

const defaultCacheTTL = time.Minute

type CacheProviderInterface interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Clear()
}

// CacheProvider is the freecache backed bridge cache. When metrics is set
// every Get is counted as a hit or a miss.
type CacheProvider struct {
	cache   *freecache.Cache
	ttl     int
	metrics MetricsProviderInterface
}

// NewCacheProvider builds the bridge read cache. Keys carry the engine
// revision, so the TTL only bounds how long superseded entries linger.
func NewCacheProvider(conf *structures.Config, logger Logger) CacheProviderInterface {
	if !conf.Cache.Enabled || conf.Cache.Size <= 0 {
		logger.Infof(TypeApp, "Cache disabled")
		return &noopCache{}
	}

	sizeBytes := conf.Cache.Size * 1024 * 1024
	ttlDur := conf.Cache.TTL
	if ttlDur <= 0 {
		ttlDur = defaultCacheTTL
	}
	ttl := max(int(ttlDur.Seconds()), 1)

	logger.Infof(TypeApp, "Cache initialized: %dMB, TTL=%ds", conf.Cache.Size, ttl)

	return &CacheProvider{
		cache: freecache.NewCache(sizeBytes),
		ttl:   ttl,
	}
}

// NewInstrumentedCacheProvider is NewCacheProvider with hit/miss counting.
// A disabled cache stays a noop and reports nothing.
func NewInstrumentedCacheProvider(conf *structures.Config, logger Logger, metrics MetricsProviderInterface) CacheProviderInterface {
	c := NewCacheProvider(conf, logger)
	if cp, ok := c.(*CacheProvider); ok {
		cp.metrics = metrics
	}
	return c
}

// unsafeStringToBytes converts string to []byte without allocation.
// freecache copies keys internally, so the result is never written to.
func unsafeStringToBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

func (c *CacheProvider) Get(key string) ([]byte, bool) {
	val, err := c.cache.Get(unsafeStringToBytes(key))
	hit := err == nil
	if c.metrics != nil {
		if hit {
			c.metrics.IncCacheHits()
		} else {
			c.metrics.IncCacheMisses()
		}
	}
	if !hit {
		return nil, false
	}
	return val, true
}

func (c *CacheProvider) Set(key string, value []byte) {
	_ = c.cache.Set(unsafeStringToBytes(key), value, c.ttl)
}

func (c *CacheProvider) Clear() {
	c.cache.Clear()
}

type noopCache struct{}

func (n *noopCache) Get(_ string) ([]byte, bool) { return nil, false }
func (n *noopCache) Set(_ string, _ []byte)      {}
func (n *noopCache) Clear()                      {}
