package cache

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/infinite-experiment/vatwatch/internal/metrics"
)

// MemoryCache is the in-process cache used when REDIS_HOST is unset.
// It backs the sector-occupancy snapshot in single-instance deployments.
type MemoryCache struct {
	cache      *gocache.Cache
	metricsReg *metrics.Registry
}

var _ Interface = (*MemoryCache)(nil)

// NewMemoryCache creates an in-process cache with the given default
// expiration and cleanup cadence.
func NewMemoryCache(defaultExpirationSeconds, cleanUpIntervalSeconds int) *MemoryCache {
	defaultExpiration := time.Duration(defaultExpirationSeconds) * time.Second
	cleanUpInterval := time.Duration(cleanUpIntervalSeconds) * time.Second
	return &MemoryCache{cache: gocache.New(defaultExpiration, cleanUpInterval)}
}

// NewMemoryCacheWithMetrics wires hit/miss counters into the given registry.
func NewMemoryCacheWithMetrics(defaultExpirationSeconds, cleanUpIntervalSeconds int, metricsReg *metrics.Registry) *MemoryCache {
	c := NewMemoryCache(defaultExpirationSeconds, cleanUpIntervalSeconds)
	c.metricsReg = metricsReg
	return c
}

// extractCacheKeyPattern extracts the leading segment of a "pattern:rest" key.
func extractCacheKeyPattern(key string) string {
	parts := strings.SplitN(key, ":", 2)
	if len(parts) > 0 {
		return parts[0]
	}
	return "unknown"
}

func (cs *MemoryCache) Set(key string, value interface{}, duration time.Duration) {
	cs.cache.Set(key, value, duration)
}

func (cs *MemoryCache) Get(key string) (interface{}, bool) {
	val, found := cs.cache.Get(key)

	if cs.metricsReg != nil {
		pattern := extractCacheKeyPattern(key)
		if found {
			cs.metricsReg.CacheHitsTotal.WithLabelValues(pattern).Inc()
		} else {
			cs.metricsReg.CacheMissesTotal.WithLabelValues(pattern).Inc()
		}
	}

	return val, found
}

func (cs *MemoryCache) Delete(key string) {
	cs.cache.Delete(key)
}

func (cs *MemoryCache) GetOrSet(key string, duration time.Duration, loader func() (any, error)) (interface{}, error) {
	if val, found := cs.Get(key); found {
		return val, nil
	}

	val, err := loader()
	if err != nil {
		return nil, err
	}

	cs.Set(key, val, duration)
	return val, nil
}

// Close is a no-op for the in-memory cache.
func (cs *MemoryCache) Close() error {
	return nil
}
