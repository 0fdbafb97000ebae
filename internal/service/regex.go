package service

import (
	"regexp"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// regexCacheMaxSize is the maximum number of compiled patterns kept.
const regexCacheMaxSize = 1000

type regexCacheEntry struct {
	regex      *regexp.Regexp
	lastAccess int64
}

// regexCache is a bounded LRU cache of compiled patterns. Reloading a
// service description compiles the same patterns again.
type regexCache struct {
	mu      sync.Mutex
	entries map[string]*regexCacheEntry
	clock   int64
	maxSize int
	metrics *regexCacheMetrics
}

type regexCacheMetrics struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	evictions prometheus.Counter
	size      prometheus.Gauge
}

var (
	regexCacheMetricsInstance *regexCacheMetrics
	regexCacheMetricsOnce     sync.Once

	patterns = newRegexCache(regexCacheMaxSize)
)

func getRegexCacheMetrics() *regexCacheMetrics {
	regexCacheMetricsOnce.Do(func() {
		regexCacheMetricsInstance = &regexCacheMetrics{
			hits: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "avarest",
				Subsystem: "service",
				Name:      "regex_cache_hits_total",
				Help:      "Total number of compiled pattern cache hits",
			}),
			misses: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "avarest",
				Subsystem: "service",
				Name:      "regex_cache_misses_total",
				Help:      "Total number of compiled pattern cache misses",
			}),
			evictions: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "avarest",
				Subsystem: "service",
				Name:      "regex_cache_evictions_total",
				Help:      "Total number of compiled patterns evicted from the cache",
			}),
			size: promauto.NewGauge(prometheus.GaugeOpts{
				Namespace: "avarest",
				Subsystem: "service",
				Name:      "regex_cache_size",
				Help:      "Number of compiled patterns in the cache",
			}),
		}
	})
	return regexCacheMetricsInstance
}

func newRegexCache(maxSize int) *regexCache {
	return &regexCache{
		entries: make(map[string]*regexCacheEntry),
		maxSize: maxSize,
		metrics: getRegexCacheMetrics(),
	}
}

// compile returns the compiled form of pattern, compiling it on a miss.
func (c *regexCache) compile(pattern string) (*regexp.Regexp, error) {
	c.mu.Lock()
	if entry, ok := c.entries[pattern]; ok {
		c.clock++
		entry.lastAccess = c.clock
		c.mu.Unlock()
		c.metrics.hits.Inc()
		return entry.regex, nil
	}
	c.mu.Unlock()
	c.metrics.misses.Inc()

	// Compile outside the lock.
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.clock++
	if entry, ok := c.entries[pattern]; ok {
		entry.lastAccess = c.clock
		return entry.regex, nil
	}
	if len(c.entries) >= c.maxSize {
		c.evictOldest()
		c.metrics.evictions.Inc()
	}
	c.entries[pattern] = &regexCacheEntry{regex: re, lastAccess: c.clock}
	c.metrics.size.Set(float64(len(c.entries)))
	return re, nil
}

// evictOldest removes the least recently used entry. Must be called with
// c.mu held.
func (c *regexCache) evictOldest() {
	var (
		oldestKey  string
		oldestSeen int64 = -1
	)
	for key, entry := range c.entries {
		if oldestSeen == -1 || entry.lastAccess < oldestSeen {
			oldestSeen = entry.lastAccess
			oldestKey = key
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func (c *regexCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// compilePattern compiles pattern through the shared cache.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	return patterns.compile(pattern)
}

func mustCompilePattern(pattern string) *regexp.Regexp {
	re, err := compilePattern(pattern)
	if err != nil {
		panic("service: " + err.Error())
	}
	return re
}
