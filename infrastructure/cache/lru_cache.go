package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/mark-henry/mhnodalnetwork/pkg/observability"
)

const (
	DefaultSize = 500
	DefaultTTL  = 30 * time.Second
)

// LRUCache is a bounded LRU cache whose entries expire a fixed TTL after insertion.
// Expired entries behave exactly like absent ones.
type LRUCache struct {
	lru     *expirable.LRU[string, interface{}]
	metrics *observability.Collector
	logger  *zap.Logger
}

// NewLRUCache creates a cache holding at most size entries for ttl each.
// metrics may be nil.
func NewLRUCache(size int, ttl time.Duration, metrics *observability.Collector, logger *zap.Logger) *LRUCache {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LRUCache{
		lru:     expirable.NewLRU[string, interface{}](size, nil, ttl),
		metrics: metrics,
		logger:  logger,
	}
}

// Get retrieves a value from cache
func (c *LRUCache) Get(ctx context.Context, key string) (interface{}, bool) {
	v, ok := c.lru.Get(key)
	if c.metrics != nil {
		if ok {
			c.metrics.CacheHits.Inc()
		} else {
			c.metrics.CacheMisses.Inc()
		}
	}
	return v, ok
}

// Set stores value, resetting its TTL and evicting the least recently used
// entry when full.
func (c *LRUCache) Set(ctx context.Context, key string, value interface{}) {
	if evicted := c.lru.Add(key, value); evicted {
		c.logger.Debug("cache eviction", zap.String("inserted", key))
	}
}

// Has reports presence without touching recency.
func (c *LRUCache) Has(ctx context.Context, key string) bool {
	_, ok := c.lru.Peek(key)
	return ok
}

// Delete removes a value from cache
func (c *LRUCache) Delete(ctx context.Context, key string) {
	if c.lru.Remove(key) && c.metrics != nil {
		c.metrics.CacheInvalidations.Inc()
	}
}

// Clear removes all values from cache
func (c *LRUCache) Clear(ctx context.Context) {
	c.lru.Purge()
}

// Len returns the number of live entries.
func (c *LRUCache) Len() int {
	return c.lru.Len()
}
