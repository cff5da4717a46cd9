package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/mark-henry/mhnodalnetwork/pkg/observability"
)

func TestLRUCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(10, time.Minute, nil, zap.NewNop())

	c.Set(ctx, "node/abc", "value")
	v, ok := c.Get(ctx, "node/abc")
	assert.True(t, ok)
	assert.Equal(t, "value", v)
	assert.True(t, c.Has(ctx, "node/abc"))

	c.Delete(ctx, "node/abc")
	_, ok = c.Get(ctx, "node/abc")
	assert.False(t, ok)
	assert.False(t, c.Has(ctx, "node/abc"))
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(2, time.Minute, nil, zap.NewNop())

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	_, _ = c.Get(ctx, "a") // b is now least recently used
	c.Set(ctx, "c", 3)

	assert.True(t, c.Has(ctx, "a"))
	assert.False(t, c.Has(ctx, "b"))
	assert.True(t, c.Has(ctx, "c"))
	assert.Equal(t, 2, c.Len())
}

func TestLRUCache_ExpiredEntriesAreAbsent(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(10, 50*time.Millisecond, nil, zap.NewNop())

	c.Set(ctx, "graph/g", []string{"x"})
	assert.True(t, c.Has(ctx, "graph/g"))

	time.Sleep(120 * time.Millisecond)

	_, ok := c.Get(ctx, "graph/g")
	assert.False(t, ok)
	assert.False(t, c.Has(ctx, "graph/g"))
}

func TestLRUCache_Clear(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(10, time.Minute, nil, zap.NewNop())
	c.Set(ctx, "graphs", []string{})
	c.Set(ctx, "other", 1)

	c.Clear(ctx)

	assert.Equal(t, 0, c.Len())
}

func TestLRUCache_CountsHitsAndMisses(t *testing.T) {
	ctx := context.Background()
	metrics := observability.NewCollector("test")
	c := NewLRUCache(10, time.Minute, metrics, zap.NewNop())

	c.Set(ctx, "k", 1)
	c.Get(ctx, "k")
	c.Get(ctx, "missing")
	c.Delete(ctx, "k")
	c.Delete(ctx, "k")

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CacheHits))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CacheMisses))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CacheInvalidations))
}

func TestLRUCache_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(64, time.Minute, nil, zap.NewNop())

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (w*200+i)%100)
				c.Set(ctx, key, i)
				c.Get(ctx, key)
				if i%7 == 0 {
					c.Delete(ctx, key)
				}
			}
		}(w)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 64)
}
