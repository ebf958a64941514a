package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"neoledger/internal/core"
)

// InsightCache caches per-customer insight responses. Every customer carries
// a generation counter that is bumped on write, so entries cached before a
// new transaction become unreachable and age out through the LRU. Keys also
// carry the request date: a days_ago window means something different after
// midnight, so an entry cached on one day is never served on the next.
type InsightCache struct {
	lru *LRUCache[[]core.CategoryInsight]

	mu          sync.Mutex
	generations map[string]uint64
}

func NewInsightCache(maxSize int, ttl time.Duration) *InsightCache {
	return &InsightCache{
		lru:         NewLRUCache[[]core.CategoryInsight](maxSize, ttl),
		generations: make(map[string]uint64),
	}
}

func (c *InsightCache) Get(today core.Date, query core.InsightQuery) ([]core.CategoryInsight, bool) {
	return c.lru.Get(c.key(today, query))
}

func (c *InsightCache) Set(today core.Date, query core.InsightQuery, insights []core.CategoryInsight) {
	c.lru.Set(c.key(today, query), insights)
}

// Invalidate marks every cached entry for the customer stale.
func (c *InsightCache) Invalidate(customerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[customerID]++
}

func (c *InsightCache) Len() int { return c.lru.Len() }

// StartCleanup sweeps expired entries until the context is cancelled.
func (c *InsightCache) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.lru.CleanExpired()
			}
		}
	}()
}

func (c *InsightCache) key(today core.Date, query core.InsightQuery) string {
	c.mu.Lock()
	gen := c.generations[query.CustomerID]
	c.mu.Unlock()

	topN, daysAgo := -1, -1
	if query.TopN != nil {
		topN = *query.TopN
	}
	if query.DaysAgo != nil {
		daysAgo = *query.DaysAgo
	}
	return fmt.Sprintf("%s@%s#g%d#top=%d#days=%d", query.CustomerID, today, gen, topN, daysAgo)
}
