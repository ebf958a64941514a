package cache

import (
	"testing"
	"time"

	"neoledger/internal/core"
)

func intPtr(n int) *int { return &n }

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Set("c", "3")

	if _, ok := c.Get("a"); ok {
		t.Error("oldest key survived eviction")
	}
	if v, ok := c.Get("c"); !ok || v != "3" {
		t.Errorf("Get(c) = %q, %v; want 3, true", v, ok)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestLRUCacheTTL(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)

	c.Set("k", 7)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("expired entry still served")
	}
	if removed := c.CleanExpired(); removed != 0 {
		// Get already dropped it.
		t.Errorf("CleanExpired() = %d, want 0", removed)
	}
}

func TestInsightCacheHitAndMiss(t *testing.T) {
	c := NewInsightCache(10, time.Minute)
	today := core.NewDate(2024, 6, 20)
	query := core.InsightQuery{CustomerID: "C1", TopN: intPtr(3)}
	insights := []core.CategoryInsight{{Category: "Groceries", Amount: 500}}

	if _, ok := c.Get(today, query); ok {
		t.Error("cold cache returned a hit")
	}

	c.Set(today, query, insights)

	got, ok := c.Get(today, query)
	if !ok || len(got) != 1 || got[0].Category != "Groceries" {
		t.Errorf("Get() = %v, %v; want cached insights", got, ok)
	}

	// A different window is a different entry.
	if _, ok := c.Get(today, core.InsightQuery{CustomerID: "C1", TopN: intPtr(3), DaysAgo: intPtr(7)}); ok {
		t.Error("windowed query hit the full-history entry")
	}
}

func TestInsightCacheMissesAfterDateRollover(t *testing.T) {
	c := NewInsightCache(10, time.Hour)
	day := core.NewDate(2024, 6, 20)
	query := core.InsightQuery{CustomerID: "C1", DaysAgo: intPtr(7)}

	c.Set(day, query, []core.CategoryInsight{{Category: "Groceries", Amount: 500}})

	if _, ok := c.Get(day, query); !ok {
		t.Error("same-day lookup missed")
	}
	if _, ok := c.Get(day.AddDays(1), query); ok {
		t.Error("entry cached yesterday served after midnight")
	}
}

func TestInsightCacheInvalidatePerCustomer(t *testing.T) {
	c := NewInsightCache(10, time.Minute)
	today := core.NewDate(2024, 6, 20)
	q1 := core.InsightQuery{CustomerID: "C1"}
	q2 := core.InsightQuery{CustomerID: "C2"}
	c.Set(today, q1, []core.CategoryInsight{{Category: "Groceries", Amount: 500}})
	c.Set(today, q2, []core.CategoryInsight{{Category: "Transport", Amount: 300}})

	c.Invalidate("C1")

	if _, ok := c.Get(today, q1); ok {
		t.Error("C1 entry survived invalidation")
	}
	if _, ok := c.Get(today, q2); !ok {
		t.Error("C2 entry was dropped by C1 invalidation")
	}
}
