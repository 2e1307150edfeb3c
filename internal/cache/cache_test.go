package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/JJCAR01/UX/internal/inventory"
)

func sampleProducts() []inventory.Product {
	return []inventory.Product{
		{ID: 1, Code: "TORN-001", Name: "Tornillo M8 x 20mm", Quantity: 150},
		{ID: 2, Code: "CABLE-002", Name: "Cable UTP Cat 6", Quantity: 45},
		{ID: 3, Code: "PAPEL-003", Name: "Papel Bond A4", Quantity: 25},
	}
}

func TestCacheReplaceSnapshot(t *testing.T) {
	c := New(time.Minute)

	c.Replace(sampleProducts())
	if c.Len() != 3 {
		t.Fatalf("expected 3 products, got %d", c.Len())
	}

	snap := c.Snapshot()
	snap[0].Name = "mutated"

	p, ok := c.Get(1)
	if !ok {
		t.Fatal("expected to find product 1")
	}
	if p.Name != "Tornillo M8 x 20mm" {
		t.Errorf("snapshot mutation leaked into cache: %q", p.Name)
	}

	// Replace is wholesale, not a merge
	c.Replace([]inventory.Product{{ID: 4, Code: "NEW"}})
	if _, ok := c.Get(1); ok {
		t.Error("expected product 1 to be gone after replace")
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 product, got %d", c.Len())
	}
}

func TestCacheLookup(t *testing.T) {
	c := New(time.Minute)
	c.Replace(sampleProducts())

	got := c.Lookup([]int{3, 1, 99})
	if len(got) != 2 {
		t.Fatalf("expected 2 products, got %d", len(got))
	}
	// Cache order, not argument order
	if got[0].ID != 1 || got[1].ID != 3 {
		t.Errorf("unexpected order: %d, %d", got[0].ID, got[1].ID)
	}
}

func TestCacheStaleWithMockedTime(t *testing.T) {
	c := New(time.Minute)

	currentTime := time.Now()
	c.nowFunc = func() time.Time {
		return currentTime
	}

	if !c.Stale() {
		t.Error("expected never-loaded cache to be stale")
	}

	c.Replace(sampleProducts())
	if c.Stale() {
		t.Error("expected fresh cache")
	}

	currentTime = currentTime.Add(2 * time.Minute)
	if !c.Stale() {
		t.Error("expected cache to be stale after TTL")
	}
}

func TestCacheInvalidateAndClear(t *testing.T) {
	c := New(0)
	c.Replace(sampleProducts())

	if c.Stale() {
		t.Error("zero TTL cache should not go stale by itself")
	}

	c.Invalidate()
	if !c.Stale() {
		t.Error("expected stale after invalidate")
	}
	if c.Len() != 3 {
		t.Error("invalidate must keep contents")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d", c.Len())
	}
	if !c.FetchedAt().IsZero() {
		t.Error("expected zero fetch time after clear")
	}
}

func TestCacheConcurrency(t *testing.T) {
	c := New(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Replace(sampleProducts())
		}()
		go func() {
			defer wg.Done()
			for _, p := range c.Snapshot() {
				if p.ID == 0 {
					t.Error("unexpected zero id in snapshot")
				}
			}
		}()
	}
	wg.Wait()

	if c.Len() != 3 {
		t.Errorf("expected 3 products, got %d", c.Len())
	}
}
