// Package cache holds the in-memory mirror of the remote product list.
package cache

import (
	"sync"
	"time"

	"github.com/JJCAR01/UX/internal/inventory"
)

// ProductCache is a mutex-protected mirror of the last fetched product
// list. It is replaced wholesale on every load.
type ProductCache struct {
	mu        sync.RWMutex
	products  []inventory.Product
	byID      map[int]int
	fetchedAt time.Time
	ttl       time.Duration
	nowFunc   func() time.Time // For testing
}

// New creates an empty cache whose contents go stale after ttl.
// A non-positive ttl means the contents never go stale on their own.
func New(ttl time.Duration) *ProductCache {
	return &ProductCache{
		byID:    make(map[int]int),
		ttl:     ttl,
		nowFunc: time.Now,
	}
}

// Replace swaps the whole product list.
func (c *ProductCache) Replace(products []inventory.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.products = make([]inventory.Product, len(products))
	copy(c.products, products)

	c.byID = make(map[int]int, len(products))
	for i, p := range c.products {
		c.byID[p.ID] = i
	}
	c.fetchedAt = c.nowFunc()
}

// Snapshot returns a copy of the cached products in server order.
func (c *ProductCache) Snapshot() []inventory.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]inventory.Product, len(c.products))
	copy(out, c.products)
	return out
}

// Get returns the product with the given id.
func (c *ProductCache) Get(id int) (inventory.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.byID[id]
	if !ok {
		return inventory.Product{}, false
	}
	return c.products[i], true
}

// Lookup resolves ids against the cache, keeping cache order and
// skipping ids that are not present.
func (c *ProductCache) Lookup(ids []int) []inventory.Product {
	want := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []inventory.Product
	for _, p := range c.products {
		if _, ok := want[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the number of cached products.
func (c *ProductCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

// FetchedAt returns when the cache was last replaced.
// The zero time means it was never loaded or was invalidated.
func (c *ProductCache) FetchedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchedAt
}

// Stale reports whether the cache needs a reload: it was never loaded,
// was invalidated, or is older than the TTL.
func (c *ProductCache) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.fetchedAt.IsZero() {
		return true
	}
	if c.ttl <= 0 {
		return false
	}
	return c.nowFunc().After(c.fetchedAt.Add(c.ttl))
}

// Invalidate marks the cache stale without dropping its contents.
func (c *ProductCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchedAt = time.Time{}
}

// Clear removes all products, e.g. on logout.
func (c *ProductCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.products = nil
	c.byID = make(map[int]int)
	c.fetchedAt = time.Time{}
}
