package securebag

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// cacheKey identifies an item within a store.
type cacheKey struct {
	bag string
	id  string
}

func (k cacheKey) String() string {
	return k.bag + "\x00" + k.id
}

// itemCache holds loaded items by bag and id.
type itemCache struct {
	mu     sync.RWMutex
	items  map[cacheKey]*Item
	flight singleflight.Group
}

func newItemCache() *itemCache {
	return &itemCache{items: make(map[cacheKey]*Item)}
}

func (c *itemCache) lookup(key cacheKey) (*Item, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[key]
	return item, ok
}

// get returns the cached item or builds, caches and returns a new one.
// build runs without the lock held, so a slow load never blocks lookups of
// other items. Concurrent misses on the same key share one build.
func (c *itemCache) get(ctx context.Context, bag, id string, build func() (*Item, error)) (*Item, error) {
	key := cacheKey{bag: bag, id: id}

	// Fast path: read-lock cache check
	if item, ok := c.lookup(key); ok {
		emitCacheHit(ctx, bag, id)
		return item, nil
	}

	v, err, _ := c.flight.Do(key.String(), func() (any, error) {
		// Double-check: an earlier flight may have filled the entry.
		if item, ok := c.lookup(key); ok {
			emitCacheHit(ctx, bag, id)
			return item, nil
		}

		emitCacheMiss(ctx, bag, id)
		built, err := build()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if item, ok := c.items[key]; ok {
			built.Close()
			return item, nil
		}
		c.items[key] = built
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Item), nil
}

// put replaces the cached entry only if one exists. The replaced item is
// closed.
func (c *itemCache) put(bag, id string, item *Item) {
	key := cacheKey{bag: bag, id: id}
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.items[key]; ok && old != item {
		old.Close()
		c.items[key] = item
	}
}

// reset drops every cached item and zeroes its secret.
func (c *itemCache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.items {
		item.Close()
	}
	c.items = make(map[cacheKey]*Item)
}
