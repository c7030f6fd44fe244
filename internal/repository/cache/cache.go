package cache

import (
	"container/list"
	"errors"
	"fmt"
	"sync"

	"github.com/jaennil/guide_helper/backend/render/internal/tile"
	"github.com/jaennil/guide_helper/backend/render/pkg/logger"
	"github.com/jaennil/guide_helper/backend/render/pkg/metrics"
)

const DefaultCapacity = 100

var ErrInvalidCapacity = errors.New("cache capacity must be positive")

// TileCacheKey is the composite (z, x, y) key of a cached tile.
type TileCacheKey = tile.Index

type item struct {
	entry *Entry
	elem  *list.Element
}

// TileCache is a bounded map of tile entries evicted in insertion order.
// Reads never change the eviction order.
type TileCache struct {
	mu       sync.RWMutex
	capacity int
	items    map[TileCacheKey]*item
	order    *list.List
	logger   logger.Logger
}

func NewTileCache(capacity int, l logger.Logger) (*TileCache, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}

	l.Info("tile cache initialized", "capacity", capacity)

	return &TileCache{
		capacity: capacity,
		items:    make(map[TileCacheKey]*item, capacity+1),
		order:    list.New(),
		logger:   l,
	}, nil
}

func (c *TileCache) Get(k TileCacheKey) (*Entry, bool) {
	c.mu.RLock()
	it, exists := c.items[k]
	c.mu.RUnlock()

	if !exists {
		metrics.TileCacheMisses.Inc()
		return nil, false
	}

	metrics.TileCacheHits.Inc()
	return it.entry, true
}

// Insert stores e under k. A new key joins the back of the eviction queue;
// an existing key is overwritten in place. Afterwards the oldest keys are
// evicted until the capacity holds.
func (c *TileCache) Insert(k TileCacheKey, e *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.insertLocked(k, e)
}

// GetOrInsert returns the entry stored under k, or stores e when there is
// none. inserted reports which happened.
func (c *TileCache) GetOrInsert(k TileCacheKey, e *Entry) (actual *Entry, inserted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if it, exists := c.items[k]; exists {
		return it.entry, false
	}

	c.insertLocked(k, e)
	return e, true
}

func (c *TileCache) insertLocked(k TileCacheKey, e *Entry) {
	metrics.TileCacheInserts.Inc()

	if it, exists := c.items[k]; exists {
		it.entry = e
		return
	}

	c.items[k] = &item{
		entry: e,
		elem:  c.order.PushBack(k),
	}

	for len(c.items) > c.capacity {
		oldest := c.order.Front()
		key := oldest.Value.(TileCacheKey)
		c.removeLocked(key)
		metrics.TileCacheEvictions.Inc()
		c.logger.Debug("tile evicted", "z", key.Z, "x", key.X, "y", key.Y)
	}

	metrics.TileCacheSize.Set(float64(len(c.items)))
}

func (c *TileCache) Remove(k TileCacheKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := c.removeLocked(k)
	metrics.TileCacheSize.Set(float64(len(c.items)))
	return removed
}

func (c *TileCache) removeLocked(k TileCacheKey) bool {
	it, exists := c.items[k]
	if !exists {
		return false
	}
	c.order.Remove(it.elem)
	delete(c.items, k)
	return true
}

func (c *TileCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *TileCache) Capacity() int {
	return c.capacity
}

// Keys returns the cached keys oldest first.
func (c *TileCache) Keys() []TileCacheKey {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]TileCacheKey, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(TileCacheKey))
	}
	return keys
}
