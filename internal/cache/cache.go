// Package cache provides a generic TTL cache keyed by quantised coordinates.
//
// Expiry is evaluated when an entry is read; there is no background sweeper.
// Stale entries are treated as absent and are replaced wholesale on the next
// Put. An optional entry cap evicts the least recently used key.
package cache

import (
	"container/list"
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/denizrota/denizrota/internal/geo"
)

// DefaultTTL is the freshness window for all weather caches.
const DefaultTTL = time.Hour

// Entry is an immutable cached value with its production time.
type Entry[T any] struct {
	Value      T
	ProducedAt time.Time
}

// Fresh reports whether the entry is younger than ttl at now.
func (e Entry[T]) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.ProducedAt) < ttl
}

// Config holds configuration for a Cache.
type Config struct {
	// Name identifies the cache in stats and logs.
	Name string

	// TTL is the freshness window (default: 1 hour).
	TTL time.Duration

	// MaxEntries caps the number of keys; 0 means unbounded.
	MaxEntries int

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Cache is a mutex-guarded TTL cache safe for concurrent use.
type Cache[T any] struct {
	name       string
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = most recently used

	hits   uint64
	misses uint64

	group singleflight.Group
}

type item[T any] struct {
	key   string
	entry Entry[T]
}

// New creates a cache.
func New[T any](cfg Config) *Cache[T] {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Cache[T]{
		name:       cfg.Name,
		ttl:        ttl,
		maxEntries: cfg.MaxEntries,
		now:        now,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
	}
}

// Get returns the value for key if present and fresh.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	el, ok := c.entries[key]
	if !ok {
		c.misses++
		return zero, false
	}

	it := el.Value.(*item[T])
	if !it.entry.Fresh(c.now(), c.ttl) {
		c.misses++
		return zero, false
	}

	c.order.MoveToFront(el)
	c.hits++
	return it.entry.Value, true
}

// Put stores value under key, replacing any previous entry.
func (c *Cache[T]) Put(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := Entry[T]{Value: value, ProducedAt: c.now()}

	if el, ok := c.entries[key]; ok {
		el.Value = &item[T]{key: key, entry: entry}
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&item[T]{key: key, entry: entry})

	if c.maxEntries > 0 && c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*item[T]).key)
	}
}

// GetOrLoad returns the cached value for key or calls load once for all
// concurrent callers missing the same key. Successful loads are cached.
//
// load runs detached from ctx cancellation: a caller that gives up gets
// ctx.Err() immediately while the load finishes and still fills the cache.
func (c *Cache[T]) GetOrLoad(ctx context.Context, key string, load func(ctx context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		// Another caller may have filled the slot while we queued.
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := load(detached)
		if err != nil {
			return v, err
		}
		c.Put(key, v)
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// Len returns the number of stored entries, stale ones included.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Purge drops every entry.
func (c *Cache[T]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// Stats contains cache statistics.
type Stats struct {
	Name         string
	Entries      int
	FreshEntries int
	Hits         uint64
	Misses       uint64
}

// Stats returns a snapshot of cache statistics.
func (c *Cache[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	fresh := 0
	for el := c.order.Front(); el != nil; el = el.Next() {
		if el.Value.(*item[T]).entry.Fresh(now, c.ttl) {
			fresh++
		}
	}

	return Stats{
		Name:         c.name,
		Entries:      c.order.Len(),
		FreshEntries: fresh,
		Hits:         c.hits,
		Misses:       c.misses,
	}
}

// GridKey quantises c onto a grid of the given size in degrees.
// Points within the same cell share a key.
func GridKey(c geo.Coordinate, grid float64) string {
	gridLat := math.Floor(c.Lat/grid+1e-9) * grid
	gridLon := math.Floor(c.Lon/grid+1e-9) * grid
	return fmt.Sprintf("%s:%s", formatGrid(gridLat, grid), formatGrid(gridLon, grid))
}

// HourKey combines GridKey with t truncated to the UTC hour.
func HourKey(c geo.Coordinate, grid float64, t time.Time) string {
	return GridKey(c, grid) + "@" + t.UTC().Truncate(time.Hour).Format("2006-01-02T15")
}

func formatGrid(v, grid float64) string {
	decimals := int(math.Ceil(-math.Log10(grid) - 1e-9))
	if decimals < 0 {
		decimals = 0
	}
	if decimals > 6 {
		decimals = 6
	}
	return fmt.Sprintf("%.*f", decimals, v)
}
