// Package cache deduplicates concurrent source loads and memoizes their
// results. A Cache is an explicit object: the server keeps one for the life of
// the process, the CLI one per command. Entries never expire; callers drop them
// with Invalidate or Flush.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"claimpulse/internal/infrastructure"
)

// LoadFunc produces the value for a key. It receives a context that is not
// cancelled when the caller that triggered the load goes away.
type LoadFunc func(ctx context.Context) (any, error)

// Stats is a point-in-time view of cache activity.
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Loads   int64 `json:"loads"`
	Entries int   `json:"entries"`
}

// Cache is a single-flight, write-once memo store keyed by source identity.
type Cache struct {
	store   *gocache.Cache
	group   singleflight.Group
	logger  *slog.Logger
	metrics *infrastructure.PipelineMetrics

	mu    sync.Mutex
	epoch uint64
	gens  map[string]uint64

	hits   atomic.Int64
	misses atomic.Int64
	loads  atomic.Int64
}

// New creates an empty Cache. metrics may be nil.
func New(logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		store:   gocache.New(gocache.NoExpiration, 0),
		logger:  logger.With(slog.String("component", "cache")),
		metrics: metrics,
		gens:    make(map[string]uint64),
	}
}

// Key builds the cache key for a source loaded from uri.
func Key(source, uri string) string {
	return source + "|" + uri
}

// Get returns the memoized value for key, if any.
func (c *Cache) Get(key string) (any, bool) {
	return c.store.Get(key)
}

// Do returns the memoized value for key or runs fn to produce it. Concurrent
// callers for the same key share one run of fn. A successful result is stored
// once and returned to every later caller; an error is returned to every
// waiter and nothing is stored.
//
// If ctx is cancelled while waiting, Do returns ctx.Err() but the shared load
// keeps running and still populates the cache.
func (c *Cache) Do(ctx context.Context, key string, fn LoadFunc) (any, error) {
	if v, ok := c.store.Get(key); ok {
		c.hits.Add(1)
		c.metrics.RecordCacheLookup(ctx, key, true)
		return v, nil
	}
	c.misses.Add(1)
	c.metrics.RecordCacheLookup(ctx, key, false)

	token := c.token(key)
	detached := context.WithoutCancel(ctx)

	ch := c.group.DoChan(key, func() (v any, err error) {
		if v, ok := c.store.Get(key); ok {
			return v, nil
		}

		defer func() {
			if r := recover(); r != nil {
				v, err = nil, fmt.Errorf("cache load %q panicked: %v", key, r)
			}
		}()

		c.loads.Add(1)
		v, err = fn(detached)
		if err != nil {
			c.logger.WarnContext(detached, "cache load failed",
				slog.String("key", key),
				slog.String("error", err.Error()))
			return nil, err
		}
		return c.install(key, token, v), nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

// Load is the typed form of Do.
func Load[T any](ctx context.Context, c *Cache, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.Do(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache key %q holds %T, not %T", key, v, zero)
	}
	return typed, nil
}

// Invalidate drops key. A load for key already in flight completes for its
// waiters but is not stored; the next caller starts a fresh load.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	c.gens[key]++
	c.mu.Unlock()

	c.group.Forget(key)
	c.store.Delete(key)
	c.logger.Info("cache entry invalidated", slog.String("key", key))
}

// Flush drops every entry.
func (c *Cache) Flush() {
	c.mu.Lock()
	c.epoch++
	c.gens = make(map[string]uint64)
	c.mu.Unlock()

	c.store.Flush()
	c.logger.Info("cache flushed")
}

// Stats returns hit, miss and load counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Loads:   c.loads.Load(),
		Entries: c.store.ItemCount(),
	}
}

type generation struct {
	epoch uint64
	gen   uint64
}

func (c *Cache) token(key string) generation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return generation{epoch: c.epoch, gen: c.gens[key]}
}

// install stores v unless key was invalidated since the load began, and
// returns the value callers should see. The first stored value wins.
func (c *Cache) install(key string, token generation, v any) any {
	c.mu.Lock()
	defer c.mu.Unlock()

	if token != (generation{epoch: c.epoch, gen: c.gens[key]}) {
		return v
	}
	if err := c.store.Add(key, v, gocache.NoExpiration); err != nil {
		if existing, ok := c.store.Get(key); ok {
			return existing
		}
	}
	return v
}
