// Package query caches remote reads by semantic key and lets mutations
// invalidate whatever they affected.
package query

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Key identifies a query, e.g. {"tasks", "my", "assigned"} or {"task", "42"}
type Key []string

func (k Key) String() string { return strings.Join(k, "/") }

// HasPrefix reports whether k starts with every element of p
func (k Key) HasPrefix(p Key) bool {
	if len(p) > len(k) {
		return false
	}
	for i := range p {
		if k[i] != p[i] {
			return false
		}
	}
	return true
}

type entry struct {
	key   Key
	value any
	at    time.Time
}

// Cache holds fetched values. It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	epoch   uint64
	group   singleflight.Group
	ttl     time.Duration
	now     func() time.Time
	log     *zap.Logger
}

// New returns a cache whose entries go stale after ttl. A ttl of zero keeps
// entries until they are invalidated.
func New(ttl time.Duration, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
		log:     log,
	}
}

// Fetch returns the cached value for key, or calls fn once for all
// concurrent callers of the same key and caches its result. A fetch that
// overlaps an invalidation still returns its value but does not cache it.
//
// fn runs detached from the cancellation of whichever caller started it,
// keeping only that caller's deadline, so one caller giving up does not fail
// the others. Each caller still stops waiting when its own ctx is done.
func Fetch[T any](ctx context.Context, c *Cache, key Key, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if v, ok := c.lookup(key); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}

	epoch := c.currentEpoch()
	flight := key.String() + "#" + strconv.FormatUint(epoch, 10)
	ch := c.group.DoChan(flight, func() (any, error) {
		fctx := context.WithoutCancel(ctx)
		if dl, ok := ctx.Deadline(); ok {
			var cancel context.CancelFunc
			fctx, cancel = context.WithDeadline(fctx, dl)
			defer cancel()
		}
		val, err := fn(fctx)
		if err != nil {
			return nil, err
		}
		c.store(key, val, epoch)
		return val, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	if res.Err != nil {
		return zero, res.Err
	}
	if res.Shared {
		c.log.Debug("query deduplicated", zap.Stringer("key", key))
	}
	v := res.Val
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("query %s: cached %T, want %T", key, v, zero)
	}
	return t, nil
}

// Peek returns a cached value without fetching, fresh or not
func (c *Cache) Peek(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	return e.value, ok
}

// Invalidate drops every entry under any of the given prefixes
func (c *Cache) Invalidate(prefixes ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	n := 0
	for s, e := range c.entries {
		for _, p := range prefixes {
			if e.key.HasPrefix(p) {
				delete(c.entries, s)
				n++
				break
			}
		}
	}
	c.log.Debug("queries invalidated", zap.Stringers("prefixes", prefixes), zap.Int("dropped", n))
}

// Clear drops everything, e.g. on sign out
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	clear(c.entries)
}

// Len returns the number of cached entries
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) lookup(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(e.at) >= c.ttl {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) currentEpoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

func (c *Cache) store(key Key, v any, epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		c.log.Debug("stale query result dropped", zap.Stringer("key", key))
		return
	}
	c.entries[key.String()] = entry{key: key, value: v, at: c.now()}
}
