package analysis

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// LoadFunc builds a snapshot from scratch.
type LoadFunc func(ctx context.Context) (*Snapshot, error)

// Cache keeps the latest snapshot per dataset key and shares one in-flight
// computation between concurrent callers.
type Cache struct {
	group singleflight.Group

	mu       sync.RWMutex
	key      string
	snapshot *Snapshot
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Get returns the cached snapshot for key or computes it with load.
// A caller whose ctx ends early stops waiting; the computation itself keeps
// running for the other waiters.
func (c *Cache) Get(ctx context.Context, key string, load LoadFunc) (*Snapshot, error) {
	c.mu.RLock()
	if c.snapshot != nil && c.key == key {
		s := c.snapshot
		c.mu.RUnlock()
		return s, nil
	}
	c.mu.RUnlock()

	ch := c.group.DoChan(key, func() (any, error) {
		s, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.key = key
		c.snapshot = s
		c.mu.Unlock()
		return s, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

// Current returns the latest snapshot without computing, or nil.
func (c *Cache) Current() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Invalidate drops the cached snapshot so the next Get recomputes.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.key = ""
	c.snapshot = nil
	c.mu.Unlock()
}
