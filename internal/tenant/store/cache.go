package store

import (
	"context"
	"sync"
	"time"

	"cardgate/internal/tenant/models"
)

// Cached wraps a Directory with a TTL cache keyed by CUIT. Tenant activation
// and token rotation happen in an external store, so entries expire on their
// own and Invalidate exists for callers that learn about a change earlier.
// Negative results are never cached: a tenant must become visible as soon as
// it is activated.
type Cached struct {
	inner Directory
	ttl   time.Duration
	now   func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry

	onHit  func()
	onMiss func()
}

type cacheEntry struct {
	cfg       models.TenantConfig
	expiresAt time.Time
}

// CacheOption configures a Cached directory.
type CacheOption func(*Cached)

// WithCacheClock injects a time source for tests.
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *Cached) {
		if now != nil {
			c.now = now
		}
	}
}

// WithCacheObserver registers hit/miss callbacks, typically metrics counters.
func WithCacheObserver(onHit, onMiss func()) CacheOption {
	return func(c *Cached) {
		c.onHit = onHit
		c.onMiss = onMiss
	}
}

// NewCached wraps inner with a TTL cache.
func NewCached(inner Directory, ttl time.Duration, opts ...CacheOption) *Cached {
	c := &Cached{
		inner:   inner,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FindByCUIT serves from cache when fresh, otherwise falls through to the
// inner directory and caches a successful result.
func (c *Cached) FindByCUIT(ctx context.Context, cuit string) (*models.TenantConfig, error) {
	now := c.now()

	c.mu.RLock()
	entry, ok := c.entries[cuit]
	c.mu.RUnlock()
	if ok && now.Before(entry.expiresAt) {
		if c.onHit != nil {
			c.onHit()
		}
		cfg := entry.cfg
		return &cfg, nil
	}

	if c.onMiss != nil {
		c.onMiss()
	}
	cfg, err := c.inner.FindByCUIT(ctx, cuit)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[cuit] = cacheEntry{cfg: *cfg, expiresAt: now.Add(c.ttl)}
	c.mu.Unlock()
	return cfg, nil
}

// Invalidate drops the cached entry for a CUIT.
func (c *Cached) Invalidate(cuit string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cuit)
}
