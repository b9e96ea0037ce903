package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardgate/internal/tenant/models"
)

// countingDirectory records how many lookups reach the inner directory.
type countingDirectory struct {
	inner *InMemory
	mu    sync.Mutex
	calls int
}

func (d *countingDirectory) FindByCUIT(ctx context.Context, cuit string) (*models.TenantConfig, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	return d.inner.FindByCUIT(ctx, cuit)
}

func (d *countingDirectory) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func cachedFixture(ttl time.Duration, clock func() time.Time) (*Cached, *countingDirectory) {
	inner := NewInMemory()
	inner.Put(&models.TenantConfig{CUIT: "20-1", AccessToken: "T1", DBName: "db1", Active: true})
	counting := &countingDirectory{inner: inner}
	return NewCached(counting, ttl, WithCacheClock(clock)), counting
}

func TestCached_ServesFromCacheWithinTTL(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	cache, counting := cachedFixture(time.Minute, func() time.Time { return now })

	for i := 0; i < 3; i++ {
		cfg, err := cache.FindByCUIT(context.Background(), "20-1")
		require.NoError(t, err)
		assert.Equal(t, "db1", cfg.DBName)
	}
	assert.Equal(t, 1, counting.count())
}

func TestCached_ExpiresAfterTTL(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	cache, counting := cachedFixture(time.Minute, func() time.Time { return now })

	_, err := cache.FindByCUIT(context.Background(), "20-1")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = cache.FindByCUIT(context.Background(), "20-1")
	require.NoError(t, err)
	assert.Equal(t, 2, counting.count())
}

func TestCached_InvalidateForcesLookup(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	cache, counting := cachedFixture(time.Hour, func() time.Time { return now })

	_, err := cache.FindByCUIT(context.Background(), "20-1")
	require.NoError(t, err)

	// token rotation in the external store: the cached copy must not survive
	counting.inner.Put(&models.TenantConfig{CUIT: "20-1", AccessToken: "T2", DBName: "db1", Active: true})
	cache.Invalidate("20-1")

	cfg, err := cache.FindByCUIT(context.Background(), "20-1")
	require.NoError(t, err)
	assert.Equal(t, "T2", cfg.AccessToken)
	assert.Equal(t, 2, counting.count())
}

func TestCached_NegativeResultsNotCached(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	inner := NewInMemory()
	counting := &countingDirectory{inner: inner}
	cache := NewCached(counting, time.Hour, WithCacheClock(func() time.Time { return now }))

	_, err := cache.FindByCUIT(context.Background(), "20-1")
	require.Error(t, err)

	// tenant activated after the miss: visible immediately
	inner.Put(&models.TenantConfig{CUIT: "20-1", AccessToken: "T1", DBName: "db1", Active: true})
	cfg, err := cache.FindByCUIT(context.Background(), "20-1")
	require.NoError(t, err)
	assert.Equal(t, "T1", cfg.AccessToken)
}
