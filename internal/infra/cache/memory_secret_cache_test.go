package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"places/internal/domain/service"
)

func newTestCache(now *time.Time) *memorySecretCache {
	return &memorySecretCache{
		entries: make(map[string]memoryEntry),
		now:     func() time.Time { return *now },
	}
}

func TestMemorySecretCache_AddIsFirstWriterWins(t *testing.T) {
	t.Parallel()

	now := time.Now()
	cache := newTestCache(&now)
	ctx := context.Background()

	added, err := cache.Add(ctx, "k", "first", time.Minute)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = cache.Add(ctx, "k", "second", time.Minute)
	require.NoError(t, err)
	assert.False(t, added)

	value, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "first", value)
}

func TestMemorySecretCache_ExpiryTreatsEntryAsAbsent(t *testing.T) {
	t.Parallel()

	now := time.Now()
	cache := newTestCache(&now)
	ctx := context.Background()

	added, err := cache.Add(ctx, "k", "v", time.Minute)
	require.NoError(t, err)
	require.True(t, added)

	now = now.Add(2 * time.Minute)

	_, err = cache.Get(ctx, "k")
	assert.ErrorIs(t, err, service.ErrCacheMiss)

	added, err = cache.Add(ctx, "k", "fresh", time.Minute)
	require.NoError(t, err)
	assert.True(t, added)
}

func TestMemorySecretCache_CompareAndDelete(t *testing.T) {
	t.Parallel()

	now := time.Now()
	cache := newTestCache(&now)
	ctx := context.Background()

	_, err := cache.Add(ctx, "k", "v", time.Minute)
	require.NoError(t, err)

	deleted, err := cache.CompareAndDelete(ctx, "k", "wrong")
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = cache.CompareAndDelete(ctx, "k", "v")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = cache.CompareAndDelete(ctx, "k", "v")
	require.NoError(t, err)
	assert.False(t, deleted, "a consumed entry cannot be consumed twice")
}
