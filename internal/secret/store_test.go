package secret

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"places/internal/domain/service"
)

// fakeCache is an in-memory SecretCache with a controllable clock.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]fakeEntry
	now     time.Time
}

type fakeEntry struct {
	value     string
	expiresAt time.Time
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		entries: make(map[string]fakeEntry),
		now:     time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
	}
}

func (c *fakeCache) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeCache) live(key string) (fakeEntry, bool) {
	entry, ok := c.entries[key]
	if !ok || c.now.After(entry.expiresAt) {
		delete(c.entries, key)

		return fakeEntry{}, false
	}

	return entry, true
}

func (c *fakeCache) Add(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.live(key); ok {
		return false, nil
	}
	c.entries[key] = fakeEntry{value: value, expiresAt: c.now.Add(ttl)}

	return true, nil
}

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.live(key)
	if !ok {
		return "", service.ErrCacheMiss
	}

	return entry.value, nil
}

func (c *fakeCache) CompareAndDelete(_ context.Context, key, candidate string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.live(key)
	if !ok || entry.value != candidate {
		return false, nil
	}
	delete(c.entries, key)

	return true, nil
}

func TestNewStore_RejectsBadConfig(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	gen := FromAlphabet(digits, ResetCodeLength)

	_, err := NewStore(nil, Config{Namespace: "code", TTL: time.Minute, Generate: gen})
	assert.Error(t, err)

	_, err = NewStore(cache, Config{Namespace: " ", TTL: time.Minute, Generate: gen})
	assert.Error(t, err)

	_, err = NewStore(cache, Config{Namespace: "code", TTL: 0, Generate: gen})
	assert.Error(t, err)

	_, err = NewStore(cache, Config{Namespace: "code", TTL: time.Minute, Generate: nil})
	assert.Error(t, err)
}

func TestGetOrCreate_IsIdempotentWithinTTL(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	store, err := NewResetCodeStore(cache, 2*time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := store.GetOrCreate(ctx, "user@example.com")
	require.NoError(t, err)
	require.Len(t, first, ResetCodeLength)

	second, err := store.GetOrCreate(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGetOrCreate_MintsFreshSecretAfterExpiry(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	store, err := NewSessionTokenStore(cache, 10*time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := store.GetOrCreate(ctx, "user@example.com")
	require.NoError(t, err)

	cache.advance(11 * time.Minute)

	second, err := store.GetOrCreate(ctx, "user@example.com")
	require.NoError(t, err)
	require.Len(t, second, SessionTokenLength)
	// 62^32 values make an accidental repeat effectively impossible.
	assert.NotEqual(t, first, second)
}

func TestTryConsume_SucceedsExactlyOnce(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	store, err := NewResetCodeStore(cache, 2*time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	code, err := store.GetOrCreate(ctx, "user@example.com")
	require.NoError(t, err)

	consumed, err := store.TryConsume(ctx, "user@example.com", code)
	require.NoError(t, err)
	assert.True(t, consumed)

	consumed, err = store.TryConsume(ctx, "user@example.com", code)
	require.NoError(t, err)
	assert.False(t, consumed)
}

func TestTryConsume_RejectsWrongExpiredAndEmpty(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	store, err := NewResetCodeStore(cache, 2*time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	code, err := store.GetOrCreate(ctx, "user@example.com")
	require.NoError(t, err)

	consumed, err := store.TryConsume(ctx, "user@example.com", "nope")
	require.NoError(t, err)
	assert.False(t, consumed)

	consumed, err = store.TryConsume(ctx, "user@example.com", "")
	require.NoError(t, err)
	assert.False(t, consumed)

	cache.advance(3 * time.Minute)

	consumed, err = store.TryConsume(ctx, "user@example.com", code)
	require.NoError(t, err)
	assert.False(t, consumed)
}

func TestTryConsume_KeysAreScopedPerEmail(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	store, err := NewSessionTokenStore(cache, 10*time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	token, err := store.GetOrCreate(ctx, "alice@example.com")
	require.NoError(t, err)

	consumed, err := store.TryConsume(ctx, "bob@example.com", token)
	require.NoError(t, err)
	assert.False(t, consumed, "a secret issued for one address must not verify for another")

	consumed, err = store.TryConsume(ctx, "alice@example.com", token)
	require.NoError(t, err)
	assert.True(t, consumed)
}

func TestStores_ShareCacheWithoutCollisions(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	codes, err := NewResetCodeStore(cache, 2*time.Minute)
	require.NoError(t, err)
	tokens, err := NewSessionTokenStore(cache, 10*time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	code, err := codes.GetOrCreate(ctx, "user@example.com")
	require.NoError(t, err)

	token, err := tokens.GetOrCreate(ctx, "user@example.com")
	require.NoError(t, err)

	consumed, err := tokens.TryConsume(ctx, "user@example.com", code)
	require.NoError(t, err)
	assert.False(t, consumed)

	consumed, err = codes.TryConsume(ctx, "user@example.com", code)
	require.NoError(t, err)
	assert.True(t, consumed)

	consumed, err = tokens.TryConsume(ctx, "user@example.com", token)
	require.NoError(t, err)
	assert.True(t, consumed)
}

func TestGetOrCreate_ConcurrentIssuersConverge(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	store, err := NewResetCodeStore(cache, 2*time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	const issuers = 16
	results := make([]string, issuers)
	var wg sync.WaitGroup
	for i := range issuers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, err := store.GetOrCreate(ctx, "user@example.com")
			assert.NoError(t, err)
			results[i] = value
		}()
	}
	wg.Wait()

	for _, value := range results {
		assert.Equal(t, results[0], value)
	}
}

func TestFromAlphabet_DrawsOnlyFromAlphabet(t *testing.T) {
	t.Parallel()

	gen := FromAlphabet(digits, ResetCodeLength)
	for range 50 {
		value, err := gen()
		require.NoError(t, err)
		require.Len(t, value, ResetCodeLength)
		for _, r := range value {
			assert.True(t, strings.ContainsRune(digits, r))
		}
	}
}
