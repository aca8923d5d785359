package service

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by SecretCache.Get when no live entry exists
// for the key. Entries past their TTL are indistinguishable from entries
// that never existed.
var ErrCacheMiss = errors.New("cache miss")

// SecretCache is a key-value cache with native TTL expiry and the two
// atomic primitives the ephemeral secret store is built on. Expiry is
// passive: the cache drops entries on its own, nothing sweeps them.
type SecretCache interface {
	// Add stores value under key with the given TTL only if no live
	// entry exists. Returns true when the value was stored, false when
	// a live entry already held the key ("add if absent", never "set").
	Add(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Get returns the live value stored under key, or ErrCacheMiss.
	Get(ctx context.Context, key string) (string, error)

	// CompareAndDelete atomically deletes the entry iff its live value
	// equals candidate, returning whether the delete happened. A missing
	// entry and a mismatched value both return false.
	CompareAndDelete(ctx context.Context, key, candidate string) (bool, error)
}
