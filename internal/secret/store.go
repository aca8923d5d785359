// Package secret implements the ephemeral single-use secret store used
// by the password recovery flow. One generic store is configured twice:
// once for 4-digit reset codes and once for 32-character session tokens.
package secret

import (
	"context"
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"places/internal/domain/service"
	"places/internal/errors"
)

const (
	digits       = "0123456789"
	alphanumeric = "0123456789" +
		"abcdefghijklmnopqrstuvwxyz" +
		"ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// ResetCodeLength is the length of reset codes sent over mail.
	ResetCodeLength = 4
	// SessionTokenLength is the length of password-change session tokens.
	SessionTokenLength = 32

	// raceRetries bounds the get-after-lost-add loop in GetOrCreate.
	// With minute-scale TTLs the loop body runs at most once in practice.
	raceRetries = 3
)

// Config parameterizes a Store. A misconfigured store is a programming
// error: NewStore fails instead of producing a store that misbehaves.
type Config struct {
	// Namespace qualifies cache keys so distinct secret purposes for the
	// same email never collide.
	Namespace string

	// TTL is the lifetime of a secret from its creation.
	TTL time.Duration

	// Generate produces a fresh secret value.
	Generate func() (string, error)
}

// Store provides get-or-create and single-use-consume semantics over a
// TTL key-value cache. Concurrent callers for the same key converge on
// one secret for its whole lifetime, and a secret is consumable exactly
// once.
type Store struct {
	cache service.SecretCache
	cfg   Config
}

// NewStore builds a Store over the given cache.
func NewStore(cache service.SecretCache, cfg Config) (*Store, error) {
	if cache == nil {
		return nil, errors.New("secret: cache must not be nil")
	}
	if strings.TrimSpace(cfg.Namespace) == "" {
		return nil, errors.New("secret: namespace must not be empty")
	}
	if cfg.TTL <= 0 {
		return nil, errors.Errorf("secret: ttl must be positive, got %s", cfg.TTL)
	}
	if cfg.Generate == nil {
		return nil, errors.New("secret: generator must not be nil")
	}

	return &Store{cache: cache, cfg: cfg}, nil
}

// NewResetCodeStore builds the store issuing 4-digit numeric reset codes.
func NewResetCodeStore(cache service.SecretCache, ttl time.Duration) (*Store, error) {
	return NewStore(cache, Config{
		Namespace: "code",
		TTL:       ttl,
		Generate:  FromAlphabet(digits, ResetCodeLength),
	})
}

// NewSessionTokenStore builds the store issuing 32-character alphanumeric
// session tokens.
func NewSessionTokenStore(cache service.SecretCache, ttl time.Duration) (*Store, error) {
	return NewStore(cache, Config{
		Namespace: "token",
		TTL:       ttl,
		Generate:  FromAlphabet(alphanumeric, SessionTokenLength),
	})
}

// key builds the purpose-qualified cache key. The email is part of the
// key, so a secret issued for one address never verifies for another,
// even when the stored values happen to be textually equal.
func (s *Store) key(email string) string {
	return email + "__" + s.cfg.Namespace
}

// GetOrCreate returns the live secret for email, minting one if none
// exists. A second issuance within the TTL window returns the same
// still-live secret; concurrent issuers converge on a single value via
// the cache's add-if-absent primitive.
func (s *Store) GetOrCreate(ctx context.Context, email string) (string, error) {
	key := s.key(email)

	for attempt := 0; attempt <= raceRetries; attempt++ {
		value, err := s.cache.Get(ctx, key)
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, service.ErrCacheMiss) {
			return "", errors.Wrap(err, "failed to read secret cache")
		}

		generated, err := s.cfg.Generate()
		if err != nil {
			return "", errors.Wrap(err, "failed to generate secret")
		}

		added, err := s.cache.Add(ctx, key, generated, s.cfg.TTL)
		if err != nil {
			return "", errors.Wrap(err, "failed to store secret")
		}
		if added {
			return generated, nil
		}
		// Lost the issuance race: another caller stored first. Loop and
		// read the winner's value.
	}

	return "", errors.Errorf("secret: could not converge on a live secret for namespace %s", s.cfg.Namespace)
}

// TryConsume verifies candidate against the live secret for email and
// deletes it on match. A missing entry, an expired entry and a wrong
// value all return false, with no distinction for the caller. The
// verify-and-delete is atomic, so two concurrent consumers cannot both
// succeed with the same secret.
func (s *Store) TryConsume(ctx context.Context, email, candidate string) (bool, error) {
	if candidate == "" {
		return false, nil
	}

	consumed, err := s.cache.CompareAndDelete(ctx, s.key(email), candidate)
	if err != nil {
		return false, errors.Wrap(err, "failed to consume secret")
	}

	return consumed, nil
}

// TTL returns the configured secret lifetime.
func (s *Store) TTL() time.Duration {
	return s.cfg.TTL
}

// FromAlphabet returns a generator drawing length characters uniformly
// at random (with repetition) from alphabet, using crypto/rand.
func FromAlphabet(alphabet string, length int) func() (string, error) {
	return func() (string, error) {
		max := big.NewInt(int64(len(alphabet)))
		var b strings.Builder
		b.Grow(length)

		for range length {
			idx, err := rand.Int(rand.Reader, max)
			if err != nil {
				return "", errors.Wrap(err, "failed to draw random index")
			}
			b.WriteByte(alphabet[idx.Int64()])
		}

		return b.String(), nil
	}
}
