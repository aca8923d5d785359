package cache

import (
	"context"
	"log/slog"
	"time"

	"places/internal/domain/service"
	"places/internal/errors"

	"github.com/redis/go-redis/v9"
)

// compareAndDeleteScript deletes the key iff its value equals the
// candidate, in one atomic server-side step. Returns 1 on delete.
var compareAndDeleteScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// redisSecretCache implements service.SecretCache on Redis. SETNX gives
// the atomic add-if-absent, the Lua script the atomic verify-and-delete,
// and key TTLs are native, so expiry is passive.
type redisSecretCache struct {
	client *redis.Client
}

// NewSecretCache builds the SecretCache. With a nil Redis client it
// degrades to the in-process implementation, which keeps single-node
// deployments and tests working without a Redis instance.
func NewSecretCache(client *redis.Client, logger *slog.Logger) service.SecretCache {
	if client == nil {
		logger.Warn("Redis not configured, using in-process secret cache")

		return NewMemorySecretCache()
	}

	return &redisSecretCache{client: client}
}

func (c *redisSecretCache) Add(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	added, err := c.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to SETNX secret")
	}

	return added, nil
}

func (c *redisSecretCache) Get(ctx context.Context, key string) (string, error) {
	value, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", service.ErrCacheMiss
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to GET secret")
	}

	return value, nil
}

func (c *redisSecretCache) CompareAndDelete(ctx context.Context, key, candidate string) (bool, error) {
	deleted, err := compareAndDeleteScript.Run(ctx, c.client, []string{key}, candidate).Int()
	if err != nil {
		return false, errors.Wrap(err, "failed to run compare-and-delete script")
	}

	return deleted == 1, nil
}
