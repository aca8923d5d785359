// Package cache provides the key-value cache backing the ephemeral
// secret store, with a Redis implementation and an in-process fallback.
package cache

import (
	"context"
	"log/slog"

	"places/config"
	"places/internal/domain/lifecycle"
	"places/internal/errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// NewClient creates the Redis client. When no Redis section is
// configured the client is nil and callers fall back to the in-process
// cache.
func NewClient(params Params) (*redis.Client, error) {
	if params.Config.Redis == nil {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     params.Config.Redis.Addr,
		Password: params.Config.Redis.Password,
		DB:       params.Config.Redis.DB,
	})

	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := client.Ping(ctx).Err(); err != nil {
				return errors.Wrap(err, "failed to ping Redis")
			}

			return nil
		},
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})

	return client, nil
}
