package cache

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ErrUnavailable is returned by write paths when no Redis client is
// configured or the connection is down. Read paths degrade instead.
var ErrUnavailable = errors.New("redis client not available")

// Redis wraps the go-redis client
type Redis struct {
	Client *redis.Client
}

// New creates a Redis connection from a redis:// URL
func New(url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	log.Info().Msg("Redis connection established")

	return &Redis{Client: client}, nil
}

// Close closes the Redis connection
func (r *Redis) Close() {
	if r.Client != nil {
		if err := r.Client.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis connection")
		}
	}
}

// Health checks if Redis is reachable
func (r *Redis) Health(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return ErrUnavailable
	}
	return r.Client.Ping(ctx).Err()
}
