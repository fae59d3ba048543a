package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSource reads native asset prices from Redis.
type RedisSource struct {
	client *redis.Client
}

// Compile-time interface check.
var _ Source = (*RedisSource)(nil)

// NewRedisSource connects to Redis and verifies the connection.
func NewRedisSource(ctx context.Context, addr, password string, db int) (*RedisSource, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		ReadTimeout: 5 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisSource{client: client}, nil
}

// NativePrice returns the price stored under key.
func (s *RedisSource) NativePrice(ctx context.Context, key string) (float64, error) {
	raw, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, fmt.Errorf("%w: key %q not found", ErrPriceUnavailable, key)
		}
		return 0, fmt.Errorf("%w: fetch key %q: %s", ErrPriceUnavailable, key, err)
	}
	return parsePrice(key, raw)
}

// Close releases the underlying Redis connection.
func (s *RedisSource) Close() error {
	return s.client.Close()
}
