package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ridecore:rl"

// Store counts hits per key inside a fixed window.
type Store interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

type RedisStore struct {
	client *redis.Client
}

// NewRedisStore parses a redis:// URL and pings the server.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// IncrWithTTL increments key and sets its expiry on the first hit, so the
// window starts at the first request.
func (s *RedisStore) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	if ttl > 0 && count == 1 {
		if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
			return count, fmt.Errorf("redis expire %s: %w", key, err)
		}
	}
	return count, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Key builds a namespaced counter key.
func Key(policy, scope, value string) string {
	return fmt.Sprintf("%s:%s:%s:%s", keyPrefix, policy, scope, value)
}

// Allow applies a fixed-window limit and reports the current count.
func Allow(ctx context.Context, store Store, key string, window time.Duration, limit int) (bool, int64, error) {
	count, err := store.IncrWithTTL(ctx, key, window)
	if err != nil {
		return false, 0, err
	}
	return count <= int64(limit), count, nil
}
