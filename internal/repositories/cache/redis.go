package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds configuration for the Redis cache store
type RedisConfig struct {
	// Redis client
	RedisClient *redis.Client

	// KeyPrefix namespaces every key written by the store
	KeyPrefix string
}

// redisStore implements the Store interface using Redis
type redisStore struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a new Redis-backed cache store
func NewRedis(cfg *RedisConfig) (*redisStore, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	// Test connection
	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisStore{
		client: cfg.RedisClient,
		prefix: cfg.KeyPrefix,
	}, nil
}

// Get retrieves a value
func (r *redisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores a value
func (r *redisStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// SetNX stores a value only when the key does not exist
func (r *redisStore) SetNX(ctx context.Context, key string, value string) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.prefix+key, value, 0).Result()
	if err != nil {
		return false, fmt.Errorf("failed to setnx %s: %w", key, err)
	}
	return ok, nil
}

// Incr atomically increments an integer value
func (r *redisStore) Incr(ctx context.Context, key string) (int64, error) {
	n, err := r.client.Incr(ctx, r.prefix+key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", key, err)
	}
	return n, nil
}
