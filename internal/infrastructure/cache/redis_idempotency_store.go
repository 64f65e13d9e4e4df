package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/churchops/backend/internal/domain/shared"
)

// RedisIdempotencyStore implements IdempotencyStore using Redis. Suitable
// for deployments where several instances must share idempotency state.
type RedisIdempotencyStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisIdempotencyStore creates a new Redis-based idempotency store
func NewRedisIdempotencyStore(cfg RedisConfig) (*RedisIdempotencyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: "treasury:op:",
	}, nil
}

// NewRedisIdempotencyStoreWithClient creates a store with an existing Redis
// client, useful for testing or sharing a client across components.
func NewRedisIdempotencyStoreWithClient(client *redis.Client, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = "treasury:op:"
	}
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// MarkProcessed records an operation key with a TTL using SETNX, so the
// check-and-set is a single atomic operation. Returns true if the key was
// newly recorded.
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, operationKey string, ttl time.Duration) (bool, error) {
	key := s.keyPrefix + operationKey

	result, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record operation key: %w", err)
	}

	return result, nil
}

// IsProcessed checks whether an operation key has already been recorded.
func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, operationKey string) (bool, error) {
	key := s.keyPrefix + operationKey

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check operation key: %w", err)
	}

	return exists > 0, nil
}

// Release deletes an operation key so a retry of a failed operation is
// accepted again.
func (s *RedisIdempotencyStore) Release(ctx context.Context, operationKey string) error {
	key := s.keyPrefix + operationKey

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to release operation key: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (s *RedisIdempotencyStore) GetClient() *redis.Client {
	return s.client
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
