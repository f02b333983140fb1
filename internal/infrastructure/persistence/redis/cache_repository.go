// Package redis provides the Redis-backed analysis cache
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/alchemorsel/kitchenops/internal/infrastructure/config"
	"github.com/alchemorsel/kitchenops/internal/ports/outbound"
)

// CacheRepository implements outbound.CacheRepository on Redis. Keys are
// namespaced with the configured prefix.
type CacheRepository struct {
	client redis.UniversalClient
	prefix string
	codec  *Codec
	logger *zap.Logger
}

var _ outbound.CacheRepository = (*CacheRepository)(nil)

// NewClient creates a Redis client from configuration
func NewClient(cfg *config.Config) redis.UniversalClient {
	r := cfg.Redis
	return redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        []string{cfg.RedisAddr()},
		Password:     r.Password,
		DB:           r.Database,
		MaxRetries:   r.MaxRetries,
		PoolSize:     r.PoolSize,
		MinIdleConns: r.MinIdleConns,
		DialTimeout:  r.DialTimeout,
		ReadTimeout:  r.ReadTimeout,
		WriteTimeout: r.WriteTimeout,
		PoolTimeout:  10 * time.Second,
	})
}

// NewCacheRepository creates a new cache repository
func NewCacheRepository(client redis.UniversalClient, cfg config.RedisConfig, logger *zap.Logger) *CacheRepository {
	return &CacheRepository{
		client: client,
		prefix: cfg.KeyPrefix,
		codec:  NewCodec(cfg.Compression, DefaultCompressionThreshold),
		logger: logger.Named("redis-cache"),
	}
}

// Get returns outbound.ErrCacheMiss when the key is absent or expired
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, outbound.ErrCacheMiss
		}
		r.logger.Debug("Cache get failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	data, err := r.codec.Decode(raw)
	if err != nil {
		r.logger.Error("Failed to decode cache data", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return data, nil
}

// Set stores a value in cache with TTL
func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, err := r.codec.Encode(value)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}
	if err := r.client.Set(ctx, r.prefix+key, encoded, ttl).Err(); err != nil {
		r.logger.Error("Cache set failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// Delete removes a value from cache
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		r.logger.Error("Cache delete failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// Ping checks the connection for health probes
func (r *CacheRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying client
func (r *CacheRepository) Close() error {
	return r.client.Close()
}
