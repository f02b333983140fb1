// Package memory provides in-memory adapters for the outbound ports. They
// back the demo mode and the application tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/alchemorsel/kitchenops/internal/ports/outbound"
)

// defaultTTL applies when Set is called with a zero TTL
const defaultTTL = 24 * time.Hour

// CacheItem represents a cached item
type CacheItem struct {
	Value     []byte
	ExpiresAt time.Time
}

// CacheRepository implements in-memory cache repository
type CacheRepository struct {
	data  map[string]CacheItem
	mutex sync.RWMutex
	now   func() time.Time
}

// NewCacheRepository creates a new in-memory cache repository
func NewCacheRepository() *CacheRepository {
	return &CacheRepository{
		data: make(map[string]CacheItem),
		now:  time.Now,
	}
}

var _ outbound.CacheRepository = (*CacheRepository)(nil)

// Get retrieves a value from cache
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	r.mutex.RLock()
	item, exists := r.data[key]
	r.mutex.RUnlock()

	if !exists {
		return nil, outbound.ErrCacheMiss
	}
	if r.now().After(item.ExpiresAt) {
		_ = r.Delete(ctx, key)
		return nil, outbound.ErrCacheMiss
	}
	return item.Value, nil
}

// Set stores a value in cache with TTL
func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	stored := make([]byte, len(value))
	copy(stored, value)

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.data[key] = CacheItem{Value: stored, ExpiresAt: r.now().Add(ttl)}
	return nil
}

// Delete removes a key from cache
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	delete(r.data, key)
	return nil
}

// Cleanup drops expired entries until ctx is done
func (r *CacheRepository) Cleanup(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := r.now()
			r.mutex.Lock()
			for key, item := range r.data {
				if now.After(item.ExpiresAt) {
					delete(r.data, key)
				}
			}
			r.mutex.Unlock()
		}
	}
}
