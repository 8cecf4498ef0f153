// Package cache provides the small shared-state cache used to coordinate
// host blocking between worker processes.
package cache

import (
	"errors"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// ErrMiss is returned when a key is not present
var ErrMiss = errors.New("cache miss")

// CacheService represents a generic cache service
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}

// MemcacheService implements CacheService using memcache
type MemcacheService struct {
	client *memcache.Client
}

// NewMemcacheService creates a new memcache service
func NewMemcacheService(serverAddr string) *MemcacheService {
	return &MemcacheService{
		client: memcache.New(serverAddr),
	}
}

// Get retrieves a value from memcache
func (m *MemcacheService) Get(key string) ([]byte, error) {
	item, err := m.client.Get(key)
	if err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			return nil, ErrMiss
		}
		return nil, err
	}
	return item.Value, nil
}

// Set stores a value in memcache with an expiration time
func (m *MemcacheService) Set(key string, value []byte, expiration time.Duration) error {
	return m.client.Set(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: int32(expiration.Seconds()),
	})
}

// Delete removes a value from memcache
func (m *MemcacheService) Delete(key string) error {
	return m.client.Delete(key)
}

// NullCache is used when no memcache server is configured; every lookup
// misses and writes are discarded, so host blocking degrades to per-process.
type NullCache struct{}

// Get always misses
func (NullCache) Get(key string) ([]byte, error) { return nil, ErrMiss }

// Set discards the value
func (NullCache) Set(key string, value []byte, expiration time.Duration) error { return nil }

// Delete is a no-op
func (NullCache) Delete(key string) error { return nil }
