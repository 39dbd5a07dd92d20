package storage

import (
	"context"
	"time"

	"wallet_adapter/internal/app/port"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps values for the lifetime of the process.
type MemoryStore struct {
	cache *cache.Cache
}

var _ port.KeyValueStore = (*MemoryStore)(nil)

// NewMemoryStore creates a store whose values never expire. cleanupInterval only
// matters for values written with SetWithTTL.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}
	return &MemoryStore{cache: cache.New(cache.NoExpiration, cleanupInterval)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return "", false, nil
	}
	str, ok := v.(string)
	return str, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.cache.Set(key, value, cache.NoExpiration)
	return nil
}

// SetWithTTL stores a value that disappears after ttl.
func (s *MemoryStore) SetWithTTL(key, value string, ttl time.Duration) {
	s.cache.Set(key, value, ttl)
}

func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}
