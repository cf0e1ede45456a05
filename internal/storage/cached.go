package storage

import (
	"context"
	"time"

	"myfinances/internal/cache"
)

type cachedValue struct {
	value string
	ok    bool
}

// CachedStore is a read-through cache in front of another Store. Absence is
// cached too. Writes and removals reach the inner store before the key is
// invalidated, so the cache never holds a value newer than storage.
type CachedStore struct {
	inner Store
	cache *cache.LRUCache[cachedValue]
}

var (
	_ Store         = (*CachedStore)(nil)
	_ cache.Cleaner = (*CachedStore)(nil)
)

func NewCachedStore(inner Store, size int, ttl time.Duration) *CachedStore {
	return &CachedStore{
		inner: inner,
		cache: cache.NewLRUCache[cachedValue](size, ttl),
	}
}

func (s *CachedStore) Get(ctx context.Context, key string) (string, bool, error) {
	if v, hit := s.cache.Get(key); hit {
		return v.value, v.ok, nil
	}
	value, ok, err := s.inner.Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	s.cache.Set(key, cachedValue{value: value, ok: ok})
	return value, ok, nil
}

func (s *CachedStore) Set(ctx context.Context, key, value string) error {
	defer s.cache.Delete(key)
	return s.inner.Set(ctx, key, value)
}

func (s *CachedStore) Remove(ctx context.Context, key string) error {
	defer s.cache.Delete(key)
	return s.inner.Remove(ctx, key)
}

// CleanExpired lets a cache.Manager sweep this store's entries.
func (s *CachedStore) CleanExpired() int {
	return s.cache.CleanExpired()
}

func (s *CachedStore) Stats() cache.Stats {
	return s.cache.Stats()
}
