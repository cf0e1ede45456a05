package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

type countingStore struct {
	items map[string]string
	gets  int
	fail  error
}

func (c *countingStore) Get(_ context.Context, key string) (string, bool, error) {
	c.gets++
	if c.fail != nil {
		return "", false, c.fail
	}
	v, ok := c.items[key]
	return v, ok, nil
}

func (c *countingStore) Set(_ context.Context, key, value string) error {
	if c.fail != nil {
		return c.fail
	}
	c.items[key] = value
	return nil
}

func (c *countingStore) Remove(_ context.Context, key string) error {
	if c.fail != nil {
		return c.fail
	}
	delete(c.items, key)
	return nil
}

func TestCachedStoreReadThroughAndInvalidate(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{items: map[string]string{"k": "v1"}}
	s := NewCachedStore(inner, 8, time.Minute)

	for i := 0; i < 3; i++ {
		if v, ok, err := s.Get(ctx, "k"); err != nil || !ok || v != "v1" {
			t.Fatalf("get %d: v=%q ok=%v err=%v", i, v, ok, err)
		}
	}
	if inner.gets != 1 {
		t.Fatalf("expected 1 inner get, got %d", inner.gets)
	}

	if err := s.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, _, _ := s.Get(ctx, "k"); v != "v2" {
		t.Fatalf("expected fresh value after set, got %q", v)
	}

	if err := s.Remove(ctx, "k"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatalf("expected absence after remove")
	}
	// absence is cached as well
	before := inner.gets
	s.Get(ctx, "k")
	if inner.gets != before {
		t.Fatalf("absent key should be served from cache")
	}
}

func TestCachedStoreDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk on fire")
	inner := &countingStore{items: map[string]string{"k": "v"}, fail: boom}
	s := NewCachedStore(inner, 8, time.Minute)

	if _, _, err := s.Get(ctx, "k"); !errors.Is(err, boom) {
		t.Fatalf("expected inner error, got %v", err)
	}
	inner.fail = nil
	if v, ok, err := s.Get(ctx, "k"); err != nil || !ok || v != "v" {
		t.Fatalf("expected recovery: v=%q ok=%v err=%v", v, ok, err)
	}
	if s.Stats().Size != 1 {
		t.Fatalf("expected one cached entry")
	}
}
