package kv

import (
	"context"

	"github.com/patrickmn/go-cache"
)

// Memory is an in-process Store. Values never expire.
type Memory struct {
	cache *cache.Cache
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{cache: cache.New(cache.NoExpiration, 0)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	if x, found := m.cache.Get(key); found {
		return clone(x.([]byte)), nil
	}
	return nil, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.cache.Set(key, clone(value), cache.NoExpiration)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.cache.Delete(key)
	return nil
}

// Keys returns the number of stored keys.
func (m *Memory) Keys() int {
	return m.cache.ItemCount()
}

func (m *Memory) Close() error {
	m.cache.Flush()
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
