package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. Expired entries are dropped on Load.
type MemoryStore[V any] struct {
	mu    sync.RWMutex
	items map[string]memEntry[V]
	now   func() time.Time
}

type memEntry[V any] struct {
	val       *V
	expiresAt time.Time // zero means no expiration
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore[V any]() *MemoryStore[V] {
	return &MemoryStore[V]{
		items: make(map[string]memEntry[V]),
		now:   time.Now,
	}
}

// Load returns the value under key, or (nil, nil) if it is missing or expired.
func (s *MemoryStore[V]) Load(_ context.Context, key string) (*V, error) {
	s.mu.RLock()
	entry, ok := s.items[key]
	s.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.items, key)
		s.mu.Unlock()
		return nil, nil
	}
	return entry.val, nil
}

// Save stores val under key.
func (s *MemoryStore[V]) Save(_ context.Context, key string, val *V, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memEntry[V]{val: val}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.items[key] = entry
	return nil
}

// Delete removes key.
func (s *MemoryStore[V]) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// Len returns the number of entries, including expired ones not yet loaded.
func (s *MemoryStore[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

var _ Store[any] = (*MemoryStore[any])(nil)
