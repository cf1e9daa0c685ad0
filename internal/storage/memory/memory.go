// Package memory is an in-process KV used for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"expensebook/internal/storage"
)

type Store struct {
	mu    sync.Mutex
	items map[string]string
}

func New() *Store {
	return &Store{items: make(map[string]string)}
}

// NewWith returns a store seeded with a copy of items.
func NewWith(items map[string]string) *Store {
	s := New()
	for k, v := range items {
		s.items[k] = v
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// SetMany stores all values under one lock.
func (s *Store) SetMany(_ context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.items[k] = v
	}
	return nil
}

// Keys returns the stored keys, sorted.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
