// Package memory provides a process-local key-value store.
// It backs the session store and the "memory" storage driver.
package memory

import (
	"context"
	"sync"

	"github.com/jsamuelsen/quotesync/internal/domain"
)

// Store is a concurrency-safe map of byte slices.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New creates an empty store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Save stores a copy of value under key.
func (s *Store) Save(_ context.Context, key string, value []byte) error {
	buf := make([]byte, len(value))
	copy(buf, value)

	s.mu.Lock()
	s.data[key] = buf
	s.mu.Unlock()

	return nil
}

// Load returns a copy of the value under key.
func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	v, ok := s.data[key]
	s.mu.RUnlock()

	if !ok {
		return nil, domain.NewNotFoundError("key", key)
	}

	buf := make([]byte, len(v))
	copy(buf, v)

	return buf, nil
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string { return "storage" }

// Check implements ports.HealthChecker. A map is always available.
func (s *Store) Check(context.Context) error { return nil }
