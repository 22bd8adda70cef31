package store

import (
	"context"
	"sync"
)

// InMemoryStore holds archived documents in process memory. Used in tests
// and single-instance demo mode.
type InMemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewInMemoryStore creates an empty in-memory archive store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{objects: make(map[string][]byte)}
}

// Put stores the payload under key. Existing keys are left untouched so
// repeated archival of the same filing is a no-op.
func (s *InMemoryStore) Put(_ context.Context, key string, payload []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.objects[key]; exists {
		return nil
	}
	buf := make([]byte, len(payload))
	copy(buf, payload)
	s.objects[key] = buf
	return nil
}

// Get returns the stored payload for key.
func (s *InMemoryStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, ok := s.objects[key]
	return payload, ok
}

// Len returns the number of archived documents.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
