// Package store provides the well identity persistence implementations. The
// in-memory store backs unit tests and memory-mode deployments; the Postgres
// store is the production implementation.
package store

import (
	"context"
	"sync"

	"wellfile/internal/well/models"
	"wellfile/pkg/platform/sentinel"
)

// InMemoryStore keeps well identities in a map guarded by a mutex. The
// find-or-create is atomic under the lock, mirroring the single-statement
// upsert guarantee of the Postgres store.
type InMemoryStore struct {
	mu    sync.RWMutex
	wells map[string]*models.WellIdentity
}

// NewInMemoryStore creates an empty in-memory well store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{wells: make(map[string]*models.WellIdentity)}
}

// FindOrCreate returns the existing identity for candidate.NaturalKey or
// inserts candidate. The bool reports whether a row was created.
func (s *InMemoryStore) FindOrCreate(_ context.Context, candidate *models.WellIdentity) (*models.WellIdentity, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.wells[candidate.NaturalKey]; ok {
		return copyWell(existing), false, nil
	}
	s.wells[candidate.NaturalKey] = copyWell(candidate)
	return copyWell(candidate), true, nil
}

// FindByKey returns the identity for naturalKey or sentinel.ErrNotFound.
func (s *InMemoryStore) FindByKey(_ context.Context, naturalKey string) (*models.WellIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	existing, ok := s.wells[naturalKey]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyWell(existing), nil
}

// Count reports how many identities exist. Test helper.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.wells)
}

func copyWell(w *models.WellIdentity) *models.WellIdentity {
	cp := *w
	return &cp
}
