// Package store provides the operator persistence implementations.
package store

import (
	"context"
	"sync"

	"wellfile/internal/operator/models"
	id "wellfile/pkg/domain"
	"wellfile/pkg/platform/sentinel"
)

// InMemoryStore keeps operators in maps guarded by a mutex. Contact
// uniqueness is enforced under the lock, mirroring the unique index of the
// Postgres store.
type InMemoryStore struct {
	mu        sync.RWMutex
	byID      map[id.OperatorID]*models.Operator
	byContact map[string]id.OperatorID
}

// NewInMemoryStore creates an empty in-memory operator store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:      make(map[id.OperatorID]*models.Operator),
		byContact: make(map[string]id.OperatorID),
	}
}

// Create inserts the operator. Returns sentinel.ErrConflict when the
// contact address is already registered.
func (s *InMemoryStore) Create(_ context.Context, op *models.Operator) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byContact[op.Contact]; taken {
		return sentinel.ErrConflict
	}
	if _, exists := s.byID[op.ID]; exists {
		return sentinel.ErrConflict
	}
	s.byID[op.ID] = copyOperator(op)
	s.byContact[op.Contact] = op.ID
	return nil
}

// FindByID returns the operator or sentinel.ErrNotFound.
func (s *InMemoryStore) FindByID(_ context.Context, operatorID id.OperatorID) (*models.Operator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	op, ok := s.byID[operatorID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyOperator(op), nil
}

// Execute atomically validates and mutates one operator, holding the store
// lock across both callbacks so concurrent transitions cannot interleave.
func (s *InMemoryStore) Execute(_ context.Context, operatorID id.OperatorID,
	validate func(*models.Operator) error, apply func(*models.Operator)) (*models.Operator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, ok := s.byID[operatorID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(op); err != nil {
		return nil, err
	}
	apply(op)
	return copyOperator(op), nil
}

// Count reports how many operators exist. Test helper.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func copyOperator(op *models.Operator) *models.Operator {
	cp := *op
	return &cp
}
