// Package store provides the filing persistence implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"wellfile/internal/filing/models"
	id "wellfile/pkg/domain"
	"wellfile/pkg/platform/sentinel"
)

// InMemoryStore keeps filings indexed by well and by ID.
type InMemoryStore struct {
	mu     sync.RWMutex
	byWell map[string][]*models.FilingRecord
	byID   map[id.FilingID]*models.FilingRecord
}

// NewInMemoryStore creates an empty in-memory filing store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byWell: make(map[string][]*models.FilingRecord),
		byID:   make(map[id.FilingID]*models.FilingRecord),
	}
}

// Create appends a filing. Duplicate IDs are rejected with
// sentinel.ErrConflict.
func (s *InMemoryStore) Create(_ context.Context, record *models.FilingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[record.ID]; exists {
		return sentinel.ErrConflict
	}
	stored := copyFiling(record)
	s.byID[record.ID] = stored
	s.byWell[record.WellNaturalKey] = append(s.byWell[record.WellNaturalKey], stored)
	return nil
}

// ListByWell returns every filing for naturalKey ordered by creation time,
// oldest first. Unknown wells yield an empty slice, not an error.
func (s *InMemoryStore) ListByWell(_ context.Context, naturalKey string) ([]*models.FilingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.byWell[naturalKey]
	records := make([]*models.FilingRecord, 0, len(stored))
	for _, record := range stored {
		records = append(records, copyFiling(record))
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}

// FindByID returns one filing or sentinel.ErrNotFound.
func (s *InMemoryStore) FindByID(_ context.Context, filingID id.FilingID) (*models.FilingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.byID[filingID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyFiling(record), nil
}

func copyFiling(record *models.FilingRecord) *models.FilingRecord {
	cp := *record
	cp.Payload = append([]byte(nil), record.Payload...)
	if record.SubmittedAt != nil {
		at := *record.SubmittedAt
		cp.SubmittedAt = &at
	}
	if record.ConfirmationNumber != nil {
		num := *record.ConfirmationNumber
		cp.ConfirmationNumber = &num
	}
	return &cp
}
