// Package models defines the filing record aggregate and its lifecycle
// state machine.
package models

import (
	"encoding/json"
	"time"

	id "wellfile/pkg/domain"
	dErrors "wellfile/pkg/domain-errors"
)

// Status is the filing lifecycle state.
//
// The full machine, even though this service only ever performs the initial
// write into draft:
//
//	draft -> submitted -> acknowledged (terminal)
//	                   -> rejected     (terminal)
//
// Submission against the commission is driven by a separate workflow that
// advances status, submitted_at, and confirmation_number. The payload never
// changes after creation.
type Status string

const (
	StatusDraft        Status = "draft"
	StatusSubmitted    Status = "submitted"
	StatusAcknowledged Status = "acknowledged"
	StatusRejected     Status = "rejected"
)

var statusTransitions = map[Status][]Status{
	StatusDraft:     {StatusSubmitted},
	StatusSubmitted: {StatusAcknowledged, StatusRejected},
}

// IsValid reports whether s is a known lifecycle state.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusAcknowledged, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no transition may leave s.
func (s Status) IsTerminal() bool {
	return s.IsValid() && len(statusTransitions[s]) == 0
}

// CanTransitionTo reports whether the machine allows s -> next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// FilingRecord is one persisted regulatory filing for a well. The payload is
// the generator's completed form document, stored verbatim and never parsed
// or mutated here.
type FilingRecord struct {
	ID                 id.FilingID     `json:"id"`
	WellNaturalKey     string          `json:"well_natural_key"`
	FormType           id.FormType     `json:"form_type"`
	Status             Status          `json:"status"`
	Payload            json.RawMessage `json:"payload"`
	Submitter          string          `json:"submitter"`
	SubmittedAt        *time.Time      `json:"submitted_at,omitempty"`
	ConfirmationNumber *string         `json:"confirmation_number,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

// NewFilingRecord validates the creation invariants and returns a draft
// filing. The payload must be non-empty; it is stored exactly as given.
func NewFilingRecord(filingID id.FilingID, wellNaturalKey string, formType id.FormType, payload json.RawMessage, submitter string, now time.Time) (*FilingRecord, error) {
	if filingID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "filing id cannot be nil")
	}
	if wellNaturalKey == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "filing requires a well natural key")
	}
	if !formType.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unsupported form type")
	}
	if len(payload) == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "form payload cannot be empty")
	}
	if submitter == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "submitter identity is required")
	}
	return &FilingRecord{
		ID:             filingID,
		WellNaturalKey: wellNaturalKey,
		FormType:       formType,
		Status:         StatusDraft,
		Payload:        payload,
		Submitter:      submitter,
		CreatedAt:      now,
	}, nil
}
