// Package models holds the operator aggregate: the plugging companies and
// service contractors that submit W-3 filings.
package models

import (
	"time"

	id "wellfile/pkg/domain"
	dErrors "wellfile/pkg/domain-errors"
)

// Operator is a registered filing submitter.
//
// Invariants:
//   - Name is non-empty and at most 128 characters
//   - Contact is a normalized, unique email address
//   - APIKeyHash is never serialized
//   - An inactive operator cannot authenticate or obtain tokens
//
// Deactivation is an immediate boundary: token issuance checks Active on
// every request, so already-issued tokens outlive deactivation only until
// they expire.
type Operator struct {
	ID         id.OperatorID `json:"id"`
	Name       string        `json:"name"`
	Contact    string        `json:"contact"`
	APIKeyHash string        `json:"-"`
	Active     bool          `json:"active"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// NewOperator constructs an active operator, validating invariants.
func NewOperator(operatorID id.OperatorID, name, contact, apiKeyHash string, now time.Time) (*Operator, error) {
	if operatorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "operator id cannot be nil")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "operator name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "operator name must be 128 characters or less")
	}
	if contact == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "operator contact cannot be empty")
	}
	if apiKeyHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "operator requires an api key hash")
	}
	return &Operator{
		ID:         operatorID,
		Name:       name,
		Contact:    contact,
		APIKeyHash: apiKeyHash,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// CanDeactivate checks whether the operator may transition to inactive.
// Use with ApplyDeactivation so stores can hold their lock across
// validate-then-mutate.
func (o *Operator) CanDeactivate() error {
	if !o.Active {
		return dErrors.New(dErrors.CodeInvariantViolation, "operator is already inactive")
	}
	return nil
}

// ApplyDeactivation transitions the operator to inactive. Call
// CanDeactivate first.
func (o *Operator) ApplyDeactivation(now time.Time) {
	o.Active = false
	o.UpdatedAt = now
}
