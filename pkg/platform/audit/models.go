// Package audit defines the event model shared by every service that records
// regulatory-significant actions. Events flow through a Publisher into a
// Store; the Postgres store writes a transactional outbox so events commit
// atomically with the domain writes they describe.
package audit

import (
	"context"
	"time"

	id "wellfile/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose. The relay
// publishes each category to its own topic so retention and consumers can
// differ per category.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance: filing
	// persistence, well identity creation, persistence failures. These feed
	// the commission-facing audit trail and carry long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers authentication and abuse events: failed
	// credential checks, rate limit rejections.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine visibility events: operator
	// provisioning, token issuance.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	Action    string

	// NaturalKey is the well identifier an event concerns, normalized. Empty
	// for events not tied to a well (operator provisioning, token issuance).
	NaturalKey string

	// FilingID is set for events describing one particular filing.
	FilingID string

	// Submitter is the identity the filing was recorded under.
	Submitter string

	// ActorID identifies who triggered the action: an operator ID, or
	// "admin" for provisioning actions.
	ActorID string

	// Detail carries human-readable context such as the failure description
	// attached to a persistence failure event.
	Detail string

	// RequestID correlates the event with the HTTP request that caused it.
	RequestID string
}

// AuditEvent names one auditable action.
type AuditEvent string

const (
	// Compliance events
	EventWellCreated         AuditEvent = "well_created"
	EventFilingPersisted     AuditEvent = "filing_persisted"
	EventFilingPersistFailed AuditEvent = "filing_persist_failed"

	// Security events
	EventAuthFailed        AuditEvent = "auth_failed"
	EventRateLimitExceeded AuditEvent = "rate_limit_exceeded"

	// Operations events
	EventOperatorCreated     AuditEvent = "operator_created"
	EventOperatorDeactivated AuditEvent = "operator_deactivated"
	EventTokenIssued         AuditEvent = "token_issued"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventWellCreated:         CategoryCompliance,
	EventFilingPersisted:     CategoryCompliance,
	EventFilingPersistFailed: CategoryCompliance,
	EventAuthFailed:          CategorySecurity,
	EventRateLimitExceeded:   CategorySecurity,
	EventOperatorCreated:     CategoryOperations,
	EventOperatorDeactivated: CategoryOperations,
	EventTokenIssued:         CategoryOperations,
}

// Category returns the category an event belongs to. Unknown actions land in
// operations so nothing is silently dropped.
func (e AuditEvent) Category() EventCategory {
	if category, ok := eventCategories[e]; ok {
		return category
	}
	return CategoryOperations
}

// Store is the persistence seam for audit events. The in-memory store backs
// unit tests; the Postgres store writes the transactional outbox.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByNaturalKey(ctx context.Context, naturalKey string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// OutboxEntry is one unpublished outbox row awaiting relay publication.
type OutboxEntry struct {
	ID        id.EventID
	Category  EventCategory
	Payload   []byte
	CreatedAt time.Time
}
