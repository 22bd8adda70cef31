// Package postgres implements the audit store on the transactional outbox
// pattern. Append joins the caller's transaction when one is in the context,
// so an event commits if and only if the domain write it describes commits.
// The relay drains the outbox into Kafka and the consumer materializes the
// queryable audit_events table from the topics.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	platformpg "wellfile/internal/platform/postgres"
	id "wellfile/pkg/domain"
	audit "wellfile/pkg/platform/audit"
	txcontext "wellfile/pkg/platform/tx"
)

// Store writes events through the outbox and reads the materialized trail.
type Store struct {
	db *sql.DB
}

// New creates a Postgres audit store over db.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append writes one event into the outbox. The category is always derived
// from the action so a miscategorized caller cannot split a topic.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	event.Category = audit.AuditEvent(event.Action).Category()
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	query := `
		INSERT INTO outbox (id, category, action, natural_key, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(id.NewEventID()),
		string(event.Category),
		event.Action,
		event.NaturalKey,
		payload,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", platformpg.Classify(err))
	}
	return nil
}

// ListUnpublished returns up to limit outbox entries not yet relayed, oldest
// first so publication preserves event order.
func (s *Store) ListUnpublished(ctx context.Context, limit int) ([]audit.OutboxEntry, error) {
	query := `
		SELECT id, category, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", platformpg.Classify(err))
	}
	defer rows.Close()

	var entries []audit.OutboxEntry
	for rows.Next() {
		var (
			entry    audit.OutboxEntry
			entryID  uuid.UUID
			category string
		)
		if err := rows.Scan(&entryID, &category, &entry.Payload, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entry.ID = id.EventID(entryID)
		entry.Category = audit.EventCategory(category)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return entries, nil
}

// MarkPublished stamps the given outbox entries as relayed.
func (s *Store) MarkPublished(ctx context.Context, eventIDs []id.EventID, at time.Time) error {
	if len(eventIDs) == 0 {
		return nil
	}
	ids := make([]string, len(eventIDs))
	for i, eventID := range eventIDs {
		ids[i] = eventID.String()
	}

	query := `UPDATE outbox SET published_at = $1 WHERE id = ANY($2::uuid[])`
	if _, err := s.db.ExecContext(ctx, query, at, pq.Array(ids)); err != nil {
		return fmt.Errorf("mark outbox published: %w", platformpg.Classify(err))
	}
	return nil
}

// AppendEvent materializes one relayed event into audit_events. Idempotent
// via ON CONFLICT DO NOTHING so consumer redelivery is harmless.
func (s *Store) AppendEvent(ctx context.Context, eventID id.EventID, event audit.Event) error {
	query := `
		INSERT INTO audit_events (
			id, category, occurred_at, action, natural_key,
			filing_id, submitter, actor_id, detail, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(eventID),
		string(event.Category),
		event.Timestamp,
		event.Action,
		event.NaturalKey,
		event.FilingID,
		event.Submitter,
		event.ActorID,
		event.Detail,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", platformpg.Classify(err))
	}
	return nil
}

// ListByNaturalKey returns the materialized events for one well, oldest first.
func (s *Store) ListByNaturalKey(ctx context.Context, naturalKey string) ([]audit.Event, error) {
	query := `
		SELECT category, occurred_at, action, natural_key,
		       filing_id, submitter, actor_id, detail, request_id
		FROM audit_events
		WHERE natural_key = $1
		ORDER BY occurred_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, naturalKey)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", platformpg.Classify(err))
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListRecent returns up to limit materialized events, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT category, occurred_at, action, natural_key,
		       filing_id, submitter, actor_id, detail, request_id
		FROM audit_events
		ORDER BY occurred_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", platformpg.Classify(err))
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			event    audit.Event
			category string
		)
		if err := rows.Scan(
			&category,
			&event.Timestamp,
			&event.Action,
			&event.NaturalKey,
			&event.FilingID,
			&event.Submitter,
			&event.ActorID,
			&event.Detail,
			&event.RequestID,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
