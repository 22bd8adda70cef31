package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"wellfile/internal/filing/models"
	"wellfile/internal/platform/postgres"
	id "wellfile/pkg/domain"
	"wellfile/pkg/platform/sentinel"
	txcontext "wellfile/pkg/platform/tx"
)

// PostgresStore persists filing records. Rows are append-only from this
// service's perspective; lifecycle advances happen in the submission
// workflow through the same table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a Postgres-backed filing store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) querier(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Create inserts one filing row.
func (s *PostgresStore) Create(ctx context.Context, record *models.FilingRecord) error {
	query := `
		INSERT INTO filings (id, well_natural_key, form_type, status, payload, submitter, submitted_at, confirmation_number, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.querier(ctx).ExecContext(ctx, query,
		uuid.UUID(record.ID),
		record.WellNaturalKey,
		string(record.FormType),
		string(record.Status),
		[]byte(record.Payload),
		record.Submitter,
		record.SubmittedAt,
		record.ConfirmationNumber,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert filing: %w", postgres.Classify(err))
	}
	return nil
}

// ListByWell returns every filing for naturalKey ordered by creation time,
// oldest first. The ID tiebreak keeps the order deterministic for rows
// created in the same instant.
func (s *PostgresStore) ListByWell(ctx context.Context, naturalKey string) ([]*models.FilingRecord, error) {
	query := `
		SELECT id, well_natural_key, form_type, status, payload, submitter, submitted_at, confirmation_number, created_at
		FROM filings
		WHERE well_natural_key = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.querier(ctx).QueryContext(ctx, query, naturalKey)
	if err != nil {
		return nil, fmt.Errorf("list filings: %w", postgres.Classify(err))
	}
	defer rows.Close()

	var records []*models.FilingRecord
	for rows.Next() {
		record, err := scanFiling(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list filings: %w", postgres.Classify(err))
	}
	return records, nil
}

// FindByID returns one filing or sentinel.ErrNotFound.
func (s *PostgresStore) FindByID(ctx context.Context, filingID id.FilingID) (*models.FilingRecord, error) {
	query := `
		SELECT id, well_natural_key, form_type, status, payload, submitter, submitted_at, confirmation_number, created_at
		FROM filings
		WHERE id = $1
	`

	record, err := scanFiling(s.querier(ctx).QueryRowContext(ctx, query, uuid.UUID(filingID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFiling(row rowScanner) (*models.FilingRecord, error) {
	var (
		record       models.FilingRecord
		filingID     uuid.UUID
		formType     string
		status       string
		payload      []byte
		submittedAt  sql.NullTime
		confirmation sql.NullString
	)
	err := row.Scan(
		&filingID,
		&record.WellNaturalKey,
		&formType,
		&status,
		&payload,
		&record.Submitter,
		&submittedAt,
		&confirmation,
		&record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan filing: %w", postgres.Classify(err))
	}

	record.ID = id.FilingID(filingID)
	record.FormType = id.FormType(formType)
	record.Status = models.Status(status)
	record.Payload = payload
	if submittedAt.Valid {
		record.SubmittedAt = &submittedAt.Time
	}
	if confirmation.Valid {
		record.ConfirmationNumber = &confirmation.String
	}
	return &record, nil
}
