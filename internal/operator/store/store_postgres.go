package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"wellfile/internal/operator/models"
	"wellfile/internal/platform/postgres"
	id "wellfile/pkg/domain"
	"wellfile/pkg/platform/sentinel"
	txcontext "wellfile/pkg/platform/tx"
)

// PostgresStore persists operators. Contact uniqueness rides on the
// operators_contact_key unique index.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a Postgres-backed operator store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) querier(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Create inserts the operator. Returns sentinel.ErrConflict when the
// contact address is already registered.
func (s *PostgresStore) Create(ctx context.Context, op *models.Operator) error {
	query := `
		INSERT INTO operators (id, name, contact, api_key_hash, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.querier(ctx).ExecContext(ctx, query,
		uuid.UUID(op.ID),
		op.Name,
		op.Contact,
		op.APIKeyHash,
		op.Active,
		op.CreatedAt,
		op.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create operator: %w", postgres.Classify(err))
	}
	return nil
}

// FindByID returns the operator or sentinel.ErrNotFound.
func (s *PostgresStore) FindByID(ctx context.Context, operatorID id.OperatorID) (*models.Operator, error) {
	query := `
		SELECT id, name, contact, api_key_hash, active, created_at, updated_at
		FROM operators
		WHERE id = $1
	`

	return s.scanOperator(s.querier(ctx).QueryRowContext(ctx, query, uuid.UUID(operatorID)))
}

// Execute atomically validates and mutates one operator. The row is locked
// FOR UPDATE, so this must run inside a transaction (the service wraps it
// in RunInTx); validate and apply run while the lock is held.
func (s *PostgresStore) Execute(ctx context.Context, operatorID id.OperatorID,
	validate func(*models.Operator) error, apply func(*models.Operator)) (*models.Operator, error) {
	q := s.querier(ctx)

	query := `
		SELECT id, name, contact, api_key_hash, active, created_at, updated_at
		FROM operators
		WHERE id = $1
		FOR UPDATE
	`
	op, err := s.scanOperator(q.QueryRowContext(ctx, query, uuid.UUID(operatorID)))
	if err != nil {
		return nil, err
	}

	if err := validate(op); err != nil {
		return nil, err
	}
	apply(op)

	update := `
		UPDATE operators
		SET name = $2, contact = $3, api_key_hash = $4, active = $5, updated_at = $6
		WHERE id = $1
	`
	result, err := q.ExecContext(ctx, update,
		uuid.UUID(op.ID),
		op.Name,
		op.Contact,
		op.APIKeyHash,
		op.Active,
		op.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update operator: %w", postgres.Classify(err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update operator: %w", err)
	}
	if affected == 0 {
		return nil, sentinel.ErrNotFound
	}
	return op, nil
}

func (s *PostgresStore) scanOperator(row *sql.Row) (*models.Operator, error) {
	var (
		op         models.Operator
		operatorID uuid.UUID
	)
	err := row.Scan(
		&operatorID,
		&op.Name,
		&op.Contact,
		&op.APIKeyHash,
		&op.Active,
		&op.CreatedAt,
		&op.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find operator: %w", postgres.Classify(err))
	}
	op.ID = id.OperatorID(operatorID)
	return &op, nil
}
