package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"wellfile/internal/platform/postgres"
	"wellfile/internal/well/models"
	"wellfile/pkg/platform/sentinel"
	txcontext "wellfile/pkg/platform/tx"
)

// PostgresStore persists well identities. Pure I/O; defaulting and key
// normalization belong to the service layer.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a Postgres-backed well store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) querier(ctx context.Context) rowQuerier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// FindOrCreate upserts the candidate row. The no-op DO UPDATE makes the
// statement return a row in both cases; xmax = 0 holds only for freshly
// inserted rows, which yields the created flag without a second round trip.
// Concurrent callers racing on the same unseen key both land here and
// observe exactly one row.
func (s *PostgresStore) FindOrCreate(ctx context.Context, candidate *models.WellIdentity) (*models.WellIdentity, bool, error) {
	query := `
		INSERT INTO wells (natural_key, state_code, county, operator_name, lease_name, well_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (natural_key) DO UPDATE SET
			natural_key = EXCLUDED.natural_key
		RETURNING natural_key, state_code, county, operator_name, lease_name, well_number, created_at, updated_at, (xmax = 0)
	`

	var (
		well    models.WellIdentity
		created bool
	)
	err := s.querier(ctx).QueryRowContext(ctx, query,
		candidate.NaturalKey,
		candidate.StateCode,
		candidate.County,
		candidate.OperatorName,
		candidate.LeaseName,
		candidate.WellNumber,
		candidate.CreatedAt,
	).Scan(
		&well.NaturalKey,
		&well.StateCode,
		&well.County,
		&well.OperatorName,
		&well.LeaseName,
		&well.WellNumber,
		&well.CreatedAt,
		&well.UpdatedAt,
		&created,
	)
	if err != nil {
		return nil, false, fmt.Errorf("find or create well: %w", postgres.Classify(err))
	}
	return &well, created, nil
}

// FindByKey returns the identity for naturalKey or sentinel.ErrNotFound.
func (s *PostgresStore) FindByKey(ctx context.Context, naturalKey string) (*models.WellIdentity, error) {
	query := `
		SELECT natural_key, state_code, county, operator_name, lease_name, well_number, created_at, updated_at
		FROM wells
		WHERE natural_key = $1
	`

	var well models.WellIdentity
	err := s.querier(ctx).QueryRowContext(ctx, query, naturalKey).Scan(
		&well.NaturalKey,
		&well.StateCode,
		&well.County,
		&well.OperatorName,
		&well.LeaseName,
		&well.WellNumber,
		&well.CreatedAt,
		&well.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find well: %w", postgres.Classify(err))
	}
	return &well, nil
}
