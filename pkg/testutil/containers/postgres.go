//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx database/sql driver
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Schema is the full wellfile DDL. Tests apply it to fresh containers; the
// deployment pipeline owns the production schema.
const Schema = `
CREATE TABLE IF NOT EXISTS wells (
	natural_key   TEXT PRIMARY KEY,
	state_code    TEXT NOT NULL,
	county        TEXT NOT NULL,
	operator_name TEXT NOT NULL,
	lease_name    TEXT NOT NULL,
	well_number   TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS filings (
	id                  UUID PRIMARY KEY,
	well_natural_key    TEXT NOT NULL REFERENCES wells (natural_key),
	form_type           TEXT NOT NULL,
	status              TEXT NOT NULL,
	payload             JSONB NOT NULL,
	submitter           TEXT NOT NULL,
	submitted_at        TIMESTAMPTZ,
	confirmation_number TEXT,
	created_at          TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS filings_well_created_idx
	ON filings (well_natural_key, created_at);

CREATE TABLE IF NOT EXISTS operators (
	id           UUID PRIMARY KEY,
	name         TEXT NOT NULL,
	contact      TEXT NOT NULL UNIQUE,
	api_key_hash TEXT NOT NULL,
	active       BOOLEAN NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS outbox (
	id           UUID PRIMARY KEY,
	category     TEXT NOT NULL,
	action       TEXT NOT NULL,
	natural_key  TEXT NOT NULL,
	payload      JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	published_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS outbox_unpublished_idx
	ON outbox (created_at) WHERE published_at IS NULL;

CREATE TABLE IF NOT EXISTS audit_events (
	id          UUID PRIMARY KEY,
	category    TEXT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	action      TEXT NOT NULL,
	natural_key TEXT NOT NULL,
	filing_id   TEXT NOT NULL,
	submitter   TEXT NOT NULL,
	actor_id    TEXT NOT NULL,
	detail      TEXT NOT NULL,
	request_id  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS audit_events_natural_key_idx
	ON audit_events (natural_key, occurred_at);
`

// PostgresContainer wraps a testcontainers Postgres instance with an open
// handle and the schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts Postgres, connects through the pgx driver the
// server uses, and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("wellfile"),
		tcpostgres.WithUsername("wellfile"),
		tcpostgres.WithPassword("wellfile"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	// No t.Cleanup here: the Manager shares this container across suites
	// and Ryuk handles teardown.
	return &PostgresContainer{Container: container, DSN: dsn, DB: db}
}

// TruncateTables clears the given tables between tests. Pass tables in any
// order; CASCADE handles the filings -> wells reference.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	query := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", "))
	if _, err := p.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}
