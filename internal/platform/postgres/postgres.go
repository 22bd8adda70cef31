// Package postgres opens the shared database handle and classifies driver
// errors into the sentinel taxonomy the stores surface.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx database/sql driver
	"github.com/lib/pq"

	"wellfile/internal/platform/config"
	"wellfile/pkg/platform/sentinel"
)

// Open connects through the pgx stdlib driver, applies the pool settings,
// and verifies the connection before returning.
func Open(cfg config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// SQLSTATE classes relevant to the sentinel mapping. Class 23 is integrity
// constraint violation; 08 is connection exception; 57 covers operator
// interventions such as shutdown and statement timeouts.
const (
	classIntegrityViolation   = "23"
	classConnectionException  = "08"
	classOperatorIntervention = "57"
)

// Classify maps a driver error onto the sentinel taxonomy. Constraint
// failures become ErrConflict; connection-class failures, cancellations, and
// network errors become ErrUnavailable. Errors outside those classes are
// returned unchanged. Both pgx and lib/pq error shapes are understood since
// tests and tooling may use either driver against the same schema.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyCode(pgErr.Code, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return classifyCode(string(pqErr.Code), err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	return err
}

func classifyCode(code string, err error) error {
	switch {
	case strings.HasPrefix(code, classIntegrityViolation):
		return fmt.Errorf("%w: %v", sentinel.ErrConflict, err)
	case strings.HasPrefix(code, classConnectionException),
		strings.HasPrefix(code, classOperatorIntervention):
		return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	default:
		return err
	}
}
