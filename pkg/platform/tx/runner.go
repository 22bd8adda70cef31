package tx

import (
	"context"
	"database/sql"
	"errors"
	"time"

	dErrors "wellfile/pkg/domain-errors"
)

const defaultRunnerTimeout = 5 * time.Second

// PostgresRunner executes a function inside one database transaction carried
// on the context, so every store call fn makes joins the same transaction.
// Services depend only on the RunInTx shape; memory-mode deployments
// substitute a passthrough.
type PostgresRunner struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgresRunner creates a runner over db. A non-positive timeout selects
// the default transaction deadline.
func NewPostgresRunner(db *sql.DB, timeout time.Duration) *PostgresRunner {
	if timeout <= 0 {
		timeout = defaultRunnerTimeout
	}
	return &PostgresRunner{db: db, timeout: timeout}
}

// RunInTx begins a transaction, runs fn with the transaction carried on the
// context, and commits if fn succeeds. Any error rolls back.
func (r *PostgresRunner) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "transaction aborted: deadline exceeded")
		}
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(WithTx(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "commit transaction")
	}
	return nil
}
