//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"wellfile/internal/operator/models"
	"wellfile/internal/operator/store"
	id "wellfile/pkg/domain"
	dErrors "wellfile/pkg/domain-errors"
	"wellfile/pkg/platform/sentinel"
	"wellfile/pkg/platform/tx"
	"wellfile/pkg/testutil/containers"
)

type OperatorPostgresSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	runner   *tx.PostgresRunner
}

func TestOperatorPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(OperatorPostgresSuite))
}

func (s *OperatorPostgresSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.runner = tx.NewPostgresRunner(s.postgres.DB, 0)
}

func (s *OperatorPostgresSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "operators")
	s.Require().NoError(err)
}

func (s *OperatorPostgresSuite) newOperator(contact string) *models.Operator {
	op, err := models.NewOperator(id.NewOperatorID(), "Lonestar Plugging", contact, "$2a$10$hash", time.Now().UTC())
	s.Require().NoError(err)
	return op
}

func (s *OperatorPostgresSuite) TestCreateAndFindRoundTrip() {
	ctx := context.Background()
	op := s.newOperator("ops@lonestar.example")

	s.Require().NoError(s.store.Create(ctx, op))

	found, err := s.store.FindByID(ctx, op.ID)
	s.Require().NoError(err)
	s.Equal(op.ID, found.ID)
	s.Equal(op.Name, found.Name)
	s.Equal(op.Contact, found.Contact)
	s.Equal(op.APIKeyHash, found.APIKeyHash)
	s.True(found.Active)
	s.WithinDuration(op.CreatedAt, found.CreatedAt, time.Millisecond)
}

func (s *OperatorPostgresSuite) TestCreateDuplicateContactConflict() {
	ctx := context.Background()

	s.Require().NoError(s.store.Create(ctx, s.newOperator("ops@lonestar.example")))

	err := s.store.Create(ctx, s.newOperator("ops@lonestar.example"))
	s.Require().Error(err)
	s.True(errors.Is(err, sentinel.ErrConflict))
}

func (s *OperatorPostgresSuite) TestFindByIDNotFound() {
	_, err := s.store.FindByID(context.Background(), id.NewOperatorID())
	s.Require().Error(err)
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

// TestExecuteDeactivatesUnderTx drives the locked validate-then-mutate path
// the way the service does, inside a transaction.
func (s *OperatorPostgresSuite) TestExecuteDeactivatesUnderTx() {
	ctx := context.Background()
	op := s.newOperator("ops@lonestar.example")
	s.Require().NoError(s.store.Create(ctx, op))

	later := op.CreatedAt.Add(time.Minute)
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		_, err := s.store.Execute(txCtx, op.ID,
			func(o *models.Operator) error { return o.CanDeactivate() },
			func(o *models.Operator) { o.ApplyDeactivation(later) },
		)
		return err
	})
	s.Require().NoError(err)

	found, err := s.store.FindByID(ctx, op.ID)
	s.Require().NoError(err)
	s.False(found.Active)
	s.WithinDuration(later, found.UpdatedAt, time.Millisecond)
}

func (s *OperatorPostgresSuite) TestExecuteValidateFailureLeavesRowUntouched() {
	ctx := context.Background()
	op := s.newOperator("ops@lonestar.example")
	s.Require().NoError(s.store.Create(ctx, op))

	deactivate := func(now time.Time) error {
		return s.runner.RunInTx(ctx, func(txCtx context.Context) error {
			_, err := s.store.Execute(txCtx, op.ID,
				func(o *models.Operator) error { return o.CanDeactivate() },
				func(o *models.Operator) { o.ApplyDeactivation(now) },
			)
			return err
		})
	}

	first := op.CreatedAt.Add(time.Minute)
	s.Require().NoError(deactivate(first))

	// Already inactive, so the validator rejects and nothing changes.
	err := deactivate(op.CreatedAt.Add(2 * time.Minute))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	found, err := s.store.FindByID(ctx, op.ID)
	s.Require().NoError(err)
	s.False(found.Active)
	s.WithinDuration(first, found.UpdatedAt, time.Millisecond)
}

func (s *OperatorPostgresSuite) TestExecuteMissingOperator() {
	err := s.runner.RunInTx(context.Background(), func(txCtx context.Context) error {
		_, err := s.store.Execute(txCtx, id.NewOperatorID(),
			func(o *models.Operator) error { return nil },
			func(o *models.Operator) {},
		)
		return err
	})
	s.Require().Error(err)
	s.True(errors.Is(err, sentinel.ErrNotFound))
}
