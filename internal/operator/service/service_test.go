package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellfile/internal/operator/models"
	"wellfile/internal/operator/secrets"
	"wellfile/internal/operator/store"
	id "wellfile/pkg/domain"
	dErrors "wellfile/pkg/domain-errors"
	"wellfile/pkg/platform/audit"
	"wellfile/pkg/platform/audit/publisher"
	auditmemory "wellfile/pkg/platform/audit/store/memory"
	"wellfile/pkg/platform/sentinel"
	"wellfile/pkg/requestcontext"
)

type failingOperatorStore struct {
	err error
}

func (f *failingOperatorStore) Create(context.Context, *models.Operator) error { return f.err }

func (f *failingOperatorStore) FindByID(context.Context, id.OperatorID) (*models.Operator, error) {
	return nil, f.err
}

func (f *failingOperatorStore) Execute(context.Context, id.OperatorID,
	func(*models.Operator) error, func(*models.Operator)) (*models.Operator, error) {
	return nil, f.err
}

func TestService_CreateOperator(t *testing.T) {
	svc := New(store.NewInMemoryStore())
	fixed := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), fixed)

	op, apiKey, err := svc.CreateOperator(ctx, "Lonestar Plugging LLC", " Ops@Lonestar.Example ")
	require.NoError(t, err)

	assert.Equal(t, "Lonestar Plugging LLC", op.Name)
	assert.Equal(t, "ops@lonestar.example", op.Contact, "contact is normalized")
	assert.True(t, op.Active)
	assert.Equal(t, fixed, op.CreatedAt)

	assert.True(t, strings.HasPrefix(apiKey, "wfk_"))
	require.NoError(t, secrets.Verify(apiKey, op.APIKeyHash), "returned key matches stored hash")
}

func TestService_CreateOperator_DerivesNameFromContact(t *testing.T) {
	svc := New(store.NewInMemoryStore())

	op, _, err := svc.CreateOperator(context.Background(), "  ", "j.ramirez@lonestar.example")
	require.NoError(t, err)

	assert.Equal(t, "J Ramirez", op.Name)
}

func TestService_CreateOperator_InvalidContact(t *testing.T) {
	svc := New(store.NewInMemoryStore())

	_, _, err := svc.CreateOperator(context.Background(), "Lonestar", "not-an-email")

	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
}

func TestService_CreateOperator_DuplicateContact(t *testing.T) {
	svc := New(store.NewInMemoryStore())
	ctx := context.Background()

	_, _, err := svc.CreateOperator(ctx, "Lonestar", "ops@lonestar.example")
	require.NoError(t, err)

	_, _, err = svc.CreateOperator(ctx, "Other Co", "OPS@lonestar.example")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
}

func TestService_CreateOperator_EmitsProvisioningEvent(t *testing.T) {
	auditStore := auditmemory.NewInMemoryStore()
	pub := publisher.NewPublisher(auditStore)
	defer pub.Close()

	svc := New(store.NewInMemoryStore(), WithAuditPublisher(pub))
	ctx := context.Background()

	op, _, err := svc.CreateOperator(ctx, "Lonestar", "ops@lonestar.example")
	require.NoError(t, err)

	events, err := auditStore.ListByAction(ctx, string(audit.EventOperatorCreated))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "admin", events[0].ActorID)
	assert.Contains(t, events[0].Detail, op.ID.String())
	assert.Equal(t, audit.CategoryOperations, events[0].Category)
}

func TestService_GetOperator_NotFound(t *testing.T) {
	svc := New(store.NewInMemoryStore())

	_, err := svc.GetOperator(context.Background(), id.NewOperatorID())

	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestService_VerifyCredentials(t *testing.T) {
	svc := New(store.NewInMemoryStore())
	ctx := context.Background()

	op, apiKey, err := svc.CreateOperator(ctx, "Lonestar", "ops@lonestar.example")
	require.NoError(t, err)

	verified, err := svc.VerifyCredentials(ctx, op.ID, apiKey)
	require.NoError(t, err)
	assert.Equal(t, op.ID, verified.ID)
}

func TestService_VerifyCredentials_Rejections(t *testing.T) {
	auditStore := auditmemory.NewInMemoryStore()
	pub := publisher.NewPublisher(auditStore)
	defer pub.Close()

	svc := New(store.NewInMemoryStore(), WithAuditPublisher(pub))
	ctx := context.Background()

	op, apiKey, err := svc.CreateOperator(ctx, "Lonestar", "ops@lonestar.example")
	require.NoError(t, err)

	// Wrong key.
	_, err = svc.VerifyCredentials(ctx, op.ID, "wfk_wrong")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))

	// Unknown operator gets the same error shape.
	_, err = svc.VerifyCredentials(ctx, id.NewOperatorID(), apiKey)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))

	// Deactivated operator is rejected even with the right key.
	_, err = svc.DeactivateOperator(ctx, op.ID)
	require.NoError(t, err)
	_, err = svc.VerifyCredentials(ctx, op.ID, apiKey)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))

	events, err := auditStore.ListByAction(ctx, string(audit.EventAuthFailed))
	require.NoError(t, err)
	assert.Len(t, events, 3, "every rejection raises a security event")
	assert.Equal(t, audit.CategorySecurity, events[0].Category)
}

func TestService_DeactivateOperator(t *testing.T) {
	auditStore := auditmemory.NewInMemoryStore()
	pub := publisher.NewPublisher(auditStore)
	defer pub.Close()

	svc := New(store.NewInMemoryStore(), WithAuditPublisher(pub))
	ctx := context.Background()

	op, _, err := svc.CreateOperator(ctx, "Lonestar", "ops@lonestar.example")
	require.NoError(t, err)

	updated, err := svc.DeactivateOperator(ctx, op.ID)
	require.NoError(t, err)
	assert.False(t, updated.Active)

	// Second deactivation conflicts.
	_, err = svc.DeactivateOperator(ctx, op.ID)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))

	events, err := auditStore.ListByAction(ctx, string(audit.EventOperatorDeactivated))
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestService_DeactivateOperator_NotFound(t *testing.T) {
	svc := New(store.NewInMemoryStore())

	_, err := svc.DeactivateOperator(context.Background(), id.NewOperatorID())

	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestService_StoreUnavailable(t *testing.T) {
	svc := New(&failingOperatorStore{err: sentinel.ErrUnavailable})

	_, _, err := svc.CreateOperator(context.Background(), "Lonestar", "ops@lonestar.example")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnavailable))

	_, err = svc.GetOperator(context.Background(), id.NewOperatorID())
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnavailable))
}
