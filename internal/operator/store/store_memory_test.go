package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellfile/internal/operator/models"
	id "wellfile/pkg/domain"
	"wellfile/pkg/platform/sentinel"
)

func newOperator(t *testing.T, contact string) *models.Operator {
	t.Helper()
	op, err := models.NewOperator(id.NewOperatorID(), "Lonestar Plugging", contact, "$2a$10$hash", time.Now())
	require.NoError(t, err)
	return op
}

func TestInMemoryStore_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	op := newOperator(t, "ops@lonestar.example")

	require.NoError(t, store.Create(ctx, op))

	found, err := store.FindByID(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, op.Contact, found.Contact)

	// Mutating the returned copy must not leak into the store.
	found.Name = "changed"
	again, err := store.FindByID(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lonestar Plugging", again.Name)
}

func TestInMemoryStore_ContactConflict(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	require.NoError(t, store.Create(ctx, newOperator(t, "ops@lonestar.example")))

	err := store.Create(ctx, newOperator(t, "ops@lonestar.example"))
	require.ErrorIs(t, err, sentinel.ErrConflict)
	assert.Equal(t, 1, store.Count())
}

func TestInMemoryStore_FindMissing(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.FindByID(context.Background(), id.NewOperatorID())
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_Execute(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	op := newOperator(t, "ops@lonestar.example")
	require.NoError(t, store.Create(ctx, op))

	later := time.Now().Add(time.Hour)
	updated, err := store.Execute(ctx, op.ID,
		func(o *models.Operator) error { return o.CanDeactivate() },
		func(o *models.Operator) { o.ApplyDeactivation(later) },
	)
	require.NoError(t, err)
	assert.False(t, updated.Active)

	stored, err := store.FindByID(ctx, op.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
}

func TestInMemoryStore_ExecuteValidationBlocksMutation(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	op := newOperator(t, "ops@lonestar.example")
	require.NoError(t, store.Create(ctx, op))

	sentinelErr := errors.New("rejected")
	_, err := store.Execute(ctx, op.ID,
		func(*models.Operator) error { return sentinelErr },
		func(o *models.Operator) { o.Active = false },
	)
	require.ErrorIs(t, err, sentinelErr)

	stored, err := store.FindByID(ctx, op.ID)
	require.NoError(t, err)
	assert.True(t, stored.Active, "apply must not run after failed validation")
}

func TestInMemoryStore_ExecuteSerializesTransitions(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	op := newOperator(t, "ops@lonestar.example")
	require.NoError(t, store.Create(ctx, op))

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Execute(ctx, op.ID,
				func(o *models.Operator) error { return o.CanDeactivate() },
				func(o *models.Operator) { o.ApplyDeactivation(time.Now()) },
			)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded, "exactly one concurrent deactivation wins")
}
