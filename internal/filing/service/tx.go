package service

import "context"

// StoreTx runs fn inside one storage transaction. Store calls made with the
// context fn receives join that transaction; the Postgres runner carries it
// through the ambient tx context.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// passthroughTx is the default for stores with no transaction concept.
type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}
