package support

import (
	"context"

	"rentpricing/internal/app/uow"
)

// BeginReadOnlyUnit reuses the unit of work already bound to ctx or starts a read-only one.
// The returned cleanup is nil when the unit was reused.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	if unit, ok := uow.Current(ctx); ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrNoUnit
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := uow.Bind(ctx, unit)
	return unit, execCtx, func() { _ = unit.Rollback(execCtx) }, nil
}

// CurrentUnit returns the unit of work bound by the transaction middleware.
func CurrentUnit(ctx context.Context) (uow.UnitOfWork, error) {
	unit, ok := uow.Current(ctx)
	if !ok {
		return nil, uow.ErrNoUnit
	}
	return unit, nil
}

// WithinUnit runs fn in the unit of work bound to ctx, or in a fresh one committed when fn
// succeeds. Handlers use it so they also work without the transaction middleware.
func WithinUnit(ctx context.Context, factory uow.UoWFactory, fn func(ctx context.Context, unit uow.UnitOfWork) error) error {
	if unit, ok := uow.Current(ctx); ok {
		return fn(ctx, unit)
	}
	if factory == nil {
		return uow.ErrNoUnit
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	execCtx := uow.Bind(ctx, unit)
	if err := fn(execCtx, unit); err != nil {
		_ = unit.Rollback(execCtx)
		return err
	}
	return unit.Commit(execCtx)
}
