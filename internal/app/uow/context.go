package uow

import (
	"context"
	"errors"
)

// ErrNoUnit is returned when a store is needed but no unit of work is bound to the context.
var ErrNoUnit = errors.New("uow: no unit of work bound to context")

type unitKey struct{}

// Bind returns ctx carrying unit and, when the unit needs it, its driver transaction handle.
func Bind(ctx context.Context, unit UnitOfWork) context.Context {
	if injector, ok := unit.(ContextInjector); ok {
		ctx = injector.InjectContext(ctx)
	}
	return context.WithValue(ctx, unitKey{}, unit)
}

// Current returns the unit bound by Bind.
func Current(ctx context.Context) (UnitOfWork, bool) {
	unit, _ := ctx.Value(unitKey{}).(UnitOfWork)
	return unit, unit != nil
}
