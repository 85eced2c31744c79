// Package commands routes pricing writes to their handlers. A price calculation counts as a
// write because it refreshes the unit's calculation log.
package commands

import (
	"context"
	"errors"
	"fmt"
)

// Command is routed by Key, a dotted name under the "pricing." namespace such as
// "pricing.rule.upsert". Owner scope and idempotency keys ride on optional interfaces that
// the middleware checks for.
type Command interface {
	Key() string
}

type Handler[C Command, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

// HandlerFunc lets tests register a closure in place of a pricing handler.
type HandlerFunc[C Command, R any] func(ctx context.Context, cmd C) (R, error)

func (f HandlerFunc[C, R]) Handle(ctx context.Context, cmd C) (R, error) {
	return f(ctx, cmd)
}

// Bus is what the HTTP and CLI adapters hold: the in-memory router wrapped by the pipeline.
type Bus interface {
	Dispatch(ctx context.Context, cmd Command) (any, error)
}

// Routing failures are wiring bugs, never caller errors; adapters report them as internal.
var (
	ErrHandlerNotFound = errors.New("commands: no handler for key")
	ErrInvalidCommand  = errors.New("commands: key bound to another command type")
	ErrResultType      = errors.New("commands: unexpected result type")
	ErrNilBus          = errors.New("commands: nil bus")
)

// Dispatch is the typed entry point used by the adapters. A nil result from a handler yields
// the zero R without a type check.
func Dispatch[C Command, R any](ctx context.Context, bus Bus, cmd C) (R, error) {
	var zero R
	if bus == nil {
		return zero, ErrNilBus
	}
	res, err := bus.Dispatch(ctx, cmd)
	if err != nil || res == nil {
		return zero, err
	}
	value, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("%w: %s returned %T, want %T", ErrResultType, cmd.Key(), res, zero)
	}
	return value, nil
}
