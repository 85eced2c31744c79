package middleware

import (
	"context"
	"fmt"

	"rentpricing/internal/app/commands"
	"rentpricing/internal/app/uow"
	"rentpricing/internal/domain/shared/errs"
)

// TxOptionsProvider picks the transaction options for a command.
type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

// Transaction runs a command inside its own unit of work and commits only when the handler
// succeeds. A command dispatched while a unit is already bound joins that unit.
func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if _, joined := uow.Current(ctx); joined {
				return next.Dispatch(ctx, cmd)
			}
			var opts uow.TxOptions
			if optsProvider != nil {
				opts = optsProvider(cmd)
			}
			unit, err := factory.Begin(ctx, opts)
			if err != nil {
				return nil, errs.Unavailable(fmt.Errorf("begin %s: %w", cmd.Key(), err))
			}
			txCtx := uow.Bind(ctx, unit)

			res, err := next.Dispatch(txCtx, cmd)
			if err != nil {
				_ = unit.Rollback(txCtx)
				return nil, err
			}
			if err := unit.Commit(txCtx); err != nil {
				_ = unit.Rollback(txCtx)
				return nil, errs.Unavailable(fmt.Errorf("commit %s: %w", cmd.Key(), err))
			}
			return res, nil
		})
	}
}
