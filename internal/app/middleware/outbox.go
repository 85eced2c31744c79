package middleware

import (
	"context"
	"log/slog"

	"rentpricing/internal/app/commands"
	"rentpricing/internal/app/outbox"
)

// OutboxFlush relays the events a successful command queued. It sits outside Transaction, so
// the prices are already committed when it runs: a relay failure is logged and the records
// stay queued for the next flush or the outbox worker.
func OutboxFlush(box outbox.Outbox, logger *slog.Logger) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				logger.WarnContext(ctx, "pricing events not relayed", "command", cmd.Key(), "err", err)
			}
			return res, nil
		})
	}
}
