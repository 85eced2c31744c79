package main

import (
	"context"
	"fmt"
	"log/slog"

	"rentpricing/internal/app/middleware"
	appoutbox "rentpricing/internal/app/outbox"
	"rentpricing/internal/app/uow"
	rediscache "rentpricing/internal/infra/cache/redis"
	"rentpricing/internal/infra/config"
	mongostore "rentpricing/internal/infra/db/mongo"
	"rentpricing/internal/infra/db/postgres"
	"rentpricing/internal/infra/fixtures"
	"rentpricing/internal/infra/obs"
	"rentpricing/internal/infra/outbox"
	"rentpricing/internal/infra/storage/memory"
)

// storage is one configured driver with everything the commands need from it.
type storage struct {
	driver      string
	factory     uow.UoWFactory
	units       fixtures.UnitWriter
	outbox      appoutbox.Outbox
	memOutbox   *memory.Outbox
	queue       outbox.Queue
	idempotency middleware.IdempotencyStore
	checks      map[string]obs.Check
	migrate     func(ctx context.Context) error
	// purge drops expired idempotency records for stores without native expiry.
	purge       func(ctx context.Context) (int64, error)
	closers     []func(ctx context.Context) error
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (*storage, error) {
	s := &storage{driver: cfg.StoreDriver, checks: map[string]obs.Check{}}
	switch cfg.StoreDriver {
	case config.DriverMemory:
		store := memory.NewStore()
		box := memory.NewOutbox()
		box.Logger = logger
		s.factory = memory.Factory{Store: store}
		s.units = store
		s.outbox = box
		s.memOutbox = box
		s.idempotency = memory.NewIdempotencyStore(cfg.IdempotencyTTL)
		s.migrate = func(context.Context) error { return nil }
	case config.DriverMongo:
		client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		box := outbox.NewStore(client.DB)
		idem := mongostore.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL)
		s.factory = mongostore.Factory{Client: client}
		s.units = mongostore.NewUnitRepository(client.DB)
		s.outbox = box
		s.queue = box
		s.idempotency = idem
		s.checks["mongo"] = client.Ping
		s.migrate = func(ctx context.Context) error {
			if err := client.EnsureIndexes(ctx); err != nil {
				return err
			}
			if err := box.EnsureIndexes(ctx); err != nil {
				return err
			}
			return idem.EnsureIndexes(ctx)
		}
		s.closers = append(s.closers, client.Close)
	case config.DriverPostgres:
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		box := postgres.NewOutboxStore(db)
		s.factory = postgres.Factory{DB: db}
		s.units = postgres.NewUnitRepository(db)
		s.outbox = box
		s.queue = box
		idem := postgres.NewIdempotencyStore(db, cfg.IdempotencyTTL)
		s.idempotency = idem
		s.purge = idem.Purge
		s.checks["postgres"] = func(ctx context.Context) error { return postgres.Ping(ctx, db) }
		s.migrate = func(context.Context) error { return postgres.Migrate(db) }
		s.closers = append(s.closers, func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		})
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	if cfg.RedisAddr != "" {
		rc, err := rediscache.NewClient(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			s.close(ctx, logger)
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		s.idempotency = rediscache.NewIdempotencyStore(rc, cfg.IdempotencyTTL)
		s.purge = nil
		s.checks["redis"] = func(ctx context.Context) error { return rc.Ping(ctx).Err() }
		s.closers = append(s.closers, func(context.Context) error { return rc.Close() })
	}
	return s, nil
}

func (s *storage) close(ctx context.Context, logger *slog.Logger) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			logger.Warn("closing storage failed", "driver", s.driver, "error", err)
		}
	}
}
