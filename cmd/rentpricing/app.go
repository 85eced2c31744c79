package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rentpricing/internal/app/commands"
	pricingapp "rentpricing/internal/app/handlers/pricing"
	"rentpricing/internal/app/middleware"
	appoutbox "rentpricing/internal/app/outbox"
	"rentpricing/internal/app/queries"
	"rentpricing/internal/infra/broker/kafka"
	"rentpricing/internal/infra/config"
	"rentpricing/internal/infra/fixtures"
	ginserver "rentpricing/internal/infra/http/gin"
	"rentpricing/internal/infra/obs"
	"rentpricing/internal/infra/outbox"
	"rentpricing/internal/infra/validation"
)

type application struct {
	cfg      config.Config
	logger   *slog.Logger
	storage  *storage
	metrics  *obs.Metrics
	commands commands.Bus
	queries  queries.Bus
	producer *kafka.Producer
	worker   *outbox.Worker
}

func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, obs.NewLogger(cfg.Env, obs.LoggerOptions{}), err
	}
	logger := obs.NewLogger(cfg.Env, obs.LoggerOptions{Level: cfg.LogLevel, File: cfg.LogFile})
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	st, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app := &application{cfg: cfg, logger: logger, storage: st, metrics: obs.NewMetrics()}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, "rentpricing")
		if err != nil {
			st.close(ctx, logger)
			return nil, err
		}
		app.producer = producer
		st.checks["kafka"] = producer.Ping
		if st.memOutbox != nil {
			st.memOutbox.Producer = producer
			st.memOutbox.TopicPrefix = cfg.KafkaTopicPrefix
		}
		if st.queue != nil {
			app.worker = &outbox.Worker{
				Store:       st.queue,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				ID:          "rentpricing-" + uuid.NewString()[:8],
				Backoff:     cfg.RetryBackoff,
				Logger:      logger,
			}
		}
	}

	clock := func() time.Time { return time.Now().UTC() }
	encoder := appoutbox.JSONEventEncoder{ContextHeaders: requestHeaders}
	cmdBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()
	pricingapp.Module{
		UoWFactory: st.factory,
		Engine: &pricingapp.Engine{
			Clock:    clock,
			Logger:   logger,
			Observer: app.metrics,
			Outbox:   st.outbox,
			Encoder:  encoder,
		},
		Outbox:          st.outbox,
		Encoder:         encoder,
		Clock:           clock,
		CalendarMaxDays: cfg.CalendarMaxDays,
	}.Register(cmdBus, queryBus)

	v := validation.New()
	app.commands = middleware.ChainCommands(cmdBus,
		middleware.Logging(logger),
		middleware.Validation(v),
		middleware.Authorization(middleware.OwnerScopeAuthorizer{}),
		middleware.Idempotency(st.idempotency, nil),
		middleware.OutboxFlush(st.outbox, logger),
		middleware.Transaction(st.factory, nil),
	)
	app.queries = middleware.ChainQueries(queryBus,
		middleware.QueryValidation(v),
		middleware.QueryAuthorization(middleware.OwnerScopeAuthorizer{}),
	)
	return app, nil
}

// requestHeaders tags pricing events with the HTTP request that produced them.
func requestHeaders(ctx context.Context) map[string]string {
	if id := obs.RequestIDFromContext(ctx); id != "" {
		return map[string]string{"x-request-id": id}
	}
	return nil
}

func (a *application) httpHandlers() ginserver.Handlers {
	return ginserver.Handlers{
		Pricing:  ginserver.PricingHandler{Commands: a.commands, Queries: a.queries, Logger: a.logger},
		Profiles: ginserver.ProfileHandler{Commands: a.commands, Queries: a.queries, Logger: a.logger},
		Metrics:  a.metrics,
	}
}

func (a *application) loadFixtures(ctx context.Context, path string) error {
	if path == "" {
		path = fixtures.DefaultPath()
	}
	_, err := fixtures.Loader{Factory: a.storage.factory, Units: a.storage.units, Logger: a.logger}.LoadFile(ctx, path)
	return err
}

func (a *application) close(ctx context.Context) {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("closing kafka producer failed", "error", err)
		}
	}
	a.storage.close(ctx, a.logger)
}
