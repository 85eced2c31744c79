// Package postgres stores pricing data through gorm. Production runs on PostgreSQL; the same
// models run on SQLite for local development and tests.
package postgres

import (
	"context"
	"log"
	"os"
	"time"

	pgdriver "gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"rentpricing/internal/domain/shared/errs"
)

func newGormLogger() gormlogger.Interface {
	return gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
}

// Open connects to PostgreSQL.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(pgdriver.Open(dsn), &gorm.Config{Logger: newGormLogger()})
	if err != nil {
		return nil, errs.Unavailable(err)
	}
	return db, nil
}

// OpenSQLite opens a SQLite database. A single connection keeps in-memory databases shared
// between the pool and open transactions.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: newGormLogger()})
	if err != nil {
		return nil, errs.Unavailable(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errs.Unavailable(err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Migrate creates or updates every table the driver uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&unitModel{},
		&bookingModel{},
		&profileModel{},
		&ruleModel{},
		&logModel{},
		&idempotencyModel{},
		&outboxModel{},
	)
}

func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errs.Unavailable(err)
	}
	return errs.Unavailable(sqlDB.PingContext(ctx))
}

type txKey struct{}

func withTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// conn returns the transaction bound to ctx, or the pool when there is none.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// inTx runs fn in the transaction bound to ctx, opening one when ctx carries none.
func inTx(ctx context.Context, db *gorm.DB, fn func(ctx context.Context, tx *gorm.DB) error) error {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return fn(ctx, tx.WithContext(ctx))
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(withTx(ctx, tx), tx)
	})
}

func isPostgres(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}
