package uow

import (
	"context"

	"rentpricing/internal/domain/booking"
	"rentpricing/internal/domain/pricing"
	"rentpricing/internal/domain/units"
)

// UnitOfWork exposes the stores of one transaction boundary.
type UnitOfWork interface {
	Units() units.Store
	Bookings() booking.Store
	Profiles() pricing.ProfileRepository
	Rules() pricing.RuleRepository
	Logs() pricing.LogRepository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	ReadOnly bool
}

// ContextInjector is implemented by units whose stores read the transaction handle from the
// context (mongo sessions, gorm transactions).
type ContextInjector interface {
	InjectContext(ctx context.Context) context.Context
}
