package memory

import (
	"context"
	"errors"

	"rentpricing/internal/app/uow"
	"rentpricing/internal/domain/booking"
	"rentpricing/internal/domain/pricing"
	"rentpricing/internal/domain/units"
)

// ErrFactoryMisconfigured indicates a factory without a store.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Factory hands out units of work over a shared Store. Writes are applied immediately; there
// is no rollback, which is acceptable for demos and tests only.
type Factory struct {
	Store *Store
}

func (f Factory) Begin(_ context.Context, _ uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Store == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{store: f.Store}, nil
}

type Unit struct {
	store *Store
}

func (u *Unit) Units() units.Store                  { return u.store.Units() }
func (u *Unit) Bookings() booking.Store             { return u.store.Bookings() }
func (u *Unit) Profiles() pricing.ProfileRepository { return u.store.Profiles() }
func (u *Unit) Rules() pricing.RuleRepository       { return u.store.Rules() }
func (u *Unit) Logs() pricing.LogRepository         { return u.store.Logs() }

func (u *Unit) Commit(context.Context) error   { return nil }
func (u *Unit) Rollback(context.Context) error { return nil }

var _ uow.UoWFactory = Factory{}
