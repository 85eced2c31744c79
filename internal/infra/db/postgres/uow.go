package postgres

import (
	"context"
	"database/sql"
	"errors"

	"gorm.io/gorm"

	"rentpricing/internal/app/uow"
	"rentpricing/internal/domain/booking"
	"rentpricing/internal/domain/pricing"
	"rentpricing/internal/domain/shared/errs"
	"rentpricing/internal/domain/units"
)

var ErrFactoryMisconfigured = errors.New("postgres: unit of work factory misconfigured")

type Factory struct {
	DB *gorm.DB
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrFactoryMisconfigured
	}
	var txOpts *sql.TxOptions
	if opts.ReadOnly && isPostgres(f.DB) {
		txOpts = &sql.TxOptions{ReadOnly: true}
	}
	tx := f.DB.WithContext(ctx).Begin(txOpts)
	if tx.Error != nil {
		return nil, errs.Unavailable(tx.Error)
	}
	return &Unit{
		tx:       tx,
		units:    NewUnitRepository(f.DB),
		bookings: NewBookingRepository(f.DB),
		profiles: NewProfileRepository(f.DB),
		rules:    NewRuleRepository(f.DB),
		logs:     NewLogRepository(f.DB),
	}, nil
}

// Unit is one gorm transaction. Repositories find it through the context bound by
// InjectContext.
type Unit struct {
	tx       *gorm.DB
	units    *UnitRepository
	bookings *BookingRepository
	profiles *ProfileRepository
	rules    *RuleRepository
	logs     *LogRepository
}

func (u *Unit) Units() units.Store                  { return u.units }
func (u *Unit) Bookings() booking.Store             { return u.bookings }
func (u *Unit) Profiles() pricing.ProfileRepository { return u.profiles }
func (u *Unit) Rules() pricing.RuleRepository       { return u.rules }
func (u *Unit) Logs() pricing.LogRepository         { return u.logs }

func (u *Unit) Commit(context.Context) error {
	return errs.Unavailable(u.tx.Commit().Error)
}

func (u *Unit) Rollback(context.Context) error {
	err := u.tx.Rollback().Error
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return errs.Unavailable(err)
}

func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return withTx(ctx, u.tx)
}

var (
	_ uow.UoWFactory      = Factory{}
	_ uow.ContextInjector = (*Unit)(nil)
)
