package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"rentpricing/internal/app/uow"
	"rentpricing/internal/domain/booking"
	"rentpricing/internal/domain/pricing"
	"rentpricing/internal/domain/shared/errs"
	"rentpricing/internal/domain/units"
)

var ErrFactoryMisconfigured = errors.New("mongo: unit of work factory misconfigured")

// Factory starts one session and transaction per unit of work. Transactions need a replica set.
type Factory struct {
	Client *Client
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Client == nil || f.Client.DB == nil {
		return nil, ErrFactoryMisconfigured
	}
	sess, err := f.Client.DB.Client().StartSession()
	if err != nil {
		return nil, errs.Unavailable(err)
	}
	txOpts := options.Transaction().SetReadConcern(readconcern.Snapshot())
	if !opts.ReadOnly {
		txOpts.SetWriteConcern(writeconcern.Majority())
	}
	if err := sess.StartTransaction(txOpts); err != nil {
		sess.EndSession(ctx)
		return nil, errs.Unavailable(err)
	}
	db := f.Client.DB
	return &Unit{
		session:  sess,
		units:    NewUnitRepository(db),
		bookings: NewBookingRepository(db),
		profiles: NewProfileRepository(db),
		rules:    NewRuleRepository(db),
		logs:     NewLogRepository(db),
	}, nil
}

type Unit struct {
	session  mongo.Session
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

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return errs.Unavailable(u.session.CommitTransaction(ctx))
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return errs.Unavailable(u.session.AbortTransaction(ctx))
}

// InjectContext binds the session so repository calls made with the returned context join
// the transaction.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var (
	_ uow.UoWFactory      = Factory{}
	_ uow.ContextInjector = (*Unit)(nil)
)
