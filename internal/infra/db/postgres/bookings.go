package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rentpricing/internal/domain/booking"
	"rentpricing/internal/domain/shared/daterange"
	"rentpricing/internal/domain/shared/errs"
	"rentpricing/internal/domain/units"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) ExistsOverlap(ctx context.Context, unitID units.UnitID, dr daterange.DateRange, statuses []booking.Status) (bool, error) {
	return r.overlaps(conn(ctx, r.db), unitID, dr, statuses)
}

func (r *BookingRepository) CountCovering(ctx context.Context, unitID units.UnitID, day time.Time, statuses []booking.Status) (int, error) {
	day = daterange.Day(day)
	var n int64
	err := conn(ctx, r.db).Model(&bookingModel{}).
		Where("unit_id = ? AND status IN ? AND check_in <= ? AND check_out > ?", int64(unitID), bookingStatuses(statuses), day, day).
		Count(&n).Error
	if err != nil {
		return 0, errs.Unavailable(err)
	}
	return int(n), nil
}

// ReserveIfFree locks the unit row on PostgreSQL so concurrent reservations for one unit
// queue behind each other. SQLite serializes writers on its own.
func (r *BookingRepository) ReserveIfFree(ctx context.Context, b *booking.Booking, statuses []booking.Status) error {
	if err := b.Range.Validate(); err != nil {
		return err
	}
	return inTx(ctx, r.db, func(_ context.Context, tx *gorm.DB) error {
		if isPostgres(tx) {
			var unit unitModel
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").Take(&unit, int64(b.UnitID)).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.Unavailable(err)
			}
		}
		taken, err := r.overlaps(tx, b.UnitID, b.Range, statuses)
		if err != nil {
			return err
		}
		if taken {
			return booking.ErrOverlappingRange
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = time.Now().UTC()
		}
		m := bookingModel{
			UnitID:    int64(b.UnitID),
			CheckIn:   daterange.Day(b.Range.CheckIn),
			CheckOut:  daterange.Day(b.Range.CheckOut),
			Status:    string(b.Status),
			CreatedAt: b.CreatedAt.UTC(),
		}
		if err := tx.Create(&m).Error; err != nil {
			return errs.Unavailable(err)
		}
		b.ID = booking.BookingID(m.ID)
		return nil
	})
}

// overlaps is the half-open intersection check_in < end AND check_out > start.
func (r *BookingRepository) overlaps(db *gorm.DB, unitID units.UnitID, dr daterange.DateRange, statuses []booking.Status) (bool, error) {
	var ids []int64
	err := db.Model(&bookingModel{}).
		Where("unit_id = ? AND status IN ? AND check_in < ? AND check_out > ?",
			int64(unitID), bookingStatuses(statuses), daterange.Day(dr.CheckOut), daterange.Day(dr.CheckIn)).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return false, errs.Unavailable(err)
	}
	return len(ids) > 0, nil
}

var _ booking.Store = (*BookingRepository)(nil)
