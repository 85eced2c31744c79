package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentpricing/internal/domain/booking"
	"rentpricing/internal/domain/shared/daterange"
	"rentpricing/internal/domain/shared/errs"
	"rentpricing/internal/domain/units"
)

type BookingRepository struct {
	db  *mongo.Database
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{db: db, col: db.Collection(colBookings)}
}

func (r *BookingRepository) ExistsOverlap(ctx context.Context, unitID units.UnitID, dr daterange.DateRange, statuses []booking.Status) (bool, error) {
	n, err := r.col.CountDocuments(ctx, overlapFilter(unitID, dr, statuses), options.Count().SetLimit(1))
	if err != nil {
		return false, errs.Unavailable(err)
	}
	return n > 0, nil
}

func (r *BookingRepository) CountCovering(ctx context.Context, unitID units.UnitID, day time.Time, statuses []booking.Status) (int, error) {
	day = daterange.Day(day)
	n, err := r.col.CountDocuments(ctx, bson.M{
		"unit_id":   int64(unitID),
		"status":    bson.M{"$in": statusValues(statuses)},
		"check_in":  bson.M{"$lte": day},
		"check_out": bson.M{"$gt": day},
	})
	if err != nil {
		return 0, errs.Unavailable(err)
	}
	return int(n), nil
}

// ReserveIfFree must run inside a unit of work. Bumping the unit's reservation counter first
// makes two concurrent reservations for the same unit conflict on write, so one of the
// transactions aborts instead of both inserting.
func (r *BookingRepository) ReserveIfFree(ctx context.Context, b *booking.Booking, statuses []booking.Status) error {
	if err := b.Range.Validate(); err != nil {
		return err
	}
	_, err := r.db.Collection(colUnits).UpdateOne(ctx,
		bson.M{"_id": int64(b.UnitID)},
		bson.M{"$inc": bson.M{"reservation_seq": int64(1)}})
	if err != nil {
		return errs.Unavailable(err)
	}
	taken, err := r.ExistsOverlap(ctx, b.UnitID, b.Range, statuses)
	if err != nil {
		return err
	}
	if taken {
		return booking.ErrOverlappingRange
	}
	id, err := nextID(ctx, r.db, colBookings)
	if err != nil {
		return err
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	b.ID = booking.BookingID(id)
	if _, err := r.col.InsertOne(ctx, newBookingDocument(*b)); err != nil {
		b.ID = 0
		return errs.Unavailable(err)
	}
	return nil
}

// overlapFilter is the half-open intersection check_in < end AND check_out > start.
func overlapFilter(unitID units.UnitID, dr daterange.DateRange, statuses []booking.Status) bson.M {
	return bson.M{
		"unit_id":   int64(unitID),
		"status":    bson.M{"$in": statusValues(statuses)},
		"check_in":  bson.M{"$lt": daterange.Day(dr.CheckOut)},
		"check_out": bson.M{"$gt": daterange.Day(dr.CheckIn)},
	}
}

func statusValues(statuses []booking.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

var _ booking.Store = (*BookingRepository)(nil)
