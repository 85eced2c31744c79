package memory

import (
	"context"
	"time"

	"rentpricing/internal/domain/booking"
	"rentpricing/internal/domain/shared/daterange"
	"rentpricing/internal/domain/units"
)

type BookingRepository struct {
	s *Store
}

func (r *BookingRepository) ExistsOverlap(_ context.Context, unitID units.UnitID, dr daterange.DateRange, statuses []booking.Status) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.overlaps(unitID, dr, statuses), nil
}

func (r *BookingRepository) CountCovering(_ context.Context, unitID units.UnitID, day time.Time, statuses []booking.Status) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	day = daterange.Day(day)
	n := 0
	for _, b := range r.s.bookings {
		if b.UnitID == unitID && b.In(statuses) && b.Range.ContainsDate(day) {
			n++
		}
	}
	return n, nil
}

// ReserveIfFree checks and inserts under the store's write lock.
func (r *BookingRepository) ReserveIfFree(_ context.Context, b *booking.Booking, statuses []booking.Status) error {
	if err := b.Range.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.overlaps(b.UnitID, b.Range, statuses) {
		return booking.ErrOverlappingRange
	}
	b.ID = booking.BookingID(r.s.next())
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	r.s.bookings[b.ID] = *b
	return nil
}

func (s *Store) overlaps(unitID units.UnitID, dr daterange.DateRange, statuses []booking.Status) bool {
	for _, existing := range s.bookings {
		if existing.UnitID == unitID && existing.In(statuses) && existing.Range.Overlaps(dr) {
			return true
		}
	}
	return false
}

var _ booking.Store = (*BookingRepository)(nil)
