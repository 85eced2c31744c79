package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rentpricing/internal/domain/shared/daterange"
	"rentpricing/internal/domain/shared/errs"
	"rentpricing/internal/domain/units"
)

var (
	ErrOverlappingRange = errors.New("booking: range overlaps an existing booking")
	ErrInvalidStatus    = fmt.Errorf("%w: booking status", errs.ErrInvalidInput)
)

type BookingID int64

type Status string

const (
	StatusPending   Status = "pending"
	StatusTentative Status = "tentative"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

var (
	// OccupancyStatuses feed the pricing occupancy metric.
	OccupancyStatuses = []Status{StatusConfirmed}
	// ReservationStatuses block new reservations; unpaid holds still keep the dates.
	ReservationStatuses = []Status{StatusConfirmed, StatusTentative, StatusPending}
)

func ParseStatus(raw string) (Status, error) {
	switch s := Status(raw); s {
	case StatusPending, StatusTentative, StatusConfirmed, StatusCancelled, StatusCompleted:
		return s, nil
	default:
		return "", fmt.Errorf("%w %q", ErrInvalidStatus, raw)
	}
}

// Booking is read-only for the engine; the booking flow owns its lifecycle.
type Booking struct {
	ID        BookingID
	UnitID    units.UnitID
	Range     daterange.DateRange
	Status    Status
	CreatedAt time.Time
}

// In reports whether the booking status belongs to statuses.
func (b Booking) In(statuses []Status) bool {
	for _, s := range statuses {
		if b.Status == s {
			return true
		}
	}
	return false
}

// Store answers overlap and occupancy questions against booking records.
type Store interface {
	// ExistsOverlap reports whether a booking of the unit with one of the statuses
	// intersects r. It does not validate that the unit exists.
	ExistsOverlap(ctx context.Context, unitID units.UnitID, r daterange.DateRange, statuses []Status) (bool, error)
	// CountCovering counts bookings with check_in <= day < check_out.
	CountCovering(ctx context.Context, unitID units.UnitID, day time.Time, statuses []Status) (int, error)
	// ReserveIfFree inserts b only when no booking with the statuses overlaps it. The check
	// and the insert run in one storage transaction. b.ID is assigned on success.
	ReserveIfFree(ctx context.Context, b *Booking, statuses []Status) error
}
