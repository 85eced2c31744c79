package booking

import (
	"context"
	"time"

	"rentpricing/internal/domain/units"
)

// OccupancyCalculator turns booking counts into the 0-100 demand metric used by pricing rules.
type OccupancyCalculator struct {
	Store    Store
	Statuses []Status
}

// Rate counts bookings covering day. The result is count*100 capped at 100, so a
// single-inventory unit is either 0 or 100; several covering bookings are not an error here.
func (c OccupancyCalculator) Rate(ctx context.Context, unitID units.UnitID, day time.Time) (float64, error) {
	statuses := c.Statuses
	if len(statuses) == 0 {
		statuses = OccupancyStatuses
	}
	count, err := c.Store.CountCovering(ctx, unitID, day, statuses)
	if err != nil {
		return 0, err
	}
	return RateFromCount(count), nil
}

func RateFromCount(count int) float64 {
	if count <= 0 {
		return 0
	}
	rate := float64(count) * 100
	if rate > 100 {
		return 100
	}
	return rate
}
