package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentpricing/internal/domain/shared/daterange"
	"rentpricing/internal/domain/units"
)

type countingStore struct {
	bookings []Booking
	err      error
	statuses []Status
}

func (s *countingStore) ExistsOverlap(context.Context, units.UnitID, daterange.DateRange, []Status) (bool, error) {
	return false, nil
}

func (s *countingStore) CountCovering(_ context.Context, unitID units.UnitID, day time.Time, statuses []Status) (int, error) {
	s.statuses = statuses
	if s.err != nil {
		return 0, s.err
	}
	n := 0
	for _, b := range s.bookings {
		if b.UnitID == unitID && b.In(statuses) && b.Range.ContainsDate(day) {
			n++
		}
	}
	return n, nil
}

func (s *countingStore) ReserveIfFree(context.Context, *Booking, []Status) error { return nil }

func day(s string) time.Time {
	d, err := daterange.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func stay(in, out string) daterange.DateRange {
	r, err := daterange.New(day(in), day(out))
	if err != nil {
		panic(err)
	}
	return r
}

func TestRateFromCount(t *testing.T) {
	assert.Equal(t, 0.0, RateFromCount(0))
	assert.Equal(t, 0.0, RateFromCount(-1))
	assert.Equal(t, 100.0, RateFromCount(1))
	assert.Equal(t, 100.0, RateFromCount(3))
}

func TestOccupancyCalculator(t *testing.T) {
	store := &countingStore{bookings: []Booking{
		{ID: 1, UnitID: 1, Range: stay("2025-01-10", "2025-01-12"), Status: StatusConfirmed},
		{ID: 2, UnitID: 1, Range: stay("2025-01-20", "2025-01-22"), Status: StatusPending},
		{ID: 3, UnitID: 2, Range: stay("2025-01-10", "2025-01-12"), Status: StatusConfirmed},
	}}
	calc := OccupancyCalculator{Store: store}
	ctx := context.Background()

	rate, err := calc.Rate(ctx, 1, day("2025-01-11"))
	require.NoError(t, err)
	assert.Equal(t, 100.0, rate)
	assert.Equal(t, OccupancyStatuses, store.statuses)

	rate, err = calc.Rate(ctx, 1, day("2025-01-12"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, rate, "check-out day is free")

	rate, err = calc.Rate(ctx, 1, day("2025-01-21"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, rate, "pending bookings do not count as demand")

	calc.Statuses = ReservationStatuses
	rate, err = calc.Rate(ctx, 1, day("2025-01-21"))
	require.NoError(t, err)
	assert.Equal(t, 100.0, rate)
}

func TestOccupancyCalculatorPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := OccupancyCalculator{Store: &countingStore{err: boom}}.Rate(context.Background(), 1, day("2025-01-01"))
	assert.ErrorIs(t, err, boom)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("confirmed")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, s)

	_, err = ParseStatus("archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
