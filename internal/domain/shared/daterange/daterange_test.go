package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := ParseDay(raw)
	require.NoError(t, err)
	return d
}

func TestOverlapsHalfOpen(t *testing.T) {
	first, err := New(day(t, "2025-01-10"), day(t, "2025-01-12"))
	require.NoError(t, err)
	turnover, err := New(day(t, "2025-01-12"), day(t, "2025-01-14"))
	require.NoError(t, err)
	crossing, err := New(day(t, "2025-01-11"), day(t, "2025-01-13"))
	require.NoError(t, err)

	assert.False(t, first.Overlaps(turnover))
	assert.False(t, turnover.Overlaps(first))
	assert.True(t, first.Overlaps(crossing))
	assert.True(t, crossing.Overlaps(first))
}

func TestNewRejectsEmptyRange(t *testing.T) {
	_, err := New(day(t, "2025-01-10"), day(t, "2025-01-10"))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestContainsDate(t *testing.T) {
	dr, err := New(day(t, "2025-01-10"), day(t, "2025-01-12"))
	require.NoError(t, err)

	assert.True(t, dr.ContainsDate(day(t, "2025-01-10")))
	assert.True(t, dr.ContainsDate(day(t, "2025-01-11").Add(15*time.Hour)))
	assert.False(t, dr.ContainsDate(day(t, "2025-01-12")))
	assert.False(t, dr.ContainsDate(day(t, "2025-01-09")))
}

func TestWeekdayStartsOnMonday(t *testing.T) {
	assert.Equal(t, 0, Weekday(day(t, "2025-01-13")))
	assert.Equal(t, 4, Weekday(day(t, "2025-01-17")))
	assert.Equal(t, 6, Weekday(day(t, "2025-01-19")))
}

func TestDaysInclusive(t *testing.T) {
	days := Days(day(t, "2025-02-27"), day(t, "2025-03-02"))
	require.Len(t, days, 4)
	assert.Equal(t, "2025-02-27", FormatDay(days[0]))
	assert.Equal(t, "2025-03-02", FormatDay(days[3]))
	assert.Nil(t, Days(day(t, "2025-03-02"), day(t, "2025-03-01")))
}

func TestDaysBetween(t *testing.T) {
	today := day(t, "2025-01-01").Add(22 * time.Hour)
	assert.Equal(t, 35, DaysBetween(today, day(t, "2025-02-05")))
	assert.Equal(t, -1, DaysBetween(today, day(t, "2024-12-31")))
}

func TestParseDayRejectsGarbage(t *testing.T) {
	_, err := ParseDay("10/01/2025")
	assert.ErrorIs(t, err, ErrInvalidDay)
}
