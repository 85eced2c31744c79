package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentpricing/internal/domain/booking"
	"rentpricing/internal/domain/pricing"
	"rentpricing/internal/domain/shared/daterange"
	"rentpricing/internal/domain/shared/scope"
	"rentpricing/internal/domain/units"
)

// newTestClient connects to MONGO_TEST_URI and isolates each test in its own database.
func newTestClient(t *testing.T) *Client {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx := context.Background()
	client, err := New(ctx, uri, "rentpricing_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	require.NoError(t, client.EnsureIndexes(ctx))
	t.Cleanup(func() {
		_ = client.DB.Drop(context.Background())
		_ = client.Close(context.Background())
	})
	return client
}

func day(s string) time.Time {
	d, _ := daterange.ParseDay(s)
	return d
}

func TestBookingOverlapIsHalfOpen(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	repo := NewBookingRepository(client.DB)

	stay := &booking.Booking{UnitID: 1, Range: daterange.DateRange{CheckIn: day("2025-01-10"), CheckOut: day("2025-01-12")}, Status: booking.StatusConfirmed}
	require.NoError(t, repo.ReserveIfFree(ctx, stay, booking.ReservationStatuses))
	assert.NotZero(t, stay.ID)

	touching := daterange.DateRange{CheckIn: day("2025-01-12"), CheckOut: day("2025-01-14")}
	taken, err := repo.ExistsOverlap(ctx, 1, touching, booking.ReservationStatuses)
	require.NoError(t, err)
	assert.False(t, taken)

	clash := &booking.Booking{UnitID: 1, Range: daterange.DateRange{CheckIn: day("2025-01-11"), CheckOut: day("2025-01-13")}, Status: booking.StatusPending}
	assert.ErrorIs(t, repo.ReserveIfFree(ctx, clash, booking.ReservationStatuses), booking.ErrOverlappingRange)

	n, err := repo.CountCovering(ctx, 1, day("2025-01-11"), booking.OccupancyStatuses)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = repo.CountCovering(ctx, 1, day("2025-01-12"), booking.OccupancyStatuses)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLogUpsertKeepsOriginalPrice(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	repo := NewLogRepository(client.DB)
	at := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	first := pricing.CalculationLog{UnitID: 1, Date: day("2025-01-10"), OriginalPrice: decimal.NewFromInt(1000), FinalPrice: decimal.NewFromInt(1200), Source: pricing.SourceAutomatic, CalculatedAt: at}
	require.NoError(t, repo.Upsert(ctx, first))
	second := first
	second.OriginalPrice = decimal.NewFromInt(900)
	second.FinalPrice = decimal.NewFromInt(950)
	second.CalculatedAt = at.Add(time.Hour)
	require.NoError(t, repo.Upsert(ctx, second))

	logs, err := repo.List(ctx, 1, pricing.LogFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.True(t, logs[0].OriginalPrice.Equal(decimal.NewFromInt(1000)))
	assert.True(t, logs[0].FinalPrice.Equal(decimal.NewFromInt(950)))
}

func TestProfileDeleteDetachesUnits(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	profiles := NewProfileRepository(client.DB)
	rules := NewRuleRepository(client.DB)
	unitRepo := NewUnitRepository(client.DB)

	p := &pricing.Profile{OwnerID: 5, Name: "city", Mode: "auto", Enabled: true}
	require.NoError(t, profiles.Create(ctx, scope.For(5), p))
	assert.ErrorIs(t, profiles.Delete(ctx, scope.For(6), p.ID), pricing.ErrProfileForbidden)

	rule := &pricing.Rule{ProfileID: p.ID, Name: "busy", Condition: pricing.OccupancyCondition{Threshold: 80}, Operator: pricing.OpGreater,
		Action: pricing.Action{Type: pricing.ActionIncrease, Value: decimal.NewFromInt(20), Unit: pricing.UnitPercent}, Enabled: true}
	require.NoError(t, rules.Create(ctx, scope.For(5), rule))

	pid := int64(p.ID)
	require.NoError(t, unitRepo.PutUnit(ctx, &units.Unit{ID: 9, OwnerID: 5, Name: "loft", BasePrice: decimal.NewFromInt(1000), PricingProfileID: &pid}))
	counts, err := unitRepo.CountByProfile(ctx, scope.For(5))
	require.NoError(t, err)
	assert.Equal(t, 1, counts[pid])

	require.NoError(t, profiles.Delete(ctx, scope.For(5), p.ID))
	_, err = rules.ByID(ctx, scope.Any(), rule.ID)
	assert.ErrorIs(t, err, pricing.ErrRuleNotFound)
	u, err := unitRepo.ByID(ctx, scope.Any(), 9)
	require.NoError(t, err)
	assert.False(t, u.HasProfile())
}
