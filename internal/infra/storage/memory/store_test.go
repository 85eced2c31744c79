package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentpricing/internal/domain/booking"
	"rentpricing/internal/domain/pricing"
	"rentpricing/internal/domain/shared/daterange"
	"rentpricing/internal/domain/shared/errs"
	"rentpricing/internal/domain/shared/scope"
	"rentpricing/internal/domain/units"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := daterange.ParseDay(s)
	require.NoError(t, err)
	return d
}

func stay(t *testing.T, in, out string) daterange.DateRange {
	t.Helper()
	r, err := daterange.New(day(t, in), day(t, out))
	require.NoError(t, err)
	return r
}

func seededStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.PutUnit(ctx, &units.Unit{ID: 1, OwnerID: 10, Name: "Loft", BasePrice: decimal.NewFromInt(1000), DynamicPricingEnabled: true}))
	require.NoError(t, s.PutUnit(ctx, &units.Unit{ID: 2, OwnerID: 20, Name: "Cabin", BasePrice: decimal.NewFromInt(500)}))
	require.NoError(t, s.PutBooking(ctx, &booking.Booking{UnitID: 1, Range: stay(t, "2025-01-10", "2025-01-12"), Status: booking.StatusConfirmed}))
	return s
}

func TestOverlapBoundary(t *testing.T) {
	s := seededStore(t)
	repo := s.Bookings()
	ctx := context.Background()

	adjacent, err := repo.ExistsOverlap(ctx, 1, stay(t, "2025-01-12", "2025-01-14"), booking.ReservationStatuses)
	require.NoError(t, err)
	assert.False(t, adjacent)

	crossing, err := repo.ExistsOverlap(ctx, 1, stay(t, "2025-01-11", "2025-01-13"), booking.ReservationStatuses)
	require.NoError(t, err)
	assert.True(t, crossing)

	otherUnit, err := repo.ExistsOverlap(ctx, 2, stay(t, "2025-01-11", "2025-01-13"), booking.ReservationStatuses)
	require.NoError(t, err)
	assert.False(t, otherUnit)

	cancelledOnly, err := repo.ExistsOverlap(ctx, 1, stay(t, "2025-01-11", "2025-01-13"), []booking.Status{booking.StatusCancelled})
	require.NoError(t, err)
	assert.False(t, cancelledOnly)
}

func TestReserveIfFree(t *testing.T) {
	s := seededStore(t)
	repo := s.Bookings()
	ctx := context.Background()

	clash := &booking.Booking{UnitID: 1, Range: stay(t, "2025-01-11", "2025-01-15"), Status: booking.StatusPending}
	assert.ErrorIs(t, repo.ReserveIfFree(ctx, clash, booking.ReservationStatuses), booking.ErrOverlappingRange)

	free := &booking.Booking{UnitID: 1, Range: stay(t, "2025-01-12", "2025-01-15"), Status: booking.StatusPending}
	require.NoError(t, repo.ReserveIfFree(ctx, free, booking.ReservationStatuses))
	assert.NotZero(t, free.ID)

	n, err := repo.CountCovering(ctx, 1, day(t, "2025-01-13"), booking.ReservationStatuses)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = repo.CountCovering(ctx, 1, day(t, "2025-01-13"), booking.OccupancyStatuses)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestUnitScope(t *testing.T) {
	s := seededStore(t)
	repo := s.Units()
	ctx := context.Background()

	_, err := repo.ByID(ctx, scope.For(20), 1)
	assert.ErrorIs(t, err, errs.ErrForbidden)
	_, err = repo.ByID(ctx, scope.Any(), 99)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	n, err := repo.SetDynamicPricingAll(ctx, scope.For(20), true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	u, err := repo.ByID(ctx, scope.Any(), 2)
	require.NoError(t, err)
	assert.True(t, u.DynamicPricingEnabled)
}

func TestLogUpsertKeepsOriginalPrice(t *testing.T) {
	s := NewStore()
	repo := s.Logs()
	ctx := context.Background()
	d := day(t, "2025-02-01")

	require.NoError(t, repo.Upsert(ctx, pricing.CalculationLog{UnitID: 1, Date: d, OriginalPrice: decimal.NewFromInt(1000), FinalPrice: decimal.NewFromInt(1200), Source: pricing.SourceAutomatic}))
	require.NoError(t, repo.Upsert(ctx, pricing.CalculationLog{UnitID: 1, Date: d.Add(3 * time.Hour), OriginalPrice: decimal.NewFromInt(1500), FinalPrice: decimal.NewFromInt(1300), Source: pricing.SourceAutomatic}))

	logs, err := repo.List(ctx, 1, pricing.LogFilter{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "1000", logs[0].OriginalPrice.String())
	assert.Equal(t, "1300", logs[0].FinalPrice.String())
}

func TestLogListOrderAndLimit(t *testing.T) {
	s := NewStore()
	repo := s.Logs()
	ctx := context.Background()
	start := day(t, "2025-03-01")
	for i := 0; i < 40; i++ {
		require.NoError(t, repo.Upsert(ctx, pricing.CalculationLog{UnitID: 1, Date: start.AddDate(0, 0, i), FinalPrice: decimal.NewFromInt(int64(i))}))
	}
	logs, err := repo.List(ctx, 1, pricing.LogFilter{Limit: pricing.LogsRecentLimit})
	require.NoError(t, err)
	require.Len(t, logs, pricing.LogsRecentLimit)
	assert.Equal(t, start.AddDate(0, 0, 39), logs[0].Date)

	one := start.AddDate(0, 0, 5)
	logs, err = repo.List(ctx, 1, pricing.LogFilter{Date: &one, Limit: pricing.LogsPerDayLimit})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "5", logs[0].FinalPrice.String())
}

func TestProfileScopeAndCascade(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()
	profiles, rules := s.Profiles(), s.Rules()

	shared := &pricing.Profile{OwnerID: 0, Name: "Shared", Mode: "auto", Enabled: true}
	require.ErrorIs(t, profiles.Create(ctx, scope.For(10), shared), errs.ErrForbidden)
	require.NoError(t, profiles.Create(ctx, scope.Any(), shared))

	own := &pricing.Profile{OwnerID: 10, Name: "Mine", Mode: "auto", Enabled: true}
	require.NoError(t, profiles.Create(ctx, scope.For(10), own))

	visible, err := profiles.List(ctx, scope.For(10))
	require.NoError(t, err)
	assert.Len(t, visible, 2)
	visible, err = profiles.List(ctx, scope.For(20))
	require.NoError(t, err)
	assert.Len(t, visible, 1)

	_, err = profiles.ByID(ctx, scope.For(20), own.ID)
	assert.ErrorIs(t, err, errs.ErrForbidden)
	assert.ErrorIs(t, profiles.Update(ctx, scope.For(10), shared), errs.ErrForbidden)

	rule := &pricing.Rule{ProfileID: own.ID, Name: "r", Condition: pricing.OccupancyCondition{Threshold: 50}, Operator: pricing.OpGreater, Enabled: true}
	require.ErrorIs(t, rules.Create(ctx, scope.For(20), rule), errs.ErrForbidden)
	require.NoError(t, rules.Create(ctx, scope.For(10), rule))

	pid := int64(own.ID)
	require.NoError(t, s.PutUnit(ctx, &units.Unit{ID: 1, OwnerID: 10, BasePrice: decimal.NewFromInt(1000), PricingProfileID: &pid}))
	counts, err := s.Units().CountByProfile(ctx, scope.Any())
	require.NoError(t, err)
	assert.Equal(t, 1, counts[pid])

	require.NoError(t, profiles.Delete(ctx, scope.For(10), own.ID))
	_, err = rules.ByID(ctx, scope.Any(), rule.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	u, err := s.Units().ByID(ctx, scope.Any(), 1)
	require.NoError(t, err)
	assert.Nil(t, u.PricingProfileID)
}

func TestReadsDoNotAliasStoredSlices(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()
	profile := &pricing.Profile{OwnerID: 10, Name: "Weekend", Mode: "auto", Enabled: true}
	require.NoError(t, s.Profiles().Create(ctx, scope.Any(), profile))
	rule := &pricing.Rule{ProfileID: profile.ID, Name: "w", Condition: pricing.DayOfWeekCondition{Days: []int{5, 6}}, Enabled: true}
	require.NoError(t, s.Rules().Create(ctx, scope.Any(), rule))
	rule.Condition.(pricing.DayOfWeekCondition).Days[0] = 0

	got, err := s.Rules().ByID(ctx, scope.Any(), rule.ID)
	require.NoError(t, err)
	got.Condition.(pricing.DayOfWeekCondition).Days[0] = 1
	listed, err := s.Rules().ListByProfile(ctx, scope.Any(), profile.ID, true)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	listed[0].Condition.(pricing.DayOfWeekCondition).Days[1] = 2

	again, err := s.Rules().ByID(ctx, scope.Any(), rule.ID)
	require.NoError(t, err)
	assert.Equal(t, pricing.DayOfWeekCondition{Days: []int{5, 6}}, again.Condition)

	d := day(t, "2025-02-01")
	require.NoError(t, s.Logs().Upsert(ctx, pricing.CalculationLog{UnitID: 1, Date: d, FinalPrice: decimal.NewFromInt(1100),
		AppliedRules: []pricing.TraceEntry{{RuleID: rule.ID, RuleName: "w"}}}))
	logs, err := s.Logs().List(ctx, 1, pricing.LogFilter{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	logs[0].AppliedRules[0].RuleName = "changed"

	logs, err = s.Logs().List(ctx, 1, pricing.LogFilter{})
	require.NoError(t, err)
	assert.Equal(t, "w", logs[0].AppliedRules[0].RuleName)
}

type failingProducer struct {
	fail bool
	sent []string
}

func (p *failingProducer) Publish(_ context.Context, topic, key string, _ []byte, _ map[string]string) error {
	if p.fail {
		return fmt.Errorf("broker down")
	}
	p.sent = append(p.sent, topic+"/"+key)
	return nil
}

func TestOutboxFlushPublishes(t *testing.T) {
	producer := &failingProducer{fail: true}
	box := &Outbox{Producer: producer, TopicPrefix: "test."}
	ctx := context.Background()
	require.NoError(t, box.Add(ctx, outboxRecord("pricing.price_calculated", "1")))

	err := box.Flush(ctx)
	require.ErrorIs(t, err, errs.ErrUnavailable)
	assert.Len(t, box.Pending(), 1)

	producer.fail = false
	require.NoError(t, box.Flush(ctx))
	assert.Empty(t, box.Pending())
	assert.Equal(t, []string{"test.pricing.events.v1/1"}, producer.sent)
}

func TestIdempotencyStoreTTL(t *testing.T) {
	store := NewIdempotencyStore(time.Minute)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, idemRecord("fresh", time.Now())))
	require.NoError(t, store.Save(ctx, idemRecord("stale", time.Now().Add(-time.Hour))))

	_, found, err := store.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, found)
	_, found, err = store.Get(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestIdempotencyStoreEvictsExpired(t *testing.T) {
	store := NewIdempotencyStore(time.Minute)
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, idemRecord("a", now)))
	now = now.Add(2 * time.Minute)
	require.NoError(t, store.Save(ctx, idemRecord("b", now)))
	assert.Equal(t, 1, store.Len())
}
