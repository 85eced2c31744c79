package fixtures

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentpricing/internal/domain/booking"
	"rentpricing/internal/domain/pricing"
	"rentpricing/internal/domain/shared/daterange"
	"rentpricing/internal/domain/shared/scope"
	"rentpricing/internal/infra/storage/memory"
)

var loadDay = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

func newLoader(store *memory.Store) Loader {
	return Loader{
		Factory: memory.Factory{Store: store},
		Units:   store,
		Now:     func() time.Time { return loadDay },
	}
}

func TestLoadBundledFixtures(t *testing.T) {
	store := memory.NewStore()
	sum, err := newLoader(store).LoadFile(context.Background(), filepath.Join("..", "..", "..", "data", "pricing.json"))
	require.NoError(t, err)
	assert.Equal(t, Summary{Profiles: 2, Rules: 4, Units: 4, Bookings: 5}, sum)

	ctx := context.Background()
	loft, err := store.Units().ByID(ctx, scope.For(42), 101)
	require.NoError(t, err)
	require.True(t, loft.HasProfile())
	profile, err := store.Profiles().ByID(ctx, scope.For(42), pricing.ProfileID(*loft.PricingProfileID))
	require.NoError(t, err)
	assert.Equal(t, "City apartments", profile.Name)
	assert.True(t, profile.Enabled)

	rules, err := store.Rules().ListByProfile(ctx, scope.Any(), profile.ID, true)
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, "High occupancy", rules[0].Name)

	n, err := store.Bookings().CountCovering(ctx, 101, daterange.Day(loadDay).AddDate(0, 0, 2), booking.OccupancyStatuses)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLoadSkipsInvalidEntries(t *testing.T) {
	store := memory.NewStore()
	f := File{
		Profiles: []ProfileFixture{
			{Key: "ok", Name: "ok", Rules: []RuleFixture{{Name: "broken", ConditionType: "season"}}},
			{Key: "nameless"},
		},
		Units: []UnitFixture{{ID: 1, OwnerID: 1, Name: "a", Profile: "missing"}},
		Bookings: []BookingFixture{
			{UnitID: 1, CheckInAfter: 1, Nights: 2},
			{UnitID: 1, CheckInAfter: 2, Nights: 2},
			{UnitID: 1, CheckInAfter: 5, Nights: 0},
			{UnitID: 1, CheckInAfter: 9, Nights: 1, Status: "unknown"},
		},
	}
	sum, err := newLoader(store).Load(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, Summary{Profiles: 1, Units: 1, Bookings: 1}, sum)

	u, err := store.Units().ByID(context.Background(), scope.Any(), 1)
	require.NoError(t, err)
	assert.False(t, u.HasProfile())
}

func TestMissingFileIsSkipped(t *testing.T) {
	sum, err := newLoader(memory.NewStore()).LoadFile(context.Background(), filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.Zero(t, sum)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = newLoader(memory.NewStore()).LoadFile(context.Background(), bad)
	assert.Error(t, err)
}
