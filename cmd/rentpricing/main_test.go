package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentpricing/internal/app/dto"
	"rentpricing/internal/infra/config"
)

func TestRootCommandStructure(t *testing.T) {
	root := newRootCmd()
	assert.Equal(t, "rentpricing", root.Use)

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["migrate"])
	assert.True(t, names["calendar"])
}

func TestCalendarFlags(t *testing.T) {
	cmd := newCalendarCmd()
	for _, name := range []string{"unit", "start", "end", "owner", "xlsx", "seed"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
	assert.NotNil(t, newServeCmd().Flags().Lookup("seed"))
	assert.NotNil(t, newMigrateCmd().Flags().Lookup("seed"))
}

func memoryApp(t *testing.T) *application {
	t.Helper()
	cfg := config.Config{
		Env:             "test",
		StoreDriver:     config.DriverMemory,
		CalendarMaxDays: 31,
		FixturesPath:    filepath.Join("..", "..", "data", "pricing.json"),
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	app, err := buildApplication(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { app.close(context.Background()) })
	require.NoError(t, app.storage.migrate(context.Background()))
	require.NoError(t, app.loadFixtures(context.Background(), cfg.FixturesPath))
	return app
}

func TestBuildApplicationMemoryDriver(t *testing.T) {
	app := memoryApp(t)
	assert.Nil(t, app.producer)
	assert.Nil(t, app.worker)
	assert.Empty(t, app.storage.checks)

	h := app.httpHandlers()
	assert.NotNil(t, h.Metrics)
}

func TestRunCalendarPrintsJSON(t *testing.T) {
	app := memoryApp(t)
	var out bytes.Buffer
	err := runCalendar(context.Background(), app.commands, calendarOptions{
		unitID: 101,
		start:  "2030-03-01",
		end:    "2030-03-07",
	}, &out)
	require.NoError(t, err)

	var cal dto.PriceCalendar
	require.NoError(t, json.Unmarshal(out.Bytes(), &cal))
	assert.Equal(t, int64(101), cal.UnitID)
	assert.Len(t, cal.Days, 7)
}

func TestRunCalendarWritesSpreadsheet(t *testing.T) {
	app := memoryApp(t)
	path := filepath.Join(t.TempDir(), "calendar.xlsx")
	var out bytes.Buffer
	err := runCalendar(context.Background(), app.commands, calendarOptions{
		unitID: 101,
		start:  "2030-03-01",
		end:    "2030-03-03",
		xlsx:   path,
	}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "wrote 3 days")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRunCalendarRejectsBadDay(t *testing.T) {
	app := memoryApp(t)
	err := runCalendar(context.Background(), app.commands, calendarOptions{unitID: 101, start: "March 1", end: "2030-03-02"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRunCalendarHidesForeignUnit(t *testing.T) {
	app := memoryApp(t)
	err := runCalendar(context.Background(), app.commands, calendarOptions{
		unitID: 101,
		owner:  7,
		start:  "2030-03-01",
		end:    "2030-03-02",
	}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRequestHeaders(t *testing.T) {
	assert.Nil(t, requestHeaders(context.Background()))
}
