package xlsx

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"rentpricing/internal/app/dto"
	"rentpricing/internal/domain/pricing"
)

func TestCalendarWorkbook(t *testing.T) {
	occupancy, days := 100.0, 9
	cal := dto.PriceCalendar{
		UnitID: 7,
		Start:  "2025-01-10",
		End:    "2025-01-11",
		Days: []dto.PriceResult{
			{
				Date:          "2025-01-10",
				Price:         decimal.NewFromInt(1200),
				OriginalPrice: decimal.NewFromInt(1000),
				Source:        "automatic",
				Occupancy:     &occupancy,
				DaysBefore:    &days,
				AppliedRules:  []pricing.TraceEntry{{RuleName: "busy"}, {RuleName: "weekend"}},
			},
			{Date: "2025-01-11", Price: decimal.NewFromInt(1000), OriginalPrice: decimal.NewFromInt(1000), Source: "manual"},
		},
	}

	buf, err := Calendar(cal)
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("unit_7")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "date", rows[0][0])
	assert.Equal(t, []string{"2025-01-10", "1200", "1000", "automatic", "100", "9", "busy, weekend"}, rows[1])
	assert.Equal(t, "manual", rows[2][3])
	assert.Equal(t, "price_calendar_7_2025-01-10_2025-01-11.xlsx", Filename(cal))
}
