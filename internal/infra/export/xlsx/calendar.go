// Package xlsx renders price calendars as spreadsheets for owners who plan rates offline.
package xlsx

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"rentpricing/internal/app/dto"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var header = []any{"date", "price", "original_price", "source", "occupancy", "days_before", "applied_rules"}

// Calendar writes one row per day to a single sheet named after the unit.
func Calendar(cal dto.PriceCalendar) (*bytes.Buffer, error) {
	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := fmt.Sprintf("unit_%d", cal.UnitID)
	if err := xl.SetSheetName(xl.GetSheetName(0), sheet); err != nil {
		return nil, err
	}
	if err := xl.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, day := range cal.Days {
		row := []any{
			day.Date,
			day.Price.InexactFloat64(),
			day.OriginalPrice.InexactFloat64(),
			day.Source,
			optionalFloat(day.Occupancy),
			optionalInt(day.DaysBefore),
			ruleNames(day),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := xl.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}
	if err := xl.SetColWidth(sheet, "A", "A", 12); err != nil {
		return nil, err
	}
	if err := xl.SetColWidth(sheet, "G", "G", 40); err != nil {
		return nil, err
	}
	return xl.WriteToBuffer()
}

// Filename is the attachment name used by the HTTP and CLI exports.
func Filename(cal dto.PriceCalendar) string {
	return fmt.Sprintf("price_calendar_%d_%s_%s.xlsx", cal.UnitID, cal.Start, cal.End)
}

func ruleNames(day dto.PriceResult) string {
	names := make([]string, 0, len(day.AppliedRules))
	for _, r := range day.AppliedRules {
		names = append(names, r.RuleName)
	}
	return strings.Join(names, ", ")
}

func optionalFloat(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func optionalInt(v *int) any {
	if v == nil {
		return ""
	}
	return *v
}
