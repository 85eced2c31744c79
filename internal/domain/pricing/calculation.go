package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"rentpricing/internal/domain/units"
)

// Calculation is the outcome of pricing one unit for one day.
type Calculation struct {
	UnitID         units.UnitID
	Date           time.Time
	Price          decimal.Decimal
	OriginalPrice  decimal.Decimal
	AppliedRules   []TraceEntry
	Source         Source
	DynamicEnabled bool
	Occupancy      float64
	DaysBefore     int
}

// ManualCalculation is returned for units with dynamic pricing switched off.
func ManualCalculation(unit units.Unit, day time.Time) Calculation {
	return Calculation{
		UnitID:        unit.ID,
		Date:          day,
		Price:         unit.BasePrice,
		OriginalPrice: unit.BasePrice,
		AppliedRules:  []TraceEntry{},
		Source:        SourceManual,
	}
}

// Log builds the calculation log row persisted for automatic calculations.
func (c Calculation) Log(at time.Time) CalculationLog {
	return CalculationLog{
		UnitID:        c.UnitID,
		Date:          c.Date,
		OriginalPrice: c.OriginalPrice,
		FinalPrice:    c.Price,
		AppliedRules:  c.AppliedRules,
		Source:        c.Source,
		CalculatedAt:  at.UTC(),
	}
}
