package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"rentpricing/internal/domain/units"
)

type Source string

const (
	SourceAutomatic Source = "automatic"
	SourceManual    Source = "manual"
)

const (
	// LogsPerDayLimit bounds GetCalculationLogs for a single date.
	LogsPerDayLimit = 10
	// LogsRecentLimit bounds GetCalculationLogs across dates.
	LogsRecentLimit = 30
)

// CalculationLog is the latest automatic decision for a (unit, date) pair. It is overwritten in
// place on every recalculation except OriginalPrice, which keeps the value of the first insert.
type CalculationLog struct {
	UnitID        units.UnitID
	Date          time.Time
	OriginalPrice decimal.Decimal
	FinalPrice    decimal.Decimal
	AppliedRules  []TraceEntry
	Source        Source
	CalculatedAt  time.Time
}

// LogFilter selects logs of one unit, optionally narrowed to a single date.
type LogFilter struct {
	Date  *time.Time
	Limit int
}
