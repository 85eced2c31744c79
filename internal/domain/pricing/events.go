package pricing

import (
	"strconv"
	"time"

	"rentpricing/internal/domain/shared/daterange"
	"rentpricing/internal/domain/units"
)

type PriceCalculated struct {
	UnitID        units.UnitID `json:"unit_id"`
	Date          string       `json:"date"`
	OriginalPrice string       `json:"original_price"`
	FinalPrice    string       `json:"final_price"`
	RulesApplied  int          `json:"rules_applied"`
	At            time.Time    `json:"at"`
}

func NewPriceCalculated(log CalculationLog) PriceCalculated {
	return PriceCalculated{
		UnitID:        log.UnitID,
		Date:          daterange.FormatDay(log.Date),
		OriginalPrice: log.OriginalPrice.String(),
		FinalPrice:    log.FinalPrice.String(),
		RulesApplied:  len(log.AppliedRules),
		At:            log.CalculatedAt,
	}
}

func (e PriceCalculated) EventName() string     { return "pricing.price_calculated" }
func (e PriceCalculated) AggregateID() string   { return strconv.FormatInt(int64(e.UnitID), 10) }
func (e PriceCalculated) OccurredAt() time.Time { return e.At }

// DynamicPricingToggled is raised for a single unit or, with UnitID 0, for every unit in scope.
type DynamicPricingToggled struct {
	UnitID   units.UnitID `json:"unit_id"`
	Enabled  bool         `json:"enabled"`
	Affected int64        `json:"affected"`
	At       time.Time    `json:"at"`
}

func (e DynamicPricingToggled) EventName() string { return "pricing.dynamic_toggled" }
func (e DynamicPricingToggled) AggregateID() string {
	if e.UnitID == 0 {
		return "all"
	}
	return strconv.FormatInt(int64(e.UnitID), 10)
}
func (e DynamicPricingToggled) OccurredAt() time.Time { return e.At }
