package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"rentpricing/internal/domain/pricing"
	"rentpricing/internal/domain/shared/daterange"
)

// PriceResult is the response of a single price calculation.
type PriceResult struct {
	UnitID         int64                `json:"unit_id"`
	Date           string               `json:"date"`
	Price          decimal.Decimal      `json:"price"`
	OriginalPrice  decimal.Decimal      `json:"original_price"`
	AppliedRules   []pricing.TraceEntry `json:"applied_rules"`
	Source         string               `json:"source"`
	DynamicEnabled bool                 `json:"dynamic_enabled"`
	Occupancy      *float64             `json:"occupancy,omitempty"`
	DaysBefore     *int                 `json:"days_before,omitempty"`
}

type PriceCalendar struct {
	UnitID int64         `json:"unit_id"`
	Start  string        `json:"start"`
	End    string        `json:"end"`
	Days   []PriceResult `json:"days"`
}

// MapCalculation renders a calculation; occupancy and lead time are only reported for
// automatic calculations.
func MapCalculation(c pricing.Calculation) PriceResult {
	out := PriceResult{
		UnitID:         int64(c.UnitID),
		Date:           daterange.FormatDay(c.Date),
		Price:          c.Price,
		OriginalPrice:  c.OriginalPrice,
		AppliedRules:   c.AppliedRules,
		Source:         string(c.Source),
		DynamicEnabled: c.DynamicEnabled,
	}
	if out.AppliedRules == nil {
		out.AppliedRules = []pricing.TraceEntry{}
	}
	if c.Source == pricing.SourceAutomatic {
		occupancy, days := c.Occupancy, c.DaysBefore
		out.Occupancy = &occupancy
		out.DaysBefore = &days
	}
	return out
}

type Profile struct {
	ID        int64            `json:"id"`
	OwnerID   int64            `json:"owner_id"`
	Name      string           `json:"name"`
	Mode      string           `json:"mode"`
	MinPrice  *decimal.Decimal `json:"min_price"`
	MaxPrice  *decimal.Decimal `json:"max_price"`
	IsDefault bool             `json:"is_default"`
	Enabled   bool             `json:"enabled"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type ProfileSummary struct {
	Profile
	UnitsCount int `json:"units_count"`
}

type ProfileDetail struct {
	Profile
	Rules []Rule `json:"rules"`
}

type Rule struct {
	ID                int64           `json:"id"`
	ProfileID         int64           `json:"profile_id"`
	Name              string          `json:"name"`
	ConditionType     string          `json:"condition_type"`
	ConditionOperator string          `json:"condition_operator"`
	ConditionValue    json.RawMessage `json:"condition_value"`
	ActionType        string          `json:"action_type"`
	ActionValue       decimal.Decimal `json:"action_value"`
	ActionUnit        string          `json:"action_unit"`
	Priority          int             `json:"priority"`
	Enabled           bool            `json:"enabled"`
}

type CalculationLog struct {
	UnitID            int64                `json:"unit_id"`
	Date              string               `json:"date"`
	OriginalPrice     decimal.Decimal      `json:"original_price"`
	FinalPrice        decimal.Decimal      `json:"final_price"`
	AppliedRules      []pricing.TraceEntry `json:"applied_rules"`
	CalculationSource string               `json:"calculation_source"`
	CalculatedAt      time.Time            `json:"calculated_at"`
}

type ToggleResult struct {
	UnitID   *int64 `json:"unit_id,omitempty"`
	Enabled  bool   `json:"enabled"`
	Affected int64  `json:"affected"`
}

func MapProfile(p pricing.Profile) Profile {
	return Profile{
		ID:        int64(p.ID),
		OwnerID:   p.OwnerID,
		Name:      p.Name,
		Mode:      p.Mode,
		MinPrice:  nullable(p.MinPrice),
		MaxPrice:  nullable(p.MaxPrice),
		IsDefault: p.IsDefault,
		Enabled:   p.Enabled,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func MapProfileSummary(s pricing.ProfileSummary) ProfileSummary {
	return ProfileSummary{Profile: MapProfile(s.Profile), UnitsCount: s.UnitsCount}
}

func MapProfileDetail(p pricing.Profile, rules []pricing.Rule) ProfileDetail {
	return ProfileDetail{Profile: MapProfile(p), Rules: MapRules(rules)}
}

func MapRule(r pricing.Rule) Rule {
	raw, err := pricing.EncodeCondition(r.Condition)
	if err != nil {
		raw = []byte("null")
	}
	kind := ""
	if r.Condition != nil {
		kind = string(r.Condition.Kind())
	}
	return Rule{
		ID:                int64(r.ID),
		ProfileID:         int64(r.ProfileID),
		Name:              r.Name,
		ConditionType:     kind,
		ConditionOperator: string(r.Operator),
		ConditionValue:    raw,
		ActionType:        string(r.Action.Type),
		ActionValue:       r.Action.Value,
		ActionUnit:        string(r.Action.Unit),
		Priority:          r.Priority,
		Enabled:           r.Enabled,
	}
}

func MapRules(rules []pricing.Rule) []Rule {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		out = append(out, MapRule(r))
	}
	return out
}

func MapCalculationLogs(logs []pricing.CalculationLog) []CalculationLog {
	out := make([]CalculationLog, 0, len(logs))
	for _, l := range logs {
		applied := l.AppliedRules
		if applied == nil {
			applied = []pricing.TraceEntry{}
		}
		out = append(out, CalculationLog{
			UnitID:            int64(l.UnitID),
			Date:              daterange.FormatDay(l.Date),
			OriginalPrice:     l.OriginalPrice,
			FinalPrice:        l.FinalPrice,
			AppliedRules:      applied,
			CalculationSource: string(l.Source),
			CalculatedAt:      l.CalculatedAt,
		})
	}
	return out
}

func nullable(v decimal.NullDecimal) *decimal.Decimal {
	if !v.Valid {
		return nil
	}
	d := v.Decimal
	return &d
}

type Deleted struct {
	ID      int64 `json:"id"`
	Deleted bool  `json:"deleted"`
}
