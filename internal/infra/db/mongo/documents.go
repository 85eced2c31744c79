package mongo

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"rentpricing/internal/domain/booking"
	"rentpricing/internal/domain/pricing"
	"rentpricing/internal/domain/shared/daterange"
	"rentpricing/internal/domain/units"
)

type unitDocument struct {
	ID                    int64                `bson:"_id"`
	OwnerID               int64                `bson:"owner_id"`
	Name                  string               `bson:"name"`
	BasePrice             primitive.Decimal128 `bson:"base_price"`
	DynamicPricingEnabled bool                 `bson:"dynamic_pricing_enabled"`
	PricingProfileID      *int64               `bson:"pricing_profile_id,omitempty"`
}

func newUnitDocument(u units.Unit) (unitDocument, error) {
	price, err := toDecimal128(u.BasePrice)
	if err != nil {
		return unitDocument{}, err
	}
	return unitDocument{
		ID:                    int64(u.ID),
		OwnerID:               u.OwnerID,
		Name:                  u.Name,
		BasePrice:             price,
		DynamicPricingEnabled: u.DynamicPricingEnabled,
		PricingProfileID:      u.PricingProfileID,
	}, nil
}

func (d unitDocument) toDomain() (*units.Unit, error) {
	price, err := fromDecimal128(d.BasePrice)
	if err != nil {
		return nil, err
	}
	return &units.Unit{
		ID:                    units.UnitID(d.ID),
		OwnerID:               d.OwnerID,
		Name:                  d.Name,
		BasePrice:             price,
		DynamicPricingEnabled: d.DynamicPricingEnabled,
		PricingProfileID:      d.PricingProfileID,
	}, nil
}

type bookingDocument struct {
	ID        int64     `bson:"_id"`
	UnitID    int64     `bson:"unit_id"`
	CheckIn   time.Time `bson:"check_in"`
	CheckOut  time.Time `bson:"check_out"`
	Status    string    `bson:"status"`
	CreatedAt time.Time `bson:"created_at"`
}

func newBookingDocument(b booking.Booking) bookingDocument {
	return bookingDocument{
		ID:        int64(b.ID),
		UnitID:    int64(b.UnitID),
		CheckIn:   daterange.Day(b.Range.CheckIn),
		CheckOut:  daterange.Day(b.Range.CheckOut),
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt.UTC(),
	}
}

type profileDocument struct {
	ID        int64                 `bson:"_id"`
	OwnerID   int64                 `bson:"owner_id"`
	Name      string                `bson:"name"`
	Mode      string                `bson:"mode"`
	MinPrice  *primitive.Decimal128 `bson:"min_price,omitempty"`
	MaxPrice  *primitive.Decimal128 `bson:"max_price,omitempty"`
	IsDefault bool                  `bson:"is_default"`
	Enabled   bool                  `bson:"enabled"`
	CreatedAt time.Time             `bson:"created_at"`
	UpdatedAt time.Time             `bson:"updated_at"`
}

func newProfileDocument(p pricing.Profile) (profileDocument, error) {
	minPrice, err := nullableDecimal128(p.MinPrice)
	if err != nil {
		return profileDocument{}, err
	}
	maxPrice, err := nullableDecimal128(p.MaxPrice)
	if err != nil {
		return profileDocument{}, err
	}
	return profileDocument{
		ID:        int64(p.ID),
		OwnerID:   p.OwnerID,
		Name:      p.Name,
		Mode:      p.Mode,
		MinPrice:  minPrice,
		MaxPrice:  maxPrice,
		IsDefault: p.IsDefault,
		Enabled:   p.Enabled,
		CreatedAt: p.CreatedAt.UTC(),
		UpdatedAt: p.UpdatedAt.UTC(),
	}, nil
}

func (d profileDocument) toDomain() (*pricing.Profile, error) {
	minPrice, err := nullDecimal(d.MinPrice)
	if err != nil {
		return nil, err
	}
	maxPrice, err := nullDecimal(d.MaxPrice)
	if err != nil {
		return nil, err
	}
	return &pricing.Profile{
		ID:        pricing.ProfileID(d.ID),
		OwnerID:   d.OwnerID,
		Name:      d.Name,
		Mode:      d.Mode,
		MinPrice:  minPrice,
		MaxPrice:  maxPrice,
		IsDefault: d.IsDefault,
		Enabled:   d.Enabled,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

type ruleDocument struct {
	ID                int64                `bson:"_id"`
	ProfileID         int64                `bson:"profile_id"`
	Name              string               `bson:"name"`
	ConditionType     string               `bson:"condition_type"`
	ConditionOperator string               `bson:"condition_operator"`
	ConditionValue    bson.M               `bson:"condition_value"`
	ActionType        string               `bson:"action_type"`
	ActionValue       primitive.Decimal128 `bson:"action_value"`
	ActionUnit        string               `bson:"action_unit"`
	Priority          int                  `bson:"priority"`
	Enabled           bool                 `bson:"enabled"`
}

func newRuleDocument(r pricing.Rule) (ruleDocument, error) {
	raw, err := pricing.EncodeCondition(r.Condition)
	if err != nil {
		return ruleDocument{}, err
	}
	var value bson.M
	if err := bson.UnmarshalExtJSON(raw, false, &value); err != nil {
		return ruleDocument{}, fmt.Errorf("condition_value: %w", err)
	}
	amount, err := toDecimal128(r.Action.Value)
	if err != nil {
		return ruleDocument{}, err
	}
	return ruleDocument{
		ID:                int64(r.ID),
		ProfileID:         int64(r.ProfileID),
		Name:              r.Name,
		ConditionType:     string(r.Condition.Kind()),
		ConditionOperator: string(r.Operator),
		ConditionValue:    value,
		ActionType:        string(r.Action.Type),
		ActionValue:       amount,
		ActionUnit:        string(r.Action.Unit),
		Priority:          r.Priority,
		Enabled:           r.Enabled,
	}, nil
}

// toDomain never fails on the condition: rows that no longer decode load as an unknown
// condition and are skipped at evaluation time.
func (d ruleDocument) toDomain() (*pricing.Rule, error) {
	amount, err := fromDecimal128(d.ActionValue)
	if err != nil {
		return nil, err
	}
	raw, err := bson.MarshalExtJSON(d.ConditionValue, false, false)
	if err != nil {
		raw = json.RawMessage("null")
	}
	return &pricing.Rule{
		ID:        pricing.RuleID(d.ID),
		ProfileID: pricing.ProfileID(d.ProfileID),
		Name:      d.Name,
		Condition: pricing.LoadCondition(d.ConditionType, raw),
		Operator:  pricing.Operator(d.ConditionOperator),
		Action: pricing.Action{
			Type:  pricing.ActionType(d.ActionType),
			Value: amount,
			Unit:  pricing.ActionUnit(d.ActionUnit),
		},
		Priority: d.Priority,
		Enabled:  d.Enabled,
	}, nil
}

type traceDocument struct {
	RuleID      int64                `bson:"rule_id"`
	RuleName    string               `bson:"rule_name"`
	PriceBefore primitive.Decimal128 `bson:"price_before"`
	PriceAfter  primitive.Decimal128 `bson:"price_after"`
	Delta       primitive.Decimal128 `bson:"delta"`
}

type logDocument struct {
	UnitID            int64                `bson:"unit_id"`
	Date              time.Time            `bson:"date"`
	OriginalPrice     primitive.Decimal128 `bson:"original_price"`
	FinalPrice        primitive.Decimal128 `bson:"final_price"`
	AppliedRules      []traceDocument      `bson:"applied_rules"`
	CalculationSource string               `bson:"calculation_source"`
	CalculatedAt      time.Time            `bson:"calculated_at"`
}

func newTraceDocuments(trace []pricing.TraceEntry) ([]traceDocument, error) {
	out := make([]traceDocument, 0, len(trace))
	for _, e := range trace {
		before, err := toDecimal128(e.PriceBefore)
		if err != nil {
			return nil, err
		}
		after, err := toDecimal128(e.PriceAfter)
		if err != nil {
			return nil, err
		}
		delta, err := toDecimal128(e.Delta)
		if err != nil {
			return nil, err
		}
		out = append(out, traceDocument{RuleID: int64(e.RuleID), RuleName: e.RuleName, PriceBefore: before, PriceAfter: after, Delta: delta})
	}
	return out, nil
}

func (d logDocument) toDomain() (pricing.CalculationLog, error) {
	original, err := fromDecimal128(d.OriginalPrice)
	if err != nil {
		return pricing.CalculationLog{}, err
	}
	final, err := fromDecimal128(d.FinalPrice)
	if err != nil {
		return pricing.CalculationLog{}, err
	}
	trace := make([]pricing.TraceEntry, 0, len(d.AppliedRules))
	for _, e := range d.AppliedRules {
		before, err := fromDecimal128(e.PriceBefore)
		if err != nil {
			return pricing.CalculationLog{}, err
		}
		after, err := fromDecimal128(e.PriceAfter)
		if err != nil {
			return pricing.CalculationLog{}, err
		}
		delta, err := fromDecimal128(e.Delta)
		if err != nil {
			return pricing.CalculationLog{}, err
		}
		trace = append(trace, pricing.TraceEntry{RuleID: pricing.RuleID(e.RuleID), RuleName: e.RuleName, PriceBefore: before, PriceAfter: after, Delta: delta})
	}
	return pricing.CalculationLog{
		UnitID:        units.UnitID(d.UnitID),
		Date:          d.Date.UTC(),
		OriginalPrice: original,
		FinalPrice:    final,
		AppliedRules:  trace,
		Source:        pricing.Source(d.CalculationSource),
		CalculatedAt:  d.CalculatedAt.UTC(),
	}, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("decimal %s does not fit decimal128: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(v.String())
}

func nullableDecimal128(v decimal.NullDecimal) (*primitive.Decimal128, error) {
	if !v.Valid {
		return nil, nil
	}
	d, err := toDecimal128(v.Decimal)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func nullDecimal(v *primitive.Decimal128) (decimal.NullDecimal, error) {
	if v == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := fromDecimal128(*v)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
