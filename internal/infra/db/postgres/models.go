package postgres

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"rentpricing/internal/domain/booking"
	"rentpricing/internal/domain/pricing"
	"rentpricing/internal/domain/shared/daterange"
	"rentpricing/internal/domain/units"
)

type unitModel struct {
	ID                    int64           `gorm:"primaryKey"`
	OwnerID               int64           `gorm:"not null;index"`
	Name                  string          `gorm:"size:255;not null"`
	BasePrice             decimal.Decimal `gorm:"type:numeric;not null"`
	DynamicPricingEnabled bool            `gorm:"not null;default:false"`
	PricingProfileID      *int64          `gorm:"index"`
}

func (unitModel) TableName() string { return "units" }

func (m unitModel) toDomain() *units.Unit {
	return &units.Unit{
		ID:                    units.UnitID(m.ID),
		OwnerID:               m.OwnerID,
		Name:                  m.Name,
		BasePrice:             m.BasePrice,
		DynamicPricingEnabled: m.DynamicPricingEnabled,
		PricingProfileID:      m.PricingProfileID,
	}
}

type bookingModel struct {
	ID        int64     `gorm:"primaryKey"`
	UnitID    int64     `gorm:"not null;index:idx_bookings_unit_range,priority:1"`
	CheckIn   time.Time `gorm:"type:date;not null;index:idx_bookings_unit_range,priority:2"`
	CheckOut  time.Time `gorm:"type:date;not null;index:idx_bookings_unit_range,priority:3"`
	Status    string    `gorm:"size:32;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (bookingModel) TableName() string { return "bookings" }

type profileModel struct {
	ID        int64               `gorm:"primaryKey"`
	OwnerID   int64               `gorm:"not null;index"`
	Name      string              `gorm:"size:255;not null"`
	Mode      string              `gorm:"size:32;not null"`
	MinPrice  decimal.NullDecimal `gorm:"type:numeric"`
	MaxPrice  decimal.NullDecimal `gorm:"type:numeric"`
	IsDefault bool                `gorm:"not null;default:false"`
	Enabled   bool                `gorm:"not null"`
	CreatedAt time.Time           `gorm:"not null"`
	UpdatedAt time.Time           `gorm:"not null"`
}

func (profileModel) TableName() string { return "pricing_profiles" }

func newProfileModel(p pricing.Profile) profileModel {
	return profileModel{
		ID:        int64(p.ID),
		OwnerID:   p.OwnerID,
		Name:      p.Name,
		Mode:      p.Mode,
		MinPrice:  p.MinPrice,
		MaxPrice:  p.MaxPrice,
		IsDefault: p.IsDefault,
		Enabled:   p.Enabled,
		CreatedAt: p.CreatedAt.UTC(),
		UpdatedAt: p.UpdatedAt.UTC(),
	}
}

func (m profileModel) toDomain() pricing.Profile {
	return pricing.Profile{
		ID:        pricing.ProfileID(m.ID),
		OwnerID:   m.OwnerID,
		Name:      m.Name,
		Mode:      m.Mode,
		MinPrice:  m.MinPrice,
		MaxPrice:  m.MaxPrice,
		IsDefault: m.IsDefault,
		Enabled:   m.Enabled,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type ruleModel struct {
	ID                int64           `gorm:"primaryKey"`
	ProfileID         int64           `gorm:"not null;index"`
	Name              string          `gorm:"size:255;not null"`
	ConditionType     string          `gorm:"size:32;not null"`
	ConditionOperator string          `gorm:"size:4;not null"`
	ConditionValue    datatypes.JSON  `gorm:"not null"`
	ActionType        string          `gorm:"size:32;not null"`
	ActionValue       decimal.Decimal `gorm:"type:numeric;not null"`
	ActionUnit        string          `gorm:"size:32;not null"`
	Priority          int             `gorm:"not null;default:0"`
	Enabled           bool            `gorm:"not null"`
}

func (ruleModel) TableName() string { return "pricing_rules" }

func newRuleModel(r pricing.Rule) (ruleModel, error) {
	raw, err := pricing.EncodeCondition(r.Condition)
	if err != nil {
		return ruleModel{}, err
	}
	return ruleModel{
		ID:                int64(r.ID),
		ProfileID:         int64(r.ProfileID),
		Name:              r.Name,
		ConditionType:     string(r.Condition.Kind()),
		ConditionOperator: string(r.Operator),
		ConditionValue:    datatypes.JSON(raw),
		ActionType:        string(r.Action.Type),
		ActionValue:       r.Action.Value,
		ActionUnit:        string(r.Action.Unit),
		Priority:          r.Priority,
		Enabled:           r.Enabled,
	}, nil
}

func (m ruleModel) toDomain() pricing.Rule {
	return pricing.Rule{
		ID:        pricing.RuleID(m.ID),
		ProfileID: pricing.ProfileID(m.ProfileID),
		Name:      m.Name,
		Condition: pricing.LoadCondition(m.ConditionType, m.ConditionValue),
		Operator:  pricing.Operator(m.ConditionOperator),
		Action: pricing.Action{
			Type:  pricing.ActionType(m.ActionType),
			Value: m.ActionValue,
			Unit:  pricing.ActionUnit(m.ActionUnit),
		},
		Priority: m.Priority,
		Enabled:  m.Enabled,
	}
}

type logModel struct {
	ID                int64           `gorm:"primaryKey"`
	UnitID            int64           `gorm:"not null;uniqueIndex:idx_price_logs_unit_date,priority:1"`
	Date              time.Time       `gorm:"type:date;not null;uniqueIndex:idx_price_logs_unit_date,priority:2"`
	OriginalPrice     decimal.Decimal `gorm:"type:numeric;not null"`
	FinalPrice        decimal.Decimal `gorm:"type:numeric;not null"`
	AppliedRules      datatypes.JSON  `gorm:"not null"`
	CalculationSource string          `gorm:"size:32;not null"`
	CalculatedAt      time.Time       `gorm:"not null"`
}

func (logModel) TableName() string { return "price_calculation_logs" }

func newLogModel(log pricing.CalculationLog) (logModel, error) {
	trace := log.AppliedRules
	if trace == nil {
		trace = []pricing.TraceEntry{}
	}
	raw, err := json.Marshal(trace)
	if err != nil {
		return logModel{}, err
	}
	return logModel{
		UnitID:            int64(log.UnitID),
		Date:              daterange.Day(log.Date),
		OriginalPrice:     log.OriginalPrice,
		FinalPrice:        log.FinalPrice,
		AppliedRules:      datatypes.JSON(raw),
		CalculationSource: string(log.Source),
		CalculatedAt:      log.CalculatedAt.UTC(),
	}, nil
}

func (m logModel) toDomain() (pricing.CalculationLog, error) {
	trace := []pricing.TraceEntry{}
	if len(m.AppliedRules) > 0 {
		if err := json.Unmarshal(m.AppliedRules, &trace); err != nil {
			return pricing.CalculationLog{}, err
		}
	}
	return pricing.CalculationLog{
		UnitID:        units.UnitID(m.UnitID),
		Date:          daterange.Day(m.Date),
		OriginalPrice: m.OriginalPrice,
		FinalPrice:    m.FinalPrice,
		AppliedRules:  trace,
		Source:        pricing.Source(m.CalculationSource),
		CalculatedAt:  m.CalculatedAt.UTC(),
	}, nil
}

type idempotencyModel struct {
	Key        string    `gorm:"primaryKey;size:255"`
	Payload    []byte    `gorm:""`
	Error      string    `gorm:"type:text"`
	ErrorKind  string    `gorm:"size:32"`
	OccurredAt time.Time `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null;index"`
}

func (idempotencyModel) TableName() string { return "pricing_idempotency" }

type outboxModel struct {
	ID          string            `gorm:"primaryKey;size:64"`
	Name        string            `gorm:"size:128;not null"`
	Payload     []byte            `gorm:"not null"`
	OccurredAt  time.Time         `gorm:"not null"`
	Aggregate   string            `gorm:"size:64"`
	Headers     datatypes.JSONMap `gorm:""`
	State       string            `gorm:"size:16;not null;index:idx_outbox_due,priority:1"`
	Attempts    int               `gorm:"not null;default:0"`
	NextAttempt time.Time         `gorm:"not null;index:idx_outbox_due,priority:2"`
	CreatedAt   time.Time         `gorm:"not null"`
	ClaimedBy   string            `gorm:"size:128"`
	ClaimedAt   *time.Time        `gorm:""`
	SentAt      *time.Time        `gorm:""`
	LastError   string            `gorm:"type:text"`
}

func (outboxModel) TableName() string { return "pricing_outbox" }

func bookingStatuses(statuses []booking.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
