package pricing

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"

	"rentpricing/internal/domain/shared/errs"
)

type ConditionKind string

const (
	ConditionOccupancy  ConditionKind = "occupancy"
	ConditionDaysBefore ConditionKind = "days_before"
	ConditionDayOfWeek  ConditionKind = "day_of_week"
)

type Operator string

const (
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpEqual        Operator = "="
)

func (o Operator) Valid() bool {
	switch o {
	case OpGreater, OpLess, OpGreaterEqual, OpLessEqual, OpEqual:
		return true
	}
	return false
}

// Condition is the trigger of a rule. The concrete types below are the only implementations.
type Condition interface {
	Kind() ConditionKind
	condition()
}

type OccupancyCondition struct {
	Threshold float64
}

// DaysBeforeCondition matches on lead time, gated by a maximum occupancy.
type DaysBeforeCondition struct {
	Days         int
	OccupancyMax float64
}

// DayOfWeekCondition holds weekdays with Monday = 0.
type DayOfWeekCondition struct {
	Days []int
}

// UnknownCondition keeps a stored condition the engine cannot interpret. It never matches.
type UnknownCondition struct {
	Type   string
	Raw    json.RawMessage
	Reason string
}

func (OccupancyCondition) Kind() ConditionKind  { return ConditionOccupancy }
func (DaysBeforeCondition) Kind() ConditionKind { return ConditionDaysBefore }
func (DayOfWeekCondition) Kind() ConditionKind  { return ConditionDayOfWeek }
func (c UnknownCondition) Kind() ConditionKind  { return ConditionKind(c.Type) }

func (OccupancyCondition) condition()  {}
func (DaysBeforeCondition) condition() {}
func (DayOfWeekCondition) condition()  {}
func (UnknownCondition) condition()    {}

type occupancyValue struct {
	Threshold *float64 `json:"threshold"`
}

type daysBeforeValue struct {
	Days         *int     `json:"days"`
	OccupancyMax *float64 `json:"occupancy_max,omitempty"`
}

type dayOfWeekValue struct {
	Days []int `json:"days"`
}

// DecodeCondition validates a condition_type / condition_value pair coming from a client.
func DecodeCondition(kind string, raw []byte) (Condition, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errs.Invalid("condition_value is required")
	}
	switch ConditionKind(kind) {
	case ConditionOccupancy:
		var v occupancyValue
		if err := decodeValue(raw, &v); err != nil {
			return nil, err
		}
		if v.Threshold == nil {
			return nil, errs.Invalid("occupancy condition requires threshold")
		}
		if *v.Threshold < 0 || *v.Threshold > 100 {
			return nil, errs.Invalid("occupancy threshold must be within 0..100")
		}
		return OccupancyCondition{Threshold: *v.Threshold}, nil
	case ConditionDaysBefore:
		var v daysBeforeValue
		if err := decodeValue(raw, &v); err != nil {
			return nil, err
		}
		if v.Days == nil {
			return nil, errs.Invalid("days_before condition requires days")
		}
		if *v.Days < 0 {
			return nil, errs.Invalid("days_before days must not be negative")
		}
		occupancyMax := 100.0
		if v.OccupancyMax != nil {
			occupancyMax = *v.OccupancyMax
		}
		if occupancyMax < 0 || occupancyMax > 100 {
			return nil, errs.Invalid("occupancy_max must be within 0..100")
		}
		return DaysBeforeCondition{Days: *v.Days, OccupancyMax: occupancyMax}, nil
	case ConditionDayOfWeek:
		var v dayOfWeekValue
		if err := decodeValue(raw, &v); err != nil {
			return nil, err
		}
		if len(v.Days) == 0 {
			return nil, errs.Invalid("day_of_week condition requires at least one day")
		}
		days := slices.Clone(v.Days)
		for _, d := range days {
			if d < 0 || d > 6 {
				return nil, errs.Invalid("day_of_week days must be within 0..6 (Monday = 0)")
			}
		}
		slices.Sort(days)
		return DayOfWeekCondition{Days: slices.Compact(days)}, nil
	default:
		return nil, errs.Invalid("unknown condition_type %q", kind)
	}
}

// LoadCondition decodes a stored condition. Rows written before validation existed may not
// decode; they come back as UnknownCondition instead of failing the whole rule set.
func LoadCondition(kind string, raw []byte) Condition {
	c, err := DecodeCondition(kind, raw)
	if err != nil {
		return UnknownCondition{Type: kind, Raw: append(json.RawMessage(nil), raw...), Reason: err.Error()}
	}
	return c
}

// EncodeCondition renders the condition_value JSON stored next to condition_type.
func EncodeCondition(c Condition) ([]byte, error) {
	switch v := c.(type) {
	case OccupancyCondition:
		return json.Marshal(occupancyValue{Threshold: &v.Threshold})
	case DaysBeforeCondition:
		return json.Marshal(daysBeforeValue{Days: &v.Days, OccupancyMax: &v.OccupancyMax})
	case DayOfWeekCondition:
		return json.Marshal(dayOfWeekValue{Days: v.Days})
	case UnknownCondition:
		if len(v.Raw) == 0 {
			return []byte("null"), nil
		}
		return v.Raw, nil
	default:
		return nil, errs.Invalid("unsupported condition")
	}
}

func decodeValue(raw []byte, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return errs.Invalid("malformed condition_value: %v", err)
	}
	return nil
}
