package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"rentpricing/internal/domain/shared/errs"
)

type ActionType string

const (
	ActionIncrease ActionType = "increase"
	ActionDecrease ActionType = "decrease"
	ActionSet      ActionType = "set"
)

type ActionUnit string

const (
	UnitPercent  ActionUnit = "percent"
	UnitAbsolute ActionUnit = "absolute"
)

// ParseActionUnit accepts "fixed" as a synonym of absolute; older clients send it.
func ParseActionUnit(raw string) (ActionUnit, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "percent", "%":
		return UnitPercent, nil
	case "absolute", "fixed":
		return UnitAbsolute, nil
	default:
		return "", errs.Invalid("unknown action unit %q", raw)
	}
}

func ParseActionType(raw string) (ActionType, error) {
	switch t := ActionType(strings.ToLower(strings.TrimSpace(raw))); t {
	case ActionIncrease, ActionDecrease, ActionSet:
		return t, nil
	default:
		return "", errs.Invalid("unknown action type %q", raw)
	}
}

// Action describes how a matched rule changes the running price.
type Action struct {
	Type  ActionType
	Value decimal.Decimal
	Unit  ActionUnit
}

func (a Action) Validate() error {
	if _, err := ParseActionType(string(a.Type)); err != nil {
		return err
	}
	if _, err := ParseActionUnit(string(a.Unit)); err != nil {
		return err
	}
	if a.Value.IsNegative() {
		return errs.Invalid("action value must not be negative")
	}
	return nil
}

// Apply returns the price after the action. ok is false for an action type or unit the
// engine does not know; the price is then returned unchanged.
func Apply(price decimal.Decimal, a Action) (next decimal.Decimal, ok bool) {
	switch a.Type {
	case ActionSet:
		return a.Value, true
	case ActionIncrease:
		switch a.Unit {
		case UnitPercent:
			return price.Mul(decimal.NewFromInt(1).Add(a.Value.Shift(-2))), true
		case UnitAbsolute:
			return price.Add(a.Value), true
		}
	case ActionDecrease:
		switch a.Unit {
		case UnitPercent:
			return price.Mul(decimal.NewFromInt(1).Sub(a.Value.Shift(-2))), true
		case UnitAbsolute:
			return price.Sub(a.Value), true
		}
	}
	return price, false
}
