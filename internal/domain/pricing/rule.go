package pricing

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"rentpricing/internal/domain/shared/errs"
)

var ErrRuleNotFound = fmt.Errorf("%w: pricing rule", errs.ErrNotFound)

type RuleID int64

// Rule is a condition -> action pair folded over the base price in priority order.
type Rule struct {
	ID        RuleID
	ProfileID ProfileID
	Name      string
	Condition Condition
	Operator  Operator
	Action    Action
	Priority  int
	Enabled   bool
}

// RuleParams is the client-facing shape of a rule before validation.
type RuleParams struct {
	ProfileID      ProfileID
	Name           string
	ConditionType  string
	ConditionValue json.RawMessage
	Operator       string
	ActionType     string
	ActionValue    decimal.NullDecimal
	ActionUnit     string
	Priority       int
	Enabled        bool
}

func NewRule(params RuleParams) (*Rule, error) {
	if params.ProfileID <= 0 {
		return nil, errs.Invalid("rule profile_id is required")
	}
	r := &Rule{ProfileID: params.ProfileID}
	if err := r.Apply(params); err != nil {
		return nil, err
	}
	return r, nil
}

// Apply validates params and overwrites the rule. The owning profile never changes.
func (r *Rule) Apply(params RuleParams) error {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return errs.Invalid("rule name is required")
	}
	cond, err := DecodeCondition(params.ConditionType, params.ConditionValue)
	if err != nil {
		return err
	}
	op := Operator(strings.TrimSpace(params.Operator))
	if cond.Kind() == ConditionDayOfWeek && op == "" {
		op = OpEqual
	}
	if !op.Valid() {
		return errs.Invalid("unknown condition_operator %q", params.Operator)
	}
	actionType, err := ParseActionType(params.ActionType)
	if err != nil {
		return err
	}
	unit, err := ParseActionUnit(params.ActionUnit)
	if err != nil {
		return err
	}
	if !params.ActionValue.Valid {
		return errs.Invalid("action_value is required")
	}
	action := Action{Type: actionType, Value: params.ActionValue.Decimal, Unit: unit}
	if err := action.Validate(); err != nil {
		return err
	}
	r.Name = name
	r.Condition = cond
	r.Operator = op
	r.Action = action
	r.Priority = params.Priority
	r.Enabled = params.Enabled
	return nil
}

// SkipReason explains why a stored rule cannot take part in a calculation.
type SkipReason string

const (
	SkipUnknownCondition SkipReason = "unknown_condition"
	SkipUnknownOperator  SkipReason = "unknown_operator"
	SkipUnknownAction    SkipReason = "unknown_action"
)

// Malformed returns a non-empty reason for rules that can never be evaluated safely.
func (r Rule) Malformed() SkipReason {
	switch r.Condition.(type) {
	case OccupancyCondition, DaysBeforeCondition:
		if !r.Operator.Valid() {
			return SkipUnknownOperator
		}
	case DayOfWeekCondition:
	default:
		return SkipUnknownCondition
	}
	if r.Action.Validate() != nil {
		return SkipUnknownAction
	}
	return ""
}

// SortRules orders rules by priority DESC, id ASC.
func SortRules(rules []Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority > rules[j].Priority
		}
		return rules[i].ID < rules[j].ID
	})
}
