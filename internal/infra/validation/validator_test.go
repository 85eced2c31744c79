package validation

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentpricing/internal/app/handlers/pricing"
	domainpricing "rentpricing/internal/domain/pricing"
	"rentpricing/internal/domain/shared/errs"
)

func TestValidateCommands(t *testing.T) {
	v := New()
	ctx := context.Background()

	err := v.Validate(ctx, pricing.CalculatePriceCommand{UnitID: 0})
	require.ErrorIs(t, err, errs.ErrInvalidInput)
	assert.Contains(t, err.Error(), "unit_id must be greater than 0")
	assert.Contains(t, err.Error(), "date is required")

	assert.NoError(t, v.Validate(ctx, pricing.CalculatePriceCommand{UnitID: 1, Date: time.Now()}))

	err = v.Validate(ctx, pricing.UpsertRuleCommand{Name: "x", ConditionType: "occupancy", ConditionValue: json.RawMessage(`{}`), ActionType: "set", ActionUnit: "percent"})
	require.ErrorIs(t, err, errs.ErrInvalidInput)
	assert.Contains(t, err.Error(), "profile_id is required")

	assert.Contains(t, err.Error(), "action_value is required")

	id := domainpricing.RuleID(3)
	value := decimal.NewFromInt(5)
	assert.NoError(t, v.Validate(ctx, pricing.UpsertRuleCommand{ID: &id, Name: "x", ConditionType: "occupancy", ConditionValue: json.RawMessage(`{}`), ActionType: "set", ActionValue: &value, ActionUnit: "percent"}))

	err = v.Validate(ctx, pricing.UpsertProfileCommand{Name: "x"})
	require.ErrorIs(t, err, errs.ErrInvalidInput)
	assert.Contains(t, err.Error(), "mode is required")
	assert.Contains(t, err.Error(), "min_price is required")
	assert.Contains(t, err.Error(), "max_price is required")

	open := decimal.NullDecimal{}
	assert.NoError(t, v.Validate(ctx, pricing.UpsertProfileCommand{Name: "x", Mode: "auto", MinPrice: &open, MaxPrice: &open}))
}

func TestValidateIgnoresNonStructs(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(context.Background(), "text"))
	assert.ErrorIs(t, v.Validate(context.Background(), nil), errs.ErrInvalidInput)
}

func TestToSnake(t *testing.T) {
	assert.Equal(t, "unit_id", toSnake("UnitID"))
	assert.Equal(t, "profile_id", toSnake("ProfileID"))
	assert.Equal(t, "condition_value", toSnake("ConditionValue"))
}
