package pricing

import (
	"context"
	"time"

	"rentpricing/internal/app/commands"
	"rentpricing/internal/app/dto"
	"rentpricing/internal/app/handlers/support"
	"rentpricing/internal/app/middleware"
	"rentpricing/internal/app/outbox"
	"rentpricing/internal/app/uow"
	domainpricing "rentpricing/internal/domain/pricing"
	"rentpricing/internal/domain/shared/scope"
	"rentpricing/internal/domain/units"
)

const toggleDynamicPricingKey = "pricing.toggle_dynamic"

// ToggleDynamicPricingCommand switches one unit, or every unit in scope when UnitID is nil.
type ToggleDynamicPricingCommand struct {
	UnitID          *units.UnitID `validate:"omitempty,gt=0"`
	Enabled         bool
	Owner           scope.Owner
	IdempotencyKeyV string `validate:"max=128"`
}

func (ToggleDynamicPricingCommand) Key() string { return toggleDynamicPricingKey }

func (c ToggleDynamicPricingCommand) OwnerScope() scope.Owner { return c.Owner }

func (c ToggleDynamicPricingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (ToggleDynamicPricingCommand) ResultPrototype() any { return &dto.ToggleResult{} }

type ToggleDynamicPricingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
}

func (h *ToggleDynamicPricingHandler) Handle(ctx context.Context, cmd ToggleDynamicPricingCommand) (*dto.ToggleResult, error) {
	result := &dto.ToggleResult{Enabled: cmd.Enabled}
	err := support.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		ev := domainpricing.DynamicPricingToggled{Enabled: cmd.Enabled, At: clockNow(h.Clock)}
		if cmd.UnitID != nil {
			if err := unit.Units().SetDynamicPricing(ctx, cmd.Owner, *cmd.UnitID, cmd.Enabled); err != nil {
				return err
			}
			id := int64(*cmd.UnitID)
			result.UnitID = &id
			result.Affected = 1
			ev.UnitID = *cmd.UnitID
		} else {
			n, err := unit.Units().SetDynamicPricingAll(ctx, cmd.Owner, cmd.Enabled)
			if err != nil {
				return err
			}
			result.Affected = n
		}
		ev.Affected = result.Affected
		return outbox.Record(ctx, h.Outbox, h.Encoder, ev)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func clockNow(clock func() time.Time) time.Time {
	if clock != nil {
		return clock().UTC()
	}
	return time.Now().UTC()
}

var (
	_ commands.Handler[ToggleDynamicPricingCommand, *dto.ToggleResult] = (*ToggleDynamicPricingHandler)(nil)
	_ middleware.IdempotentCommand                                     = ToggleDynamicPricingCommand{}
)
