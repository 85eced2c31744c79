package pricing

import (
	"context"
	"time"

	"rentpricing/internal/app/commands"
	"rentpricing/internal/app/dto"
	"rentpricing/internal/app/handlers/support"
	"rentpricing/internal/app/uow"
	"rentpricing/internal/domain/shared/scope"
	"rentpricing/internal/domain/units"
)

const calculatePriceKey = "pricing.calculate"

type CalculatePriceCommand struct {
	UnitID units.UnitID `validate:"gt=0"`
	Date   time.Time    `validate:"required"`
	Owner  scope.Owner
}

func (CalculatePriceCommand) Key() string { return calculatePriceKey }

func (c CalculatePriceCommand) OwnerScope() scope.Owner { return c.Owner }

type CalculatePriceHandler struct {
	UoWFactory uow.UoWFactory
	Engine     *Engine
}

func (h *CalculatePriceHandler) Handle(ctx context.Context, cmd CalculatePriceCommand) (*dto.PriceResult, error) {
	var result dto.PriceResult
	err := support.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		calc, err := h.Engine.Calculate(ctx, unit, cmd.Owner, cmd.UnitID, cmd.Date)
		if err != nil {
			return err
		}
		result = dto.MapCalculation(calc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

var _ commands.Handler[CalculatePriceCommand, *dto.PriceResult] = (*CalculatePriceHandler)(nil)
