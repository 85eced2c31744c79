package pricing

import (
	"context"
	"time"

	"rentpricing/internal/app/commands"
	"rentpricing/internal/app/dto"
	"rentpricing/internal/app/handlers/support"
	"rentpricing/internal/app/uow"
	"rentpricing/internal/domain/shared/daterange"
	"rentpricing/internal/domain/shared/errs"
	"rentpricing/internal/domain/shared/scope"
	"rentpricing/internal/domain/units"
)

const (
	priceCalendarKey = "pricing.calendar"

	DefaultCalendarMaxDays = 366
)

type PriceCalendarCommand struct {
	UnitID units.UnitID `validate:"gt=0"`
	Start  time.Time    `validate:"required"`
	End    time.Time    `validate:"required"`
	Owner  scope.Owner
}

func (PriceCalendarCommand) Key() string { return priceCalendarKey }

func (c PriceCalendarCommand) OwnerScope() scope.Owner { return c.Owner }

type PriceCalendarHandler struct {
	UoWFactory uow.UoWFactory
	Engine     *Engine
	// MaxDays caps the number of days in one projection.
	MaxDays int
}

func (h *PriceCalendarHandler) Handle(ctx context.Context, cmd PriceCalendarCommand) (*dto.PriceCalendar, error) {
	start, end := daterange.Day(cmd.Start), daterange.Day(cmd.End)
	if end.Before(start) {
		return nil, errs.Invalid("end %s is before start %s", daterange.FormatDay(end), daterange.FormatDay(start))
	}
	if span := daterange.DaysBetween(start, end) + 1; span > h.maxDays() {
		return nil, errs.Invalid("calendar spans %d days, at most %d allowed", span, h.maxDays())
	}

	out := &dto.PriceCalendar{
		UnitID: int64(cmd.UnitID),
		Start:  daterange.FormatDay(start),
		End:    daterange.FormatDay(end),
	}
	err := support.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		calcs, err := h.Engine.Calendar(ctx, unit, cmd.Owner, cmd.UnitID, daterange.Days(start, end))
		if err != nil {
			return err
		}
		out.Days = make([]dto.PriceResult, 0, len(calcs))
		for _, c := range calcs {
			out.Days = append(out.Days, dto.MapCalculation(c))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (h *PriceCalendarHandler) maxDays() int {
	if h.MaxDays > 0 {
		return h.MaxDays
	}
	return DefaultCalendarMaxDays
}

var _ commands.Handler[PriceCalendarCommand, *dto.PriceCalendar] = (*PriceCalendarHandler)(nil)
