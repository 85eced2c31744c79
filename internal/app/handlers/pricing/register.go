package pricing

import (
	"time"

	"rentpricing/internal/app/commands"
	"rentpricing/internal/app/dto"
	"rentpricing/internal/app/outbox"
	"rentpricing/internal/app/queries"
	"rentpricing/internal/app/uow"
)

// Module bundles the pricing handlers so callers wire them in one place.
type Module struct {
	UoWFactory      uow.UoWFactory
	Engine          *Engine
	Outbox          outbox.Outbox
	Encoder         outbox.EventEncoder
	Clock           func() time.Time
	CalendarMaxDays int
}

// Register attaches every pricing command and query handler to the buses.
func (m Module) Register(cmdBus *commands.InMemoryBus, queryBus *queries.InMemoryBus) {
	commands.Register[CalculatePriceCommand, *dto.PriceResult](cmdBus, &CalculatePriceHandler{UoWFactory: m.UoWFactory, Engine: m.Engine})
	commands.Register[PriceCalendarCommand, *dto.PriceCalendar](cmdBus, &PriceCalendarHandler{UoWFactory: m.UoWFactory, Engine: m.Engine, MaxDays: m.CalendarMaxDays})
	commands.Register[ToggleDynamicPricingCommand, *dto.ToggleResult](cmdBus, &ToggleDynamicPricingHandler{UoWFactory: m.UoWFactory, Outbox: m.Outbox, Encoder: m.Encoder, Clock: m.Clock})
	commands.Register[UpsertProfileCommand, *dto.Profile](cmdBus, &UpsertProfileHandler{UoWFactory: m.UoWFactory, Clock: m.Clock})
	commands.Register[DeleteProfileCommand, *dto.Deleted](cmdBus, &DeleteProfileHandler{UoWFactory: m.UoWFactory})
	commands.Register[UpsertRuleCommand, *dto.Rule](cmdBus, &UpsertRuleHandler{UoWFactory: m.UoWFactory})
	commands.Register[DeleteRuleCommand, *dto.Deleted](cmdBus, &DeleteRuleHandler{UoWFactory: m.UoWFactory})

	queries.Register[ListProfilesQuery, []dto.ProfileSummary](queryBus, &ListProfilesHandler{UoWFactory: m.UoWFactory})
	queries.Register[GetProfileQuery, *dto.ProfileDetail](queryBus, &GetProfileHandler{UoWFactory: m.UoWFactory})
	queries.Register[ListRulesQuery, []dto.Rule](queryBus, &ListRulesHandler{UoWFactory: m.UoWFactory})
	queries.Register[CalculationLogsQuery, []dto.CalculationLog](queryBus, &CalculationLogsHandler{UoWFactory: m.UoWFactory})
}
