package pricing

import (
	"context"
	"time"

	"rentpricing/internal/app/dto"
	"rentpricing/internal/app/handlers/support"
	"rentpricing/internal/app/queries"
	"rentpricing/internal/app/uow"
	domainpricing "rentpricing/internal/domain/pricing"
	"rentpricing/internal/domain/shared/daterange"
	"rentpricing/internal/domain/shared/scope"
	"rentpricing/internal/domain/units"
)

const calculationLogsKey = "pricing.logs"

// CalculationLogsQuery lists a unit's logs: up to LogsPerDayLimit rows for Date, or the
// LogsRecentLimit most recent dates when Date is nil.
type CalculationLogsQuery struct {
	UnitID units.UnitID `validate:"gt=0"`
	Date   *time.Time
	Owner  scope.Owner
}

func (CalculationLogsQuery) Key() string { return calculationLogsKey }

func (q CalculationLogsQuery) OwnerScope() scope.Owner { return q.Owner }

type CalculationLogsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *CalculationLogsHandler) Handle(ctx context.Context, q CalculationLogsQuery) ([]dto.CalculationLog, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	if _, err := unit.Units().ByID(execCtx, q.Owner, q.UnitID); err != nil {
		return nil, err
	}
	filter := domainpricing.LogFilter{Limit: domainpricing.LogsRecentLimit}
	if q.Date != nil {
		day := daterange.Day(*q.Date)
		filter = domainpricing.LogFilter{Date: &day, Limit: domainpricing.LogsPerDayLimit}
	}
	logs, err := unit.Logs().List(execCtx, q.UnitID, filter)
	if err != nil {
		return nil, err
	}
	return dto.MapCalculationLogs(logs), nil
}

var _ queries.Handler[CalculationLogsQuery, []dto.CalculationLog] = (*CalculationLogsHandler)(nil)
