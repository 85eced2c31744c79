package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rentpricing/internal/domain/pricing"
	"rentpricing/internal/domain/shared/daterange"
	"rentpricing/internal/domain/shared/errs"
	"rentpricing/internal/domain/units"
)

type LogRepository struct {
	db *gorm.DB
}

func NewLogRepository(db *gorm.DB) *LogRepository {
	return &LogRepository{db: db}
}

// Upsert is INSERT ... ON CONFLICT (unit_id, date) DO UPDATE; original_price is left out of
// the update list so it keeps the value of the first calculation.
func (r *LogRepository) Upsert(ctx context.Context, log pricing.CalculationLog) error {
	m, err := newLogModel(log)
	if err != nil {
		return err
	}
	err = conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "unit_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"final_price", "applied_rules", "calculation_source", "calculated_at"}),
	}).Create(&m).Error
	return errs.Unavailable(err)
}

func (r *LogRepository) List(ctx context.Context, unitID units.UnitID, filter pricing.LogFilter) ([]pricing.CalculationLog, error) {
	q := conn(ctx, r.db).Where("unit_id = ?", int64(unitID))
	if filter.Date != nil {
		q = q.Where("date = ?", daterange.Day(*filter.Date))
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var rows []logModel
	if err := q.Order("date DESC").Order("calculated_at DESC").Find(&rows).Error; err != nil {
		return nil, errs.Unavailable(err)
	}
	out := make([]pricing.CalculationLog, 0, len(rows))
	for _, m := range rows {
		log, err := m.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, log)
	}
	return out, nil
}

var _ pricing.LogRepository = (*LogRepository)(nil)
