package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rentpricing/internal/domain/shared/errs"
	"rentpricing/internal/domain/shared/scope"
	"rentpricing/internal/domain/units"
)

type UnitRepository struct {
	db *gorm.DB
}

func NewUnitRepository(db *gorm.DB) *UnitRepository {
	return &UnitRepository{db: db}
}

func (r *UnitRepository) ByID(ctx context.Context, sc scope.Owner, id units.UnitID) (*units.Unit, error) {
	var m unitModel
	if err := conn(ctx, r.db).Take(&m, int64(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, units.ErrUnitNotFound
		}
		return nil, errs.Unavailable(err)
	}
	if !sc.Owns(m.OwnerID) {
		return nil, units.ErrUnitForbidden
	}
	return m.toDomain(), nil
}

func (r *UnitRepository) SetDynamicPricing(ctx context.Context, sc scope.Owner, id units.UnitID, enabled bool) error {
	if _, err := r.ByID(ctx, sc, id); err != nil {
		return err
	}
	err := conn(ctx, r.db).Model(&unitModel{}).Where("id = ?", int64(id)).Update("dynamic_pricing_enabled", enabled).Error
	return errs.Unavailable(err)
}

func (r *UnitRepository) SetDynamicPricingAll(ctx context.Context, sc scope.Owner, enabled bool) (int64, error) {
	q := scoped(conn(ctx, r.db).Session(&gorm.Session{AllowGlobalUpdate: true}).Model(&unitModel{}), sc)
	res := q.Update("dynamic_pricing_enabled", enabled)
	if res.Error != nil {
		return 0, errs.Unavailable(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *UnitRepository) CountByProfile(ctx context.Context, sc scope.Owner) (map[int64]int, error) {
	var rows []struct {
		PricingProfileID int64
		N                int
	}
	err := scoped(conn(ctx, r.db).Model(&unitModel{}), sc).
		Select("pricing_profile_id, COUNT(*) AS n").
		Where("pricing_profile_id > 0").
		Group("pricing_profile_id").
		Scan(&rows).Error
	if err != nil {
		return nil, errs.Unavailable(err)
	}
	counts := make(map[int64]int, len(rows))
	for _, row := range rows {
		counts[row.PricingProfileID] = row.N
	}
	return counts, nil
}

// PutUnit inserts or replaces a unit; a zero ID is assigned. Units belong to the back office;
// this serves fixtures and tests.
func (r *UnitRepository) PutUnit(ctx context.Context, u *units.Unit) error {
	m := unitModel{
		ID:                    int64(u.ID),
		OwnerID:               u.OwnerID,
		Name:                  u.Name,
		BasePrice:             u.BasePrice,
		DynamicPricingEnabled: u.DynamicPricingEnabled,
		PricingProfileID:      u.PricingProfileID,
	}
	if err := conn(ctx, r.db).Clauses(clause.OnConflict{UpdateAll: true}).Create(&m).Error; err != nil {
		return errs.Unavailable(err)
	}
	u.ID = units.UnitID(m.ID)
	return nil
}

func scoped(q *gorm.DB, sc scope.Owner) *gorm.DB {
	if !sc.Scoped() {
		return q
	}
	return q.Where("owner_id = ?", sc.ID())
}

var _ units.Store = (*UnitRepository)(nil)
