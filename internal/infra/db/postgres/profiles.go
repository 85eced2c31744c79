package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"rentpricing/internal/domain/pricing"
	"rentpricing/internal/domain/shared/errs"
	"rentpricing/internal/domain/shared/scope"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) List(ctx context.Context, sc scope.Owner) ([]pricing.Profile, error) {
	q := conn(ctx, r.db)
	if sc.Scoped() {
		q = q.Where("owner_id IN ?", []int64{0, sc.ID()})
	}
	var rows []profileModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, errs.Unavailable(err)
	}
	out := make([]pricing.Profile, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	pricing.SortProfiles(out)
	return out, nil
}

func (r *ProfileRepository) ByID(ctx context.Context, sc scope.Owner, id pricing.ProfileID) (*pricing.Profile, error) {
	p, err := r.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sc.CanRead(p.OwnerID) {
		return nil, pricing.ErrProfileForbidden
	}
	return p, nil
}

func (r *ProfileRepository) Create(ctx context.Context, sc scope.Owner, p *pricing.Profile) error {
	if !sc.Owns(p.OwnerID) {
		return pricing.ErrProfileForbidden
	}
	m := newProfileModel(*p)
	m.ID = 0
	if err := conn(ctx, r.db).Create(&m).Error; err != nil {
		return errs.Unavailable(err)
	}
	p.ID = pricing.ProfileID(m.ID)
	return nil
}

func (r *ProfileRepository) Update(ctx context.Context, sc scope.Owner, p *pricing.Profile) error {
	existing, err := r.writable(ctx, sc, p.ID)
	if err != nil {
		return err
	}
	p.OwnerID = existing.OwnerID
	p.CreatedAt = existing.CreatedAt
	m := newProfileModel(*p)
	return errs.Unavailable(conn(ctx, r.db).Save(&m).Error)
}

func (r *ProfileRepository) Delete(ctx context.Context, sc scope.Owner, id pricing.ProfileID) error {
	if _, err := r.writable(ctx, sc, id); err != nil {
		return err
	}
	return inTx(ctx, r.db, func(_ context.Context, tx *gorm.DB) error {
		if err := tx.Where("profile_id = ?", int64(id)).Delete(&ruleModel{}).Error; err != nil {
			return errs.Unavailable(err)
		}
		err := tx.Model(&unitModel{}).Where("pricing_profile_id = ?", int64(id)).Update("pricing_profile_id", nil).Error
		if err != nil {
			return errs.Unavailable(err)
		}
		return errs.Unavailable(tx.Delete(&profileModel{}, int64(id)).Error)
	})
}

func (r *ProfileRepository) find(ctx context.Context, id pricing.ProfileID) (*pricing.Profile, error) {
	var m profileModel
	if err := conn(ctx, r.db).Take(&m, int64(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pricing.ErrProfileNotFound
		}
		return nil, errs.Unavailable(err)
	}
	p := m.toDomain()
	return &p, nil
}

func (r *ProfileRepository) writable(ctx context.Context, sc scope.Owner, id pricing.ProfileID) (*pricing.Profile, error) {
	p, err := r.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sc.Owns(p.OwnerID) {
		return nil, pricing.ErrProfileForbidden
	}
	return p, nil
}

var _ pricing.ProfileRepository = (*ProfileRepository)(nil)
