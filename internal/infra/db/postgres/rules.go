package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"rentpricing/internal/domain/pricing"
	"rentpricing/internal/domain/shared/errs"
	"rentpricing/internal/domain/shared/scope"
)

type RuleRepository struct {
	db       *gorm.DB
	profiles *ProfileRepository
}

func NewRuleRepository(db *gorm.DB) *RuleRepository {
	return &RuleRepository{db: db, profiles: NewProfileRepository(db)}
}

// ListByProfile returns an empty list for a profile that no longer exists.
func (r *RuleRepository) ListByProfile(ctx context.Context, sc scope.Owner, profileID pricing.ProfileID, enabledOnly bool) ([]pricing.Rule, error) {
	if _, err := r.profiles.ByID(ctx, sc, profileID); err != nil && !errors.Is(err, pricing.ErrProfileNotFound) {
		return nil, err
	}
	q := conn(ctx, r.db).Where("profile_id = ?", int64(profileID))
	if enabledOnly {
		q = q.Where("enabled = ?", true)
	}
	var rows []ruleModel
	if err := q.Order("priority DESC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, errs.Unavailable(err)
	}
	out := make([]pricing.Rule, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func (r *RuleRepository) ByID(ctx context.Context, sc scope.Owner, id pricing.RuleID) (*pricing.Rule, error) {
	rule, err := r.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := r.profiles.ByID(ctx, sc, rule.ProfileID); err != nil {
		return nil, err
	}
	return rule, nil
}

func (r *RuleRepository) Create(ctx context.Context, sc scope.Owner, rule *pricing.Rule) error {
	if _, err := r.profiles.writable(ctx, sc, rule.ProfileID); err != nil {
		return err
	}
	m, err := newRuleModel(*rule)
	if err != nil {
		return err
	}
	m.ID = 0
	if err := conn(ctx, r.db).Create(&m).Error; err != nil {
		return errs.Unavailable(err)
	}
	rule.ID = pricing.RuleID(m.ID)
	return nil
}

func (r *RuleRepository) Update(ctx context.Context, sc scope.Owner, rule *pricing.Rule) error {
	existing, err := r.find(ctx, rule.ID)
	if err != nil {
		return err
	}
	if _, err := r.profiles.writable(ctx, sc, existing.ProfileID); err != nil {
		return err
	}
	rule.ProfileID = existing.ProfileID
	m, err := newRuleModel(*rule)
	if err != nil {
		return err
	}
	return errs.Unavailable(conn(ctx, r.db).Save(&m).Error)
}

func (r *RuleRepository) Delete(ctx context.Context, sc scope.Owner, id pricing.RuleID) error {
	existing, err := r.find(ctx, id)
	if err != nil {
		return err
	}
	if _, err := r.profiles.writable(ctx, sc, existing.ProfileID); err != nil {
		return err
	}
	return errs.Unavailable(conn(ctx, r.db).Delete(&ruleModel{}, int64(id)).Error)
}

func (r *RuleRepository) find(ctx context.Context, id pricing.RuleID) (*pricing.Rule, error) {
	var m ruleModel
	if err := conn(ctx, r.db).Take(&m, int64(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pricing.ErrRuleNotFound
		}
		return nil, errs.Unavailable(err)
	}
	rule := m.toDomain()
	return &rule, nil
}

var _ pricing.RuleRepository = (*RuleRepository)(nil)
