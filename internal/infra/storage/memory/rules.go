package memory

import (
	"context"
	"errors"

	"rentpricing/internal/domain/pricing"
	"rentpricing/internal/domain/shared/scope"
)

type RuleRepository struct {
	s *Store
}

// ListByProfile returns an empty list for a profile that no longer exists.
func (r *RuleRepository) ListByProfile(_ context.Context, sc scope.Owner, profileID pricing.ProfileID, enabledOnly bool) ([]pricing.Rule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if _, err := r.s.profileReadable(sc, profileID); err != nil && !errors.Is(err, pricing.ErrProfileNotFound) {
		return nil, err
	}
	out := []pricing.Rule{}
	for _, rule := range r.s.rules {
		if rule.ProfileID != profileID || (enabledOnly && !rule.Enabled) {
			continue
		}
		out = append(out, copyRule(rule))
	}
	pricing.SortRules(out)
	return out, nil
}

func (r *RuleRepository) ByID(_ context.Context, sc scope.Owner, id pricing.RuleID) (*pricing.Rule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rule, ok := r.s.rules[id]
	if !ok {
		return nil, pricing.ErrRuleNotFound
	}
	if _, err := r.s.profileReadable(sc, rule.ProfileID); err != nil {
		return nil, err
	}
	rule = copyRule(rule)
	return &rule, nil
}

func (r *RuleRepository) Create(_ context.Context, sc scope.Owner, rule *pricing.Rule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, err := r.s.profileWritable(sc, rule.ProfileID); err != nil {
		return err
	}
	rule.ID = pricing.RuleID(r.s.next())
	r.s.rules[rule.ID] = copyRule(*rule)
	return nil
}

func (r *RuleRepository) Update(_ context.Context, sc scope.Owner, rule *pricing.Rule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.rules[rule.ID]
	if !ok {
		return pricing.ErrRuleNotFound
	}
	if _, err := r.s.profileWritable(sc, existing.ProfileID); err != nil {
		return err
	}
	rule.ProfileID = existing.ProfileID
	r.s.rules[rule.ID] = copyRule(*rule)
	return nil
}

func (r *RuleRepository) Delete(_ context.Context, sc scope.Owner, id pricing.RuleID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.rules[id]
	if !ok {
		return pricing.ErrRuleNotFound
	}
	if _, err := r.s.profileWritable(sc, existing.ProfileID); err != nil {
		return err
	}
	delete(r.s.rules, id)
	return nil
}

var _ pricing.RuleRepository = (*RuleRepository)(nil)
