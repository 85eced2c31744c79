package memory

import (
	"context"

	"rentpricing/internal/domain/shared/scope"
	"rentpricing/internal/domain/units"
)

type UnitRepository struct {
	s *Store
}

func (r *UnitRepository) ByID(_ context.Context, sc scope.Owner, id units.UnitID) (*units.Unit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, err := r.s.unitInScope(sc, id)
	if err != nil {
		return nil, err
	}
	out := copyUnit(u)
	return &out, nil
}

func (r *UnitRepository) SetDynamicPricing(_ context.Context, sc scope.Owner, id units.UnitID, enabled bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, err := r.s.unitInScope(sc, id)
	if err != nil {
		return err
	}
	u.DynamicPricingEnabled = enabled
	r.s.units[id] = u
	return nil
}

func (r *UnitRepository) SetDynamicPricingAll(_ context.Context, sc scope.Owner, enabled bool) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, u := range r.s.units {
		if !sc.Owns(u.OwnerID) {
			continue
		}
		u.DynamicPricingEnabled = enabled
		r.s.units[id] = u
		n++
	}
	return n, nil
}

func (r *UnitRepository) CountByProfile(_ context.Context, sc scope.Owner) (map[int64]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	counts := make(map[int64]int)
	for _, u := range r.s.units {
		if u.HasProfile() && sc.Owns(u.OwnerID) {
			counts[*u.PricingProfileID]++
		}
	}
	return counts, nil
}

func (s *Store) unitInScope(sc scope.Owner, id units.UnitID) (units.Unit, error) {
	u, ok := s.units[id]
	if !ok {
		return units.Unit{}, units.ErrUnitNotFound
	}
	if !sc.Owns(u.OwnerID) {
		return units.Unit{}, units.ErrUnitForbidden
	}
	return u, nil
}

var _ units.Store = (*UnitRepository)(nil)
