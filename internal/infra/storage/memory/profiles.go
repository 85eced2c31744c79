package memory

import (
	"context"

	"rentpricing/internal/domain/pricing"
	"rentpricing/internal/domain/shared/scope"
)

type ProfileRepository struct {
	s *Store
}

func (r *ProfileRepository) List(_ context.Context, sc scope.Owner) ([]pricing.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]pricing.Profile, 0, len(r.s.profiles))
	for _, p := range r.s.profiles {
		if sc.CanRead(p.OwnerID) {
			out = append(out, p)
		}
	}
	pricing.SortProfiles(out)
	return out, nil
}

func (r *ProfileRepository) ByID(_ context.Context, sc scope.Owner, id pricing.ProfileID) (*pricing.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, err := r.s.profileReadable(sc, id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProfileRepository) Create(_ context.Context, sc scope.Owner, p *pricing.Profile) error {
	if !sc.Owns(p.OwnerID) {
		return pricing.ErrProfileForbidden
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p.ID = pricing.ProfileID(r.s.next())
	r.s.profiles[p.ID] = *p
	return nil
}

func (r *ProfileRepository) Update(_ context.Context, sc scope.Owner, p *pricing.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, err := r.s.profileWritable(sc, p.ID)
	if err != nil {
		return err
	}
	p.OwnerID = existing.OwnerID
	p.CreatedAt = existing.CreatedAt
	r.s.profiles[p.ID] = *p
	return nil
}

func (r *ProfileRepository) Delete(_ context.Context, sc scope.Owner, id pricing.ProfileID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, err := r.s.profileWritable(sc, id); err != nil {
		return err
	}
	delete(r.s.profiles, id)
	for ruleID, rule := range r.s.rules {
		if rule.ProfileID == id {
			delete(r.s.rules, ruleID)
		}
	}
	for unitID, u := range r.s.units {
		if u.HasProfile() && *u.PricingProfileID == int64(id) {
			u.PricingProfileID = nil
			r.s.units[unitID] = u
		}
	}
	return nil
}

func (s *Store) profileReadable(sc scope.Owner, id pricing.ProfileID) (pricing.Profile, error) {
	p, ok := s.profiles[id]
	if !ok {
		return pricing.Profile{}, pricing.ErrProfileNotFound
	}
	if !sc.CanRead(p.OwnerID) {
		return pricing.Profile{}, pricing.ErrProfileForbidden
	}
	return p, nil
}

func (s *Store) profileWritable(sc scope.Owner, id pricing.ProfileID) (pricing.Profile, error) {
	p, ok := s.profiles[id]
	if !ok {
		return pricing.Profile{}, pricing.ErrProfileNotFound
	}
	if !sc.Owns(p.OwnerID) {
		return pricing.Profile{}, pricing.ErrProfileForbidden
	}
	return p, nil
}

var _ pricing.ProfileRepository = (*ProfileRepository)(nil)
