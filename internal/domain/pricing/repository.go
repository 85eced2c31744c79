package pricing

import (
	"context"

	"rentpricing/internal/domain/shared/scope"
	"rentpricing/internal/domain/units"
)

// ProfileRepository stores pricing profiles. Scoped callers see their own and shared profiles
// and may only modify their own.
type ProfileRepository interface {
	List(ctx context.Context, sc scope.Owner) ([]Profile, error)
	ByID(ctx context.Context, sc scope.Owner, id ProfileID) (*Profile, error)
	Create(ctx context.Context, sc scope.Owner, p *Profile) error
	Update(ctx context.Context, sc scope.Owner, p *Profile) error
	// Delete removes the profile with its rules and detaches units that referenced it.
	Delete(ctx context.Context, sc scope.Owner, id ProfileID) error
}

// RuleRepository stores rules; scope is enforced through the owning profile.
type RuleRepository interface {
	// ListByProfile returns rules ordered by priority DESC, id ASC.
	ListByProfile(ctx context.Context, sc scope.Owner, profileID ProfileID, enabledOnly bool) ([]Rule, error)
	ByID(ctx context.Context, sc scope.Owner, id RuleID) (*Rule, error)
	Create(ctx context.Context, sc scope.Owner, r *Rule) error
	Update(ctx context.Context, sc scope.Owner, r *Rule) error
	Delete(ctx context.Context, sc scope.Owner, id RuleID) error
}

// LogRepository persists calculation logs.
type LogRepository interface {
	// Upsert is one atomic insert-on-conflict-update keyed by (unit, date).
	Upsert(ctx context.Context, log CalculationLog) error
	// List returns the unit's logs, newest date first.
	List(ctx context.Context, unitID units.UnitID, filter LogFilter) ([]CalculationLog, error)
}
