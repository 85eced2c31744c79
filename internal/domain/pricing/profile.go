package pricing

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"rentpricing/internal/domain/shared/errs"
)

var (
	ErrProfileNotFound  = fmt.Errorf("%w: pricing profile", errs.ErrNotFound)
	ErrProfileForbidden = fmt.Errorf("%w: pricing profile belongs to another owner", errs.ErrForbidden)
)

type ProfileID int64

// Profile is a reusable bundle of price bounds and rules referenced by units.
type Profile struct {
	ID ProfileID
	// OwnerID 0 marks a shared profile: readable by every owner, writable only unscoped.
	OwnerID   int64
	Name      string
	Mode      string
	MinPrice  decimal.NullDecimal
	MaxPrice  decimal.NullDecimal
	IsDefault bool
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfileSummary annotates a profile with the number of units that reference it.
type ProfileSummary struct {
	Profile
	UnitsCount int
}

type ProfileParams struct {
	OwnerID   int64
	Name      string
	Mode      string
	MinPrice  decimal.NullDecimal
	MaxPrice  decimal.NullDecimal
	IsDefault bool
	Enabled   bool
}

func NewProfile(params ProfileParams, now time.Time) (*Profile, error) {
	p := &Profile{OwnerID: params.OwnerID, CreatedAt: now.UTC()}
	if err := p.Apply(params, now); err != nil {
		return nil, err
	}
	return p, nil
}

// Apply overwrites the editable fields. The owner is fixed at creation.
func (p *Profile) Apply(params ProfileParams, now time.Time) error {
	next := *p
	next.Name = strings.TrimSpace(params.Name)
	next.Mode = strings.ToLower(strings.TrimSpace(params.Mode))
	next.MinPrice = params.MinPrice
	next.MaxPrice = params.MaxPrice
	next.IsDefault = params.IsDefault
	next.Enabled = params.Enabled
	next.UpdatedAt = now.UTC()
	if err := next.Validate(); err != nil {
		return err
	}
	*p = next
	return nil
}

func (p Profile) Validate() error {
	if p.Name == "" {
		return errs.Invalid("profile name is required")
	}
	if p.Mode == "" {
		return errs.Invalid("profile mode is required")
	}
	if p.MinPrice.Valid != p.MaxPrice.Valid {
		return errs.Invalid("profile bounds must be set together")
	}
	if !p.MinPrice.Valid {
		return nil
	}
	if !p.MinPrice.Decimal.IsPositive() || !p.MaxPrice.Decimal.IsPositive() {
		return errs.Invalid("profile bounds must be positive")
	}
	if p.MinPrice.Decimal.GreaterThan(p.MaxPrice.Decimal) {
		return errs.Invalid("min_price %s exceeds max_price %s", p.MinPrice.Decimal, p.MaxPrice.Decimal)
	}
	return nil
}

// HasBounds reports whether both bounds are configured.
func (p Profile) HasBounds() bool {
	return p.MinPrice.Valid && p.MaxPrice.Valid
}

// SortProfiles orders profiles is_default DESC, name ASC, id ASC.
func SortProfiles(profiles []Profile) {
	sort.SliceStable(profiles, func(i, j int) bool {
		a, b := profiles[i], profiles[j]
		if a.IsDefault != b.IsDefault {
			return a.IsDefault
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
}
