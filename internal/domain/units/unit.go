package units

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"rentpricing/internal/domain/shared/errs"
	"rentpricing/internal/domain/shared/scope"
)

var (
	ErrUnitNotFound  = fmt.Errorf("%w: unit", errs.ErrNotFound)
	ErrUnitForbidden = fmt.Errorf("%w: unit belongs to another owner", errs.ErrForbidden)
)

type UnitID int64

// Unit is the slice of a rentable unit the pricing engine reads. Units are created and
// edited by the booking back office.
type Unit struct {
	ID                    UnitID
	OwnerID               int64
	Name                  string
	BasePrice             decimal.Decimal
	DynamicPricingEnabled bool
	// PricingProfileID is a weak reference: a dangling id behaves like no profile.
	PricingProfileID *int64
}

// HasProfile reports whether the unit links a pricing profile.
func (u Unit) HasProfile() bool {
	return u.PricingProfileID != nil && *u.PricingProfileID > 0
}

// Store is the unit storage port. Every call is bounded by the caller's owner scope.
type Store interface {
	// ByID returns ErrUnitNotFound for a missing unit and ErrUnitForbidden when the unit is
	// outside the scope.
	ByID(ctx context.Context, sc scope.Owner, id UnitID) (*Unit, error)
	SetDynamicPricing(ctx context.Context, sc scope.Owner, id UnitID, enabled bool) error
	// SetDynamicPricingAll sets the flag on every unit in scope and returns how many it matched.
	SetDynamicPricingAll(ctx context.Context, sc scope.Owner, enabled bool) (int64, error)
	// CountByProfile maps profile id to the number of units in scope referencing it.
	CountByProfile(ctx context.Context, sc scope.Owner) (map[int64]int, error)
}
