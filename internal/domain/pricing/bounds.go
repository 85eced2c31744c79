package pricing

import "github.com/shopspring/decimal"

var (
	implicitMinFactor = decimal.RequireFromString("0.5")
	implicitMaxFactor = decimal.RequireFromString("2.0")
)

// Bounds is the closed price interval a calculation is clamped to.
type Bounds struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// EffectiveBounds uses the profile's bounds when both are set and falls back to
// [0.5 x base, 2 x base] otherwise. A nil profile means the unit has none.
func EffectiveBounds(base decimal.Decimal, profile *Profile) Bounds {
	if profile != nil && profile.HasBounds() {
		return Bounds{Min: profile.MinPrice.Decimal, Max: profile.MaxPrice.Decimal}
	}
	return Bounds{Min: base.Mul(implicitMinFactor), Max: base.Mul(implicitMaxFactor)}
}

func (b Bounds) Clamp(price decimal.Decimal) decimal.Decimal {
	return decimal.Max(b.Min, decimal.Min(b.Max, price))
}
