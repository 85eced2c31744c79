package policies

import (
	"time"

	"rentpricing/internal/domain/pricing"
)

// PricingObserver receives calculation signals; infra/obs backs it with prometheus.
type PricingObserver interface {
	CalculationDone(source pricing.Source, took time.Duration)
	CalculationFailed()
	RuleSkipped(reason pricing.SkipReason)
}

// NopObserver discards every signal.
type NopObserver struct{}

func (NopObserver) CalculationDone(pricing.Source, time.Duration) {}
func (NopObserver) CalculationFailed()                            {}
func (NopObserver) RuleSkipped(pricing.SkipReason)                {}
