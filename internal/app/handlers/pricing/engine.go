package pricing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rentpricing/internal/app/outbox"
	"rentpricing/internal/app/policies"
	"rentpricing/internal/app/uow"
	"rentpricing/internal/domain/booking"
	domainpricing "rentpricing/internal/domain/pricing"
	"rentpricing/internal/domain/shared/daterange"
	"rentpricing/internal/domain/shared/errs"
	"rentpricing/internal/domain/shared/scope"
	"rentpricing/internal/domain/units"
)

// Engine is the price orchestrator shared by the calculate and calendar handlers.
type Engine struct {
	Clock    func() time.Time
	Logger   *slog.Logger
	Observer policies.PricingObserver
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
}

// plan is everything read once per invocation: the unit, its effective bounds and the
// enabled rules in evaluation order.
type plan struct {
	unit   units.Unit
	bounds domainpricing.Bounds
	rules  []domainpricing.Rule
}

// Calculate prices one unit for one day and records the decision.
func (e *Engine) Calculate(ctx context.Context, unit uow.UnitOfWork, sc scope.Owner, unitID units.UnitID, day time.Time) (domainpricing.Calculation, error) {
	p, err := e.prepare(ctx, unit, sc, unitID)
	if err != nil {
		e.observer().CalculationFailed()
		return domainpricing.Calculation{}, err
	}
	return e.quote(ctx, unit, p, daterange.Day(day))
}

// Calendar prices every day in [start, end] ascending. The first failing day aborts.
func (e *Engine) Calendar(ctx context.Context, unit uow.UnitOfWork, sc scope.Owner, unitID units.UnitID, days []time.Time) ([]domainpricing.Calculation, error) {
	p, err := e.prepare(ctx, unit, sc, unitID)
	if err != nil {
		e.observer().CalculationFailed()
		return nil, err
	}
	out := make([]domainpricing.Calculation, 0, len(days))
	for _, day := range days {
		calc, err := e.quote(ctx, unit, p, day)
		if err != nil {
			return nil, err
		}
		out = append(out, calc)
	}
	return out, nil
}

func (e *Engine) prepare(ctx context.Context, unit uow.UnitOfWork, sc scope.Owner, unitID units.UnitID) (plan, error) {
	u, err := unit.Units().ByID(ctx, sc, unitID)
	if err != nil {
		return plan{}, err
	}
	p := plan{unit: *u}
	if !u.DynamicPricingEnabled {
		return p, nil
	}
	// The unit is already authorized; its profile may be a shared one.
	profile, err := e.loadProfile(ctx, unit, *u)
	if err != nil {
		return plan{}, err
	}
	p.bounds = domainpricing.EffectiveBounds(u.BasePrice, profile)
	if profile == nil {
		return p, nil
	}
	rules, err := unit.Rules().ListByProfile(ctx, scope.Any(), profile.ID, true)
	if err != nil {
		return plan{}, err
	}
	domainpricing.SortRules(rules)
	p.rules = rules
	return p, nil
}

// loadProfile returns nil when no profile is linked or the reference dangles. The profile's
// enabled flag is informational only; a linked profile always supplies its rules and bounds.
func (e *Engine) loadProfile(ctx context.Context, unit uow.UnitOfWork, u units.Unit) (*domainpricing.Profile, error) {
	if !u.HasProfile() {
		return nil, nil
	}
	profile, err := unit.Profiles().ByID(ctx, scope.Any(), domainpricing.ProfileID(*u.PricingProfileID))
	if errors.Is(err, errs.ErrNotFound) {
		e.logger().WarnContext(ctx, "unit references a missing pricing profile", "unit_id", u.ID, "profile_id", *u.PricingProfileID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (e *Engine) quote(ctx context.Context, unit uow.UnitOfWork, p plan, day time.Time) (domainpricing.Calculation, error) {
	start := time.Now()
	if !p.unit.DynamicPricingEnabled {
		e.observer().CalculationDone(domainpricing.SourceManual, time.Since(start))
		return domainpricing.ManualCalculation(p.unit, day), nil
	}

	now := e.now()
	occupancy, err := booking.OccupancyCalculator{Store: unit.Bookings()}.Rate(ctx, p.unit.ID, day)
	if err != nil {
		e.observer().CalculationFailed()
		return domainpricing.Calculation{}, err
	}
	evalCtx := domainpricing.Context{
		Occupancy:         occupancy,
		DaysBeforeCheckIn: daterange.DaysBetween(daterange.Day(now), day),
		DayOfWeek:         daterange.Weekday(day),
	}
	outcome := domainpricing.Fold(p.unit.BasePrice, p.rules, evalCtx)
	for _, skip := range outcome.Skipped {
		e.observer().RuleSkipped(skip.Reason)
		e.logger().WarnContext(ctx, "pricing rule skipped",
			"rule_id", skip.RuleID, "rule_name", skip.RuleName, "reason", skip.Reason, "unit_id", p.unit.ID)
	}

	calc := domainpricing.Calculation{
		UnitID:         p.unit.ID,
		Date:           day,
		Price:          p.bounds.Clamp(outcome.Price),
		OriginalPrice:  p.unit.BasePrice,
		AppliedRules:   outcome.Trace,
		Source:         domainpricing.SourceAutomatic,
		DynamicEnabled: true,
		Occupancy:      occupancy,
		DaysBefore:     evalCtx.DaysBeforeCheckIn,
	}
	log := calc.Log(now)
	if err := unit.Logs().Upsert(ctx, log); err != nil {
		e.observer().CalculationFailed()
		return domainpricing.Calculation{}, err
	}
	if err := outbox.Record(ctx, e.Outbox, e.Encoder, domainpricing.NewPriceCalculated(log)); err != nil {
		return domainpricing.Calculation{}, err
	}
	e.observer().CalculationDone(domainpricing.SourceAutomatic, time.Since(start))
	return calc, nil
}

func (e *Engine) now() time.Time {
	if e.Clock != nil {
		return e.Clock().UTC()
	}
	return time.Now().UTC()
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e *Engine) observer() policies.PricingObserver {
	if e.Observer != nil {
		return e.Observer
	}
	return policies.NopObserver{}
}
