package pricing

import "github.com/shopspring/decimal"

// TraceEntry records one matched rule and the price change it caused.
type TraceEntry struct {
	RuleID      RuleID          `json:"rule_id"`
	RuleName    string          `json:"rule_name"`
	PriceBefore decimal.Decimal `json:"price_before"`
	PriceAfter  decimal.Decimal `json:"price_after"`
	Delta       decimal.Decimal `json:"delta"`
}

// Skip records a rule left out of the fold because it is malformed.
type Skip struct {
	RuleID   RuleID
	RuleName string
	Reason   SkipReason
}

// Outcome is the accumulator of the fold.
type Outcome struct {
	Price   decimal.Decimal
	Trace   []TraceEntry
	Skipped []Skip
}

// Step folds a single rule into the accumulator. Non-matching rules leave no trace.
func Step(acc Outcome, rule Rule, ctx Context) Outcome {
	if reason := rule.Malformed(); reason != "" {
		acc.Skipped = append(acc.Skipped, Skip{RuleID: rule.ID, RuleName: rule.Name, Reason: reason})
		return acc
	}
	if !Evaluate(rule, ctx) {
		return acc
	}
	next, _ := Apply(acc.Price, rule.Action)
	acc.Trace = append(acc.Trace, TraceEntry{
		RuleID:      rule.ID,
		RuleName:    rule.Name,
		PriceBefore: acc.Price,
		PriceAfter:  next,
		Delta:       next.Sub(acc.Price),
	})
	acc.Price = next
	return acc
}

// Fold reduces rules, already in evaluation order, over the base price. Clamping is left to
// the caller and happens once on the folded price.
func Fold(base decimal.Decimal, rules []Rule, ctx Context) Outcome {
	acc := Outcome{Price: base, Trace: []TraceEntry{}}
	for _, rule := range rules {
		acc = Step(acc, rule, ctx)
	}
	return acc
}
