package pricing

// Context is the demand snapshot a rule is evaluated against.
type Context struct {
	Occupancy         float64
	DaysBeforeCheckIn int
	DayOfWeek         int
}

// Evaluate reports whether the rule's trigger matches. Unknown condition kinds and operators
// evaluate to false so one broken rule cannot abort a calculation.
func Evaluate(rule Rule, ctx Context) bool {
	switch c := rule.Condition.(type) {
	case OccupancyCondition:
		return compare(ctx.Occupancy, rule.Operator, c.Threshold)
	case DaysBeforeCondition:
		return compare(float64(ctx.DaysBeforeCheckIn), rule.Operator, float64(c.Days)) && ctx.Occupancy <= c.OccupancyMax
	case DayOfWeekCondition:
		for _, d := range c.Days {
			if d == ctx.DayOfWeek {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func compare(actual float64, op Operator, threshold float64) bool {
	switch op {
	case OpGreater:
		return actual > threshold
	case OpLess:
		return actual < threshold
	case OpGreaterEqual:
		return actual >= threshold
	case OpLessEqual:
		return actual <= threshold
	case OpEqual:
		return actual == threshold
	default:
		return false
	}
}
