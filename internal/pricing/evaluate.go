package pricing

import "math"

// Evaluate applies the rule set to the collected facts and returns the premium
// in whole currency units, rounded half-up. It is deterministic and performs
// no I/O.
//
// Factors whose fact key is absent from the input are skipped silently.
// Ordering comparisons (lt, gt) only fire for numeric facts against numeric
// comparison values; equality compares like kinds.
func Evaluate(rs RuleSet, facts Facts) (int64, error) {
	if err := rs.Validate(); err != nil {
		return 0, err
	}

	total := *rs.Base
	for _, factor := range rs.Factors {
		fact, ok := facts[factor.Key]
		if !ok {
			continue
		}
		if !matches(factor, fact) {
			continue
		}
		switch factor.Effect {
		case EffectAdd:
			total += factor.Magnitude
		case EffectMultiply:
			total *= factor.Magnitude
		}
	}

	return roundHalfUp(total), nil
}

func matches(factor Factor, fact FactValue) bool {
	switch factor.Op {
	case OpLessThan:
		return fact.Kind == KindNumber && factor.Value.Kind == KindNumber && fact.Num < factor.Value.Num
	case OpGreaterThan:
		return fact.Kind == KindNumber && factor.Value.Kind == KindNumber && fact.Num > factor.Value.Num
	case OpEqual:
		return fact.equal(factor.Value)
	default:
		return false
	}
}

func roundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}
