package pricing

import (
	"encoding/json"
	"errors"
)

// Operator compares a fact value against a rule's comparison value.
type Operator string

const (
	OpLessThan    Operator = "lt"
	OpGreaterThan Operator = "gt"
	OpEqual       Operator = "eq"
)

// Effect describes how a fired factor changes the running total.
type Effect string

const (
	EffectAdd      Effect = "add"
	EffectMultiply Effect = "multiply"
)

// Factor is a single pricing rule. Factors apply in declaration order to the
// running total produced by earlier factors; they do not compose on the base
// independently.
type Factor struct {
	Key       string    `json:"key"`
	Op        Operator  `json:"op"`
	Value     FactValue `json:"value"`
	Effect    Effect    `json:"effect"`
	Magnitude float64   `json:"magnitude"`
}

// RuleSet is a base amount plus an ordered factor sequence.
type RuleSet struct {
	Base    *float64 `json:"base"`
	Factors []Factor `json:"factors"`
}

var (
	ErrInvalidRuleSet = errors.New("invalid_rule_set")
	ErrInvalidFacts   = errors.New("invalid_facts")
)

// DecodeRuleSet parses a stored rule set document and validates its structure.
func DecodeRuleSet(raw []byte) (RuleSet, error) {
	var rs RuleSet
	if len(raw) == 0 {
		return rs, ErrInvalidRuleSet
	}
	if err := json.Unmarshal(raw, &rs); err != nil {
		return rs, ErrInvalidRuleSet
	}
	if err := rs.Validate(); err != nil {
		return rs, err
	}
	return rs, nil
}

// Validate checks the rule set structure: a base amount is required and every
// factor must carry a known operator, a known effect and a fact key.
func (rs RuleSet) Validate() error {
	if rs.Base == nil {
		return ErrInvalidRuleSet
	}
	for _, factor := range rs.Factors {
		if factor.Key == "" {
			return ErrInvalidRuleSet
		}
		switch factor.Op {
		case OpLessThan, OpGreaterThan, OpEqual:
		default:
			return ErrInvalidRuleSet
		}
		switch factor.Effect {
		case EffectAdd, EffectMultiply:
		default:
			return ErrInvalidRuleSet
		}
	}
	return nil
}
