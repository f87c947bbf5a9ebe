package pricing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func motorRuleSet() RuleSet {
	base := 60000.0
	return RuleSet{
		Base: &base,
		Factors: []Factor{
			{Key: "driverAge", Op: OpLessThan, Value: Number(25), Effect: EffectMultiply, Magnitude: 1.4},
			{Key: "carYear", Op: OpLessThan, Value: Number(2010), Effect: EffectAdd, Magnitude: 10000},
		},
	}
}

func TestEvaluate_YoungDriverOldCar(t *testing.T) {
	premium, err := Evaluate(motorRuleSet(), Facts{
		"driverAge": Number(22),
		"carYear":   Number(2008),
	})
	assert.NoError(t, err)
	// round(60000 * 1.4 + 10000)
	assert.Equal(t, int64(94000), premium)
}

func TestEvaluate_NoFactorFires(t *testing.T) {
	premium, err := Evaluate(motorRuleSet(), Facts{
		"driverAge": Number(30),
		"carYear":   Number(2020),
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(60000), premium)
}

func TestEvaluate_AbsentFactsAreSkipped(t *testing.T) {
	premium, err := Evaluate(motorRuleSet(), Facts{})
	assert.NoError(t, err)
	assert.Equal(t, int64(60000), premium)
}

func TestEvaluate_Deterministic(t *testing.T) {
	facts := Facts{
		"driverAge": Number(22),
		"carYear":   Number(2008),
		"name":      Text("Budi"),
	}
	first, err := Evaluate(motorRuleSet(), facts)
	assert.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Evaluate(motorRuleSet(), facts)
		assert.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestEvaluate_OrderMatters(t *testing.T) {
	base := 100.0
	add := Factor{Key: "x", Op: OpEqual, Value: Boolean(true), Effect: EffectAdd, Magnitude: 50}
	mul := Factor{Key: "x", Op: OpEqual, Value: Boolean(true), Effect: EffectMultiply, Magnitude: 2}
	facts := Facts{"x": Boolean(true)}

	addFirst, err := Evaluate(RuleSet{Base: &base, Factors: []Factor{add, mul}}, facts)
	assert.NoError(t, err)
	mulFirst, err := Evaluate(RuleSet{Base: &base, Factors: []Factor{mul, add}}, facts)
	assert.NoError(t, err)

	assert.Equal(t, int64(300), addFirst)
	assert.Equal(t, int64(250), mulFirst)
	assert.NotEqual(t, addFirst, mulFirst)
}

func TestEvaluate_HalfUpRounding(t *testing.T) {
	base := 99.5
	premium, err := Evaluate(RuleSet{Base: &base}, Facts{})
	assert.NoError(t, err)
	assert.Equal(t, int64(100), premium)
}

func TestEvaluate_EqualityOnTextAndBoolean(t *testing.T) {
	base := 100.0
	rs := RuleSet{
		Base: &base,
		Factors: []Factor{
			{Key: "region", Op: OpEqual, Value: Text("jakarta"), Effect: EffectAdd, Magnitude: 25},
			{Key: "garage", Op: OpEqual, Value: Boolean(true), Effect: EffectMultiply, Magnitude: 0.9},
		},
	}

	premium, err := Evaluate(rs, Facts{
		"region": Text("jakarta"),
		"garage": Boolean(true),
	})
	assert.NoError(t, err)
	// (100 + 25) * 0.9 = 112.5 rounds half-up to 113
	assert.Equal(t, int64(113), premium)
}

func TestEvaluate_OrderingOpSkipsNonNumericFact(t *testing.T) {
	base := 100.0
	rs := RuleSet{
		Base: &base,
		Factors: []Factor{
			{Key: "driverAge", Op: OpLessThan, Value: Number(25), Effect: EffectAdd, Magnitude: 50},
		},
	}
	premium, err := Evaluate(rs, Facts{"driverAge": Text("twenty")})
	assert.NoError(t, err)
	assert.Equal(t, int64(100), premium)
}

func TestEvaluate_MissingBaseFails(t *testing.T) {
	_, err := Evaluate(RuleSet{}, Facts{})
	assert.ErrorIs(t, err, ErrInvalidRuleSet)
}

func TestDecodeRuleSet(t *testing.T) {
	raw := []byte(`{
		"base": 60000,
		"factors": [
			{"key": "driverAge", "op": "lt", "value": 25, "effect": "multiply", "magnitude": 1.4},
			{"key": "carYear", "op": "lt", "value": 2010, "effect": "add", "magnitude": 10000}
		]
	}`)

	rs, err := DecodeRuleSet(raw)
	assert.NoError(t, err)
	assert.Equal(t, 60000.0, *rs.Base)
	assert.Len(t, rs.Factors, 2)
	assert.Equal(t, OpLessThan, rs.Factors[0].Op)
	assert.Equal(t, Number(25), rs.Factors[0].Value)
}

func TestDecodeRuleSet_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty":       ``,
		"not_json":    `{`,
		"no_base":     `{"factors": []}`,
		"bad_op":      `{"base": 10, "factors": [{"key": "a", "op": "between", "value": 1, "effect": "add", "magnitude": 1}]}`,
		"bad_effect":  `{"base": 10, "factors": [{"key": "a", "op": "lt", "value": 1, "effect": "divide", "magnitude": 1}]}`,
		"missing_key": `{"base": 10, "factors": [{"op": "lt", "value": 1, "effect": "add", "magnitude": 1}]}`,
	}
	for name, raw := range cases {
		_, err := DecodeRuleSet([]byte(raw))
		assert.ErrorIs(t, err, ErrInvalidRuleSet, name)
	}
}

func TestFactValueJSONRoundTrip(t *testing.T) {
	facts, err := ParseFacts(map[string]any{
		"driverAge": 22.0,
		"name":      "Budi",
		"garage":    true,
	})
	assert.NoError(t, err)

	encoded, err := json.Marshal(facts)
	assert.NoError(t, err)

	var decoded Facts
	assert.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, facts, decoded)
}

func TestParseFacts_RejectsNested(t *testing.T) {
	_, err := ParseFacts(map[string]any{"nested": map[string]any{"a": 1}})
	assert.Error(t, err)
}
