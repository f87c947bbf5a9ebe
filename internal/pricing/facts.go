package pricing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind tags the value type of a collected fact.
type Kind string

const (
	KindText    Kind = "text"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
)

// FactValue is a tagged {text, number, boolean} union. Fact maps and rule
// comparison values are validated into this shape at the dispatcher boundary
// so the engine never sees untyped payloads.
type FactValue struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
}

func Text(v string) FactValue    { return FactValue{Kind: KindText, Str: v} }
func Number(v float64) FactValue { return FactValue{Kind: KindNumber, Num: v} }
func Boolean(v bool) FactValue   { return FactValue{Kind: KindBoolean, Bool: v} }

// Facts is the key to value collection of user-supplied answers.
type Facts map[string]FactValue

// ParseFacts converts a decoded JSON object into a typed fact map.
// Unsupported value types (nested objects, arrays, nulls) are rejected.
func ParseFacts(raw map[string]any) (Facts, error) {
	facts := make(Facts, len(raw))
	for key, value := range raw {
		fv, err := parseValue(value)
		if err != nil {
			return nil, fmt.Errorf("fact %q: %w", key, err)
		}
		facts[key] = fv
	}
	return facts, nil
}

func parseValue(value any) (FactValue, error) {
	switch cast := value.(type) {
	case string:
		return Text(cast), nil
	case bool:
		return Boolean(cast), nil
	case float64:
		return Number(cast), nil
	case int:
		return Number(float64(cast)), nil
	case int64:
		return Number(float64(cast)), nil
	case json.Number:
		parsed, err := cast.Float64()
		if err != nil {
			return FactValue{}, err
		}
		return Number(parsed), nil
	default:
		return FactValue{}, fmt.Errorf("unsupported value type %T", value)
	}
}

// MarshalJSON emits the bare value so fact maps round-trip as plain JSON objects.
func (v FactValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindText:
		return json.Marshal(v.Str)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindBoolean:
		return json.Marshal(v.Bool)
	default:
		return nil, fmt.Errorf("unknown fact kind %q", v.Kind)
	}
}

func (v *FactValue) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := parseValue(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// String renders the value for prompts and certificate rows.
func (v FactValue) String() string {
	switch v.Kind {
	case KindText:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.Bool)
	default:
		return ""
	}
}

func (v FactValue) equal(other FactValue) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindText:
		return v.Str == other.Str
	case KindNumber:
		return v.Num == other.Num
	case KindBoolean:
		return v.Bool == other.Bool
	default:
		return false
	}
}
