package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValueKind tags the shape of a raw per-mode variable value.
type ValueKind string

const (
	ValueKindString  ValueKind = "string"
	ValueKindNumber  ValueKind = "number"
	ValueKindColor   ValueKind = "color"
	ValueKindAlias   ValueKind = "alias"
	ValueKindUnknown ValueKind = "unknown"
)

// AliasType is the type marker design tools put on alias values.
const AliasType = "VARIABLE_ALIAS"

// Color holds fractional RGBA channels in [0,1].
type Color struct {
	R float64 `json:"r" yaml:"r"`
	G float64 `json:"g" yaml:"g"`
	B float64 `json:"b" yaml:"b"`
	A float64 `json:"a" yaml:"a"`
}

// Value is a raw variable value: a literal string, a number, a color, or a
// reference to another variable. Anything else decodes as ValueKindUnknown and
// keeps its source text in Raw.
type Value struct {
	Kind    ValueKind
	String  string
	Number  float64
	Color   Color
	AliasID string
	Raw     string
}

// StringValue creates a string value.
func StringValue(s string) Value { return Value{Kind: ValueKindString, String: s} }

// NumberValue creates a number value.
func NumberValue(f float64) Value { return Value{Kind: ValueKindNumber, Number: f} }

// ColorValue creates a color value.
func ColorValue(r, g, b, a float64) Value {
	return Value{Kind: ValueKindColor, Color: Color{R: r, G: g, B: b, A: a}}
}

// AliasValue creates a reference to another variable.
func AliasValue(id string) Value { return Value{Kind: ValueKindAlias, AliasID: id} }

// UnmarshalJSON classifies a raw JSON value.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = classify(raw)
	if v.Kind == ValueKindUnknown || (v.Kind == ValueKindColor && !v.Color.finite()) {
		v.Raw = string(data)
	}
	return nil
}

// MarshalJSON encodes the value back into the shape it was decoded from.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueKindString:
		return json.Marshal(v.String)
	case ValueKindNumber:
		return json.Marshal(v.Number)
	case ValueKindColor:
		if v.Color.finite() {
			return json.Marshal(v.Color)
		}
	case ValueKindAlias:
		return json.Marshal(VariableAlias{Type: AliasType, ID: v.AliasID})
	}
	if v.Raw != "" && json.Valid([]byte(v.Raw)) {
		return []byte(v.Raw), nil
	}
	return []byte("null"), nil
}

// UnmarshalYAML classifies a raw YAML value.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	if node.Kind == yaml.ScalarNode {
		switch node.Tag {
		case "!!str":
			*v = StringValue(node.Value)
			return nil
		case "!!int", "!!float":
			f, err := strconv.ParseFloat(node.Value, 64)
			if err != nil {
				return fmt.Errorf("line %d: %w", node.Line, err)
			}
			*v = NumberValue(f)
			return nil
		default:
			*v = Value{Kind: ValueKindUnknown, Raw: node.Value}
			return nil
		}
	}

	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*v = classify(raw)
	if v.Kind == ValueKindColor && !v.Color.finite() {
		if data, err := json.Marshal(raw); err == nil {
			v.Raw = string(data)
		}
	}
	return nil
}

// classify mirrors the checks a design tool runtime performs on a mode value:
// strings and numbers are literals, objects with an "r" channel are colors and
// objects with an "id" are aliases.
func classify(raw any) Value {
	switch t := raw.(type) {
	case string:
		return StringValue(t)
	case float64:
		return NumberValue(t)
	case int:
		return NumberValue(float64(t))
	case map[string]any:
		if _, ok := t["r"]; ok {
			return ColorValue(channel(t, "r"), channel(t, "g"), channel(t, "b"), alpha(t))
		}
		if id, ok := t["id"]; ok {
			return AliasValue(fmt.Sprint(id))
		}
	}
	return Value{Kind: ValueKindUnknown}
}

// channel reads a color channel the way a script runtime coerces it to a
// number: a missing or non-numeric channel is NaN, null is 0.
func channel(m map[string]any, key string) float64 {
	raw, ok := m[key]
	if !ok {
		return math.NaN()
	}
	return toFloat(raw)
}

func alpha(m map[string]any) float64 {
	if a, ok := m["a"]; ok {
		return toFloat(a)
	}
	return 1
}

func toFloat(raw any) float64 {
	switch n := raw.(type) {
	case nil:
		return 0
	case float64:
		return n
	case int:
		return float64(n)
	case bool:
		if n {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	}
	return math.NaN()
}

func (c Color) finite() bool {
	for _, x := range []float64{c.R, c.G, c.B, c.A} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
