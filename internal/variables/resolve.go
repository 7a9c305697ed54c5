// Package variables turns raw design variables into display-ready views.
//
// The resolution rule is the same everywhere a variable is shown: take the
// value of the first mode in source order and render it as a string, a
// number, an rgb() triple or an alias arrow.
package variables

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/varbridge/backend/internal/models"
)

// Display strings used when a value cannot be rendered.
const (
	NotAvailable      = "N/A"
	UnknownCollection = "Unknown"
	AliasFallback     = "Alias"
	aliasPrefix       = "→ "
)

// Lookup resolves variables and collections by id.
type Lookup interface {
	Variable(id string) (models.Variable, bool)
	Collection(id string) (models.VariableCollection, bool)
}

// FirstModeValue returns the value stored under the first mode key.
func FirstModeValue(v models.Variable) (models.Value, bool) {
	_, value, ok := v.ValuesByMode.First()
	return value, ok
}

// ResolveValue renders a raw value, following aliases one level through lookup.
func ResolveValue(value models.Value, lookup Lookup) string {
	if value.Kind == models.ValueKindAlias {
		if lookup != nil {
			if target, ok := lookup.Variable(value.AliasID); ok {
				return aliasPrefix + target.Name
			}
		}
		return AliasFallback
	}
	return ResolveLiteral(value)
}

// ResolveLiteral renders a raw value without following aliases. Alias values
// render as N/A.
func ResolveLiteral(value models.Value) string {
	switch value.Kind {
	case models.ValueKindString:
		return value.String
	case models.ValueKindNumber:
		return FormatNumber(value.Number)
	case models.ValueKindColor:
		return FormatColor(value.Color)
	}
	return NotAvailable
}

// DisplayValue renders the first mode value of v.
func DisplayValue(v models.Variable, lookup Lookup) string {
	value, ok := FirstModeValue(v)
	if !ok {
		return NotAvailable
	}
	return ResolveValue(value, lookup)
}

// LiteralValue renders the first mode value of v without following aliases.
func LiteralValue(v models.Variable) string {
	value, ok := FirstModeValue(v)
	if !ok {
		return NotAvailable
	}
	return ResolveLiteral(value)
}

// FormatColor renders a color as "rgb(R, G, B)". Alpha is dropped. A NaN
// channel, from a malformed color object, renders as "NaN".
func FormatColor(c models.Color) string {
	return fmt.Sprintf("rgb(%s, %s, %s)", channel(c.R), channel(c.G), channel(c.B))
}

// channel scales a [0,1] channel to 0-255, rounding halves up.
func channel(x float64) string {
	return FormatNumber(math.Floor(x*255 + 0.5))
}

// FormatNumber renders f the way a JavaScript runtime prints a number:
// integers without a fraction, shortest round-trip digits, and exponent
// notation only for very large or very small magnitudes.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mantissa, exp, _ := strings.Cut(s, "e")
		sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
		return mantissa + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// maxAliasDepth bounds alias chains so cycles terminate.
const maxAliasDepth = 16

// ResolveChain follows aliases from v's first mode value until a literal is
// reached and renders it. It reports false for missing targets, cycles and
// values with no literal rendering.
func ResolveChain(v models.Variable, lookup Lookup) (string, bool) {
	for depth := 0; depth < maxAliasDepth; depth++ {
		value, ok := FirstModeValue(v)
		if !ok {
			return NotAvailable, false
		}
		if value.Kind != models.ValueKindAlias {
			s := ResolveLiteral(value)
			return s, s != NotAvailable || value.Kind == models.ValueKindString
		}
		if lookup == nil {
			return AliasFallback, false
		}
		if v, ok = lookup.Variable(value.AliasID); !ok {
			return AliasFallback, false
		}
	}
	return AliasFallback, false
}
