package variables

import (
	"cmp"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/varbridge/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// Mapping substitutes every occurrence of Old with New.
type Mapping struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// ApplyMappings replaces every literal occurrence of each mapping's Old text,
// one mapping at a time in order, so later mappings see earlier replacements.
// New may use the replacement patterns of String.prototype.replace: "$$"
// inserts "$", "$&" the matched text, "$`" the text before the match and "$'"
// the text after it. Any other "$" is literal.
func ApplyMappings(text string, mappings []Mapping) string {
	for _, m := range mappings {
		text = replaceAll(text, m.Old, m.New)
	}
	return text
}

func replaceAll(text, old, repl string) string {
	if !strings.Contains(repl, "$") {
		return strings.ReplaceAll(text, old, repl)
	}

	var b strings.Builder
	last := 0
	for i := 0; i <= len(text); {
		j := strings.Index(text[i:], old)
		if j < 0 {
			break
		}
		j += i
		b.WriteString(text[last:j])
		expandReplacement(&b, repl, text, j, j+len(old))
		last = j + len(old)
		i = last
		if old == "" {
			// An empty pattern matches between every character.
			if i == len(text) {
				break
			}
			_, size := utf8.DecodeRuneInString(text[i:])
			i += size
		}
	}
	b.WriteString(text[last:])
	return b.String()
}

func expandReplacement(b *strings.Builder, repl, text string, start, end int) {
	for i := 0; i < len(repl); i++ {
		c := repl[i]
		if c != '$' || i+1 == len(repl) {
			b.WriteByte(c)
			continue
		}
		switch repl[i+1] {
		case '$':
			b.WriteByte('$')
		case '&':
			b.WriteString(text[start:end])
		case '`':
			b.WriteString(text[:start])
		case '\'':
			b.WriteString(text[end:])
		default:
			b.WriteByte(c)
			continue
		}
		i++
	}
}

// MappingsFrom converts an old->new table into mappings. Replacement values
// are stringified: strings as-is, numbers in display form, anything else as
// its source text.
//
// Keys are visited in JavaScript property order: keys that are array indices
// ("0", "10", but not "010") come first in ascending numeric order, then the
// remaining keys in source order.
func MappingsFrom(table models.OrderedMap[models.Value]) []Mapping {
	out := make([]Mapping, 0, table.Len())
	for old, value := range table.All() {
		out = append(out, Mapping{Old: old, New: Stringify(value)})
	}
	slices.SortStableFunc(out, func(a, b Mapping) int {
		ai, aok := arrayIndex(a.Old)
		bi, bok := arrayIndex(b.Old)
		switch {
		case aok && bok:
			return cmp.Compare(ai, bi)
		case aok:
			return -1
		case bok:
			return 1
		}
		return 0
	})
	return out
}

// arrayIndex reports whether key is the canonical form of an integer in
// [0, 2^32-2].
func arrayIndex(key string) (uint64, bool) {
	n, err := strconv.ParseUint(key, 10, 32)
	if err != nil || n == math.MaxUint32 || strconv.FormatUint(n, 10) != key {
		return 0, false
	}
	return n, true
}

// Stringify renders a replacement value.
func Stringify(value models.Value) string {
	switch value.Kind {
	case models.ValueKindString:
		return value.String
	case models.ValueKindNumber:
		return FormatNumber(value.Number)
	case models.ValueKindColor:
		return FormatColor(value.Color)
	case models.ValueKindAlias:
		return value.AliasID
	}
	return value.Raw
}

// ParseMappings reads an ordered old->new table from YAML (or JSON).
func ParseMappings(r io.Reader) ([]Mapping, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var table models.OrderedMap[models.Value]
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parsing mappings: %w", err)
	}
	return MappingsFrom(table), nil
}
