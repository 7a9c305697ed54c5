package variables

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varbridge/backend/internal/models"
)

func TestApplyMappings(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		mappings []Mapping
		want     string
	}{
		{
			name:     "replaces every occurrence",
			text:     "Price: $10, was $10",
			mappings: []Mapping{{Old: "$10", New: "$12"}},
			want:     "Price: $12, was $12",
		},
		{
			name:     "regex metacharacters are literal",
			text:     "a.b a+b (x)",
			mappings: []Mapping{{Old: "a.b", New: "ok"}, {Old: "(x)", New: "[y]"}},
			want:     "ok a+b [y]",
		},
		{
			name:     "applied in order",
			text:     "cat",
			mappings: []Mapping{{Old: "cat", New: "dog"}, {Old: "dog", New: "bird"}},
			want:     "bird",
		},
		{
			name:     "replacement patterns",
			text:     "a-b",
			mappings: []Mapping{{Old: "-", New: "[$&|$`|$'|$$|$x]"}},
			want:     "a[-|a|b|$|$x]b",
		},
		{
			name:     "trailing dollar is literal",
			text:     "cost",
			mappings: []Mapping{{Old: "cost", New: "5$"}},
			want:     "5$",
		},
		{
			name:     "empty pattern matches between characters",
			text:     "ab",
			mappings: []Mapping{{Old: "", New: "$&|"}},
			want:     "|a|b|",
		},
		{
			name:     "no mappings",
			text:     "unchanged",
			mappings: nil,
			want:     "unchanged",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ApplyMappings(tt.text, tt.mappings))
		})
	}
}

func TestMappingsFrom_StringifiesValues(t *testing.T) {
	var table models.OrderedMap[models.Value]
	require.NoError(t, json.Unmarshal([]byte(`{"{size}":16,"{name}":"Ada","{flag}":true}`), &table))

	assert.Equal(t, []Mapping{
		{Old: "{size}", New: "16"},
		{Old: "{name}", New: "Ada"},
		{Old: "{flag}", New: "true"},
	}, MappingsFrom(table))
}

func TestMappingsFrom_IndexKeysFirst(t *testing.T) {
	var table models.OrderedMap[models.Value]
	require.NoError(t, json.Unmarshal([]byte(`{"b":"x","100":"y","a":"z","10":"w","010":"v","4294967295":"u"}`), &table))

	var keys []string
	for _, m := range MappingsFrom(table) {
		keys = append(keys, m.Old)
	}
	assert.Equal(t, []string{"10", "100", "b", "a", "010", "4294967295"}, keys)

	// "10" runs before "100", so the longer key never matches.
	assert.Equal(t, "ww0", ApplyMappings("10100", MappingsFrom(table)))
}

func TestParseMappings(t *testing.T) {
	src := `
"Hello": "Hi"
"{count}": 3
"Hi": "Hey"
`
	mappings, err := ParseMappings(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, mappings, 3)
	assert.Equal(t, "Hey there, 3", ApplyMappings("Hello there, {count}", mappings))
}

func TestParseMappings_RejectsList(t *testing.T) {
	_, err := ParseMappings(strings.NewReader("- a\n- b\n"))
	assert.Error(t, err)
}
