package variables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/varbridge/backend/internal/models"
)

func TestBuildViews(t *testing.T) {
	idx := testIndex(t)
	vars := []models.Variable{
		newVariable(t, "v1", "color/primary", "c1", models.ResolvedTypeColor, `{"m1":{"r":1,"g":0.5,"b":0,"a":1}}`),
		newVariable(t, "v5", "alias/spacing", "missing", models.ResolvedTypeFloat, `{"m1":{"type":"VARIABLE_ALIAS","id":"v2"}}`),
	}

	views := BuildViews(vars, idx)

	assert.Equal(t, []models.VariableView{
		{ID: "v1", Name: "color/primary", Value: "rgb(255, 128, 0)", Type: "COLOR", Collection: "Tokens"},
		{ID: "v5", Name: "alias/spacing", Value: "→ spacing/md", Type: "FLOAT", Collection: "Unknown"},
	}, views)
}

func TestBuildViews_EmptyIsNotNil(t *testing.T) {
	views := BuildViews(nil, nil)
	assert.NotNil(t, views)
	assert.Empty(t, views)
}

func TestCollectionName_EmptyNameIsUnknown(t *testing.T) {
	idx := NewIndex(nil, []models.VariableCollection{{ID: "c9"}})
	assert.Equal(t, "Unknown", CollectionName(models.Variable{VariableCollectionID: "c9"}, idx))
	assert.Equal(t, "Unknown", CollectionName(models.Variable{}, idx))
}

func TestWithSource(t *testing.T) {
	views := []models.VariableView{{ID: "v1", Name: "a"}}
	out := WithSource(views, SourceExternal, "external_")

	assert.Equal(t, "external_v1", out[0].ID)
	assert.Equal(t, "external", out[0].Source)
	assert.Equal(t, "v1", views[0].ID, "input must not be modified")
}
