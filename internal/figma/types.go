package figma

import (
	"github.com/varbridge/backend/internal/models"
	"github.com/varbridge/backend/internal/variables"
)

// VariablesResponse is the body of GET /v1/files/:key/variables.
type VariablesResponse struct {
	Status int            `json:"status,omitempty"`
	Error  bool           `json:"error,omitempty"`
	Meta   *VariablesMeta `json:"meta,omitempty"`
}

// VariablesMeta holds the variable and collection tables, keyed by id in
// upstream order.
type VariablesMeta struct {
	Variables           models.OrderedMap[models.Variable]           `json:"variables"`
	VariableCollections models.OrderedMap[models.VariableCollection] `json:"variableCollections"`
}

// Variable implements variables.Lookup.
func (m *VariablesMeta) Variable(id string) (models.Variable, bool) {
	return m.Variables.Get(id)
}

// Collection implements variables.Lookup.
func (m *VariablesMeta) Collection(id string) (models.VariableCollection, bool) {
	return m.VariableCollections.Get(id)
}

// TransformVariables reshapes an upstream response into views, one per
// variable in upstream order. The table key is used as the view id.
func TransformVariables(resp *VariablesResponse) []models.VariableView {
	views := make([]models.VariableView, 0)
	if resp == nil || resp.Meta == nil {
		return views
	}

	for id, v := range resp.Meta.Variables.All() {
		view := variables.BuildView(v, resp.Meta)
		view.ID = id
		views = append(views, view)
	}
	return views
}
