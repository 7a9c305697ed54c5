package variables

import "github.com/varbridge/backend/internal/models"

// View sources.
const (
	SourceLocal    = "local"
	SourceExternal = "external"
)

// CollectionName returns the name of v's collection, or "Unknown".
func CollectionName(v models.Variable, lookup Lookup) string {
	if lookup == nil || v.VariableCollectionID == "" {
		return UnknownCollection
	}
	c, ok := lookup.Collection(v.VariableCollectionID)
	if !ok || c.Name == "" {
		return UnknownCollection
	}
	return c.Name
}

// BuildView projects v into a display-ready view.
func BuildView(v models.Variable, lookup Lookup) models.VariableView {
	return models.VariableView{
		ID:         v.ID,
		Name:       v.Name,
		Value:      DisplayValue(v, lookup),
		Type:       v.ResolvedType,
		Collection: CollectionName(v, lookup),
	}
}

// BuildViews projects every variable, preserving order. The result is never nil.
func BuildViews(vars []models.Variable, lookup Lookup) []models.VariableView {
	views := make([]models.VariableView, 0, len(vars))
	for _, v := range vars {
		views = append(views, BuildView(v, lookup))
	}
	return views
}

// WithSource stamps views with a source and an optional id prefix, returning
// a new slice.
func WithSource(views []models.VariableView, source, idPrefix string) []models.VariableView {
	out := make([]models.VariableView, len(views))
	for i, v := range views {
		v.Source = source
		v.ID = idPrefix + v.ID
		out[i] = v
	}
	return out
}

// Index is an in-memory Lookup over variables and collections.
type Index struct {
	variables   map[string]models.Variable
	collections map[string]models.VariableCollection
}

// NewIndex builds an index. Later duplicates win.
func NewIndex(vars []models.Variable, collections []models.VariableCollection) *Index {
	idx := &Index{
		variables:   make(map[string]models.Variable, len(vars)),
		collections: make(map[string]models.VariableCollection, len(collections)),
	}
	for _, v := range vars {
		idx.variables[v.ID] = v
	}
	for _, c := range collections {
		idx.collections[c.ID] = c
	}
	return idx
}

// Variable implements Lookup.
func (idx *Index) Variable(id string) (models.Variable, bool) {
	v, ok := idx.variables[id]
	return v, ok
}

// Collection implements Lookup.
func (idx *Index) Collection(id string) (models.VariableCollection, bool) {
	c, ok := idx.collections[id]
	return c, ok
}
