package variables

import (
	"strings"

	"github.com/varbridge/backend/internal/models"
)

// Filter keeps views whose name, collection or value contains query,
// case-insensitively. A blank query returns views unchanged.
func Filter(views []models.VariableView, query string) []models.VariableView {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return views
	}

	out := make([]models.VariableView, 0, len(views))
	for _, v := range views {
		if Matches(v, q) {
			out = append(out, v)
		}
	}
	return out
}

// Matches reports whether v matches an already lower-cased query.
func Matches(v models.VariableView, q string) bool {
	return strings.Contains(strings.ToLower(v.Name), q) ||
		strings.Contains(strings.ToLower(v.Collection), q) ||
		strings.Contains(strings.ToLower(v.Value), q)
}
