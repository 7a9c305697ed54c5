// Package commands implements the varbridge subcommands.
package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/varbridge/backend/internal/models"
)

// Output formats for variable listings.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

func renderViews(w io.Writer, views []models.VariableView, format string) error {
	switch format {
	case FormatJSON:
		if views == nil {
			views = []models.VariableView{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	case FormatTable, "":
		return renderTable(w, views)
	}
	return fmt.Errorf("unknown format %q (want %s or %s)", format, FormatTable, FormatJSON)
}

func renderTable(w io.Writer, views []models.VariableView) error {
	if len(views) == 0 {
		_, _ = fmt.Fprintln(w, "(0 variables)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Name", "Value", "Type", "Collection"})
	for _, v := range views {
		t.AppendRow(table.Row{v.ID, v.Name, v.Value, v.Type, v.Collection})
	}
	t.Render()

	_, _ = fmt.Fprintf(w, "(%d variables)\n", len(views))
	return nil
}
