package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/varbridge/backend/internal/document"
	"github.com/varbridge/backend/internal/variables"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	var query, format string

	cmd := &cobra.Command{
		Use:   "list <document>",
		Short: "List the local variables of a document",
		Example: `  # List every variable
  varbridge list landing.json

  # Only variables whose name, value or collection mention "brand", as JSON
  varbridge list landing.yaml -q brand --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := document.Load(args[0])
			if err != nil {
				return fmt.Errorf("failed to load document: %w", err)
			}

			index := variables.NewIndex(doc.Variables, doc.Collections)
			views := variables.Filter(variables.BuildViews(doc.Variables, index), query)
			return renderViews(cmd.OutOrStdout(), views, format)
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Case-insensitive filter on name, value and collection")
	cmd.Flags().StringVar(&format, "format", FormatTable, "Output format (table|json)")

	return cmd
}
