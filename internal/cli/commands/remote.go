package commands

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/varbridge/backend/internal/figma"
	"github.com/varbridge/backend/internal/variables"
)

// NewRemoteCommand creates the remote command.
func NewRemoteCommand() *cobra.Command {
	var (
		query, format string
		token, apiURL string
		timeout       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "remote <fileKey>",
		Short: "List the variables of a remote design file",
		Long: `Fetch a file's variables from the design API and list them.

The access token defaults to $FIGMA_TOKEN and the API root to $FIGMA_API_URL.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := figma.NewClient(token, figma.WithBaseURL(apiURL), figma.WithTimeout(timeout))
			resp, err := client.GetFileVariables(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			views := variables.Filter(figma.TransformVariables(resp), query)
			return renderViews(cmd.OutOrStdout(), views, format)
		},
	}

	baseURL := os.Getenv("FIGMA_API_URL")
	if baseURL == "" {
		baseURL = figma.DefaultBaseURL
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Case-insensitive filter on name, value and collection")
	cmd.Flags().StringVar(&format, "format", FormatTable, "Output format (table|json)")
	cmd.Flags().StringVar(&token, "token", os.Getenv("FIGMA_TOKEN"), "API access token")
	cmd.Flags().StringVar(&apiURL, "api-url", baseURL, "API root URL")
	cmd.Flags().DurationVar(&timeout, "timeout", figma.DefaultTimeout, "Request timeout")

	return cmd
}
