package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/varbridge/backend/internal/uibuild"
	"github.com/varbridge/backend/internal/web"
)

// NewBuildUICommand creates the build-ui command.
func NewBuildUICommand() *cobra.Command {
	var opts uibuild.Options

	cmd := &cobra.Command{
		Use:   "build-ui",
		Short: "Package the plugin UI as a single HTML file",
		Long: `Read ui.html and ui.js (or bundle ui.ts) from --src, replace the
<script src="ui.js"></script> tag with the script inlined, and write the page
to --out. The default output is the page embedded by the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := uibuild.Build(opts)
			if err != nil {
				return err
			}
			if !res.Inlined {
				slog.Warn("script tag not found, page written unchanged", "tag", uibuild.ScriptTag)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Built UI with inline JavaScript: %s (%d bytes)\n", res.Path, res.Size)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.SrcDir, "src", "ui", "Directory holding ui.html and the script")
	cmd.Flags().StringVar(&opts.OutDir, "out", "internal/web/dist", "Output directory")
	cmd.Flags().StringVar(&opts.OutFile, "out-file", web.IndexFile, "Output file name")
	cmd.Flags().BoolVar(&opts.TypeScript, "ts", false, "Bundle ui.ts with esbuild instead of reading ui.js")
	cmd.Flags().BoolVar(&opts.Minify, "minify", false, "Minify the script")

	return cmd
}
