package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/varbridge/backend/internal/document"
	"github.com/varbridge/backend/internal/models"
	"github.com/varbridge/backend/internal/variables"
)

// ErrNoTextNodes is returned when a mapping run has nothing to edit.
var ErrNoTextNodes = errors.New("No text nodes selected. Please select at least one text node.")

// NewMapCommand creates the map command.
func NewMapCommand() *cobra.Command {
	var (
		mappingsPath string
		outPath      string
		all          bool
	)

	cmd := &cobra.Command{
		Use:   "map <document>",
		Short: "Replace text in a document's selected text nodes",
		Long: `Apply an ordered old -> new table to the characters of the selected text
nodes. Each mapping replaces every occurrence of its old text, in file order,
so later mappings see the output of earlier ones.

The edited document is written as JSON to --out ("-" for stdout).`,
		Example: `  # mappings.yaml
  #   "{name}": Ada
  #   "{count}": 3
  varbridge map landing.json --mappings mappings.yaml --out landing.mapped.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mappings, err := readMappings(mappingsPath)
			if err != nil {
				return err
			}

			doc, err := document.Load(args[0])
			if err != nil {
				return fmt.Errorf("failed to load document: %w", err)
			}

			targets := doc.Selection
			if all {
				targets = textNodeIDs(doc.Nodes)
			}

			host := document.NewHost(doc)
			updated, err := applyMappings(host, targets, mappings)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Updated %d text node(s)\n", updated)

			return writeDocument(cmd.OutOrStdout(), host, outPath)
		},
	}

	cmd.Flags().StringVarP(&mappingsPath, "mappings", "m", "", "YAML or JSON file with the old -> new table")
	cmd.Flags().StringVarP(&outPath, "out", "o", "-", "Output path")
	cmd.Flags().BoolVar(&all, "all", false, "Edit every text node instead of the selection")
	_ = cmd.MarkFlagRequired("mappings")

	return cmd
}

func readMappings(path string) ([]variables.Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mappings: %w", err)
	}
	defer func() { _ = f.Close() }()

	return variables.ParseMappings(f)
}

func textNodeIDs(nodes []models.Node) []string {
	var ids []string
	for _, n := range nodes {
		if n.IsText() {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// applyMappings edits the text nodes among ids and returns how many it
// touched. Non-text and unknown ids are skipped.
func applyMappings(host *document.Host, ids []string, mappings []variables.Mapping) (int, error) {
	updated := 0
	for _, id := range ids {
		node, ok := host.Node(id)
		if !ok || !node.IsText() {
			continue
		}
		text := variables.ApplyMappings(node.Characters, mappings)
		if err := host.SetCharacters(id, text); err != nil {
			return updated, err
		}
		slog.Debug("mapped text node", "node", id, "name", node.Name)
		updated++
	}
	if updated == 0 {
		return 0, ErrNoTextNodes
	}
	return updated, nil
}

func writeDocument(stdout io.Writer, host *document.Host, path string) error {
	if path == "" || path == "-" {
		return host.Encode(stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := host.Encode(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
