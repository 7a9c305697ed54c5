// Package document loads offline design documents and exposes them as a
// plugin host.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/varbridge/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// Parse reads a document in JSON or YAML form.
func Parse(r io.Reader) (*models.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	var doc models.Document
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("parsing JSON document: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing YAML document: %w", err)
		}
	}

	if err := Validate(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Load reads a document from disk.
func Load(path string) (*models.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f)
}

// Validate checks that ids are present and unique.
func Validate(doc *models.Document) error {
	seen := make(map[string]struct{})
	for i, v := range doc.Variables {
		if v.ID == "" {
			return fmt.Errorf("variable %d: missing id", i)
		}
		if _, dup := seen[v.ID]; dup {
			return fmt.Errorf("duplicate variable id %q", v.ID)
		}
		seen[v.ID] = struct{}{}
	}

	nodes := make(map[string]struct{}, len(doc.Nodes))
	for i, n := range doc.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node %d: missing id", i)
		}
		if _, dup := nodes[n.ID]; dup {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		nodes[n.ID] = struct{}{}
	}

	for _, id := range doc.Selection {
		if _, ok := nodes[id]; !ok {
			return fmt.Errorf("selection references unknown node %q", id)
		}
	}
	return nil
}
