package models

import "time"

// NodeTypeText is the node type of text layers.
const NodeTypeText = "TEXT"

// BoundFieldCharacters is the text node field a variable binds to.
const BoundFieldCharacters = "characters"

// FontName identifies a font face.
type FontName struct {
	Family string `json:"family" yaml:"family"`
	Style  string `json:"style" yaml:"style"`
}

// Node is a canvas layer. Only text nodes carry characters and a font.
type Node struct {
	ID             string                   `json:"id" yaml:"id"`
	Name           string                   `json:"name" yaml:"name"`
	Type           string                   `json:"type" yaml:"type"`
	Characters     string                   `json:"characters,omitempty" yaml:"characters,omitempty"`
	FontName       FontName                 `json:"fontName,omitempty" yaml:"fontName,omitempty"`
	BoundVariables map[string]VariableAlias `json:"boundVariables,omitempty" yaml:"boundVariables,omitempty"`
}

// IsText reports whether the node is a text layer.
func (n Node) IsText() bool {
	return n.Type == NodeTypeText
}

// Document is an offline snapshot of a design file: its local variables, the
// collections they belong to, the canvas nodes and the current selection.
type Document struct {
	Name        string               `json:"name" yaml:"name"`
	Variables   []Variable           `json:"variables" yaml:"variables"`
	Collections []VariableCollection `json:"collections" yaml:"collections"`
	Nodes       []Node               `json:"nodes" yaml:"nodes"`
	Selection   []string             `json:"selection,omitempty" yaml:"selection,omitempty"`
}

// DocumentInfo represents metadata about a stored document.
type DocumentInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
	Status     string    `json:"status"` // "uploaded", "invalid"
}
