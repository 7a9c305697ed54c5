package document

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/varbridge/backend/internal/models"
	"github.com/varbridge/backend/internal/variables"
)

// Default plugin window size.
const (
	DefaultWidth  = 400
	DefaultHeight = 600
)

// Host runs the plugin against an in-memory document, standing in for the
// design tool's canvas.
type Host struct {
	mu     sync.RWMutex
	doc    *models.Document
	index  *variables.Index
	nodes  map[string]int
	width  int
	height int
	closed bool
}

// NewHost wraps doc. The host owns doc from here on.
func NewHost(doc *models.Document) *Host {
	if doc == nil {
		doc = &models.Document{}
	}
	h := &Host{
		doc:    doc,
		index:  variables.NewIndex(doc.Variables, doc.Collections),
		nodes:  make(map[string]int, len(doc.Nodes)),
		width:  DefaultWidth,
		height: DefaultHeight,
	}
	for i, n := range doc.Nodes {
		h.nodes[n.ID] = i
	}
	return h
}

// LocalVariables returns the document's variables.
func (h *Host) LocalVariables() []models.Variable {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.doc.Variables)
}

// Lookup returns the variable index.
func (h *Host) Lookup() variables.Lookup {
	return h.index
}

// Selection returns the selected nodes in selection order.
func (h *Host) Selection() []models.Node {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]models.Node, 0, len(h.doc.Selection))
	for _, id := range h.doc.Selection {
		if i, ok := h.nodes[id]; ok {
			out = append(out, h.doc.Nodes[i])
		}
	}
	return out
}

// Select replaces the selection.
func (h *Host) Select(ids []string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, id := range ids {
		if _, ok := h.nodes[id]; !ok {
			return fmt.Errorf("node not found: %s", id)
		}
	}
	h.doc.Selection = slices.Clone(ids)
	return nil
}

// LoadFont always succeeds; offline documents carry no font files.
func (h *Host) LoadFont(ctx context.Context, font models.FontName) error {
	return ctx.Err()
}

// SetCharacters replaces a text node's content.
func (h *Host) SetCharacters(nodeID, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, err := h.textNode(nodeID)
	if err != nil {
		return err
	}
	n.Characters = text
	return nil
}

// SetBoundVariable links a node field to a variable. Only the characters
// field of text nodes can be bound, and only to string or number variables;
// the node's content is updated to the variable's current value.
func (h *Host) SetBoundVariable(nodeID, field, variableID string) error {
	if field != models.BoundFieldCharacters {
		return fmt.Errorf("unsupported bound field %q", field)
	}

	v, ok := h.index.Variable(variableID)
	if !ok {
		return fmt.Errorf("variable not found: %s", variableID)
	}
	if v.ResolvedType != models.ResolvedTypeString && v.ResolvedType != models.ResolvedTypeFloat {
		return fmt.Errorf("cannot bind %s variable to characters", v.ResolvedType)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	n, err := h.textNode(nodeID)
	if err != nil {
		return err
	}
	if n.BoundVariables == nil {
		n.BoundVariables = make(map[string]models.VariableAlias)
	}
	n.BoundVariables[field] = models.VariableAlias{Type: models.AliasType, ID: variableID}
	if value, ok := variables.ResolveChain(v, h.index); ok {
		n.Characters = value
	}
	return nil
}

// textNode must be called with mu held.
func (h *Host) textNode(id string) (*models.Node, error) {
	i, ok := h.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	n := &h.doc.Nodes[i]
	if !n.IsText() {
		return nil, fmt.Errorf("node %s is not a text node", id)
	}
	return n, nil
}

// Resize records the plugin window size.
func (h *Host) Resize(width, height int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.width, h.height = width, height
}

// Size returns the plugin window size.
func (h *Host) Size() (int, int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.width, h.height
}

// Close marks the plugin as closed.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
}

// Closed reports whether Close was called.
func (h *Host) Closed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.closed
}

// Node returns a copy of a node by id.
func (h *Host) Node(id string) (models.Node, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	i, ok := h.nodes[id]
	if !ok {
		return models.Node{}, false
	}
	return h.doc.Nodes[i], true
}

// Encode writes the current document as indented JSON.
func (h *Host) Encode(w io.Writer) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(h.doc)
}
