// Package plugin implements the plugin's logic independently of the design
// tool that hosts it. A Session reacts to UI messages by querying and editing
// a Host and answers with messages through a Sender.
package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/varbridge/backend/internal/models"
	"github.com/varbridge/backend/internal/variables"
)

// externalIDPrefix distinguishes external variable ids from local ones.
const externalIDPrefix = "external_"

// ErrClosed is returned by HandleMessage after the plugin was cancelled.
var ErrClosed = errors.New("plugin closed")

// Host is the design tool the plugin runs inside.
type Host interface {
	LocalVariables() []models.Variable
	Lookup() variables.Lookup
	Selection() []models.Node
	LoadFont(ctx context.Context, font models.FontName) error
	SetCharacters(nodeID, text string) error
	SetBoundVariable(nodeID, field, variableID string) error
	Resize(width, height int)
	Close()
}

// Selector is implemented by hosts whose selection can be driven by the UI.
type Selector interface {
	Select(ids []string) error
}

// Sender delivers messages to the UI.
type Sender interface {
	Send(msg interface{}) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(msg interface{}) error

// Send implements Sender.
func (f SenderFunc) Send(msg interface{}) error { return f(msg) }

// ExternalSource loads variables of a remote file.
type ExternalSource interface {
	FileVariables(ctx context.Context, fileKey string) ([]models.VariableView, error)
}

// Option configures a Session.
type Option func(*Session)

// WithExternalSource enables load-external-variables.
func WithExternalSource(src ExternalSource, defaultFileKey string) Option {
	return func(s *Session) {
		s.external = src
		s.defaultFileKey = defaultFileKey
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Session is one running plugin instance.
type Session struct {
	host           Host
	out            Sender
	external       ExternalSource
	defaultFileKey string
	logger         *slog.Logger
	closed         bool
}

// NewSession creates a session.
func NewSession(host Host, out Sender, opts ...Option) *Session {
	s := &Session{
		host:   host,
		out:    out,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start sends the variable list followed by the current selection.
func (s *Session) Start(ctx context.Context) error {
	if err := s.LoadVariables(ctx); err != nil {
		return err
	}
	return s.SelectionChanged(ctx)
}

// Closed reports whether the UI cancelled the plugin.
func (s *Session) Closed() bool {
	return s.closed
}

// LoadVariables sends every local variable as a view.
func (s *Session) LoadVariables(ctx context.Context) error {
	views := variables.BuildViews(s.host.LocalVariables(), s.host.Lookup())
	views = variables.WithSource(views, variables.SourceLocal, "")
	return s.out.Send(VariablesLoaded{Type: MsgVariablesLoaded, Variables: views})
}

// SelectionChanged describes the first selected text node, if any.
func (s *Session) SelectionChanged(ctx context.Context) error {
	node, ok := firstText(s.host.Selection())
	if !ok {
		return s.out.Send(TypeOnly{Type: MsgNoTextSelected})
	}

	return s.out.Send(TextSelected{
		Type:          MsgTextSelected,
		Text:          node.Characters,
		NodeName:      node.Name,
		NodeID:        node.ID,
		BoundVariable: s.boundVariable(node),
	})
}

func (s *Session) boundVariable(node models.Node) *models.BoundVariableInfo {
	alias, ok := node.BoundVariables[models.BoundFieldCharacters]
	if !ok || alias.ID == "" {
		return nil
	}
	lookup := s.host.Lookup()
	v, ok := lookup.Variable(alias.ID)
	if !ok {
		return nil
	}
	return &models.BoundVariableInfo{
		ID:         v.ID,
		Name:       v.Name,
		Value:      variables.LiteralValue(v),
		Collection: variables.CollectionName(v, lookup),
	}
}

// HandleMessage decodes and dispatches one UI message. Failures the UI should
// see are sent as error messages; the returned error is reserved for
// transport failures and ErrClosed.
func (s *Session) HandleMessage(ctx context.Context, data []byte) error {
	if s.closed {
		return ErrClosed
	}

	var msg Incoming
	if err := json.Unmarshal(data, &msg); err != nil {
		return s.sendError(fmt.Sprintf("Error: invalid message: %v", err))
	}
	return s.Dispatch(ctx, msg)
}

// Dispatch handles a decoded UI message.
func (s *Session) Dispatch(ctx context.Context, msg Incoming) error {
	switch msg.Type {
	case MsgResize:
		if msg.Size != nil {
			s.host.Resize(msg.Size.Width, msg.Size.Height)
		}
		return nil
	case MsgBindVariable:
		return s.bindVariable(ctx, msg.VariableID)
	case MsgMapVariables:
		return s.mapVariables(ctx, variables.MappingsFrom(msg.VariableMappings))
	case MsgLoadExternalVariables:
		return s.loadExternal(ctx, msg.FileKey)
	case MsgSelect:
		return s.selectNodes(ctx, msg.NodeIDs)
	case MsgPing:
		return s.out.Send(TypeOnly{Type: MsgPong})
	case MsgCancel:
		s.closed = true
		s.host.Close()
		if err := s.out.Send(TypeOnly{Type: MsgClosed}); err != nil {
			return err
		}
		return ErrClosed
	}

	s.logger.Debug("ignoring unknown message", "type", msg.Type)
	return nil
}

func (s *Session) bindVariable(ctx context.Context, variableID string) error {
	lookup := s.host.Lookup()
	v, ok := lookup.Variable(variableID)
	if !ok {
		return s.sendError("Variable not found.")
	}

	nodes := textNodes(s.host.Selection())
	if len(nodes) == 0 {
		return s.sendError("Please select at least one text node in the canvas.")
	}

	for _, node := range nodes {
		if err := s.host.LoadFont(ctx, node.FontName); err != nil {
			return s.sendError(fmt.Sprintf("Error binding variable: %v", err))
		}
		if err := s.host.SetBoundVariable(node.ID, models.BoundFieldCharacters, variableID); err != nil {
			return s.sendError(fmt.Sprintf("Error binding variable: %v", err))
		}
	}

	s.logger.Info("variable bound", "variable", v.Name, "nodes", len(nodes))
	return s.out.Send(VariableBound{
		Type:    MsgVariableBound,
		Message: fmt.Sprintf("Successfully bound variable to %d text node(s).", len(nodes)),
		VariableDetails: models.VariableDetails{
			Name:  variables.CollectionName(v, lookup) + "/" + v.Name,
			Value: variables.LiteralValue(v),
			Type:  v.ResolvedType,
		},
	})
}

func (s *Session) mapVariables(ctx context.Context, mappings []variables.Mapping) error {
	nodes := textNodes(s.host.Selection())
	if len(nodes) == 0 {
		return s.sendError("No text nodes selected. Please select at least one text node.")
	}

	for _, node := range nodes {
		if err := s.host.LoadFont(ctx, node.FontName); err != nil {
			return s.sendError(fmt.Sprintf("Error: %v", err))
		}
		text := variables.ApplyMappings(node.Characters, mappings)
		if err := s.host.SetCharacters(node.ID, text); err != nil {
			return s.sendError(fmt.Sprintf("Error: %v", err))
		}
	}

	return s.out.Send(Notice{
		Type:    MsgSuccess,
		Message: fmt.Sprintf("Updated %d text node(s)", len(nodes)),
	})
}

func (s *Session) loadExternal(ctx context.Context, fileKey string) error {
	if err := s.out.Send(TypeOnly{Type: MsgExternalLoading}); err != nil {
		return err
	}

	if fileKey == "" {
		fileKey = s.defaultFileKey
	}
	if s.external == nil {
		return s.out.Send(ExternalError{Type: MsgExternalVariablesError, Error: "external variables are not configured"})
	}
	if fileKey == "" {
		return s.out.Send(ExternalError{Type: MsgExternalVariablesError, Error: "file key is required"})
	}

	views, err := s.external.FileVariables(ctx, fileKey)
	if err != nil {
		return s.out.Send(ExternalError{Type: MsgExternalVariablesError, Error: err.Error()})
	}

	return s.out.Send(VariablesLoaded{
		Type:      MsgExternalVariablesLoaded,
		Variables: variables.WithSource(views, variables.SourceExternal, externalIDPrefix),
	})
}

func (s *Session) selectNodes(ctx context.Context, ids []string) error {
	sel, ok := s.host.(Selector)
	if !ok {
		return s.sendError("Error: selection is controlled by the host")
	}
	if err := sel.Select(ids); err != nil {
		return s.sendError(fmt.Sprintf("Error: %v", err))
	}
	return s.SelectionChanged(ctx)
}

func (s *Session) sendError(message string) error {
	return s.out.Send(Notice{Type: MsgError, Message: message})
}

func textNodes(nodes []models.Node) []models.Node {
	out := make([]models.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.IsText() {
			out = append(out, n)
		}
	}
	return out
}

func firstText(nodes []models.Node) (models.Node, bool) {
	for _, n := range nodes {
		if n.IsText() {
			return n, true
		}
	}
	return models.Node{}, false
}
