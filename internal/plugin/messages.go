package plugin

import (
	"github.com/varbridge/backend/internal/models"
)

// Messages from the UI.
const (
	MsgResize                = "resize"
	MsgBindVariable          = "bind-variable"
	MsgMapVariables          = "map-variables"
	MsgLoadExternalVariables = "load-external-variables"
	MsgSelect                = "select"
	MsgCancel                = "cancel"
	MsgPing                  = "ping"
)

// Messages to the UI.
const (
	MsgVariablesLoaded         = "variables-loaded"
	MsgTextSelected            = "text-selected"
	MsgNoTextSelected          = "no-text-selected"
	MsgVariableBound           = "variable-bound"
	MsgSuccess                 = "success"
	MsgError                   = "error"
	MsgExternalLoading         = "external-variables-loading"
	MsgExternalVariablesLoaded = "external-variables-loaded"
	MsgExternalVariablesError  = "external-variables-error"
	MsgPong                    = "pong"
	MsgClosed                  = "closed"
)

// Size is a plugin window size.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Incoming is any message the UI sends. Only the fields relevant to Type are
// set.
type Incoming struct {
	Type             string                          `json:"type"`
	Size             *Size                           `json:"size,omitempty"`
	VariableID       string                          `json:"variableId,omitempty"`
	VariableMappings models.OrderedMap[models.Value] `json:"variableMappings"`
	FileKey          string                          `json:"fileKey,omitempty"`
	NodeIDs          []string                        `json:"nodeIds,omitempty"`
}

// TypeOnly is a message with no payload.
type TypeOnly struct {
	Type string `json:"type"`
}

// VariablesLoaded carries the variable list.
type VariablesLoaded struct {
	Type      string                `json:"type"`
	Variables []models.VariableView `json:"variables"`
}

// TextSelected describes the first selected text node.
type TextSelected struct {
	Type          string                    `json:"type"`
	Text          string                    `json:"text"`
	NodeName      string                    `json:"nodeName"`
	NodeID        string                    `json:"nodeId"`
	BoundVariable *models.BoundVariableInfo `json:"boundVariable"`
}

// Notice is a success or error message.
type Notice struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// VariableBound reports a successful bind.
type VariableBound struct {
	Type            string                 `json:"type"`
	Message         string                 `json:"message"`
	VariableDetails models.VariableDetails `json:"variableDetails"`
}

// ExternalError reports a failed external load.
type ExternalError struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
