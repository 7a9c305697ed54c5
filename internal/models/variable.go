// Package models contains domain types for design variables and documents.
package models

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Resolved value types reported by design tools.
const (
	ResolvedTypeBoolean = "BOOLEAN"
	ResolvedTypeFloat   = "FLOAT"
	ResolvedTypeString  = "STRING"
	ResolvedTypeColor   = "COLOR"
)

// Variable is a named design token with one value per mode.
type Variable struct {
	ID                   string            `json:"id" yaml:"id"`
	Name                 string            `json:"name" yaml:"name"`
	Key                  string            `json:"key,omitempty" yaml:"key,omitempty"`
	VariableCollectionID string            `json:"variableCollectionId" yaml:"variableCollectionId"`
	ResolvedType         string            `json:"resolvedType" yaml:"resolvedType"`
	ValuesByMode         OrderedMap[Value] `json:"valuesByMode" yaml:"valuesByMode"`
	Description          string            `json:"description,omitempty" yaml:"description,omitempty"`
	Remote               bool              `json:"remote,omitempty" yaml:"remote,omitempty"`
	Scopes               []string          `json:"scopes,omitempty" yaml:"scopes,omitempty"`
	CodeSyntax           map[string]string `json:"codeSyntax,omitempty" yaml:"codeSyntax,omitempty"`
}

// Mode is one column of values in a collection (e.g. light, dark).
type Mode struct {
	ModeID string `json:"modeId" yaml:"modeId"`
	Name   string `json:"name" yaml:"name"`
}

// VariableCollection groups variables that share a set of modes.
type VariableCollection struct {
	ID            string   `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	Key           string   `json:"key,omitempty" yaml:"key,omitempty"`
	Modes         []Mode   `json:"modes,omitempty" yaml:"modes,omitempty"`
	DefaultModeID string   `json:"defaultModeId,omitempty" yaml:"defaultModeId,omitempty"`
	VariableIDs   []string `json:"variableIds,omitempty" yaml:"variableIds,omitempty"`
	Remote        bool     `json:"remote,omitempty" yaml:"remote,omitempty"`
}

// VariableView is the flattened, display-ready projection of a variable.
type VariableView struct {
	ID         string `json:"id" msgpack:"id"`
	Name       string `json:"name" msgpack:"name"`
	Value      string `json:"value" msgpack:"value"`
	Type       string `json:"type" msgpack:"type"`
	Collection string `json:"collection" msgpack:"collection"`
	Source     string `json:"source,omitempty" msgpack:"source,omitempty"`
}

// BoundVariableInfo describes the variable bound to a selected text node.
type BoundVariableInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Value      string `json:"value"`
	Collection string `json:"collection"`
}

// VariableDetails is reported after a successful bind.
type VariableDetails struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Type  string `json:"type"`
}

// VariableAlias points at another variable. Hosts report bound variables
// either as an alias object or as a bare id string; both decode here.
type VariableAlias struct {
	Type string `json:"type" yaml:"type"`
	ID   string `json:"id" yaml:"id"`
}

// UnmarshalJSON accepts an alias object or a bare id.
func (a *VariableAlias) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*a = VariableAlias{Type: AliasType, ID: id}
		return nil
	}
	type plain VariableAlias
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = VariableAlias(p)
	return nil
}

// UnmarshalYAML accepts an alias mapping or a bare id.
func (a *VariableAlias) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*a = VariableAlias{Type: AliasType, ID: node.Value}
		return nil
	}
	type plain VariableAlias
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*a = VariableAlias(p)
	return nil
}
