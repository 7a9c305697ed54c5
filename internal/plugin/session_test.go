package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varbridge/backend/internal/document"
	"github.com/varbridge/backend/internal/models"
)

const testDocument = `{
  "collections": [{"id": "c1", "name": "Copy"}],
  "variables": [
    {"id": "v1", "name": "greeting", "variableCollectionId": "c1", "resolvedType": "STRING", "valuesByMode": {"m1": "Hello", "m2": "Hola"}},
    {"id": "v2", "name": "size", "variableCollectionId": "c1", "resolvedType": "FLOAT", "valuesByMode": {"m1": 14}},
    {"id": "v3", "name": "alias", "variableCollectionId": "gone", "resolvedType": "STRING", "valuesByMode": {"m1": {"type": "VARIABLE_ALIAS", "id": "v1"}}}
  ],
  "nodes": [
    {"id": "t1", "name": "Title", "type": "TEXT", "characters": "Price {price} for {price}"},
    {"id": "t2", "name": "Subtitle", "type": "TEXT", "characters": "Bound", "boundVariables": {"characters": {"type": "VARIABLE_ALIAS", "id": "v3"}}},
    {"id": "f1", "name": "Frame", "type": "FRAME"}
  ],
  "selection": ["f1", "t1"]
}`

// recorder collects sent messages as generic JSON objects.
type recorder struct {
	msgs []map[string]interface{}
}

func (r *recorder) Send(msg interface{}) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	r.msgs = append(r.msgs, m)
	return nil
}

func (r *recorder) last() map[string]interface{} {
	if len(r.msgs) == 0 {
		return nil
	}
	return r.msgs[len(r.msgs)-1]
}

func (r *recorder) types() []string {
	out := make([]string, 0, len(r.msgs))
	for _, m := range r.msgs {
		out = append(out, m["type"].(string))
	}
	return out
}

type fakeExternal struct {
	views []models.VariableView
	err   error
	keys  []string
}

func (f *fakeExternal) FileVariables(ctx context.Context, fileKey string) ([]models.VariableView, error) {
	f.keys = append(f.keys, fileKey)
	return f.views, f.err
}

func newTestSession(t *testing.T, opts ...Option) (*Session, *document.Host, *recorder) {
	t.Helper()
	doc, err := document.Parse(strings.NewReader(testDocument))
	require.NoError(t, err)
	host := document.NewHost(doc)
	rec := &recorder{}
	return NewSession(host, rec, opts...), host, rec
}

func send(t *testing.T, s *Session, msg string) error {
	t.Helper()
	return s.HandleMessage(context.Background(), []byte(msg))
}

func TestSession_Start(t *testing.T) {
	s, _, rec := newTestSession(t)

	require.NoError(t, s.Start(context.Background()))
	require.Equal(t, []string{MsgVariablesLoaded, MsgTextSelected}, rec.types())

	vars := rec.msgs[0]["variables"].([]interface{})
	require.Len(t, vars, 3)
	first := vars[0].(map[string]interface{})
	assert.Equal(t, "Hello", first["value"])
	assert.Equal(t, "Copy", first["collection"])
	assert.Equal(t, "local", first["source"])
	third := vars[2].(map[string]interface{})
	assert.Equal(t, "→ greeting", third["value"])
	assert.Equal(t, "Unknown", third["collection"])

	sel := rec.msgs[1]
	assert.Equal(t, "Price {price} for {price}", sel["text"])
	assert.Equal(t, "Title", sel["nodeName"])
	assert.Equal(t, "t1", sel["nodeId"])
	assert.Nil(t, sel["boundVariable"])
}

func TestSession_SelectionWithBoundVariable(t *testing.T) {
	s, _, rec := newTestSession(t)

	require.NoError(t, send(t, s, `{"type":"select","nodeIds":["t2"]}`))
	msg := rec.last()
	require.Equal(t, MsgTextSelected, msg["type"])

	bound := msg["boundVariable"].(map[string]interface{})
	assert.Equal(t, "v3", bound["id"])
	assert.Equal(t, "N/A", bound["value"], "selection info does not resolve aliases")
	assert.Equal(t, "Unknown", bound["collection"])
}

func TestSession_NoTextSelected(t *testing.T) {
	s, _, rec := newTestSession(t)

	require.NoError(t, send(t, s, `{"type":"select","nodeIds":["f1"]}`))
	assert.Equal(t, map[string]interface{}{"type": MsgNoTextSelected}, rec.last())

	require.NoError(t, send(t, s, `{"type":"select","nodeIds":["zzz"]}`))
	assert.Equal(t, MsgError, rec.last()["type"])
}

func TestSession_BindVariable(t *testing.T) {
	s, host, rec := newTestSession(t)

	require.NoError(t, send(t, s, `{"type":"bind-variable","variableId":"v1"}`))

	msg := rec.last()
	require.Equal(t, MsgVariableBound, msg["type"])
	assert.Equal(t, "Successfully bound variable to 1 text node(s).", msg["message"])
	assert.Equal(t, map[string]interface{}{
		"name":  "Copy/greeting",
		"value": "Hello",
		"type":  "STRING",
	}, msg["variableDetails"])

	node, _ := host.Node("t1")
	assert.Equal(t, "v1", node.BoundVariables[models.BoundFieldCharacters].ID)
	assert.Equal(t, "Hello", node.Characters)
}

func TestSession_BindVariableErrors(t *testing.T) {
	tests := []struct {
		name      string
		selection string
		msg       string
		want      string
	}{
		{
			name: "unknown variable",
			msg:  `{"type":"bind-variable","variableId":"nope"}`,
			want: "Variable not found.",
		},
		{
			name:      "no text in selection",
			selection: `{"type":"select","nodeIds":["f1"]}`,
			msg:       `{"type":"bind-variable","variableId":"v1"}`,
			want:      "Please select at least one text node in the canvas.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, rec := newTestSession(t)
			if tt.selection != "" {
				require.NoError(t, send(t, s, tt.selection))
			}
			require.NoError(t, send(t, s, tt.msg))
			assert.Equal(t, map[string]interface{}{"type": MsgError, "message": tt.want}, rec.last())
		})
	}
}

func TestSession_MapVariables(t *testing.T) {
	s, host, rec := newTestSession(t)

	require.NoError(t, send(t, s, `{"type":"select","nodeIds":["t1","t2","f1"]}`))
	require.NoError(t, send(t, s, `{"type":"map-variables","variableMappings":{"{price}":42,"Bound":"Linked"}}`))

	assert.Equal(t, map[string]interface{}{"type": MsgSuccess, "message": "Updated 2 text node(s)"}, rec.last())

	t1, _ := host.Node("t1")
	assert.Equal(t, "Price 42 for 42", t1.Characters)
	t2, _ := host.Node("t2")
	assert.Equal(t, "Linked", t2.Characters)
}

func TestSession_MapVariablesWithoutText(t *testing.T) {
	s, _, rec := newTestSession(t)

	require.NoError(t, send(t, s, `{"type":"select","nodeIds":[]}`))
	require.NoError(t, send(t, s, `{"type":"map-variables","variableMappings":{"a":"b"}}`))
	assert.Equal(t, "No text nodes selected. Please select at least one text node.", rec.last()["message"])
}

func TestSession_LoadExternalVariables(t *testing.T) {
	ext := &fakeExternal{views: []models.VariableView{{ID: "VariableID:1", Name: "remote", Value: "1", Type: "FLOAT", Collection: "Remote"}}}
	s, _, rec := newTestSession(t, WithExternalSource(ext, "defaultKey"))

	require.NoError(t, send(t, s, `{"type":"load-external-variables"}`))
	require.Equal(t, []string{MsgExternalLoading, MsgExternalVariablesLoaded}, rec.types())
	assert.Equal(t, []string{"defaultKey"}, ext.keys)

	v := rec.last()["variables"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "external_VariableID:1", v["id"])
	assert.Equal(t, "external", v["source"])

	require.NoError(t, send(t, s, `{"type":"load-external-variables","fileKey":"other"}`))
	assert.Equal(t, []string{"defaultKey", "other"}, ext.keys)
}

func TestSession_LoadExternalVariablesErrors(t *testing.T) {
	t.Run("upstream failure", func(t *testing.T) {
		ext := &fakeExternal{err: errors.New("Figma API error: 403 Forbidden")}
		s, _, rec := newTestSession(t, WithExternalSource(ext, "k"))

		require.NoError(t, send(t, s, `{"type":"load-external-variables"}`))
		assert.Equal(t, map[string]interface{}{
			"type":  MsgExternalVariablesError,
			"error": "Figma API error: 403 Forbidden",
		}, rec.last())
	})

	t.Run("not configured", func(t *testing.T) {
		s, _, rec := newTestSession(t)

		require.NoError(t, send(t, s, `{"type":"load-external-variables","fileKey":"k"}`))
		assert.Equal(t, MsgExternalVariablesError, rec.last()["type"])
	})

	t.Run("no file key", func(t *testing.T) {
		s, _, rec := newTestSession(t, WithExternalSource(&fakeExternal{}, ""))

		require.NoError(t, send(t, s, `{"type":"load-external-variables"}`))
		assert.Equal(t, "file key is required", rec.last()["error"])
	})
}

func TestSession_ResizeAndCancel(t *testing.T) {
	s, host, rec := newTestSession(t)

	require.NoError(t, send(t, s, `{"type":"resize","size":{"width":480,"height":720}}`))
	w, h := host.Size()
	assert.Equal(t, 480, w)
	assert.Equal(t, 720, h)
	assert.Empty(t, rec.msgs)

	require.NoError(t, send(t, s, `{"type":"ping"}`))
	assert.Equal(t, MsgPong, rec.last()["type"])

	assert.ErrorIs(t, send(t, s, `{"type":"cancel"}`), ErrClosed)
	assert.Equal(t, MsgClosed, rec.last()["type"])
	assert.True(t, s.Closed())
	assert.True(t, host.Closed())
	assert.ErrorIs(t, send(t, s, `{"type":"ping"}`), ErrClosed)
}

func TestSession_InvalidMessage(t *testing.T) {
	s, _, rec := newTestSession(t)

	require.NoError(t, send(t, s, `not json`))
	assert.Equal(t, MsgError, rec.last()["type"])

	require.NoError(t, send(t, s, `{"type":"something-else"}`))
	assert.Len(t, rec.msgs, 1)
}
