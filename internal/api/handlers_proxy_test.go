package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varbridge/backend/internal/figma"
	"github.com/varbridge/backend/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

type fakeVariableService struct {
	configured bool
	views      []models.VariableView
	raw        json.RawMessage
	err        error
}

func (f *fakeVariableService) Configured() bool { return f.configured }

func (f *fakeVariableService) FileVariables(ctx context.Context, fileKey string) ([]models.VariableView, error) {
	return f.views, f.err
}

func (f *fakeVariableService) Variable(ctx context.Context, variableID string) (json.RawMessage, error) {
	return f.raw, f.err
}

var sampleViews = []models.VariableView{
	{ID: "VariableID:1", Name: "color/primary", Value: "rgb(51, 102, 153)", Type: "COLOR", Collection: "Brand"},
	{ID: "VariableID:2", Name: "space/md", Value: "16", Type: "FLOAT", Collection: "Spacing"},
}

func newContext(method, target string, params map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	var names, values []string
	for name, value := range params {
		names = append(names, name)
		values = append(values, value)
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c, rec
}

func TestProxyHandler_HandleFileVariables(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		wantNames []string
	}{
		{"all variables", "/api/figma/files/abc/variables", []string{"color/primary", "space/md"}},
		{"filtered by collection", "/api/figma/files/abc/variables?q=SPAC", []string{"space/md"}},
		{"blank query", "/api/figma/files/abc/variables?q=%20%20", []string{"color/primary", "space/md"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewProxyHandler(&fakeVariableService{configured: true, views: sampleViews})
			c, rec := newContext(http.MethodGet, tt.target, map[string]string{"fileKey": "abc"})

			require.NoError(t, h.HandleFileVariables(c))
			assert.Equal(t, http.StatusOK, rec.Code)

			var resp variablesResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			var names []string
			for _, v := range resp.Variables {
				names = append(names, v.Name)
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestProxyHandler_ResponseShape(t *testing.T) {
	h := NewProxyHandler(&fakeVariableService{configured: true, views: sampleViews[:1]})
	c, rec := newContext(http.MethodGet, "/api/figma/files/abc/variables", map[string]string{"fileKey": "abc"})

	require.NoError(t, h.HandleFileVariables(c))
	assert.JSONEq(t, `{"variables":[{"id":"VariableID:1","name":"color/primary","value":"rgb(51, 102, 153)","type":"COLOR","collection":"Brand"}]}`,
		rec.Body.String())
}

func TestProxyHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "token missing",
			err:        figma.ErrTokenNotConfigured,
			wantStatus: http.StatusBadRequest,
			wantCode:   "TOKEN_NOT_CONFIGURED",
			wantMsg:    "Figma token not configured",
		},
		{
			name:       "upstream failure",
			err:        &figma.APIError{Status: 404, StatusText: "Not Found"},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "UPSTREAM_ERROR",
			wantMsg:    "Figma API error: 404 Not Found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewProxyHandler(&fakeVariableService{err: tt.err})
			c, _ := newContext(http.MethodGet, "/api/figma/files/abc/variables", map[string]string{"fileKey": "abc"})

			err := h.HandleFileVariables(c)
			apiErr, ok := err.(*APIError)
			require.True(t, ok, "expected APIError, got %T", err)
			assert.Equal(t, tt.wantStatus, apiErr.Status)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
		})
	}
}

func TestProxyHandler_HandleFileVariablesMsgpack(t *testing.T) {
	h := NewProxyHandler(&fakeVariableService{configured: true, views: sampleViews})
	c, rec := newContext(http.MethodGet, "/api/figma/files/abc/variables/msgpack?q=brand", map[string]string{"fileKey": "abc"})

	require.NoError(t, h.HandleFileVariablesMsgpack(c))
	assert.Equal(t, "application/msgpack", rec.Header().Get(echo.HeaderContentType))

	var resp variablesResponse
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Variables, 1)
	assert.Equal(t, sampleViews[0], resp.Variables[0])
}

func TestProxyHandler_HandleVariable(t *testing.T) {
	h := NewProxyHandler(&fakeVariableService{configured: true, raw: json.RawMessage(`{"id":"VariableID:1","name":"x"}`)})
	c, rec := newContext(http.MethodGet, "/api/figma/variables/VariableID:1", map[string]string{"variableId": "VariableID:1"})

	require.NoError(t, h.HandleVariable(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"VariableID:1","name":"x"}`, rec.Body.String())
}

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler("1.2.3", &fakeVariableService{configured: true}, false)
	c, rec := newContext(http.MethodGet, "/api/health", nil)

	require.NoError(t, h.HandleHealth(c))
	assert.JSONEq(t, `{"status":"ok","version":"1.2.3","figmaConfigured":true,"catalog":false}`, rec.Body.String())
}
