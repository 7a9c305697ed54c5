// handlers_proxy.go - Remote variables proxy handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/varbridge/backend/internal/models"
	"github.com/varbridge/backend/internal/variables"
	"github.com/vmihailenco/msgpack/v5"
)

// ProxyHandlerImpl implements the ProxyHandler interface
type ProxyHandlerImpl struct {
	service VariableService
}

// NewProxyHandler creates a new proxy handler instance
func NewProxyHandler(service VariableService) ProxyHandler {
	return &ProxyHandlerImpl{service: service}
}

// variablesResponse is the payload of the variables endpoints
type variablesResponse struct {
	Variables []models.VariableView `json:"variables" msgpack:"variables"`
}

// HandleFileVariables returns the variable views of a remote file
func (h *ProxyHandlerImpl) HandleFileVariables(c echo.Context) error {
	views, err := h.fileVariables(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, variablesResponse{Variables: views})
}

// HandleFileVariablesMsgpack returns the same payload as HandleFileVariables
// encoded as MessagePack
func (h *ProxyHandlerImpl) HandleFileVariablesMsgpack(c echo.Context) error {
	views, err := h.fileVariables(c)
	if err != nil {
		return err
	}

	data, err := msgpack.Marshal(variablesResponse{Variables: views})
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

func (h *ProxyHandlerImpl) fileVariables(c echo.Context) ([]models.VariableView, error) {
	fileKey := c.Param("fileKey")
	if fileKey == "" {
		return nil, NewValidationError("fileKey")
	}

	views, err := h.service.FileVariables(c.Request().Context(), fileKey)
	if err != nil {
		return nil, upstreamError(err)
	}
	return variables.Filter(views, c.QueryParam("q")), nil
}

// HandleVariable passes a single upstream variable through unchanged
func (h *ProxyHandlerImpl) HandleVariable(c echo.Context) error {
	id := c.Param("variableId")
	if id == "" {
		return NewValidationError("variableId")
	}

	raw, err := h.service.Variable(c.Request().Context(), id)
	if err != nil {
		return upstreamError(err)
	}
	return c.JSONBlob(http.StatusOK, raw)
}
