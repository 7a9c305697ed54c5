// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version  string
	proxy    VariableService
	snapshot bool
}

// NewHealthHandler creates a new health handler. proxy may be nil.
func NewHealthHandler(version string, proxy VariableService, catalogEnabled bool) HealthHandler {
	return &HealthHandlerImpl{
		version:  version,
		proxy:    proxy,
		snapshot: catalogEnabled,
	}
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"version":         h.version,
		"figmaConfigured": h.proxy != nil && h.proxy.Configured(),
		"catalog":         h.snapshot,
	})
}
