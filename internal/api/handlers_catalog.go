// handlers_catalog.go - Snapshot catalog handlers
package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/varbridge/backend/internal/catalog"
)

// CatalogHandlerImpl implements the CatalogHandler interface
type CatalogHandlerImpl struct {
	reader SnapshotReader
}

// NewCatalogHandler creates a catalog handler. reader may be nil when the
// catalog is disabled.
func NewCatalogHandler(reader SnapshotReader) CatalogHandler {
	return &CatalogHandlerImpl{reader: reader}
}

// HandleLatestSnapshot returns the newest snapshot of a file, optionally
// filtered by ?q=
func (h *CatalogHandlerImpl) HandleLatestSnapshot(c echo.Context) error {
	if h.reader == nil {
		return NewServiceUnavailableError("snapshot catalog is disabled")
	}

	fileKey := c.Param("fileKey")
	snap, err := h.reader.Search(c.Request().Context(), fileKey, c.QueryParam("q"))
	if errors.Is(err, catalog.ErrNoSnapshot) {
		return NewNotFoundError("snapshot", fileKey)
	}
	if err != nil {
		return NewInternalError("failed to read snapshot", err)
	}
	return c.JSON(http.StatusOK, snap)
}

// HandleListSnapshots lists all snapshots of a file without their variables
func (h *CatalogHandlerImpl) HandleListSnapshots(c echo.Context) error {
	if h.reader == nil {
		return NewServiceUnavailableError("snapshot catalog is disabled")
	}

	snapshots, err := h.reader.Snapshots(c.Request().Context(), c.Param("fileKey"))
	if err != nil {
		return NewInternalError("failed to list snapshots", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"snapshots": snapshots,
	})
}
