// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"
	"encoding/json"

	"github.com/labstack/echo/v4"
	"github.com/varbridge/backend/internal/catalog"
	"github.com/varbridge/backend/internal/models"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// ProxyHandler serves variables from the remote design API
type ProxyHandler interface {
	HandleFileVariables(c echo.Context) error
	HandleFileVariablesMsgpack(c echo.Context) error
	HandleVariable(c echo.Context) error
}

// DocumentHandler handles offline design documents
type DocumentHandler interface {
	HandleUploadDocument(c echo.Context) error
	HandleListDocuments(c echo.Context) error
	HandleGetDocument(c echo.Context) error
	HandleDeleteDocument(c echo.Context) error
	HandleRenameDocument(c echo.Context) error
	HandleDocumentVariables(c echo.Context) error
	HandleDocumentNodes(c echo.Context) error
}

// CatalogHandler serves recorded variable snapshots
type CatalogHandler interface {
	HandleLatestSnapshot(c echo.Context) error
	HandleListSnapshots(c echo.Context) error
}

// SessionHandler exposes connected plugin sessions
type SessionHandler interface {
	HandleListSessions(c echo.Context) error
	HandleCloseSession(c echo.Context) error
}

// PluginHandler runs plugin sessions over WebSocket
type PluginHandler interface {
	HandlePluginSocket(c echo.Context) error
}

// VariableService is the proxy service as seen by the handlers.
// This allows mocking in tests
type VariableService interface {
	Configured() bool
	FileVariables(ctx context.Context, fileKey string) ([]models.VariableView, error)
	Variable(ctx context.Context, variableID string) (json.RawMessage, error)
}

// SnapshotReader reads the snapshot catalog.
type SnapshotReader interface {
	Snapshots(ctx context.Context, fileKey string) ([]catalog.Snapshot, error)
	Search(ctx context.Context, fileKey, query string) (*catalog.Snapshot, error)
}
