// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/varbridge/backend/internal/config"
	"github.com/varbridge/backend/internal/plugin"
	"github.com/varbridge/backend/internal/session"
	"github.com/varbridge/backend/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store          storage.Store
	Sessions       *session.Manager
	Proxy          VariableService
	Catalog        SnapshotReader // nil when the catalog is disabled
	DefaultFileKey string
	AllowDeletion  bool
	Version        string
	Logger         *slog.Logger
}

// Handlers holds all handler instances
type Handlers struct {
	Health   HealthHandler
	Proxy    ProxyHandler
	Document DocumentHandler
	Catalog  CatalogHandler
	Session  SessionHandler
	Plugin   PluginHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	var external plugin.ExternalSource
	if deps.Proxy != nil {
		external = deps.Proxy
	}

	return &Handlers{
		Health:   NewHealthHandler(deps.Version, deps.Proxy, deps.Catalog != nil),
		Proxy:    NewProxyHandler(deps.Proxy),
		Document: NewDocumentHandler(deps.Store, deps.AllowDeletion),
		Catalog:  NewCatalogHandler(deps.Catalog),
		Session:  NewSessionHandler(deps.Sessions),
		Plugin:   NewPluginHandler(deps.Store, deps.Sessions, external, deps.DefaultFileKey, deps.Logger),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Remote variables proxy
	figmaGroup := apiGroup.Group("/figma")
	figmaGroup.GET("/files/:fileKey/variables", handlers.Proxy.HandleFileVariables)
	figmaGroup.GET("/files/:fileKey/variables/msgpack", handlers.Proxy.HandleFileVariablesMsgpack)
	figmaGroup.GET("/variables/:variableId", handlers.Proxy.HandleVariable)

	// Offline documents
	docGroup := apiGroup.Group("/documents")
	docGroup.POST("", handlers.Document.HandleUploadDocument)
	docGroup.GET("", handlers.Document.HandleListDocuments)
	docGroup.GET("/:id", handlers.Document.HandleGetDocument)
	docGroup.DELETE("/:id", handlers.Document.HandleDeleteDocument)
	docGroup.PUT("/:id", handlers.Document.HandleRenameDocument)
	docGroup.GET("/:id/variables", handlers.Document.HandleDocumentVariables)
	docGroup.GET("/:id/nodes", handlers.Document.HandleDocumentNodes)

	// Snapshot catalog
	catalogGroup := apiGroup.Group("/catalog")
	catalogGroup.GET("/:fileKey", handlers.Catalog.HandleLatestSnapshot)
	catalogGroup.GET("/:fileKey/snapshots", handlers.Catalog.HandleListSnapshots)

	// Plugin sessions
	apiGroup.GET("/sessions", handlers.Session.HandleListSessions)
	apiGroup.DELETE("/sessions/:id", handlers.Session.HandleCloseSession)
	apiGroup.GET("/ws/plugin", handlers.Plugin.HandlePluginSocket)
}

// isWebSocket reports whether the request asks for a protocol upgrade.
func isWebSocket(c echo.Context) bool {
	return strings.EqualFold(c.Request().Header.Get(echo.HeaderUpgrade), "websocket")
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, cfg *config.AppConfig) {
	// Use custom error handler
	e.HTTPErrorHandler = ErrorHandler
	SetShowErrorDetails(cfg.Advanced.ShowErrorDetails)

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			return c.Request().URL.Path == "/api/health"
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout:      time.Duration(cfg.Server.ReadTimeout) * time.Second,
		Skipper:      isWebSocket,
		ErrorMessage: "Request timeout - upstream took too long",
	}))

	if cfg.Server.EnableCompression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level:   cfg.Server.CompressionLevel,
			Skipper: isWebSocket,
		}))
	}

	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	if cfg.Server.EnableCORS {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.Origins(),
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}
}
