package api

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/varbridge/backend/internal/document"
	"github.com/varbridge/backend/internal/plugin"
	"github.com/varbridge/backend/internal/session"
	"github.com/varbridge/backend/internal/storage"
)

const (
	// Maximum size of one UI message.
	maxMessageSize = 1 << 20
	writeWait      = 10 * time.Second
)

// PluginHandlerImpl runs one plugin session per WebSocket connection
type PluginHandlerImpl struct {
	store          storage.Store
	sessions       *session.Manager
	external       plugin.ExternalSource
	defaultFileKey string
	logger         *slog.Logger
	upgrader       websocket.Upgrader
}

// NewPluginHandler creates a new plugin WebSocket handler. external may be
// nil, in which case load-external-variables reports an error.
func NewPluginHandler(store storage.Store, sessions *session.Manager, external plugin.ExternalSource, defaultFileKey string, logger *slog.Logger) PluginHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PluginHandlerImpl{
		store:          store,
		sessions:       sessions,
		external:       external,
		defaultFileKey: defaultFileKey,
		logger:         logger,
		upgrader: websocket.Upgrader{
			// Plugin iframes run with an opaque origin.
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
		},
	}
}

// HandlePluginSocket upgrades to a WebSocket and runs the plugin against the
// document named by ?document=
func (h *PluginHandlerImpl) HandlePluginSocket(c echo.Context) error {
	docID := c.QueryParam("document")
	if docID == "" {
		return NewValidationError("document")
	}

	doc, err := loadDocument(h.store, docID)
	if err != nil {
		return err
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written an HTTP error.
		h.logger.Warn("websocket upgrade failed", "error", err)
		return nil
	}
	conn := &pluginConn{ws: ws}
	defer conn.Close()

	info, err := h.sessions.Register(docID, conn)
	if err != nil {
		conn.closeWith(websocket.CloseTryAgainLater, err.Error())
		return nil
	}
	defer h.sessions.Remove(info.ID)

	logger := h.logger.With("session", info.ID, "document", docID)
	opts := []plugin.Option{plugin.WithLogger(logger)}
	if h.external != nil {
		opts = append(opts, plugin.WithExternalSource(h.external, h.defaultFileKey))
	}

	ctx := c.Request().Context()
	sess := plugin.NewSession(document.NewHost(doc), conn, opts...)
	if err := sess.Start(ctx); err != nil {
		logger.Warn("failed to start plugin session", "error", err)
		return nil
	}

	ws.SetReadLimit(maxMessageSize)
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("plugin connection error", "error", err)
			}
			return nil
		}
		h.sessions.Touch(info.ID)

		if err := sess.HandleMessage(ctx, data); err != nil {
			if errors.Is(err, plugin.ErrClosed) {
				conn.closeWith(websocket.CloseNormalClosure, "plugin closed")
			} else {
				logger.Warn("failed to send plugin message", "error", err)
			}
			return nil
		}
	}
}

// pluginConn serializes writes to a WebSocket and implements plugin.Sender.
type pluginConn struct {
	ws     *websocket.Conn
	mu     sync.Mutex
	closed bool
}

// Send writes one JSON message.
func (p *pluginConn) Send(msg interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return p.ws.WriteJSON(msg)
}

func (p *pluginConn) closeWith(code int, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
}

// Close closes the connection; a blocked read returns.
func (p *pluginConn) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.ws.Close()
}
