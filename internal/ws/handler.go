package ws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultIdleTimeout closes unauthenticated connections that send nothing
const DefaultIdleTimeout = 60 * time.Second

const (
	readBufferSize  = 1024
	writeBufferSize = 1024
)

// Handler upgrades HTTP requests onto the game channel and drives the
// per-connection read loop. Each connection's inbound frames are
// processed sequentially; connections progress in parallel.
type Handler struct {
	router      *Router
	upgrader    websocket.Upgrader
	idleTimeout time.Duration
	logger      *slog.Logger
}

// NewHandler creates the channel handler. An allowed origin of "*"
// accepts any origin; an empty list restricts to same-origin requests.
func NewHandler(router *Router, allowedOrigins []string, idleTimeout time.Duration, logger *slog.Logger) *Handler {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}

	allowed := make(map[string]bool, len(allowedOrigins))
	wildcard := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			wildcard = true
		}
		allowed[origin] = true
	}

	return &Handler{
		router: router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBufferSize,
			WriteBufferSize: writeBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || wildcard {
					return true
				}
				return allowed[origin]
			},
		},
		idleTimeout: idleTimeout,
		logger:      logger.With(slog.String("component", "ws")),
	}
}

// ServeHTTP implements the channel handshake and read loop
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	conn := newConn(socket, h.logger)
	go conn.writePump()

	h.logger.Info("connection established", slog.String("remote_addr", conn.RemoteAddr()))

	defer func() {
		_ = conn.Close()
		h.router.Teardown(conn)
		h.logger.Info("connection closed", slog.String("remote_addr", conn.RemoteAddr()))
	}()

	h.router.Welcome(conn)

	for {
		// Unauthenticated connections must authenticate before the
		// idle timeout; authenticated liveness is the reaper's job.
		if h.router.IsAuthenticated(conn) {
			_ = socket.SetReadDeadline(time.Time{})
		} else {
			_ = socket.SetReadDeadline(time.Now().Add(h.idleTimeout))
		}

		_, data, err := socket.ReadMessage()
		if err != nil {
			return
		}

		h.router.Dispatch(r.Context(), conn, data)
	}
}
