package session

import (
	"log/slog"
	"sync"

	"github.com/omgplatform/gameserver/internal/model"
)

// Conn is one live bidirectional channel. The websocket layer provides
// the concrete implementation; tests substitute fakes.
type Conn interface {
	// WriteFrame queues a frame for delivery. Frames written on one
	// connection are delivered in write order.
	WriteFrame(frame model.Frame) error
	// RemoteAddr identifies the peer for logging
	RemoteAddr() string
	// Close tears the channel down; safe to call more than once
	Close() error
}

// Registry maps live connections to their authenticated principals.
// It enforces single-login: at most one attached connection per
// username.
type Registry struct {
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[Conn]*model.User
	byUser   map[string]Conn
}

// NewRegistry creates an empty registry
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:   logger.With(slog.String("component", "sessions")),
		sessions: make(map[Conn]*model.User),
		byUser:   make(map[string]Conn),
	}
}

// Attach binds a connection to a principal. Fails with ErrAlreadyOnline
// if a live session already exists for the principal's username.
func (r *Registry) Attach(conn Conn, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUser[user.Username]; ok {
		return model.ErrAlreadyOnline
	}

	r.sessions[conn] = user
	r.byUser[user.Username] = conn

	r.logger.Info("session attached",
		slog.String("username", user.Username),
		slog.String("remote_addr", conn.RemoteAddr()),
		slog.Int("total_sessions", len(r.sessions)))
	return nil
}

// Detach removes a connection's binding and returns the principal that
// was attached, if any.
func (r *Registry) Detach(conn Conn) *model.User {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.sessions[conn]
	if !ok {
		return nil
	}
	delete(r.sessions, conn)
	delete(r.byUser, user.Username)

	r.logger.Info("session detached",
		slog.String("username", user.Username),
		slog.Int("total_sessions", len(r.sessions)))
	return user
}

// PrincipalOf returns the principal attached to a connection, or nil
func (r *Registry) PrincipalOf(conn Conn) *model.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[conn]
}

// ConnOf returns the live connection for a username, if one exists
func (r *Registry) ConnOf(username string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.byUser[username]
	return conn, ok
}

// ConnectionCount returns the number of attached sessions
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ForEachAuthenticated invokes f on every session attached at the time
// of the call. The iteration works over a snapshot, so f runs without
// the registry lock held and sessions attached mid-iteration are not
// visited.
func (r *Registry) ForEachAuthenticated(f func(conn Conn, user *model.User)) {
	r.mu.RLock()
	snapshot := make(map[Conn]*model.User, len(r.sessions))
	for conn, user := range r.sessions {
		snapshot[conn] = user
	}
	r.mu.RUnlock()

	for conn, user := range snapshot {
		f(conn, user)
	}
}

// CloseAll closes every attached connection. Used during shutdown; the
// per-connection teardown handles detaching.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	conns := make([]Conn, 0, len(r.sessions))
	for conn := range r.sessions {
		conns = append(conns, conn)
	}
	r.mu.RUnlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
}
