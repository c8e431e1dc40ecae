package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/omgplatform/gameserver/internal/dependencies/clock"
	"github.com/omgplatform/gameserver/internal/game"
	"github.com/omgplatform/gameserver/internal/model"
	"github.com/omgplatform/gameserver/internal/session"
	"github.com/omgplatform/gameserver/internal/storage"
	"github.com/omgplatform/gameserver/internal/token"
)

// inboundFrame is the wire shape of a client frame. Sender, timestamp,
// and error are server-assigned fields and are ignored on receipt.
type inboundFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Router processes the frames of one or many connections. It owns no
// per-connection state itself; the session registry tracks which
// connections are authenticated.
type Router struct {
	codec     *token.Codec
	directory storage.UserDirectory
	presence  *game.PresenceStore
	registry  *session.Registry
	clock     clock.Clock
	logger    *slog.Logger
}

// NewRouter creates a message router
func NewRouter(
	codec *token.Codec,
	directory storage.UserDirectory,
	presence *game.PresenceStore,
	registry *session.Registry,
	clk clock.Clock,
	logger *slog.Logger,
) *Router {
	return &Router{
		codec:     codec,
		directory: directory,
		presence:  presence,
		registry:  registry,
		clock:     clk,
		logger:    logger.With(slog.String("component", "router")),
	}
}

// Welcome sends the greeting frame for a freshly accepted connection
func (r *Router) Welcome(conn session.Conn) {
	frame := model.SystemFrame("Welcome! Please authenticate to start messaging.", r.clock.Now())
	if err := conn.WriteFrame(frame); err != nil {
		r.logger.Warn("failed to send welcome",
			slog.String("remote_addr", conn.RemoteAddr()),
			slog.String("error", err.Error()))
	}
}

// IsAuthenticated reports whether a connection has a principal attached
func (r *Router) IsAuthenticated(conn session.Conn) bool {
	return r.registry.PrincipalOf(conn) != nil
}

// Dispatch processes one raw frame from a connection. Handler failures
// surface as ERROR frames on the same connection; the connection stays
// open.
func (r *Router) Dispatch(ctx context.Context, conn session.Conn, data []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		r.sendError(conn, "Invalid message format")
		return
	}

	switch frame.Type {
	case model.FrameAuth, model.FrameJoin:
		r.handleJoin(ctx, conn, frame.Payload)
	case model.FrameChat, model.FrameMessage:
		r.handleChat(conn, frame.Payload)
	case model.FrameBroadcast:
		r.handleBroadcast(conn, frame.Payload)
	case model.FrameMove:
		r.handleMove(conn, frame.Payload)
	case model.FrameGetState:
		r.handleGetState(conn)
	case model.FrameGetPlayers:
		r.handleGetPlayers(conn)
	default:
		r.sendError(conn, fmt.Sprintf("Unknown message type: %s", frame.Type))
	}
}

// Teardown runs when a connection closes for any reason. It detaches
// the session, removes the presence, and announces the departure.
// Idempotent: a second call for the same connection is a no-op.
func (r *Router) Teardown(conn session.Conn) {
	user := r.registry.Detach(conn)
	if user == nil {
		return
	}

	r.presence.RemovePlayer(user.Username)
	r.Broadcast(model.SystemFrame(fmt.Sprintf("%s left the game", user.Username), r.clock.Now()))

	r.logger.Info("user disconnected", slog.String("username", user.Username))
}

// DisconnectUser closes the live connection for a username, if any.
// The reaper uses this to drop connections whose presence went stale.
func (r *Router) DisconnectUser(username string) {
	if conn, ok := r.registry.ConnOf(username); ok {
		_ = conn.Close()
	}
}

// Broadcast fans a frame out to every authenticated session. Send
// failures are logged and skipped; they never abort the broadcast.
func (r *Router) Broadcast(frame model.Frame) {
	r.registry.ForEachAuthenticated(func(conn session.Conn, user *model.User) {
		if err := conn.WriteFrame(frame); err != nil {
			r.logger.Warn("broadcast send failed",
				slog.String("username", user.Username),
				slog.String("frame_type", frame.Type),
				slog.String("error", err.Error()))
		}
	})
}

func (r *Router) handleJoin(ctx context.Context, conn session.Conn, payload json.RawMessage) {
	var req model.JoinRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		r.sendError(conn, "Invalid message format")
		return
	}

	subject, err := r.codec.Verify(req.Token)
	if err != nil {
		r.sendError(conn, "Invalid authentication token")
		return
	}

	user, err := r.directory.FindByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			r.sendError(conn, "User not found")
		} else {
			r.logger.Error("directory lookup failed",
				slog.String("username", subject),
				slog.String("error", err.Error()))
			r.sendError(conn, "Authentication failed")
		}
		return
	}

	if err := r.registry.Attach(conn, user); err != nil {
		r.sendError(conn, "User is already online")
		return
	}

	presence, err := r.presence.AddPlayer(user.Username)
	if err != nil {
		r.registry.Detach(conn)
		r.sendError(conn, "User is already online")
		return
	}

	now := r.clock.Now()
	r.unicast(conn, model.NewFrame(model.FrameJoinSuccess, presence, now))
	r.unicast(conn, model.NewFrame(model.FrameGameState, r.presence.GameState(), now))
	r.Broadcast(model.SystemFrame(fmt.Sprintf("%s joined the game!", user.Username), now))

	r.logger.Info("user joined", slog.String("username", user.Username))
}

func (r *Router) handleChat(conn session.Conn, payload json.RawMessage) {
	user := r.requireAuth(conn)
	if user == nil {
		return
	}

	var msg model.ChatMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		r.sendError(conn, "Invalid message format")
		return
	}

	text := strings.TrimSpace(msg.Message)
	if text == "" {
		r.sendError(conn, "Message must not be empty")
		return
	}

	frame := model.NewFrame(model.FrameChat, model.ChatMessage{Message: text}, r.clock.Now())
	frame.Sender = user.Username
	r.Broadcast(frame)
}

func (r *Router) handleBroadcast(conn session.Conn, payload json.RawMessage) {
	user := r.requireAuth(conn)
	if user == nil {
		return
	}

	// The payload may be a bare string or a {message} object
	var text string
	if err := json.Unmarshal(payload, &text); err != nil {
		var msg model.ChatMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			r.sendError(conn, "Invalid message format")
			return
		}
		text = msg.Message
	}

	r.Broadcast(model.SystemFrame(text, r.clock.Now()))

	r.logger.Info("broadcast sent", slog.String("username", user.Username))
}

func (r *Router) handleMove(conn session.Conn, payload json.RawMessage) {
	user := r.requireAuth(conn)
	if user == nil {
		return
	}

	var move model.PlayerMove
	if err := json.Unmarshal(payload, &move); err != nil {
		r.sendError(conn, "Invalid message format")
		return
	}

	direction, err := model.ParseDirection(move.Direction)
	if err != nil {
		r.sendError(conn, fmt.Sprintf("Invalid direction: %s", move.Direction))
		return
	}

	if !r.presence.UpdatePosition(user.Username, move.X, move.Y, direction) {
		r.sendError(conn, "Player is not in the game")
		return
	}

	out := model.PlayerMove{
		Username:  user.Username,
		X:         move.X,
		Y:         move.Y,
		Direction: string(direction),
	}
	frame := model.NewFrame(model.FramePlayerMove, out, r.clock.Now())
	frame.Sender = user.Username
	r.Broadcast(frame)
}

func (r *Router) handleGetState(conn session.Conn) {
	if user := r.requireAuth(conn); user == nil {
		return
	}
	r.unicast(conn, model.NewFrame(model.FrameGameState, r.presence.GameState(), r.clock.Now()))
}

func (r *Router) handleGetPlayers(conn session.Conn) {
	if user := r.requireAuth(conn); user == nil {
		return
	}
	r.unicast(conn, model.NewFrame(model.FramePlayersList, r.presence.SnapshotPlayers(), r.clock.Now()))
}

// requireAuth returns the connection's principal, refreshing its
// heartbeat, or sends an ERROR frame and returns nil.
func (r *Router) requireAuth(conn session.Conn) *model.User {
	user := r.registry.PrincipalOf(conn)
	if user == nil {
		r.sendError(conn, "Authentication required")
		return nil
	}
	r.presence.Touch(user.Username)
	return user
}

func (r *Router) unicast(conn session.Conn, frame model.Frame) {
	if err := conn.WriteFrame(frame); err != nil {
		r.logger.Warn("unicast send failed",
			slog.String("remote_addr", conn.RemoteAddr()),
			slog.String("frame_type", frame.Type),
			slog.String("error", err.Error()))
	}
}

func (r *Router) sendError(conn session.Conn, message string) {
	r.unicast(conn, model.ErrorFrame(message, r.clock.Now()))
}
