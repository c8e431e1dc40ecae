package model

import "time"

// Frame types originated by the server
const (
	FrameSystem      = "SYSTEM"
	FrameError       = "ERROR"
	FrameJoinSuccess = "JOIN_SUCCESS"
	FrameGameState   = "GAME_STATE"
	FramePlayersList = "PLAYERS_LIST"
	FrameChat        = "CHAT"
	FramePlayerMove  = "PLAYER_MOVE"
)

// Frame types originated by clients
const (
	FrameAuth       = "AUTH"
	FrameJoin       = "JOIN"
	FrameMessage    = "MESSAGE"
	FrameBroadcast  = "BROADCAST"
	FrameMove       = "MOVE"
	FrameGetState   = "GET_STATE"
	FrameGetPlayers = "GET_PLAYERS"
)

// Frame is one JSON message on the websocket channel.
// Sender and Timestamp are always server-assigned on outbound frames;
// client-supplied values are discarded on receipt.
type Frame struct {
	Type      string `json:"type"`
	Sender    string `json:"sender,omitempty"`
	Payload   any    `json:"payload,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"` // unix milliseconds
	Error     string `json:"error,omitempty"`
}

// NewFrame creates a frame of the given type with a payload
func NewFrame(frameType string, payload any, at time.Time) Frame {
	return Frame{
		Type:      frameType,
		Payload:   payload,
		Timestamp: at.UnixMilli(),
	}
}

// SystemFrame creates a SYSTEM message
func SystemFrame(message string, at time.Time) Frame {
	return Frame{
		Type:      FrameSystem,
		Sender:    "System",
		Payload:   message,
		Timestamp: at.UnixMilli(),
	}
}

// ErrorFrame creates an ERROR message
func ErrorFrame(message string, at time.Time) Frame {
	return Frame{
		Type:      FrameError,
		Error:     message,
		Timestamp: at.UnixMilli(),
	}
}

// JoinRequest is the AUTH/JOIN payload
type JoinRequest struct {
	Username string `json:"username,omitempty"`
	Token    string `json:"token"`
}

// ChatMessage is the CHAT/MESSAGE payload
type ChatMessage struct {
	Message string `json:"message"`
	Room    string `json:"room,omitempty"`
}

// PlayerMove is the MOVE payload
type PlayerMove struct {
	Username  string `json:"username,omitempty"` // server-set on outbound PLAYER_MOVE
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Direction string `json:"direction"`
}
