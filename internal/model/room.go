package model

// RoomStatus describes a room's occupancy state
type RoomStatus string

const (
	RoomOpen   RoomStatus = "OPEN"
	RoomFull   RoomStatus = "FULL"
	RoomClosed RoomStatus = "CLOSED"
)

// DefaultRoomID is the room every player joins on authentication
const DefaultRoomID = "main"

// Room is a named bucket of presences with a maximum occupancy
type Room struct {
	RoomID         string     `json:"roomId"`
	Name           string     `json:"name"`
	MaxPlayers     int        `json:"maxPlayers"`
	CurrentPlayers int        `json:"currentPlayers"`
	Status         RoomStatus `json:"status"`
}
