package model

// PlayerStatus describes what an online player is currently doing
type PlayerStatus string

const (
	StatusOnline  PlayerStatus = "ONLINE"
	StatusPlaying PlayerStatus = "PLAYING"
)

// Direction is a movement direction tag
type Direction string

const (
	DirectionUp    Direction = "UP"
	DirectionDown  Direction = "DOWN"
	DirectionLeft  Direction = "LEFT"
	DirectionRight Direction = "RIGHT"
)

// ParseDirection validates a direction tag from the wire
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionUp, DirectionDown, DirectionLeft, DirectionRight:
		return Direction(s), nil
	default:
		return "", ErrInvalidDirection
	}
}

// PlayerPresence is the in-memory record of an online player
type PlayerPresence struct {
	Username string       `json:"username"`
	Status   PlayerStatus `json:"status"`
	X        int          `json:"x"`
	Y        int          `json:"y"`
	Room     string       `json:"room"`
	LastSeen int64        `json:"lastSeen"` // unix milliseconds
}

// GameState is a point-in-time snapshot of the default room's world
type GameState struct {
	RoomID    string           `json:"roomId"`
	Status    string           `json:"status"`
	Players   []PlayerPresence `json:"players"`
	RoomInfo  Room             `json:"roomInfo"`
	Timestamp int64            `json:"timestamp"` // unix milliseconds
}
