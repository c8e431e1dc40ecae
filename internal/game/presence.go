package game

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/omgplatform/gameserver/internal/dependencies/clock"
	"github.com/omgplatform/gameserver/internal/model"
)

// DefaultMaxPlayers is the default room's occupancy limit when the
// configuration does not override it.
const DefaultMaxPlayers = 50

// PresenceStore is the authoritative in-memory directory of online
// players and room occupancy. All methods are safe for concurrent use:
// snapshot reads take the read lock, structural mutations take the
// write lock.
type PresenceStore struct {
	clock  clock.Clock
	logger *slog.Logger

	mu      sync.RWMutex
	players map[string]*model.PlayerPresence
	rooms   map[string]*model.Room
}

// NewPresenceStore creates a store with the default room already open
func NewPresenceStore(clk clock.Clock, logger *slog.Logger, defaultMaxPlayers int) *PresenceStore {
	if defaultMaxPlayers < 1 {
		defaultMaxPlayers = DefaultMaxPlayers
	}

	s := &PresenceStore{
		clock:   clk,
		logger:  logger.With(slog.String("component", "presence")),
		players: make(map[string]*model.PlayerPresence),
		rooms:   make(map[string]*model.Room),
	}
	s.rooms[model.DefaultRoomID] = &model.Room{
		RoomID:     model.DefaultRoomID,
		Name:       "Main Lobby",
		MaxPlayers: defaultMaxPlayers,
		Status:     model.RoomOpen,
	}
	return s
}

// AddPlayer inserts a presence for username at the origin of the
// default room. Fails with ErrAlreadyOnline if a presence already
// exists for that username.
func (s *PresenceStore) AddPlayer(username string) (model.PlayerPresence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[username]; ok {
		return model.PlayerPresence{}, model.ErrAlreadyOnline
	}

	p := &model.PlayerPresence{
		Username: username,
		Status:   model.StatusOnline,
		X:        0,
		Y:        0,
		Room:     model.DefaultRoomID,
		LastSeen: s.clock.Now().UnixMilli(),
	}
	s.players[username] = p
	s.adjustRoomCount(model.DefaultRoomID, 1)

	s.logger.Info("player added",
		slog.String("username", username),
		slog.Int("total_players", len(s.players)))

	return *p, nil
}

// RemovePlayer removes and returns the presence for username.
// Returns nil if the player is not present.
func (s *PresenceStore) RemovePlayer(username string) *model.PlayerPresence {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[username]
	if !ok {
		return nil
	}
	delete(s.players, username)
	s.adjustRoomCount(p.Room, -1)

	s.logger.Info("player removed",
		slog.String("username", username),
		slog.Int("total_players", len(s.players)))

	removed := *p
	return &removed
}

// UpdatePosition moves a player and refreshes its heartbeat. Returns
// false if the player is not present.
func (s *PresenceStore) UpdatePosition(username string, x, y int, _ model.Direction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[username]
	if !ok {
		return false
	}
	p.X = x
	p.Y = y
	p.LastSeen = s.clock.Now().UnixMilli()
	return true
}

// Touch refreshes a player's heartbeat without moving it
func (s *PresenceStore) Touch(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[username]
	if !ok {
		return false
	}
	p.LastSeen = s.clock.Now().UnixMilli()
	return true
}

// GetPlayer returns a copy of the presence for username, if present
func (s *PresenceStore) GetPlayer(username string) (model.PlayerPresence, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[username]
	if !ok {
		return model.PlayerPresence{}, false
	}
	return *p, true
}

// IsOnline reports whether a presence exists for username
func (s *PresenceStore) IsOnline(username string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.players[username]
	return ok
}

// PlayerCount returns the number of online players
func (s *PresenceStore) PlayerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}

// SnapshotPlayers returns a point-in-time copy of all presences,
// ordered by username for stable serialization.
func (s *PresenceStore) SnapshotPlayers() []model.PlayerPresence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotPlayersLocked()
}

func (s *PresenceStore) snapshotPlayersLocked() []model.PlayerPresence {
	players := make([]model.PlayerPresence, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, *p)
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].Username < players[j].Username
	})
	return players
}

// SnapshotRooms returns a point-in-time copy of all rooms
func (s *PresenceStore) SnapshotRooms() []model.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]model.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, *r)
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].RoomID < rooms[j].RoomID
	})
	return rooms
}

// GameState returns a consistent snapshot of the default room and its
// players. Snapshots are consistent per call but not across calls.
func (s *PresenceStore) GameState() model.GameState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return model.GameState{
		RoomID:    model.DefaultRoomID,
		Status:    "PLAYING",
		Players:   s.snapshotPlayersLocked(),
		RoomInfo:  *s.rooms[model.DefaultRoomID],
		Timestamp: s.clock.Now().UnixMilli(),
	}
}

// CreateRoom inserts a new open room. Fails with ErrRoomExists if the
// id is taken.
func (s *PresenceStore) CreateRoom(id, name string, maxPlayers int) (model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[id]; ok {
		return model.Room{}, model.ErrRoomExists
	}

	r := &model.Room{
		RoomID:     id,
		Name:       name,
		MaxPlayers: maxPlayers,
		Status:     model.RoomOpen,
	}
	s.rooms[id] = r

	s.logger.Info("room created",
		slog.String("room_id", id),
		slog.Int("max_players", maxPlayers))

	return *r, nil
}

// GetRoom returns a copy of the room with the given id
func (s *PresenceStore) GetRoom(id string) (model.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[id]
	if !ok {
		return model.Room{}, false
	}
	return *r, true
}

// ReapInactive removes every presence not seen within the timeout and
// returns the removed usernames.
func (s *PresenceStore) ReapInactive(timeout time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.clock.Now().Add(-timeout).UnixMilli()

	var reaped []string
	for username, p := range s.players {
		if p.LastSeen < cutoff {
			delete(s.players, username)
			s.adjustRoomCount(p.Room, -1)
			reaped = append(reaped, username)
		}
	}

	if len(reaped) > 0 {
		s.logger.Info("inactive players reaped",
			slog.Int("removed", len(reaped)),
			slog.Int("remaining", len(s.players)))
	}
	return reaped
}

// adjustRoomCount updates a room's occupancy counter and recomputes its
// status. Counters clamp at zero. Callers must hold the write lock.
func (s *PresenceStore) adjustRoomCount(roomID string, delta int) {
	r, ok := s.rooms[roomID]
	if !ok {
		return
	}

	r.CurrentPlayers += delta
	if r.CurrentPlayers < 0 {
		s.logger.Error("room counter underflow", slog.String("room_id", roomID))
		r.CurrentPlayers = 0
	}

	if r.CurrentPlayers >= r.MaxPlayers {
		r.Status = model.RoomFull
	} else {
		r.Status = model.RoomOpen
	}
}
