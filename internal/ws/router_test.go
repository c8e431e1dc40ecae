package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/omgplatform/gameserver/internal/dependencies/mocks"
	"github.com/omgplatform/gameserver/internal/game"
	"github.com/omgplatform/gameserver/internal/model"
	"github.com/omgplatform/gameserver/internal/session"
	"github.com/omgplatform/gameserver/internal/storage/memory"
	"github.com/omgplatform/gameserver/internal/testutil"
	"github.com/omgplatform/gameserver/internal/token"
)

// fakeConn records frames written to it
type fakeConn struct {
	mu     sync.Mutex
	addr   string
	frames []model.Frame
	closed bool
}

func (c *fakeConn) WriteFrame(frame model.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, frame)
	return nil
}

func (c *fakeConn) RemoteAddr() string { return c.addr }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) framesOfType(frameType string) []model.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []model.Frame
	for _, f := range c.frames {
		if f.Type == frameType {
			out = append(out, f)
		}
	}
	return out
}

func (c *fakeConn) lastFrame() model.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) == 0 {
		return model.Frame{}
	}
	return c.frames[len(c.frames)-1]
}

func (c *fakeConn) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}

type RouterSuite struct {
	suite.Suite
	clock     *mocks.MockClock
	codec     *token.Codec
	directory *memory.Directory
	presence  *game.PresenceStore
	registry  *session.Registry
	router    *Router
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	codec, err := token.New(token.Config{
		Secret: "test-secret-that-is-long-enough-to-sign",
	}, s.clock)
	s.Require().NoError(err)
	s.codec = codec

	s.directory = memory.New()
	for _, username := range []string{"alice", "bob"} {
		err := s.directory.Create(context.Background(), &model.User{Username: username})
		s.Require().NoError(err)
	}

	logger := testutil.NopLogger()
	s.presence = game.NewPresenceStore(s.clock, logger, 50)
	s.registry = session.NewRegistry(logger)
	s.router = NewRouter(s.codec, s.directory, s.presence, s.registry, s.clock, logger)
}

func (s *RouterSuite) dispatch(conn session.Conn, frameType string, payload any) {
	frame := map[string]any{"type": frameType}
	if payload != nil {
		frame["payload"] = payload
	}
	data, err := json.Marshal(frame)
	s.Require().NoError(err)
	s.router.Dispatch(context.Background(), conn, data)
}

// join authenticates a fresh connection as username and clears the
// frames produced by the handshake
func (s *RouterSuite) join(username string) *fakeConn {
	conn := &fakeConn{addr: fmt.Sprintf("%s:1", username)}
	tok, err := s.codec.Mint(username)
	s.Require().NoError(err)
	s.dispatch(conn, model.FrameJoin, model.JoinRequest{Username: username, Token: tok})
	s.Require().True(s.router.IsAuthenticated(conn), "join handshake failed: %+v", conn.lastFrame())
	conn.clear()
	return conn
}

func (s *RouterSuite) TestWelcome() {
	conn := &fakeConn{addr: "test:1"}
	s.router.Welcome(conn)

	frame := conn.lastFrame()
	s.Equal(model.FrameSystem, frame.Type)
	s.Equal("System", frame.Sender)
	s.Equal("Welcome! Please authenticate to start messaging.", frame.Payload)
}

func (s *RouterSuite) TestJoinSuccess() {
	conn := &fakeConn{addr: "test:1"}
	tok, err := s.codec.Mint("alice")
	s.Require().NoError(err)

	s.dispatch(conn, model.FrameJoin, model.JoinRequest{Token: tok})

	s.True(s.router.IsAuthenticated(conn))
	s.True(s.presence.IsOnline("alice"))

	success := conn.framesOfType(model.FrameJoinSuccess)
	s.Require().Len(success, 1)
	presence, ok := success[0].Payload.(model.PlayerPresence)
	s.Require().True(ok)
	s.Equal("alice", presence.Username)
	s.Equal(model.DefaultRoomID, presence.Room)

	s.Len(conn.framesOfType(model.FrameGameState), 1)

	system := conn.framesOfType(model.FrameSystem)
	s.Require().Len(system, 1)
	s.Equal("alice joined the game!", system[0].Payload)
}

func (s *RouterSuite) TestJoinWithInvalidToken() {
	conn := &fakeConn{addr: "test:1"}

	s.dispatch(conn, model.FrameJoin, model.JoinRequest{Token: "not-a-token"})

	frame := conn.lastFrame()
	s.Equal(model.FrameError, frame.Type)
	s.Equal("Invalid authentication token", frame.Error)
	s.False(s.router.IsAuthenticated(conn))
}

func (s *RouterSuite) TestJoinWithExpiredToken() {
	tok, err := s.codec.Mint("alice")
	s.Require().NoError(err)
	s.clock.Advance(token.DefaultTTL + time.Minute)

	conn := &fakeConn{addr: "test:1"}
	s.dispatch(conn, model.FrameJoin, model.JoinRequest{Token: tok})

	frame := conn.lastFrame()
	s.Equal(model.FrameError, frame.Type)
	s.Equal("Invalid authentication token", frame.Error)
}

func (s *RouterSuite) TestJoinUnknownUser() {
	tok, err := s.codec.Mint("mallory")
	s.Require().NoError(err)

	conn := &fakeConn{addr: "test:1"}
	s.dispatch(conn, model.FrameJoin, model.JoinRequest{Token: tok})

	frame := conn.lastFrame()
	s.Equal(model.FrameError, frame.Type)
	s.Equal("User not found", frame.Error)
}

func (s *RouterSuite) TestSecondLoginRejected() {
	first := s.join("alice")

	second := &fakeConn{addr: "test:2"}
	tok, err := s.codec.Mint("alice")
	s.Require().NoError(err)
	s.dispatch(second, model.FrameJoin, model.JoinRequest{Token: tok})

	frame := second.lastFrame()
	s.Equal(model.FrameError, frame.Type)
	s.Equal("User is already online", frame.Error)
	s.False(s.router.IsAuthenticated(second))

	// The original session is untouched
	s.True(s.router.IsAuthenticated(first))
	s.Equal(1, s.presence.PlayerCount())
}

func (s *RouterSuite) TestChatBroadcast() {
	alice := s.join("alice")
	bob := s.join("bob")
	alice.clear() // drop bob's join announcement

	s.dispatch(alice, model.FrameChat, model.ChatMessage{Message: "  hello there  "})

	for _, conn := range []*fakeConn{alice, bob} {
		chats := conn.framesOfType(model.FrameChat)
		s.Require().Len(chats, 1)
		s.Equal("alice", chats[0].Sender)
		msg, ok := chats[0].Payload.(model.ChatMessage)
		s.Require().True(ok)
		s.Equal("hello there", msg.Message)
	}
}

func (s *RouterSuite) TestChatEmptyMessage() {
	alice := s.join("alice")

	s.dispatch(alice, model.FrameChat, model.ChatMessage{Message: "   "})

	frame := alice.lastFrame()
	s.Equal(model.FrameError, frame.Type)
	s.Equal("Message must not be empty", frame.Error)
}

func (s *RouterSuite) TestChatRequiresAuth() {
	conn := &fakeConn{addr: "test:1"}

	s.dispatch(conn, model.FrameChat, model.ChatMessage{Message: "hi"})

	frame := conn.lastFrame()
	s.Equal(model.FrameError, frame.Type)
	s.Equal("Authentication required", frame.Error)
}

func (s *RouterSuite) TestMalformedFrame() {
	conn := &fakeConn{addr: "test:1"}

	s.router.Dispatch(context.Background(), conn, []byte("{not json"))

	frame := conn.lastFrame()
	s.Equal(model.FrameError, frame.Type)
	s.Equal("Invalid message format", frame.Error)
}

func (s *RouterSuite) TestUnknownFrameType() {
	conn := &fakeConn{addr: "test:1"}

	s.dispatch(conn, "TELEPORT", nil)

	frame := conn.lastFrame()
	s.Equal(model.FrameError, frame.Type)
	s.Equal("Unknown message type: TELEPORT", frame.Error)
}

func (s *RouterSuite) TestMoveBroadcast() {
	alice := s.join("alice")
	bob := s.join("bob")

	s.dispatch(alice, model.FrameMove, model.PlayerMove{X: 3, Y: 4, Direction: "UP"})

	moves := bob.framesOfType(model.FramePlayerMove)
	s.Require().Len(moves, 1)
	s.Equal("alice", moves[0].Sender)
	move, ok := moves[0].Payload.(model.PlayerMove)
	s.Require().True(ok)
	s.Equal("alice", move.Username)
	s.Equal(3, move.X)
	s.Equal(4, move.Y)
	s.Equal("UP", move.Direction)

	presence, found := s.presence.GetPlayer("alice")
	s.Require().True(found)
	s.Equal(3, presence.X)
	s.Equal(4, presence.Y)
}

func (s *RouterSuite) TestMoveInvalidDirection() {
	alice := s.join("alice")

	s.dispatch(alice, model.FrameMove, model.PlayerMove{X: 1, Y: 1, Direction: "SIDEWAYS"})

	frame := alice.lastFrame()
	s.Equal(model.FrameError, frame.Type)
	s.Equal("Invalid direction: SIDEWAYS", frame.Error)
}

func (s *RouterSuite) TestGetPlayers() {
	alice := s.join("alice")
	s.join("bob")
	alice.clear()

	s.dispatch(alice, model.FrameGetPlayers, nil)

	lists := alice.framesOfType(model.FramePlayersList)
	s.Require().Len(lists, 1)
	players, ok := lists[0].Payload.([]model.PlayerPresence)
	s.Require().True(ok)
	s.Require().Len(players, 2)
	s.Equal("alice", players[0].Username)
	s.Equal("bob", players[1].Username)
}

func (s *RouterSuite) TestGetState() {
	alice := s.join("alice")

	s.dispatch(alice, model.FrameGetState, nil)

	states := alice.framesOfType(model.FrameGameState)
	s.Require().Len(states, 1)
	state, ok := states[0].Payload.(model.GameState)
	s.Require().True(ok)
	s.Equal(model.DefaultRoomID, state.RoomID)
	s.Len(state.Players, 1)
}

func (s *RouterSuite) TestBroadcastCommand() {
	alice := s.join("alice")
	bob := s.join("bob")

	s.dispatch(alice, model.FrameBroadcast, "server maintenance at noon")

	system := bob.framesOfType(model.FrameSystem)
	s.Require().Len(system, 1)
	s.Equal("server maintenance at noon", system[0].Payload)
	s.Equal("System", system[0].Sender)
}

func (s *RouterSuite) TestTeardownAnnouncesDeparture() {
	alice := s.join("alice")
	bob := s.join("bob")

	s.router.Teardown(alice)

	s.False(s.presence.IsOnline("alice"))
	s.False(s.router.IsAuthenticated(alice))

	system := bob.framesOfType(model.FrameSystem)
	s.Require().Len(system, 1)
	s.Equal("alice left the game", system[0].Payload)

	// A second teardown for the same connection is a no-op
	bob.clear()
	s.router.Teardown(alice)
	s.Empty(bob.framesOfType(model.FrameSystem))
}

func (s *RouterSuite) TestDisconnectUser() {
	alice := s.join("alice")

	s.router.DisconnectUser("alice")

	alice.mu.Lock()
	closed := alice.closed
	alice.mu.Unlock()
	s.True(closed)

	// Unknown usernames are ignored
	s.router.DisconnectUser("nobody")
}
