package ws

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/omgplatform/gameserver/internal/model"
	"github.com/omgplatform/gameserver/internal/testutil"
)

// dialConnPair upgrades a loopback websocket and hands the server side
// to a Conn with its pump running.
func dialConnPair(t *testing.T) (*Conn, *websocket.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	connCh := make(chan *Conn, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		socket, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := newConn(socket, testutil.NopLogger())
		go conn.writePump()
		connCh <- conn
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	select {
	case conn := <-connCh:
		return conn, client
	case <-time.After(5 * time.Second):
		t.Fatal("server connection never arrived")
		return nil, nil
	}
}

func TestCloseFlushesQueuedFrames(t *testing.T) {
	conn, client := dialConnPair(t)

	const queued = 5
	for i := 0; i < queued; i++ {
		err := conn.WriteFrame(model.Frame{
			Type:    model.FrameChat,
			Payload: fmt.Sprintf("message %d", i),
		})
		require.NoError(t, err)
	}
	require.NoError(t, conn.Close())

	// Every frame queued before Close must arrive before the peer
	// sees the socket close.
	require.NoError(t, client.SetReadDeadline(time.Now().Add(5*time.Second)))
	var received []model.Frame
	for {
		var frame model.Frame
		if err := client.ReadJSON(&frame); err != nil {
			break
		}
		received = append(received, frame)
	}

	require.Len(t, received, queued)
	for i, frame := range received {
		require.Equal(t, model.FrameChat, frame.Type)
		require.Equal(t, fmt.Sprintf("message %d", i), frame.Payload)
	}
}

func TestWriteFrameAfterCloseFails(t *testing.T) {
	conn, _ := dialConnPair(t)

	require.NoError(t, conn.Close())

	err := conn.WriteFrame(model.Frame{Type: model.FrameChat, Payload: "late"})
	require.ErrorIs(t, err, errConnClosed)
}

func TestCloseIsIdempotent(t *testing.T) {
	conn, _ := dialConnPair(t)

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())
}
