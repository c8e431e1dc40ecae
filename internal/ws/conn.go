package ws

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/omgplatform/gameserver/internal/model"
)

const (
	// Time allowed to write a frame to the peer
	writeWait = 10 * time.Second

	// Buffer size for outgoing frames
	sendBufferSize = 256
)

// Errors returned by WriteFrame
var (
	errConnClosed     = errors.New("connection closed")
	errSendBufferFull = errors.New("send buffer full")
)

// Conn wraps a websocket connection with a buffered outbound pump.
// Frames queued on one connection are delivered in queue order; a full
// buffer fails the write rather than blocking the caller, so a slow
// client cannot stall a broadcast.
type Conn struct {
	ws     *websocket.Conn
	send   chan model.Frame
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

func newConn(ws *websocket.Conn, logger *slog.Logger) *Conn {
	return &Conn{
		ws:     ws,
		send:   make(chan model.Frame, sendBufferSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// WriteFrame queues a frame for delivery
func (c *Conn) WriteFrame(frame model.Frame) error {
	select {
	case <-c.done:
		return errConnClosed
	default:
	}

	select {
	case c.send <- frame:
		return nil
	case <-c.done:
		return errConnClosed
	default:
		return errSendBufferFull
	}
}

// RemoteAddr identifies the peer
func (c *Conn) RemoteAddr() string {
	return c.ws.RemoteAddr().String()
}

// Close tears the connection down. Frames already queued are still
// flushed by the write pump before the socket closes. Safe to call
// more than once.
func (c *Conn) Close() error {
	c.once.Do(func() {
		close(c.done)
	})
	return nil
}

// writePump drains the send buffer onto the socket. It runs on its own
// goroutine for the life of the connection and owns the socket close,
// so queued frames are delivered before the peer sees EOF.
func (c *Conn) writePump() {
	defer func() {
		_ = c.ws.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			if err := c.writeFrame(frame); err != nil {
				_ = c.Close()
				return
			}
		case <-c.done:
			c.flush()
			return
		}
	}
}

// flush delivers frames queued before Close was called. Each write is
// bounded by writeWait, so a dead peer cannot hold teardown open.
func (c *Conn) flush() {
	for {
		select {
		case frame := <-c.send:
			if err := c.writeFrame(frame); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Conn) writeFrame(frame model.Frame) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteJSON(frame); err != nil {
		c.logger.Debug("write failed, closing connection",
			slog.String("remote_addr", c.RemoteAddr()),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}
