// Package signalclient provides the client side of the signaling
// protocol: a persistent websocket channel with typed event dispatch,
// automatic reconnection, and reference-counted sharing.
package signalclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"

	"github.com/jdunham2/dunhamwordle-sub000/internal/signaling"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client manages the WebSocket connection to the signaling server.
// One Client instance is shared across UI consumers via the Supervisor;
// it reconnects on transport errors until Close is called.
type Client struct {
	serverURL string
	bus       *Bus
	outgoing  chan *signaling.Message

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewClient creates a signaling client for the given websocket URL.
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: serverURL,
		bus:       NewBus(),
		outgoing:  make(chan *signaling.Message, 32),
	}
}

// Connect establishes the WebSocket connection and starts the read and
// write pumps. The connection stays up, reconnecting with bounded
// exponential backoff, until ctx is cancelled or Close is called.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.serverURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to signaling server: %w", err)
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.startPumps(conn)
	return nil
}

// On registers a handler for an event type and returns an unsubscribe token.
func (c *Client) On(typ signaling.MessageType, fn Handler) Subscription {
	return c.bus.On(typ, fn)
}

// Off removes a previously registered handler.
func (c *Client) Off(sub Subscription) {
	c.bus.Off(sub)
}

// CreateRoom asks the server to allocate a fresh room. The room code
// arrives in a room-created event.
func (c *Client) CreateRoom() {
	c.send(&signaling.Message{Type: signaling.TypeCreateRoom})
}

// JoinRoom requests entry to an existing room.
func (c *Client) JoinRoom(code string) {
	c.send(&signaling.Message{
		Type:   signaling.TypeJoinRoom,
		RoomID: signaling.NormalizeCode(code),
	})
}

// GetRoomStatus requests a membership snapshot, answered by a
// room-status event.
func (c *Client) GetRoomStatus(code string) {
	c.send(&signaling.Message{
		Type:   signaling.TypeGetRoomStatus,
		RoomID: signaling.NormalizeCode(code),
	})
}

// SendOffer relays an opaque session description to the room peer.
func (c *Client) SendOffer(roomID string, data json.RawMessage) {
	c.send(&signaling.Message{Type: signaling.TypeOffer, RoomID: roomID, Data: data})
}

// SendAnswer relays an opaque answer description to the room peer.
func (c *Client) SendAnswer(roomID string, data json.RawMessage) {
	c.send(&signaling.Message{Type: signaling.TypeAnswer, RoomID: roomID, Data: data})
}

// SendCandidate relays an opaque connectivity candidate to the room peer.
func (c *Client) SendCandidate(roomID string, data json.RawMessage) {
	c.send(&signaling.Message{Type: signaling.TypeICECandidate, RoomID: roomID, Data: data})
}

// send enqueues msg for the write pump, dropping it if the client is
// shutting down or the queue is full.
func (c *Client) send(msg *signaling.Message) {
	select {
	case c.outgoing <- msg:
	default:
		slog.Warn("signaling send queue full, dropping message", "type", msg.Type)
	}
}

// Close tears the channel down for good. It is idempotent and disables
// reconnection.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	if conn != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		conn.Close()
	}
}

// startPumps spawns one reader and one writer for conn. Both exit when
// the connection breaks; the reader then owns the reconnect attempt.
func (c *Client) startPumps(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.readPump(conn)
	go c.writePump(conn)
}

func (c *Client) readPump(conn *websocket.Conn) {
	for {
		var msg signaling.Message
		if err := conn.ReadJSON(&msg); err != nil {
			conn.Close()
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if closed || c.ctx.Err() != nil {
				return
			}
			slog.Warn("signaling connection lost", "error", err)
			c.bus.Emit(&signaling.Message{Type: EventDisconnected})
			c.reconnect()
			return
		}
		c.bus.Emit(&msg)
	}
}

func (c *Client) writePump(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg := <-c.outgoing:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// reconnect re-dials with bounded exponential backoff until it succeeds
// or the client shuts down.
func (c *Client) reconnect() {
	b := &backoff.Backoff{
		Min:    500 * time.Millisecond,
		Max:    15 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-time.After(b.Duration()):
		}

		conn, _, err := websocket.DefaultDialer.DialContext(c.ctx, c.serverURL, nil)
		if err != nil {
			slog.Debug("signaling reconnect failed", "attempt", b.Attempt(), "error", err)
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			conn.Close()
			return
		}
		c.conn = conn
		c.mu.Unlock()

		slog.Info("signaling connection restored")
		c.startPumps(conn)
		c.bus.Emit(&signaling.Message{Type: EventReconnected})
		return
	}
}
