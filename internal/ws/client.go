package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rsheldon/quorum/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer
	pongWait = 60 * time.Second

	// Ping period; must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound message size
	maxMessageSize = 4096

	// Buffer size for outgoing messages
	sendBufferSize = 64
)

// Client is one live connection. The authentication state machine
// (unauthenticated -> authenticated -> closed) lives here and is owned
// exclusively by the connection's read loop; the only cross-connection
// communication is through the hub.
type Client struct {
	id   string
	conn *websocket.Conn

	sendMu sync.Mutex
	closed bool
	send   chan []byte

	// Owned by the read loop after a successful authRequest
	authenticated bool
	code          model.SessionCode
	playerName    string
	hub           *Hub
}

// newClient wraps an accepted connection with a fresh connection identifier
func newClient(conn *websocket.Conn) *Client {
	return &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

// ID returns the connection identifier bound to player records on
// authentication.
func (c *Client) ID() string {
	return c.id
}

// enqueue queues a message for delivery, dropping it if the client's buffer
// is full or its send channel already closed. Safe for concurrent use.
func (c *Client) enqueue(msg []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// closeSend closes the outgoing queue exactly once, which in turn stops the
// write pump and closes the underlying connection.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// writePump drains the send queue onto the wire and keeps the connection
// alive with pings. It exits, closing the connection, when the send queue is
// closed or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
