package server

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// sendBufferSize controls the max number of frames queued per client.
const sendBufferSize = 256

// Conn is the subset of *websocket.Conn the client uses. Tests swap
// in a mock transport.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client owns one live websocket session. Its identity is assigned
// once at connect time and never changes.
type Client struct {
	identity string
	guest    bool
	hub      *Hub
	conn     Conn
	send     chan []byte
	logger   zerolog.Logger

	mu     sync.Mutex
	closed bool

	// room is the current room id, empty when unassigned. Guarded by
	// hub.mu, not c.mu.
	room string
}

func NewClient(identity string, guest bool, conn Conn, hub *Hub) *Client {
	return &Client{
		identity: identity,
		guest:    guest,
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		logger:   hub.logger.With().Str("identity", identity).Logger(),
	}
}

func (c *Client) Identity() string { return c.identity }

// Send enqueues a frame for delivery without blocking. Returns false
// when the client is already closed or its buffer is full; callers
// treat both as a skipped recipient.
func (c *Client) Send(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Close shuts the transport and the send queue. Safe to call more
// than once.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	c.conn.Close()
}

func (c *Client) readPump() {
	defer c.hub.Disconnect(c)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug().Err(err).Msg("read error")
			}
			return
		}
		c.handleFrame(data)
	}
}

// handleFrame parses one inbound frame and dispatches on its type.
// Malformed frames answer the sender with an error envelope; unknown
// types are ignored for forward compatibility.
func (c *Client) handleFrame(data []byte) {
	cmd, err := parseCommand(data)
	if err != nil {
		c.logger.Debug().Err(err).Msg("malformed frame")
		c.Send(newEventError("could not parse message").toBytes())
		return
	}

	switch cmd.Type {
	case CommandTypeJoin:
		c.hub.Join(c, cmd.RoomID)
	case CommandTypeLeave:
		c.hub.Leave(c)
	case CommandTypeChat:
		if cmd.Content == "" {
			c.Send(newEventError("missing message content").toBytes())
			return
		}
		c.hub.Chat(c, cmd.Content)
	default:
		c.logger.Debug().Str("type", string(cmd.Type)).Msg("ignoring unknown command type")
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			c.logger.Debug().Err(err).Msg("write error")
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
