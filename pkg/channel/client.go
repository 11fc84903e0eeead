package channel

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

// ErrClientClosed is returned when sending on a closed client connection.
var ErrClientClosed = errors.New("client connection closed")

// client wraps one browser's WebSocket connection.
//
// gorilla/websocket allows at most one concurrent writer per connection;
// the mutex serializes writes so overlapping broadcasts cannot corrupt a
// frame. The server owns the client for its whole lifetime: registered on
// connect, unregistered on peer close or send failure.
type client struct {
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
}

// Send delivers a text message to the peer.
func (c *client) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}

	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Close closes the underlying connection. Safe to call more than once.
func (c *client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true

	_ = c.conn.Close()
}

// remoteAddr returns the peer address for logging.
func (c *client) remoteAddr() string {
	return c.conn.RemoteAddr().String()
}
