package web

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ErrConnClosed is returned when writing to a closed connection.
var ErrConnClosed = errors.New("web: connection closed")

const writeWait = 10 * time.Second

// conn is one browser tab. Writes are serialised; gorilla allows a single
// concurrent writer.
type conn struct {
	id          string
	visitorID   string
	name        string
	socket      *websocket.Conn
	connectedAt time.Time

	mu     sync.Mutex
	closed bool
}

func newConn(socket *websocket.Conn, visitorID, name string) *conn {
	return &conn{
		id:          uuid.NewString(),
		visitorID:   visitorID,
		name:        name,
		socket:      socket,
		connectedAt: time.Now(),
	}
}

func (c *conn) send(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	c.socket.SetWriteDeadline(time.Now().Add(writeWait))
	return c.socket.WriteJSON(f)
}

func (c *conn) respond(reqID string, payload any) error {
	f, err := NewResponse(reqID, payload)
	if err != nil {
		return err
	}
	return c.send(f)
}

func (c *conn) respondError(reqID, code, message string) error {
	return c.send(NewErrorResponse(reqID, code, message))
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	return c.socket.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (c *conn) readFrame() (Frame, error) {
	_, msg, err := c.socket.ReadMessage()
	if err != nil {
		return Frame{}, err
	}
	var f Frame
	if err := json.Unmarshal(msg, &f); err != nil {
		return Frame{}, err
	}
	return f, nil
}

func (c *conn) close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.socket.Close()
}
