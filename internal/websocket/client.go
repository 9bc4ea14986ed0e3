// internal/websocket/client.go

package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 1024
)

// Client is one live duplex connection, bound to at most one (room, team)
// pair. The binding is set by the join/reconnect handlers and read by the
// dispatcher; a zero TeamID means the connection is unbound.
type Client struct {
	conn *websocket.Conn
	hub  *Hub

	// Buffered channel of outbound events. The hub drops the whole
	// connection rather than block when this fills up. sendMu guards the
	// channel against a send racing its close when the hub drops the
	// client from another goroutine.
	send       chan *Event
	sendMu     sync.Mutex
	sendClosed bool

	ID       string
	RoomCode string
	TeamID   uuid.UUID
	TeamName string

	messageHandler func(*Client, []byte) error
	closeHandler   func(*Client)
}

// NewClient creates a client for an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn, clientID string) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan *Event, 256),
		ID:   clientID,
	}
}

// SetMessageHandler sets the function invoked for each inbound message.
func (c *Client) SetMessageHandler(handler func(*Client, []byte) error) {
	c.messageHandler = handler
}

// SetCloseHandler sets the function invoked when the connection drops.
func (c *Client) SetCloseHandler(handler func(*Client)) {
	c.closeHandler = handler
}

// Bound reports whether the client has a team binding.
func (c *Client) Bound() bool {
	return c.RoomCode != "" && c.TeamID != uuid.Nil
}

// ReadPump pumps messages from the connection to the message handler.
func (c *Client) ReadPump() {
	defer func() {
		if c.closeHandler != nil {
			c.closeHandler(c)
		}
		c.hub.Unregister <- c
		c.conn.Close()
		logrus.WithFields(logrus.Fields{"client": c.ID, "team": c.TeamName}).Info("client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).WithField("client", c.ID).Warn("unexpected close")
			}
			break
		}

		if c.messageHandler != nil {
			if err := c.messageHandler(c, message); err != nil {
				logrus.WithError(err).WithField("client", c.ID).Warn("message handling failed")
			}
		}
	}
}

// WritePump pumps events from the send channel to the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(event); err != nil {
				logrus.WithError(err).WithField("client", c.ID).Warn("write failed")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// trySend queues an event without ever blocking. delivered is false when
// the buffer is full or the channel is already closed; closed tells the
// caller which, so only full-buffer clients get dropped.
func (c *Client) trySend(event *Event) (delivered, closed bool) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return false, true
	}
	select {
	case c.send <- event:
		return true, false
	default:
		return false, false
	}
}

func (c *Client) closeSendChannel() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.sendClosed {
		c.sendClosed = true
		close(c.send)
	}
}
