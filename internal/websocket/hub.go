package websocket

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Event is the outbound wire envelope. Room doubles as the hub routing key.
type Event struct {
	Type string `json:"type"`
	Room string `json:"room,omitempty"`
	Data any    `json:"data,omitempty"`
}

// Hub fans session events out to every connection bound to a room.
// Delivery is isolated per connection: a full send buffer drops that one
// client, never the room.
type Hub struct {
	// Bound clients per room code
	rooms map[string]map[*Client]bool

	// Protects rooms map
	mu sync.RWMutex

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// Broadcast events
	broadcast chan *Event

	log *logrus.Entry
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		broadcast:  make(chan *Event, 256),
		log:        logrus.WithField("component", "hub"),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.handleRegister(client)
		case client := <-h.Unregister:
			h.handleUnregister(client)
		case event := <-h.broadcast:
			h.handleBroadcast(event)
		}
	}
}

// BroadcastEvent queues an event for every connection bound to a room.
// It satisfies game.Broadcaster and never blocks the calling session loop.
func (h *Hub) BroadcastEvent(code string, eventType string, data any) {
	h.broadcast <- &Event{Type: eventType, Room: code, Data: data}
}

// SendToClient delivers an event to a single connection. A full buffer
// drops the connection, same as on broadcast; a send racing the hub
// dropping the same client is a no-op rather than a panic.
func (h *Hub) SendToClient(client *Client, event Event) error {
	delivered, closed := client.trySend(&event)
	if !delivered && !closed {
		h.dropClient(client)
	}
	return nil
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.rooms[client.RoomCode]; !exists {
		h.rooms[client.RoomCode] = make(map[*Client]bool)
	}
	h.rooms[client.RoomCode][client] = true

	h.log.WithFields(logrus.Fields{
		"client": client.ID,
		"room":   client.RoomCode,
		"bound":  len(h.rooms[client.RoomCode]),
	}).Info("client registered")
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeClient(client)
}

// removeClient must be called with the lock held.
func (h *Hub) removeClient(client *Client) {
	room, exists := h.rooms[client.RoomCode]
	if !exists {
		return
	}
	if _, bound := room[client]; !bound {
		return
	}
	delete(room, client)
	client.closeSendChannel()

	if len(room) == 0 {
		delete(h.rooms, client.RoomCode)
	}

	h.log.WithFields(logrus.Fields{
		"client": client.ID,
		"room":   client.RoomCode,
		"bound":  len(room),
	}).Info("client unregistered")
}

func (h *Hub) handleBroadcast(event *Event) {
	h.mu.RLock()
	var dropped []*Client
	if room, exists := h.rooms[event.Room]; exists {
		for client := range room {
			if delivered, closed := client.trySend(event); !delivered && !closed {
				dropped = append(dropped, client)
			}
		}
	}
	h.mu.RUnlock()

	// Slow consumers lose their connection; the rest of the room is unaffected.
	for _, client := range dropped {
		h.log.WithField("client", client.ID).Warn("send buffer full, dropping client")
		h.dropClient(client)
	}
}

func (h *Hub) dropClient(client *Client) {
	h.mu.Lock()
	h.removeClient(client)
	h.mu.Unlock()
	client.conn.Close()
}

// CountInRoom returns the number of connections bound to a room.
func (h *Hub) CountInRoom(code string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[code])
}
