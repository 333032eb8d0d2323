package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/kiwari-pos/storefront/internal/enum"
	"github.com/kiwari-pos/storefront/internal/notify"
	"go.uber.org/zap"
)

// Event represents a WebSocket message pushed to the browser
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// sessionEvent routes an event to every tab of one browser session
type sessionEvent struct {
	SessionID uuid.UUID
	Event     Event
}

// Hub maintains the set of active clients and pushes events to them
type Hub struct {
	// Registered clients by session ID
	rooms map[uuid.UUID]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *sessionEvent

	// Closed when Run returns
	done chan struct{}

	upgrader websocket.Upgrader
	log      *zap.Logger

	mu sync.RWMutex
}

// NewHub creates a new Hub. Upgrades are accepted from the listed origins,
// or from any origin when the list contains "*".
func NewHub(log *zap.Logger, allowedOrigins []string) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *sessionEvent, 256),
		done:       make(chan struct{}),
		upgrader:   newUpgrader(allowedOrigins),
		log:        log,
	}
}

// Run starts the hub's main loop and blocks until ctx is cancelled.
// On return every client's send channel has been closed.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.sessionID] == nil {
				h.rooms[client.sessionID] = make(map[*Client]bool)
			}
			h.rooms[client.sessionID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			message, err := json.Marshal(event.Event)
			if err != nil {
				h.log.Warn("marshal ws event", zap.Error(err))
				continue
			}

			h.mu.Lock()
			for client := range h.rooms[event.SessionID] {
				select {
				case client.send <- message:
				default:
					// Send buffer full
					h.drop(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop removes client from its room. Caller holds h.mu.
func (h *Hub) drop(client *Client) {
	clients, ok := h.rooms[client.sessionID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.sessionID)
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	for _, clients := range h.rooms {
		for client := range clients {
			h.drop(client)
		}
	}
	h.mu.Unlock()
	close(h.done)
}

// Connected returns the number of open tabs of a session.
func (h *Hub) Connected(sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sessionID])
}

// BroadcastToSession queues an event for every tab of a session. Events for
// a stopped hub are dropped.
func (h *Hub) BroadcastToSession(sessionID uuid.UUID, event Event) {
	select {
	case h.broadcast <- &sessionEvent{SessionID: sessionID, Event: event}:
	case <-h.done:
	}
}

// Notifier returns a notifier that pushes to one session's tabs.
func (h *Hub) Notifier(sessionID uuid.UUID) notify.Notifier {
	return notify.Func(func(_ context.Context, n notify.Notification) {
		payload, err := json.Marshal(n)
		if err != nil {
			return
		}
		h.BroadcastToSession(sessionID, Event{Type: enum.EventNotification, Payload: payload})
	})
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
