package socket

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Event is a lifecycle notification pushed to connected dashboard clients.
type Event struct {
	Type      string `json:"type"` // e.g. "stock_request.dispatched"
	RequestID string `json:"request_id,omitempty"`
	Message   string `json:"message,omitempty"`
}

// client is one connected user. The write mutex serializes WriteMessage
// calls; gorilla/websocket forbids concurrent writers on one connection.
type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// Hub tracks all connected WebSocket clients, keyed by user id.
type Hub struct {
	clients map[string]*client
	mu      sync.RWMutex
	log     *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*client),
		log:     log,
	}
}

// Register adds a client connection for the given user.
func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[userID] = &client{conn: conn}
	h.log.Info("WebSocket client registered", zap.String("user_id", userID))
}

// Unregister removes a client connection.
func (h *Hub) Unregister(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[userID]; ok {
		delete(h.clients, userID)
		h.log.Info("WebSocket client unregistered", zap.String("user_id", userID))
	}
}

// Notify sends an event to one user. An offline user is not an error; the
// dashboard refetches on load anyway.
func (h *Hub) Notify(userID string, event Event) error {
	h.mu.RLock()
	cl, ok := h.clients[userID]
	h.mu.RUnlock()

	if !ok {
		h.log.Debug("WebSocket client not connected, dropping event",
			zap.String("user_id", userID), zap.String("type", event.Type))
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	cl.writeMu.Lock()
	defer cl.writeMu.Unlock()
	return cl.conn.WriteMessage(websocket.TextMessage, payload)
}

// NotifyAll sends an event to every connected client whose id is in ids.
// Used for pool requests that any admin may act on.
func (h *Hub) NotifyAll(ids []string, event Event) {
	for _, id := range ids {
		_ = h.Notify(id, event)
	}
}
