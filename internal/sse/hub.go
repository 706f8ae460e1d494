package sse

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// EventType defines the SSE event name.
type EventType string

const (
	EventProductCreated EventType = "product.created"
	EventProductUpdated EventType = "product.updated"
	EventProductDeleted EventType = "product.deleted"
)

// ProductEvent is the payload broadcast to stream subscribers.
type ProductEvent struct {
	Event     EventType `json:"event"`
	ProductID int64     `json:"product_id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
}

// Filter narrows the events a client receives. The zero Filter receives
// every event.
type Filter struct {
	// OwnerID, when non-zero, keeps only events for products it owns.
	OwnerID int64
	// Category, when set, keeps only events for that category key.
	Category string
}

func (f Filter) matches(ev *ProductEvent) bool {
	if f.OwnerID != 0 && ev.UserID != f.OwnerID {
		return false
	}
	return f.Category == "" || ev.Category == f.Category
}

// Client represents a connected SSE subscriber.
type Client struct {
	ID     string
	Events chan []byte
	filter Filter
}

// Hub manages SSE client connections and broadcasts.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	closed  bool
}

// NewHub creates a new SSE hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register adds a new client and returns it for streaming. After Close the
// returned client's channel is already closed.
func (h *Hub) Register(clientID string, filter Filter) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := &Client{
		ID:     clientID,
		Events: make(chan []byte, 64),
		filter: filter,
	}
	if h.closed {
		close(c.Events)
		return c
	}
	h.clients[clientID] = c
	log.Info().Str("client_id", clientID).Int64("owner_id", filter.OwnerID).Str("category", filter.Category).
		Int("total_clients", len(h.clients)).Msg("SSE client connected")
	return c
}

// Unregister removes a client and closes its channel.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[clientID]; ok {
		close(c.Events)
		delete(h.clients, clientID)
		log.Info().Str("client_id", clientID).Int("total_clients", len(h.clients)).Msg("SSE client disconnected")
	}
}

// Close disconnects every client so open streams end before the server
// drains. Later registrations are closed immediately.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, c := range h.clients {
		close(c.Events)
		delete(h.clients, id)
	}
	log.Info().Msg("SSE hub closed")
}

// Broadcast sends an event to every client whose filter matches it.
// Non-blocking: drops message if client buffer is full.
func (h *Hub) Broadcast(event *ProductEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal SSE event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		if !c.filter.matches(event) {
			continue
		}
		select {
		case c.Events <- data:
		default:
			log.Warn().Str("client_id", c.ID).Msg("SSE client buffer full, dropping event")
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
