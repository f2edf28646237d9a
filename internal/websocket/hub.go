package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"serwer-dokumentow/internal/models"

	"github.com/gorilla/websocket"
)

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans committed tree events out to the websocket clients of the scope
// the event belongs to.
type Hub struct {
	clients    map[string]map[*Client]bool
	mu         sync.RWMutex
	Register   chan *Client
	Unregister chan *Client
	done       chan struct{}
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return
		case client := <-h.Register:
			h.registerClient(client)
		case client := <-h.Unregister:
			h.unregisterClient(client)
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.Scope]; !ok {
		h.clients[client.Scope] = make(map[*Client]bool)
	}
	h.clients[client.Scope][client] = true
	h.logger.Debug("websocket client registered", "user_id", client.UserID, "scope", client.Scope)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if scopeClients, ok := h.clients[client.Scope]; ok {
		if _, ok := scopeClients[client]; ok {
			delete(scopeClients, client)
			close(client.send)
			if len(scopeClients) == 0 {
				delete(h.clients, client.Scope)
			}
			h.logger.Debug("websocket client unregistered", "user_id", client.UserID, "scope", client.Scope)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for scope, scopeClients := range h.clients {
		for client := range scopeClients {
			close(client.send)
		}
		delete(h.clients, scope)
	}
}

// ClientCount returns the number of connected clients in scope.
func (h *Hub) ClientCount(scope string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[scope])
}

// PublishEvent delivers raw event bytes to every client of scope. Clients
// with a full buffer miss the message and catch up through /events.
func (h *Hub) PublishEvent(scope string, eventData []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if scopeClients, ok := h.clients[scope]; ok {
		for client := range scopeClients {
			select {
			case client.send <- eventData:
			default:
				h.logger.Warn("websocket send buffer full, dropping message", "user_id", client.UserID, "scope", scope)
			}
		}
	}
}

// Publish implements tree.Publisher for a single instance deployment.
func (h *Hub) Publish(event models.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to encode event", "event_type", event.EventType, "error", err)
		return
	}
	h.PublishEvent(event.Scope, data)
}
