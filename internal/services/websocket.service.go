package services

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"sysmonitor/internal/models"
)

// Message types exchanged over the WebSocket
const (
	MessageSnapshot    = "snapshot"
	MessageAuth        = "auth"
	MessageAuthSuccess = "auth_success"
	MessageAuthError   = "auth_error"
	MessagePing        = "ping"
	MessagePong        = "pong"
	MessageSubscribe   = "subscribe"
	MessageUnsubscribe = "unsubscribe"
	MessageError       = "error"
)

// clientSendBuffer bounds how far a slow client may lag before snapshots are skipped
const clientSendBuffer = 16

// WebSocketMessage represents a message sent over WebSocket
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Token     string      `json:"token,omitempty"` // for auth messages from client
}

// SnapshotMessage wraps a snapshot for the stream
func SnapshotMessage(snap *models.Snapshot) WebSocketMessage {
	return WebSocketMessage{
		Type:      MessageSnapshot,
		Timestamp: snap.TakenAt,
		Data:      snap,
	}
}

// ClientConnection represents a connected WebSocket client
type ClientConnection struct {
	ID    string
	Conn  *websocket.Conn
	Send  chan WebSocketMessage
	Close chan struct{}
}

// NewClientConnection prepares a client for registration
func NewClientConnection(id string, conn *websocket.Conn) *ClientConnection {
	return &ClientConnection{
		ID:    id,
		Conn:  conn,
		Send:  make(chan WebSocketMessage, clientSendBuffer),
		Close: make(chan struct{}),
	}
}

// WebSocketHub fans every published snapshot out to the connected clients
type WebSocketHub struct {
	store *SnapshotStore
	log   zerolog.Logger

	clients    map[string]*ClientConnection
	register   chan *ClientConnection
	unregister chan *ClientConnection
	mu         sync.RWMutex
	done       chan struct{}
}

// NewWebSocketHub creates a hub fed by the store. Call Run to start it.
func NewWebSocketHub(store *SnapshotStore, log zerolog.Logger) *WebSocketHub {
	return &WebSocketHub{
		store:      store,
		log:        log,
		clients:    make(map[string]*ClientConnection),
		register:   make(chan *ClientConnection),
		unregister: make(chan *ClientConnection),
		done:       make(chan struct{}),
	}
}

// Run manages the hub's event loop until ctx is cancelled. On return every
// client's Send channel is closed so its write pump can say goodbye.
func (h *WebSocketHub) Run(ctx context.Context) error {
	updates, cancel := h.store.Subscribe()
	defer cancel()
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil

		case client := <-h.register:
			h.mu.Lock()
			if old, exists := h.clients[client.ID]; exists {
				close(old.Send)
			}
			h.clients[client.ID] = client
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Info().Str("client", client.ID).Int("total", total).Msg("client connected")

			// Greet with the current snapshot so clients need not wait a full cycle
			if snap := h.store.Latest(); snap.Ready() {
				client.Send <- SnapshotMessage(snap)
			}

		case client := <-h.unregister:
			h.remove(client)

		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			h.broadcast(SnapshotMessage(snap))
		}
	}
}

// remove drops the client only if it is still the registered connection
// for its ID; a reconnect under the same ID must not be torn down by the
// old connection's read pump.
func (h *WebSocketHub) remove(client *ClientConnection) {
	h.mu.Lock()
	current, exists := h.clients[client.ID]
	exists = exists && current == client
	if exists {
		delete(h.clients, client.ID)
		close(client.Send)
	}
	total := len(h.clients)
	h.mu.Unlock()
	if exists {
		h.log.Info().Str("client", client.ID).Int("total", total).Msg("client disconnected")
	}
}

func (h *WebSocketHub) broadcast(msg WebSocketMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Send <- msg:
		default:
			h.log.Debug().Str("client", client.ID).Msg("send buffer full, snapshot skipped")
		}
	}
}

func (h *WebSocketHub) shutdown() {
	h.mu.Lock()
	for id, client := range h.clients {
		delete(h.clients, id)
		close(client.Send)
	}
	h.mu.Unlock()
	close(h.done)
}

// Register adds a new client to the hub. It reports false once the hub
// has stopped.
func (h *WebSocketHub) Register(client *ClientConnection) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub
func (h *WebSocketHub) Unregister(client *ClientConnection) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SendMessage sends a message to a registered client without blocking.
// It reports false when the client is gone or its buffer is full.
func (h *WebSocketHub) SendMessage(client *ClientConnection, msg WebSocketMessage) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if current, exists := h.clients[client.ID]; !exists || current != client {
		return false
	}
	select {
	case client.Send <- msg:
		return true
	default:
		return false
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Latest returns the store's current snapshot
func (h *WebSocketHub) Latest() *models.Snapshot {
	return h.store.Latest()
}
