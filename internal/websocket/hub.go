package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"chat-backend/internal/models"
	"chat-backend/internal/presence"
)

var (
	ErrClientDisconnected = errors.New("client disconnected")
	ErrUnsupportedEvent   = errors.New("unsupported event")
)

const handlerTimeout = 10 * time.Second

// PresenceStore mirrors presence changes outside the process
type PresenceStore interface {
	SetUserOnline(ctx context.Context, userID string) error
	SetUserOffline(ctx context.Context, userID string) error
}

// EventHandler processes one inbound client event
type EventHandler func(ctx context.Context, client *Client, data json.RawMessage) error

type Hub struct {
	// Live connections by connection id
	clients map[string]*Client

	// Who is reachable
	registry *presence.Registry

	// Optional out-of-process presence mirror
	store PresenceStore

	// Inbound event handlers
	handlers map[models.EventType]EventHandler

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Context for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc

	mu sync.RWMutex
}

func NewHub(registry *presence.Registry, store PresenceStore) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		clients:    make(map[string]*Client),
		registry:   registry,
		store:      store,
		handlers:   make(map[models.EventType]EventHandler),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Handle installs the handler for an inbound event
func (h *Hub) Handle(event models.EventType, handler EventHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[event] = handler
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-h.ctx.Done():
			slog.Info("WebSocket hub shutting down")
			h.closeAll()
			return
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client.id] = client
	if client.userID != "" {
		h.registry.OnConnect(client.userID, client.id)
	}
	h.mu.Unlock()

	slog.Info("Client registered", "clientID", client.id, "userID", client.userID)

	if client.userID != "" && h.store != nil {
		if err := h.store.SetUserOnline(h.ctx, client.userID); err != nil {
			slog.Error("Failed to set user online", "userID", client.userID, "error", err)
		}
	}

	h.broadcastPresence()
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.id)
	userID, offline := h.registry.OnDisconnect(client.id)
	h.mu.Unlock()

	client.close()
	slog.Info("Client unregistered", "clientID", client.id, "userID", client.userID, "offline", offline)

	if offline && h.store != nil {
		if err := h.store.SetUserOffline(h.ctx, userID); err != nil {
			slog.Error("Failed to set user offline", "userID", userID, "error", err)
		}
	}

	h.broadcastPresence()
}

// broadcastPresence sends the full online set to every connection. The payload grows with
// the number of connections; fine at the scale this service targets.
func (h *Hub) broadcastPresence() {
	h.Broadcast(models.EventGetOnlineUsers, h.registry.Snapshot())
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	h.registry.Reset()
}

// Push sends one event to one connection
func (h *Hub) Push(connID string, event models.EventType, payload any) error {
	h.mu.RLock()
	client, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return ErrClientDisconnected
	}
	return client.SendEvent(NewEnvelope(event, payload))
}

// Broadcast sends one event to every connection, registered or anonymous.
// Returns the number of connections that accepted it.
func (h *Hub) Broadcast(event models.EventType, payload any) int {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	env := NewEnvelope(event, payload)
	sent := 0
	for _, c := range clients {
		if err := c.SendEvent(env); err != nil {
			slog.Debug("Broadcast skipped client", "clientID", c.id, "event", event, "error", err)
			continue
		}
		sent++
	}
	return sent
}

// ClientCount returns the number of live connections
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// handleClientMessage decodes and routes one inbound frame. It runs on the client's read
// goroutine, so frames from one connection are handled in order.
func (h *Hub) handleClientMessage(client *Client, raw []byte) error {
	var frame InboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return fmt.Errorf("invalid frame: %w", err)
	}
	if !frame.Event.IsInbound() {
		return fmt.Errorf("%w: %s", ErrUnsupportedEvent, frame.Event)
	}

	h.mu.RLock()
	handler, ok := h.handlers[frame.Event]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedEvent, frame.Event)
	}

	ctx, cancel := context.WithTimeout(client.ctx, handlerTimeout)
	defer cancel()
	return handler(ctx, client, frame.Data)
}
