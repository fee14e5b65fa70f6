package ws

import (
	"log/slog"
	"sync"

	"github.com/rsheldon/quorum/internal/model"
)

// Hub is the room for one session: the set of live connections currently
// authenticated into it, keyed by bound player name for targeted delivery.
type Hub struct {
	code   model.SessionCode
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[*Client]string // client -> bound player name
}

// NewHub creates a Hub for a session
func NewHub(code model.SessionCode, logger *slog.Logger) *Hub {
	return &Hub{
		code:    code,
		logger:  logger.With(slog.Int("code", int(code))),
		clients: make(map[*Client]string),
	}
}

// Register admits an authenticated connection to the room
func (h *Hub) Register(client *Client, playerName string) {
	h.mu.Lock()
	h.clients[client] = playerName
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("client joined room",
		slog.String("player", playerName),
		slog.String("connection_id", client.id),
		slog.Int("total_clients", count),
	)
}

// Unregister removes a connection from the room. Safe to call for a client
// that was already kicked.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	name, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
	}
	count := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.logger.Info("client left room",
			slog.String("player", name),
			slog.Int("total_clients", count),
		)
	}
}

// Rename updates the player name a connection is bound to
func (h *Hub) Rename(client *Client, newName string) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		h.clients[client] = newName
	}
	h.mu.Unlock()
}

// Broadcast delivers a message to every connection in the room. Slow clients
// with full buffers are skipped rather than blocking the room.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	dropped := 0
	for _, client := range targets {
		if !client.enqueue(msg) {
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Warn("broadcast partial delivery",
			slog.Int("sent", len(targets)-dropped),
			slog.Int("dropped", dropped),
		)
	}
}

// KickPlayer ejects the connection bound to playerName from the room,
// delivering payload first when one is given, then closing the connection.
// Reports whether a live connection was found.
func (h *Hub) KickPlayer(playerName string, payload []byte) bool {
	h.mu.Lock()
	var target *Client
	for client, name := range h.clients {
		if name == playerName {
			target = client
			delete(h.clients, client)
			break
		}
	}
	h.mu.Unlock()

	if target == nil {
		return false
	}

	if payload != nil {
		target.enqueue(payload)
	}
	target.closeSend()

	h.logger.Info("client kicked from room", slog.String("player", playerName))
	return true
}

// ClientCount returns the number of connections in the room
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll ejects every connection, used when the session is destroyed
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.clients = make(map[*Client]string)
	h.mu.Unlock()

	for _, client := range clients {
		client.closeSend()
	}
}

// HubManager manages the rooms for all sessions
type HubManager struct {
	mu     sync.RWMutex
	hubs   map[model.SessionCode]*Hub
	logger *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[model.SessionCode]*Hub),
		logger: logger.With(slog.String("component", "ws")),
	}
}

// GetOrCreateHub returns the room for a session, creating one if needed
func (m *HubManager) GetOrCreateHub(code model.SessionCode) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[code]; ok {
		return hub
	}

	hub := NewHub(code, m.logger)
	m.hubs[code] = hub
	return hub
}

// GetHub returns the room for a session, or nil if none exists
func (m *HubManager) GetHub(code model.SessionCode) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[code]
}

// RemoveHub drops a room and closes every connection in it
func (m *HubManager) RemoveHub(code model.SessionCode) {
	m.mu.Lock()
	hub, ok := m.hubs[code]
	if ok {
		delete(m.hubs, code)
	}
	m.mu.Unlock()

	if ok {
		hub.CloseAll()
		m.logger.Info("room removed", slog.Int("code", int(code)))
	}
}

// CleanupEmptyHubs removes rooms with no connections
func (m *HubManager) CleanupEmptyHubs() {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for code, hub := range m.hubs {
		if hub.ClientCount() == 0 {
			delete(m.hubs, code)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("empty rooms cleaned up", slog.Int("removed", removed))
	}
}
