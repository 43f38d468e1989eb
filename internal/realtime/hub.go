package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/umeet/watchparty/internal/models"
)

// WSMessage is the WebSocket event envelope, both directions.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Hub is the connection registry: it owns every live connection, the identity
// bound to it, and the per-room broadcast groups the coordinator fans out
// through. Room sessions hold only connection IDs, never the connection.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]*Client            // connectionID -> client
	groups map[string]map[string]*Client // roomID -> connectionID -> client
	logger *zap.Logger
}

// NewHub creates a connection hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		conns:  make(map[string]*Client),
		groups: make(map[string]map[string]*Client),
		logger: logger,
	}
}

// Register records a connection under its server-assigned ID.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.conns[c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("connection registered", zap.String("connection_id", c.ID), zap.String("user_id", c.Identity.UserID))
}

// Unregister removes a connection and any group membership it still holds.
// Idempotent: disconnect and explicit leave can race.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.conns, c.ID)
	for roomID, group := range h.groups {
		if _, ok := group[c.ID]; ok {
			delete(group, c.ID)
			if len(group) == 0 {
				delete(h.groups, roomID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("connection unregistered", zap.String("connection_id", c.ID))
}

// Lookup returns the identity bound to a connection.
func (h *Hub) Lookup(connectionID string) (models.Identity, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[connectionID]
	if !ok {
		return models.Identity{}, false
	}
	return c.Identity, true
}

// JoinGroup adds a connection to a room's broadcast group.
func (h *Hub) JoinGroup(roomID, connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[connectionID]
	if !ok {
		return
	}
	if h.groups[roomID] == nil {
		h.groups[roomID] = make(map[string]*Client)
	}
	h.groups[roomID][connectionID] = c
}

// LeaveGroup removes a connection from a room's broadcast group.
func (h *Hub) LeaveGroup(roomID, connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group, ok := h.groups[roomID]
	if !ok {
		return
	}
	delete(group, connectionID)
	if len(group) == 0 {
		delete(h.groups, roomID)
	}
}

// Broadcast sends an event to every connection in the room's group, except
// excludeConnectionID when non-empty. Best effort: a connection whose send
// buffer is full is skipped rather than blocking the event.
func (h *Hub) Broadcast(roomID, event string, payload interface{}, excludeConnectionID string) {
	data, err := marshalPayload(payload)
	if err != nil {
		h.logger.Warn("broadcast payload marshal failed", zap.String("event", event), zap.Error(err))
		return
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	group := h.groups[roomID]
	targets := make([]*Client, 0, len(group))
	for id, c := range group {
		if id == excludeConnectionID {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// SendTo sends an event to a single connection.
func (h *Hub) SendTo(connectionID, event string, payload interface{}) {
	data, err := marshalPayload(payload)
	if err != nil {
		h.logger.Warn("send payload marshal failed", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	c, ok := h.conns[connectionID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case c.send <- WSMessage{Event: event, Data: data}:
	default:
	}
}

func marshalPayload(payload interface{}) (json.RawMessage, error) {
	switch v := payload.(type) {
	case json.RawMessage:
		return v, nil
	case []byte:
		return v, nil
	default:
		return json.Marshal(payload)
	}
}
