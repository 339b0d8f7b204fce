// Package realtime pushes attendance updates to browsers watching an event.
package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// LeaveHandler is called after a client leaves a room, with the number of
// connections the same user still holds in it.
type LeaveHandler func(c *Client, remaining int)

// Hub maintains event_id -> set of connections and broadcasts messages.
// Uses Redis pub/sub for horizontal scaling: local broadcast + publish to Redis.
type Hub struct {
	rooms    map[string]map[string]*Client
	subs     map[string]func() // cancel Redis subscription per room
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
	onLeave  LeaveHandler
}

// RedisPublisher is the interface for publishing to Redis (for cross-instance broadcast).
type RedisPublisher interface {
	PublishEventMessage(eventID, event string, payload []byte) error
}

// RedisSubscriber subscribes to room channels and invokes handler for incoming messages.
type RedisSubscriber interface {
	SubscribeEvent(eventID string, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub. redisPub and redisSub may be nil.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:    make(map[string]map[string]*Client),
		subs:     make(map[string]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// SetLeaveHandler sets the callback run when a client disconnects.
func (h *Hub) SetLeaveHandler(fn LeaveHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onLeave = fn
}

// Register adds a client to an event room. Starts the Redis subscription for the room if first client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.rooms[c.EventID] == nil {
		h.rooms[c.EventID] = make(map[string]*Client)
		if h.redisSub != nil {
			eventID := c.EventID
			cancel, err := h.redisSub.SubscribeEvent(eventID, func(event string, payload []byte) {
				h.BroadcastToEvent(eventID, event, json.RawMessage(payload))
			})
			if err == nil {
				h.subs[eventID] = cancel
			} else {
				h.logger.Warn("redis subscribe failed", zap.String("event_id", eventID), zap.Error(err))
			}
		}
	}
	h.rooms[c.EventID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined room", zap.String("client_id", c.ID), zap.String("event_id", c.EventID))
}

// Unregister removes a client from its room. Cancels the Redis subscription when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	remaining := 0
	if m, ok := h.rooms[c.EventID]; ok {
		if _, present := m[c.ID]; !present {
			h.mu.Unlock()
			return
		}
		delete(m, c.ID)
		for _, other := range m {
			if other.UserKey == c.UserKey {
				remaining++
			}
		}
		if len(m) == 0 {
			delete(h.rooms, c.EventID)
			if cancel, ok := h.subs[c.EventID]; ok {
				cancel()
				delete(h.subs, c.EventID)
			}
		}
	}
	onLeave := h.onLeave
	h.mu.Unlock()
	if onLeave != nil {
		onLeave(c, remaining)
	}
	h.logger.Debug("client left room", zap.String("client_id", c.ID), zap.String("event_id", c.EventID))
}

// BroadcastToEvent sends a message to all clients in a room (local only).
func (h *Hub) BroadcastToEvent(eventID, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		var err error
		if data, err = json.Marshal(payload); err != nil {
			h.logger.Warn("marshal broadcast failed", zap.String("event", event), zap.Error(err))
			return
		}
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[eventID] {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// BroadcastToEventAndPublish reaches the room on every instance. With Redis the
// subscriber performs the local broadcast, so local clients get it once.
func (h *Hub) BroadcastToEventAndPublish(eventID, event string, payload interface{}) {
	if h.redis == nil {
		h.BroadcastToEvent(eventID, event, payload)
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := h.redis.PublishEventMessage(eventID, event, data); err != nil {
		h.logger.Warn("redis publish failed, broadcasting locally", zap.String("event_id", eventID), zap.Error(err))
		h.BroadcastToEvent(eventID, event, json.RawMessage(data))
	}
}

// RoomSize returns the number of connected clients in a room.
func (h *Hub) RoomSize(eventID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[eventID])
}

// SendToClient sends a message to a single client in a room.
func (h *Hub) SendToClient(eventID, clientID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	msg := WSMessage{Event: event, Data: data}
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.rooms[eventID][clientID]
	if !ok || c == nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}
