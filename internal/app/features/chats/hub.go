// internal/app/features/chats/hub.go
package chats

import (
	"sync"

	"github.com/dalemusser/helplink/internal/app/system/metrics"
	"go.uber.org/zap"
)

// Hub tracks which websocket clients are joined to which chat rooms and
// fans persisted messages out to them. Rooms are keyed by chat id hex.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
	log   *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*client]struct{}),
		log:   logger,
	}
}

func (h *Hub) join(chatID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[chatID]
	if !ok {
		room = make(map[*client]struct{})
		h.rooms[chatID] = room
	}
	room[c] = struct{}{}
	c.joined[chatID] = struct{}{}
}

func (h *Hub) leave(chatID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(chatID, c)
}

func (h *Hub) leaveLocked(chatID string, c *client) {
	if room, ok := h.rooms[chatID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, chatID)
		}
	}
	delete(c.joined, chatID)
}

// drop removes a disconnecting client from every room it joined.
func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for chatID := range c.joined {
		h.leaveLocked(chatID, c)
	}
}

// Broadcast sends a frame to every client joined to the chat. Callers only
// invoke this after the message is durably stored. A client whose outbound
// queue is full is disconnected rather than allowed to stall the room.
func (h *Hub) Broadcast(chatID string, frame wsFrame) {
	h.mu.RLock()
	var stalled []*client
	for c := range h.rooms[chatID] {
		if !c.trySend(frame) {
			stalled = append(stalled, c)
		}
	}
	h.mu.RUnlock()

	// Unregister before closing so later broadcasts to the room never see a
	// client whose send channel is closed.
	for _, c := range stalled {
		h.log.Warn("dropping stalled chat client", zap.String("client_id", c.id))
		h.drop(c)
		c.close()
	}
	metrics.ChatMessagesBroadcast.Inc()
}
