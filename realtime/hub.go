package realtime

import (
	"sync"

	"homeser-core/models"

	"go.uber.org/zap"
)

// Conn is the subset of a websocket connection the hub needs. Satisfied by
// *websocket.Conn.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Hub maintains the per-process mapping from user id to the set of live
// connections per channel. Publish is best-effort: it pushes to every
// current connection and prunes broken ones lazily on write failure. No
// delivery guarantee beyond currently connected clients; ordering within a
// single connection follows publish order.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]map[string]map[Conn]struct{} // userID -> channel -> conns
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		conns:  make(map[string]map[string]map[Conn]struct{}),
		logger: logger,
	}
}

// IsValidChannel reports whether a channel name is one the engine serves.
func IsValidChannel(channel string) bool {
	switch channel {
	case models.ChannelOrders, models.ChannelNotifications, models.ChannelPayments:
		return true
	}
	return false
}

// Subscribe registers a live connection for a user on a channel. Identity is
// trusted as handed in; authentication happens upstream.
func (h *Hub) Subscribe(userID, channel string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	byChannel, ok := h.conns[userID]
	if !ok {
		byChannel = make(map[string]map[Conn]struct{})
		h.conns[userID] = byChannel
	}
	set, ok := byChannel[channel]
	if !ok {
		set = make(map[Conn]struct{})
		byChannel[channel] = set
	}
	set[c] = struct{}{}
}

// Unsubscribe removes a connection, dropping empty map levels.
func (h *Hub) Unsubscribe(userID, channel string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(userID, channel, c)
}

func (h *Hub) removeLocked(userID, channel string, c Conn) {
	byChannel, ok := h.conns[userID]
	if !ok {
		return
	}
	set, ok := byChannel[channel]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(byChannel, channel)
	}
	if len(byChannel) == 0 {
		delete(h.conns, userID)
	}
}

// Publish pushes an event to every live connection the user has on the
// channel. A connection whose write fails is closed and removed.
func (h *Hub) Publish(userID, channel string, event models.Event) {
	h.mu.RLock()
	var targets []Conn
	if byChannel, ok := h.conns[userID]; ok {
		for c := range byChannel[channel] {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	var dead []Conn
	for _, c := range targets {
		if err := c.WriteJSON(event); err != nil {
			h.logger.Debug("Pruning broken realtime connection",
				zap.String("user_id", userID),
				zap.String("channel", channel),
				zap.Error(err),
			)
			_ = c.Close()
			dead = append(dead, c)
		}
	}

	if len(dead) > 0 {
		h.mu.Lock()
		for _, c := range dead {
			h.removeLocked(userID, channel, c)
		}
		h.mu.Unlock()
	}
}

// ConnectionCount returns the number of live connections a user has on a
// channel.
func (h *Hub) ConnectionCount(userID, channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if byChannel, ok := h.conns[userID]; ok {
		return len(byChannel[channel])
	}
	return 0
}
