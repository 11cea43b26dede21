package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

const TypeToast = "toast"

// Message is a notification pushed to every connected client. Change
// events carry the entity and action; toasts carry title, description and
// variant in Extra.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity,omitempty"`
	Action string         `json:"action,omitempty"`
	ID     int64          `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewMessage builds a change event, e.g. entity "grocery_item" with action
// "created" has type "grocery_item_created".
func NewMessage(entity, action string, id int64, extra map[string]any) Message {
	return Message{
		Type:   entity + "_" + action,
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
	}
}

// NewToast builds a transient notification. Failed toasts use the
// "destructive" variant.
func NewToast(title, description string, failed bool) Message {
	variant := "default"
	if failed {
		variant = "destructive"
	}
	return Message{
		Type: TypeToast,
		Extra: map[string]any{
			"title":       title,
			"description": description,
			"variant":     variant,
		},
	}
}

// Hub fans messages out to connected clients. There is no replay: a
// client only sees what is broadcast while it is connected.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger.With("component", "websocket"),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client connected", "clients", n)
}

// Unregister removes the client and closes its send channel. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client disconnected", "clients", n)
}

// Broadcast queues msg on every client. Clients with a full buffer miss it.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("dropping message for slow client", "type", msg.Type)
		}
	}
}

// Changed broadcasts an entity change event.
func (h *Hub) Changed(entity, action string, id int64) {
	h.Broadcast(NewMessage(entity, action, id, nil))
}

// Toast broadcasts a transient notification.
func (h *Hub) Toast(title, description string, failed bool) {
	h.Broadcast(NewToast(title, description, failed))
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
