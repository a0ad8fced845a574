// Package realtime fans out order-change notifications to connected
// dashboards over WebSocket. Payloads are hints: consumers re-fetch the
// order list instead of merging event data, which trades redundant reads
// for zero merge-conflict handling.
package realtime

import (
	"encoding/json"
	"sync"

	"dinehub_backend/internal/orderflow"
	"dinehub_backend/pkg/utils"
)

// ChangeType mirrors the database operation that triggered a notification.
type ChangeType string

const (
	ChangeInsert ChangeType = "insert"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// OrderEvent is the compact notification sent to subscribers.
type OrderEvent struct {
	Type    ChangeType       `json:"type"`
	OrderID int64            `json:"order_id"`
	Status  orderflow.Status `json:"status,omitempty"`
}

// Publisher is the side of the hub services depend on.
type Publisher interface {
	PublishOrderEvent(restaurantID int64, event OrderEvent)
}

// Hub tracks subscribers per restaurant and broadcasts order events to
// them. It is safe for concurrent use.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[int64]map[*Subscriber]struct{}

	// onCountChange, when set, is called with the total subscriber count
	// after every register/unregister. Used to keep a metrics gauge current.
	onCountChange func(total int)
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[int64]map[*Subscriber]struct{})}
}

// SetCountCallback registers a callback invoked with the total subscriber
// count whenever it changes. Must be called before the hub is used.
func (h *Hub) SetCountCallback(fn func(total int)) {
	h.onCountChange = fn
}

// Subscriber is one connected client interested in a restaurant's orders.
type Subscriber struct {
	restaurantID int64
	send         chan []byte
}

// Send returns the channel the subscriber's messages arrive on. The
// channel is closed when the subscriber is removed from the hub.
func (s *Subscriber) Send() <-chan []byte {
	return s.send
}

// Subscribe registers a new subscriber for the given restaurant.
func (h *Hub) Subscribe(restaurantID int64) *Subscriber {
	sub := &Subscriber{
		restaurantID: restaurantID,
		send:         make(chan []byte, 64),
	}

	h.mu.Lock()
	if h.subscribers[restaurantID] == nil {
		h.subscribers[restaurantID] = make(map[*Subscriber]struct{})
	}
	h.subscribers[restaurantID][sub] = struct{}{}
	total := h.totalLocked()
	h.mu.Unlock()

	h.notifyCount(total)
	return sub
}

// Unsubscribe removes a subscriber and closes its send channel. Safe to
// call more than once.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	set, ok := h.subscribers[sub.restaurantID]
	if ok {
		if _, present := set[sub]; present {
			delete(set, sub)
			close(sub.send)
			if len(set) == 0 {
				delete(h.subscribers, sub.restaurantID)
			}
		} else {
			ok = false
		}
	}
	total := h.totalLocked()
	h.mu.Unlock()

	if ok {
		h.notifyCount(total)
	}
}

// PublishOrderEvent broadcasts an order event to every subscriber of the
// restaurant. Slow subscribers with a full buffer miss the message; the
// next event (or a manual refresh) catches them up.
func (h *Hub) PublishOrderEvent(restaurantID int64, event OrderEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		utils.LogError(err, "realtime: failed to marshal order event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subscribers[restaurantID] {
		select {
		case sub.send <- data:
		default:
			utils.LogDebug("realtime: subscriber buffer full, dropping event")
		}
	}
}

// SubscriberCount returns the number of subscribers for one restaurant.
func (h *Hub) SubscriberCount(restaurantID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[restaurantID])
}

func (h *Hub) totalLocked() int {
	total := 0
	for _, set := range h.subscribers {
		total += len(set)
	}
	return total
}

func (h *Hub) notifyCount(total int) {
	if h.onCountChange != nil {
		h.onCountChange(total)
	}
}
