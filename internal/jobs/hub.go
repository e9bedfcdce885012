package jobs

import (
	"log/slog"
	"sync"

	"coinsort/internal/logging"
)

// EventKind labels a registry change event.
type EventKind string

const (
	EventJobCreated EventKind = "job created"
	EventJobUpdated EventKind = "job updated"
)

// Event is one registry change carrying a full job snapshot.
type Event struct {
	Kind EventKind `json:"event"`
	Job  Job       `json:"data"`
}

// subscriberBuffer absorbs webhook bursts; a subscriber further behind than
// this is considered overloaded and starts losing events.
const subscriberBuffer = 64

// Hub relays registry change events to all current subscribers. Slow
// consumers are the transport layer's concern: a full subscriber buffer drops
// the event for that subscriber only, with a warning.
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	logger *slog.Logger
}

// NewHub constructs an event hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		logger: logging.NewComponentLogger(logger, "event-hub"),
	}
}

// Subscription is one observer's handle onto the hub.
type Subscription struct {
	hub  *Hub
	ch   chan Event
	once sync.Once
}

// Events returns the channel the hub delivers on. It is closed by Close.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close detaches the subscription from the hub and closes its channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		s.hub.mu.Unlock()
		close(s.ch)
	})
}

// Subscribe registers a new observer. The caller must Close the subscription
// when done or the hub will keep delivering to it.
func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{hub: h, ch: make(chan Event, subscriberBuffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Publish delivers an event to every current subscriber without blocking the
// publisher.
func (h *Hub) Publish(evt Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.ch <- evt:
		default:
			h.logger.Warn("observer event dropped",
				logging.String(logging.FieldJobID, evt.Job.ID.String()),
				logging.String(logging.FieldEventType, "observer_overloaded"),
				logging.String(logging.FieldErrorHint, "observer is not draining its connection"),
			)
		}
	}
}

// SubscriberCount reports how many observers are attached.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
