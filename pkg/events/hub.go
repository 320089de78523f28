package events

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultBufferSize is the per-subscriber queue length.
const DefaultBufferSize = 16

// EventHub fans published events out to every subscriber. Slow subscribers
// miss events instead of blocking the publisher.
type EventHub struct {
	mu         sync.RWMutex
	subs       map[chan Event]struct{}
	bufferSize int

	// OnDrop, if set, is called for every event a full subscriber misses.
	OnDrop func(name string)
}

func NewEventHub() *EventHub {
	return &EventHub{subs: make(map[chan Event]struct{}), bufferSize: DefaultBufferSize}
}

func (h *EventHub) Subscribe() chan Event {
	ch := make(chan Event, h.bufferSize)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *EventHub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// Subscribers returns the number of active subscribers.
func (h *EventHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *EventHub) Publish(name string, payload any) {
	if h == nil {
		return
	}
	b, err := json.Marshal(payload)
	if err != nil {
		logrus.WithError(err).WithField("event", name).Error("failed to marshal event")
		return
	}
	msg := Event{Name: name, Data: b}
	h.mu.RLock()
	for ch := range h.subs {
		// Non-blocking send; drop if subscriber is slow
		select {
		case ch <- msg:
		default:
			if h.OnDrop != nil {
				h.OnDrop(name)
			}
		}
	}
	h.mu.RUnlock()
}
