package stream

import (
	"sync"

	"github.com/signalsfoundry/logistics-globe/core"
)

// DefaultSubscriberBuffer is the per-subscriber queue length used when
// Subscribe is given a non-positive size.
const DefaultSubscriberBuffer = 8

// Hub fans frame snapshots out to stream subscribers. Publish never blocks:
// a subscriber that falls behind loses its oldest queued frame.
type Hub struct {
	mu     sync.Mutex
	subs   map[uint64]chan core.FrameSnapshot
	next   uint64
	closed bool
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]chan core.FrameSnapshot)}
}

// Publish delivers snap to every subscriber.
func (h *Hub) Publish(snap core.FrameSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for _, ch := range h.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		// Full: drop the oldest frame and retry once.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// Subscribe registers a subscriber. The channel is closed by cancel or by
// Close, whichever comes first.
func (h *Hub) Subscribe(buffer int) (<-chan core.FrameSnapshot, func()) {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	ch := make(chan core.FrameSnapshot, buffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.next
	h.next++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		})
	}
}

// Subscribers returns the number of active subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription. Later publishes are dropped.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
