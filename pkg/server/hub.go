// ABOUTME: Fan-out of encoded frames to connected players
// ABOUTME: Slow players lose frames instead of stalling the others
package server

import (
	"sync"
	"sync/atomic"
)

// subscriber is one player's frame queue
type subscriber struct {
	id   string
	C    chan []byte
	done chan struct{}
}

// hub fans out frames from one encoder to N players
type hub struct {
	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
	dropped     atomic.Uint64
}

func newHub() *hub {
	return &hub{subscribers: make(map[*subscriber]struct{})}
}

func (h *hub) subscribe(id string) *subscriber {
	s := &subscriber{
		id:   id,
		C:    make(chan []byte, clientQueue),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	h.subscribers[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// unsubscribe is safe to call more than once
func (h *hub) unsubscribe(s *subscriber) {
	h.mu.Lock()
	_, ok := h.subscribers[s]
	delete(h.subscribers, s)
	h.mu.Unlock()
	if ok {
		close(s.done)
	}
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

func (h *hub) ids() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.subscribers))
	for s := range h.subscribers {
		ids = append(ids, s.id)
	}
	return ids
}

func (h *hub) publish(frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subscribers {
		select {
		case s.C <- frame:
		default:
			h.dropped.Add(1)
		}
	}
}
