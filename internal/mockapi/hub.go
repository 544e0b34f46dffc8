package mockapi

import "sync"

// Hub fans change events out to stream subscribers.
type Hub struct {
	mx   sync.RWMutex
	subs map[chan Change]map[string]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Change]map[string]struct{})}
}

// Subscribe registers a listener for topics. Callers must Unsubscribe.
func (h *Hub) Subscribe(topics []string) chan Change {
	ch := make(chan Change, 16)
	set := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		set[t] = struct{}{}
	}

	h.mx.Lock()
	h.subs[ch] = set
	h.mx.Unlock()

	return ch
}

// Unsubscribe removes and closes a listener.
func (h *Hub) Unsubscribe(ch chan Change) {
	h.mx.Lock()
	delete(h.subs, ch)
	h.mx.Unlock()
	close(ch)
}

// Len returns the number of listeners.
func (h *Hub) Len() int {
	h.mx.RLock()
	defer h.mx.RUnlock()

	return len(h.subs)
}

// Publish delivers c to the listeners of its topic and returns how many got
// it. Full listeners miss the event.
func (h *Hub) Publish(c Change) int {
	h.mx.RLock()
	defer h.mx.RUnlock()

	var n int
	for ch, topics := range h.subs {
		if _, ok := topics[c.Topic]; !ok {
			continue
		}
		select {
		case ch <- c:
			n++
		default:
		}
	}

	return n
}
