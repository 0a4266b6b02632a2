package auth

import (
	"strings"
	"sync"

	"github.com/louisbranch/launchweek/internal/services/launchweek/session"
	"golang.org/x/sync/errgroup"
)

// Hub fans pushed session events out to subscribers keyed by device id.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[uint64]func(session.Event)
	next   uint64
	closed bool
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: map[string]map[uint64]func(session.Event){}}
}

// Subscribe registers fn for events published to device. Blank devices and
// closed hubs never deliver.
func (h *Hub) Subscribe(device string, fn func(session.Event)) (unsubscribe func()) {
	device = strings.TrimSpace(device)
	if device == "" || fn == nil {
		return func() {}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return func() {}
	}
	id := h.next
	h.next++
	if h.subs[device] == nil {
		h.subs[device] = map[uint64]func(session.Event){}
	}
	h.subs[device][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[device], id)
			if len(h.subs[device]) == 0 {
				delete(h.subs, device)
			}
		})
	}
}

// Publish delivers event to every subscriber of device and returns how
// many received it. Each subscriber is a page view that re-resolves its
// profile, one directory lookup bounded by timeouts.DirectoryLookup.
// Subscribers run concurrently and Publish returns once all of them have,
// so one call costs a single lookup timeout however many views are open.
func (h *Hub) Publish(device string, event session.Event) int {
	device = strings.TrimSpace(device)
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return 0
	}
	fns := make([]func(session.Event), 0, len(h.subs[device]))
	for _, fn := range h.subs[device] {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	var g errgroup.Group
	for _, fn := range fns {
		g.Go(func() error {
			fn(event)
			return nil
		})
	}
	_ = g.Wait()
	return len(fns)
}

// Subscribers returns the live subscription count for device.
func (h *Hub) Subscribers(device string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[strings.TrimSpace(device)])
}

// Close drops every subscription; later publishes deliver nothing.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.subs = map[string]map[uint64]func(session.Event){}
}
