// Package live tracks the open streaming sessions of browser clients and
// broadcasts order events to them.
package live

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event is one payload pushed to a session. Payload is the serialized JSON
// document written to the stream.
type Event struct {
	Payload []byte
}

// sessionBuffer bounds how far a slow client may fall behind before it is
// pruned.
const sessionBuffer = 16

// Hub is the process-local registry of connected live sessions. It is owned
// by the server process and passed explicitly to the notification layer.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]chan Event
	closed   bool
	log      *zap.Logger
}

// NewHub creates an empty Hub.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		sessions: make(map[string]chan Event),
		log:      log,
	}
}

// Add registers a new session and returns its id and receive channel. The
// channel is closed when the session is removed or the hub shuts down.
func (h *Hub) Add() (string, <-chan Event) {
	ch := make(chan Event, sessionBuffer)
	id := uuid.NewString()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return id, ch
	}
	h.sessions[id] = ch
	h.log.Debug("live session added", zap.String("session_id", id), zap.Int("sessions", len(h.sessions)))
	return id, ch
}

// Remove drops a session and closes its channel. Removing an unknown id is a
// no-op.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch, ok := h.sessions[id]
	if !ok {
		return
	}
	delete(h.sessions, id)
	close(ch)
	h.log.Debug("live session removed", zap.String("session_id", id), zap.Int("sessions", len(h.sessions)))
}

// Broadcast delivers payload to every open session. Sends never block: a
// session whose buffer is full is pruned rather than stalling the others.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for id, ch := range h.sessions {
		select {
		case ch <- Event{Payload: payload}:
		default:
			delete(h.sessions, id)
			close(ch)
			h.log.Warn("live session lagging, pruned", zap.String("session_id", id))
		}
	}
}

// Len reports the number of open sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Close shuts the hub down, closing every session channel. Further Broadcast
// and Add calls are no-ops.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.sessions {
		delete(h.sessions, id)
		close(ch)
	}
}
