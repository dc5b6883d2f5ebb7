// Package liveevents fans recorded usage out to in-process subscribers, one
// stream per identity, with a short replay buffer for late joiners.
package liveevents

import (
	"errors"
	"strings"
	"sync"
)

const (
	StatusAccepted     = "accepted"
	StatusDeduplicated = "deduplicated"
)

const (
	DefaultBufferSize       = 50
	DefaultSubscriberBuffer = 16
)

var (
	ErrHubUnavailable  = errors.New("hub_unavailable")
	ErrInvalidIdentity = errors.New("invalid_identity")
)

type LiveEvent struct {
	UsageLogID  string `json:"usage_log_id"`
	IdentityID  string `json:"identity_id"`
	ActorPackID string `json:"actor_pack_id,omitempty"`
	Action      string `json:"action"`
	Matched     *bool  `json:"matched,omitempty"`
	RecordedAt  string `json:"recorded_at"`
	Status      string `json:"status"`
}

type Hub struct {
	mu               sync.RWMutex
	streams          map[string]*stream
	bufferSize       int
	subscriberBuffer int
}

type stream struct {
	mu     sync.Mutex
	buffer []LiveEvent
	subs   map[uint64]chan LiveEvent
	nextID uint64
}

type Subscription struct {
	hub        *Hub
	identityID string
	id         uint64
	ch         chan LiveEvent
	once       sync.Once
}

func NewHub() *Hub {
	return &Hub{
		streams:          make(map[string]*stream),
		bufferSize:       DefaultBufferSize,
		subscriberBuffer: DefaultSubscriberBuffer,
	}
}

// Publish never blocks: slow subscribers miss events instead of stalling writers.
func (h *Hub) Publish(event LiveEvent) {
	if h == nil {
		return
	}
	key := strings.TrimSpace(event.IdentityID)
	if key == "" {
		return
	}
	h.mu.RLock()
	s := h.streams[key]
	h.mu.RUnlock()
	if s == nil {
		return
	}

	s.mu.Lock()
	s.buffer = append(s.buffer, event)
	if len(s.buffer) > h.bufferSize {
		s.buffer = s.buffer[len(s.buffer)-h.bufferSize:]
	}
	subs := make([]chan LiveEvent, 0, len(s.subs))
	for _, ch := range s.subs {
		subs = append(subs, ch)
	}
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe returns the live subscription and a copy of the buffered backlog.
func (h *Hub) Subscribe(identityID string) (*Subscription, []LiveEvent, error) {
	if h == nil {
		return nil, nil, ErrHubUnavailable
	}
	key := strings.TrimSpace(identityID)
	if key == "" {
		return nil, nil, ErrInvalidIdentity
	}

	s := h.ensureStream(key)
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	ch := make(chan LiveEvent, h.subscriberBuffer)
	s.subs[id] = ch
	backlog := append([]LiveEvent(nil), s.buffer...)
	s.mu.Unlock()

	return &Subscription{hub: h, identityID: key, id: id, ch: ch}, backlog, nil
}

func (h *Hub) ensureStream(key string) *stream {
	h.mu.RLock()
	current := h.streams[key]
	h.mu.RUnlock()
	if current != nil {
		return current
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	current = h.streams[key]
	if current == nil {
		current = &stream{subs: make(map[uint64]chan LiveEvent)}
		h.streams[key] = current
	}
	return current
}

// unsubscribe drops the stream with its last subscriber.
func (h *Hub) unsubscribe(key string, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.streams[key]
	if s == nil {
		return
	}
	s.mu.Lock()
	delete(s.subs, id)
	empty := len(s.subs) == 0
	s.mu.Unlock()
	if empty {
		delete(h.streams, key)
	}
}

func (s *Subscription) Events() <-chan LiveEvent {
	if s == nil {
		return nil
	}
	return s.ch
}

func (s *Subscription) Close() {
	if s == nil || s.hub == nil {
		return
	}
	s.once.Do(func() {
		s.hub.unsubscribe(s.identityID, s.id)
	})
}
