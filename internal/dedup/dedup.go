// Package dedup suppresses webhook re-deliveries by remembering recently seen
// inbound message IDs. This is best-effort at-most-once suppression, not a
// correctness guarantee: a process restart forgets the memory-backed cache and
// a retried delivery may be reprocessed.
package dedup

import (
	"context"
	"sync"
	"time"
)

const DefaultTTL = 2 * time.Minute

// Cache decides whether an inbound event should be processed. Admit returns
// true the first time an event ID is seen (or once its previous sighting has
// aged past the TTL) and false for a repeat inside the window. Either way the
// sighting timestamp is refreshed.
type Cache interface {
	Admit(ctx context.Context, eventID string) bool
}

// Memory is a mutex-guarded in-process cache. Safe for concurrent admission
// checks across all senders.
type Memory struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	ttl    time.Duration
	admits int

	now func() time.Time
}

// MemoryOption customizes the in-memory cache.
type MemoryOption func(*Memory)

// WithMemoryClock injects a time source.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

func NewMemory(ttl time.Duration, opts ...MemoryOption) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Memory{
		seen: make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Admit reports whether the event is new within the TTL window. Empty IDs are
// always admitted; the transport gave us nothing to dedup on.
func (m *Memory) Admit(_ context.Context, eventID string) bool {
	if eventID == "" {
		return true
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.admits++
	if m.admits%32 == 0 {
		m.purgeLocked(now)
	}

	last, ok := m.seen[eventID]
	m.seen[eventID] = now
	return !ok || now.Sub(last) >= m.ttl
}

// Len reports tracked IDs, purged or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}

func (m *Memory) purgeLocked(now time.Time) {
	for id, last := range m.seen {
		if now.Sub(last) >= m.ttl {
			delete(m.seen, id)
		}
	}
}
