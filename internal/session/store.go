package session

import (
	"sync"
	"time"
)

const (
	defaultTTL        = 30 * time.Minute
	defaultMaxHistory = 20
	sweepEvery        = 64
)

// Store holds per-sender sessions in process memory. Map access is guarded by
// the store mutex; each entry carries its own mutex so turns for one sender
// are strictly serialized while different senders proceed in parallel.
type Store struct {
	mu         sync.Mutex
	sessions   map[string]*entry
	ttl        time.Duration
	maxHistory int
	withCalls  int

	// now is injectable for TTL tests.
	now func() time.Time
}

type entry struct {
	mu sync.Mutex
	// refs counts goroutines between acquire and release; the sweep never
	// removes an entry someone is about to lock.
	refs    int
	session *Session
}

// StoreOption customizes store behavior.
type StoreOption func(*Store)

// WithTTL overrides the idle expiry window.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithMaxHistory overrides the per-session history bound.
func WithMaxHistory(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.maxHistory = n
		}
	}
}

// WithClock injects a time source.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		sessions:   make(map[string]*entry),
		ttl:        defaultTTL,
		maxHistory: defaultMaxHistory,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// With runs fn against the sender's session under the sender's lock. An idle
// session past the TTL is discarded and replaced with a fresh one before fn
// runs; LastActive is refreshed either way. fn must not retain the session
// beyond the call.
func (s *Store) With(sender string, fn func(*Session)) {
	e := s.acquire(sender)
	defer s.release(e)

	e.mu.Lock()
	defer e.mu.Unlock()

	now := s.now()
	if e.session == nil || now.Sub(e.session.LastActive) >= s.ttl {
		e.session = newSession(now, s.maxHistory)
	} else {
		e.session.LastActive = now
	}
	fn(e.session)
}

// Len reports the number of tracked senders, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) acquire(sender string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.withCalls++
	if s.withCalls%sweepEvery == 0 {
		s.sweepLocked()
	}

	e, ok := s.sessions[sender]
	if !ok {
		e = &entry{}
		s.sessions[sender] = e
	}
	e.refs++
	return e
}

func (s *Store) release(e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.refs--
}

// sweepLocked drops idle expired entries so abandoned conversations do not
// pin memory. Called with the store mutex held.
func (s *Store) sweepLocked() {
	now := s.now()
	for sender, e := range s.sessions {
		if e.refs > 0 {
			continue
		}
		if e.session != nil && now.Sub(e.session.LastActive) < s.ttl {
			continue
		}
		delete(s.sessions, sender)
	}
}
