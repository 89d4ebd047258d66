// Package session holds the per-conversation slot state for the
// lifetime of the process. Absence of an entry is equivalent to a fresh
// empty session, so eviction is always safe.
package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/tarabot/scheduler/backend/internal/model/convo"
)

// DefaultTTL is how long an idle conversation survives before the
// sweeper evicts it.
const DefaultTTL = time.Hour

const sweepInterval = 5 * time.Minute

type entry struct {
	mu      sync.Mutex
	session convo.Session
}

// Store keeps one Session per conversation id. The registry map is
// guarded by a short-lived global mutex; all read-then-write work on a
// single conversation happens under that conversation's own lock, so
// unrelated conversations never contend.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	now     func() time.Time
}

// NewStore builds an empty store. A non-positive ttl falls back to
// DefaultTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		entries: make(map[string]*entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *Store) lookup(id string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		now := s.now().UTC()
		e = &entry{session: convo.Session{ID: id, CreatedAt: now, LastUpdated: now}}
		s.entries[id] = e
	}
	return e
}

// GetOrCreate returns a copy of the session for id, creating a fresh
// empty one on first reference.
func (s *Store) GetOrCreate(id string) convo.Session {
	e := s.lookup(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot(e.session)
}

// snapshot deep-copies the pointer slots so callers can never mutate
// stored state through a returned session.
func snapshot(sess convo.Session) convo.Session {
	if sess.MeetingDate != nil {
		date := *sess.MeetingDate
		sess.MeetingDate = &date
	}
	if sess.MeetingTime != nil {
		tod := *sess.MeetingTime
		sess.MeetingTime = &tod
	}
	return sess
}

// WithSession runs fn with exclusive access to the session for id. The
// pointer must not be retained past fn.
func (s *Store) WithSession(id string, fn func(*convo.Session) error) error {
	e := s.lookup(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(&e.session)
}

// Merge applies the update field by field: only present values
// overwrite, so a slot that failed to resolve this pass never blanks an
// earlier resolution. Returns the merged session.
func (s *Store) Merge(id string, update convo.Update) convo.Session {
	e := s.lookup(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	if update.RequesterName != nil {
		e.session.RequesterName = *update.RequesterName
	}
	if update.MeetingDate != nil {
		date := *update.MeetingDate
		e.session.MeetingDate = &date
	}
	if update.MeetingTime != nil {
		tod := *update.MeetingTime
		e.session.MeetingTime = &tod
	}
	if update.Title != nil {
		e.session.Title = *update.Title
	}
	if !update.Empty() {
		e.session.LastUpdated = s.now().UTC()
	}
	return snapshot(e.session)
}

// MarkBooked flips the booking flag and reports whether this call was
// the one that completed it. Subsequent calls return false.
func (s *Store) MarkBooked(id string) bool {
	e := s.lookup(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.BookingCompleted {
		return false
	}
	e.session.BookingCompleted = true
	e.session.LastUpdated = s.now().UTC()
	return true
}

// StartSweeper evicts idle sessions in the background until ctx is
// cancelled.
func (s *Store) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if evicted := s.sweep(); evicted > 0 {
					log.Printf("[session] evicted %d idle conversations", evicted)
				}
			}
		}
	}()
}

func (s *Store) sweep() int {
	cutoff := s.now().UTC().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, e := range s.entries {
		// TryLock skips conversations mid-request; they are not idle.
		if !e.mu.TryLock() {
			continue
		}
		stale := e.session.LastUpdated.Before(cutoff)
		e.mu.Unlock()
		if stale {
			delete(s.entries, id)
			evicted++
		}
	}
	return evicted
}
