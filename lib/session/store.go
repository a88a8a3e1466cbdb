package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var log = logger.GetLogger("session")

type entry struct {
	userID    uint64
	expiresAt time.Time
}

// Store keeps the sessions of logged in users in memory.
// Sessions expire after the configured ttl without access. A background sweeper
// removes expired sessions every check period until Close is called.
type Store struct {
	ttl      time.Duration
	sessions *xsync.MapOf[string, entry]
	now      func() time.Time

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewStore creates a session store and starts its sweeper
func NewStore(ttl, checkPeriod time.Duration) *Store {
	return newStore(ttl, checkPeriod, time.Now)
}

func newStore(ttl, checkPeriod time.Duration, now func() time.Time) *Store {
	s := &Store{
		ttl:      ttl,
		sessions: xsync.NewMapOf[string, entry](),
		now:      now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.sweep(checkPeriod)
	return s
}

// Create starts a new session for the user and returns its id
func (s *Store) Create(userID uint64) string {
	id := uuid.NewString()
	s.sessions.Store(id, entry{userID: userID, expiresAt: s.now().Add(s.ttl)})
	return id
}

// Get returns the user of a session and extends its lifetime.
// Unknown and expired sessions return false.
func (s *Store) Get(id string) (uint64, bool) {
	var (
		userID uint64
		ok     bool
	)
	now := s.now()
	s.sessions.Compute(id, func(e entry, loaded bool) (entry, bool) {
		if !loaded || !now.Before(e.expiresAt) {
			// delete expired (or never existing) sessions
			return e, true
		}
		userID, ok = e.userID, true
		e.expiresAt = now.Add(s.ttl)
		return e, false
	})
	return userID, ok
}

// Destroy ends a session. Destroying an unknown session is a no-op.
func (s *Store) Destroy(id string) {
	s.sessions.Delete(id)
}

// Len returns the number of stored sessions (expired sessions that were not swept yet included)
func (s *Store) Len() int {
	return s.sessions.Size()
}

// Close stops the sweeper. It is safe to call Close multiple times.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
}

// removeExpired deletes all expired sessions and returns how many were removed
func (s *Store) removeExpired() int {
	now := s.now()
	removed := 0
	s.sessions.Range(func(id string, e entry) bool {
		if !now.Before(e.expiresAt) {
			s.sessions.Compute(id, func(current entry, loaded bool) (entry, bool) {
				// the session might have been refreshed in the meantime
				if loaded && !now.Before(current.expiresAt) {
					removed++
					return current, true
				}
				return current, !loaded
			})
		}
		return true
	})
	return removed
}

func (s *Store) sweep(checkPeriod time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(checkPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if removed := s.removeExpired(); removed > 0 {
				log.Debugf("removed %d expired sessions", removed)
			}
		}
	}
}
