package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// clock is a manually advanced time source
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(ttl time.Duration) (*Store, *clock) {
	c := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	// the sweeper is driven manually through removeExpired
	return newStore(ttl, time.Hour, c.Now), c
}

func TestCreateGetDestroy(t *testing.T) {
	s, _ := newTestStore(time.Hour)
	defer s.Close()

	id := s.Create(42)
	require.NotEmpty(t, id)
	assert.NotEqual(t, id, s.Create(42), "session ids must be unique")

	userID, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, uint64(42), userID)

	s.Destroy(id)
	_, ok = s.Get(id)
	assert.False(t, ok)

	_, ok = s.Get("unknown")
	assert.False(t, ok)
	s.Destroy("unknown")
}

func TestGetRefreshesExpiry(t *testing.T) {
	s, c := newTestStore(time.Hour)
	defer s.Close()

	id := s.Create(1)

	c.Advance(50 * time.Minute)
	_, ok := s.Get(id)
	require.True(t, ok)

	// still valid 100 minutes after creation because Get refreshed it
	c.Advance(50 * time.Minute)
	_, ok = s.Get(id)
	require.True(t, ok)

	c.Advance(time.Hour)
	_, ok = s.Get(id)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len(), "expired session must be removed on access")
}

func TestRemoveExpired(t *testing.T) {
	s, c := newTestStore(time.Hour)
	defer s.Close()

	old := s.Create(1)
	c.Advance(30 * time.Minute)
	fresh := s.Create(2)
	c.Advance(31 * time.Minute)

	assert.Equal(t, 1, s.removeExpired())
	assert.Equal(t, 1, s.Len())

	_, ok := s.Get(old)
	assert.False(t, ok)
	_, ok = s.Get(fresh)
	assert.True(t, ok)
}

func TestSweeperRuns(t *testing.T) {
	s := NewStore(time.Millisecond, 5*time.Millisecond)
	defer s.Close()

	s.Create(1)
	s.Create(2)

	assert.Eventually(t, func() bool { return s.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestCloseIsIdempotent(t *testing.T) {
	s := NewStore(time.Minute, time.Minute)
	s.Close()
	s.Close()
}
