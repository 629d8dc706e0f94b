package cleanup

import (
	"testing"
	"time"

	"listing-browser/internal/browse"
	"listing-browser/internal/ratelimit"

	"github.com/stretchr/testify/assert"
)

type fakeRegistry struct {
	idle   []string
	closed []string
}

func (f *fakeRegistry) IdleSince(time.Time) []string { return f.idle }

func (f *fakeRegistry) Close(id string) error {
	f.closed = append(f.closed, id)
	return nil
}

func TestEvictIdle(t *testing.T) {
	reg := &fakeRegistry{idle: []string{"a", "b", "c"}}
	s := NewService(reg, nil)

	res := s.EvictIdle(CleanupConfig{SessionIdleTimeout: time.Minute, MaxEvictions: 2})
	assert.Equal(t, 3, res.TargetCount)
	assert.Equal(t, 2, res.ClosedCount)
	assert.Equal(t, 1, res.SkippedCount)
	assert.Equal(t, []string{"a", "b"}, reg.closed)
}

func TestEvictIdleDryRun(t *testing.T) {
	reg := &fakeRegistry{idle: []string{"a"}}
	res := NewService(reg, nil).EvictIdle(CleanupConfig{SessionIdleTimeout: time.Minute, DryRun: true})
	assert.Equal(t, []string{"a"}, res.ClosedSessions)
	assert.Empty(t, reg.closed)
}

func TestEvictIdleRealSessions(t *testing.T) {
	sessions := browse.NewSessions(nil)
	c := sessions.Create()
	rl := ratelimit.NewRateLimiter(60, 1, true)

	s := NewService(sessions, rl)
	s.now = func() time.Time { return time.Now().Add(time.Hour) }

	res := s.EvictIdle(DefaultCleanupConfig())
	assert.Equal(t, []string{c.ID()}, res.ClosedSessions)
	assert.Equal(t, 0, sessions.Count())
}
