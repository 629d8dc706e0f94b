package browse

import (
	"errors"
	"log"
	"sync"
	"time"

	"listing-browser/internal/metrics"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for an unknown or closed session id
var ErrSessionNotFound = errors.New("session not found")

// Sessions is the registry of open browsing sessions
type Sessions struct {
	source SnapshotSource
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Coordinator
}

func NewSessions(source SnapshotSource) *Sessions {
	return &Sessions{
		source:   source,
		now:      time.Now,
		sessions: make(map[string]*Coordinator),
	}
}

// Create opens a session in the default state
func (s *Sessions) Create() *Coordinator {
	c := NewCoordinator(uuid.NewString(), s.source)
	c.Touch(s.now())

	s.mu.Lock()
	s.sessions[c.ID()] = c
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	return c
}

// Get returns an open session and marks it as used
func (s *Sessions) Get(id string) (*Coordinator, error) {
	s.mu.RLock()
	c, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	c.Touch(s.now())
	return c, nil
}

// Close ends a session
func (s *Sessions) Close(id string) error {
	s.mu.Lock()
	c, ok := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	c.Close()
	metrics.ActiveSessions.Set(float64(n))
	return nil
}

// Count returns the number of open sessions
func (s *Sessions) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// IdleSince lists the sessions not used since cutoff
func (s *Sessions) IdleSince(cutoff time.Time) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for id, c := range s.sessions {
		if c.LastSeen().Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}

// CloseAll ends every session
func (s *Sessions) CloseAll() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*Coordinator)
	s.mu.Unlock()

	for _, c := range all {
		c.Close()
	}
	metrics.ActiveSessions.Set(0)
	if len(all) > 0 {
		log.Printf("Sessions: closed %d sessions", len(all))
	}
}
