// Package cleanup evicts idle browsing sessions and rate limiter entries.
package cleanup

import (
	"log"
	"time"
)

// SessionRegistry is the part of browse.Sessions the cleanup needs
type SessionRegistry interface {
	IdleSince(cutoff time.Time) []string
	Close(id string) error
}

// Pruner forgets idle per-client state
type Pruner interface {
	Prune(idle time.Duration) int
}

// CleanupConfig holds configuration for cleanup operations
type CleanupConfig struct {
	SessionIdleTimeout time.Duration // Sessions unused this long are closed
	MaxEvictions       int           // Safety limit per run, 0 = unlimited
	DryRun             bool          // Only log what would be closed
}

// DefaultCleanupConfig returns default configuration
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		SessionIdleTimeout: 30 * time.Minute,
		MaxEvictions:       10000,
	}
}

// CleanupResult holds the result of a cleanup operation
type CleanupResult struct {
	TargetCount    int       `json:"target_count"`
	ClosedCount    int       `json:"closed_count"`
	SkippedCount   int       `json:"skipped_count"`
	PrunedClients  int       `json:"pruned_clients"`
	DryRun         bool      `json:"dry_run"`
	ExecutedAt     time.Time `json:"executed_at"`
	ClosedSessions []string  `json:"closed_sessions"`
}

// Service closes sessions nobody has touched for a while
type Service struct {
	sessions SessionRegistry
	limiter  Pruner
	now      func() time.Time
}

// NewService creates a new cleanup service. limiter may be nil.
func NewService(sessions SessionRegistry, limiter Pruner) *Service {
	return &Service{sessions: sessions, limiter: limiter, now: time.Now}
}

// EvictIdle closes idle sessions and prunes idle rate limiter clients
func (s *Service) EvictIdle(config CleanupConfig) *CleanupResult {
	result := &CleanupResult{
		DryRun:         config.DryRun,
		ExecutedAt:     s.now(),
		ClosedSessions: []string{},
	}

	idle := s.sessions.IdleSince(result.ExecutedAt.Add(-config.SessionIdleTimeout))
	result.TargetCount = len(idle)

	for _, id := range idle {
		if config.MaxEvictions > 0 && result.ClosedCount >= config.MaxEvictions {
			result.SkippedCount++
			continue
		}
		if config.DryRun {
			result.ClosedSessions = append(result.ClosedSessions, id)
			continue
		}
		// already gone is fine
		if err := s.sessions.Close(id); err == nil {
			result.ClosedCount++
			result.ClosedSessions = append(result.ClosedSessions, id)
		}
	}

	if s.limiter != nil && !config.DryRun {
		result.PrunedClients = s.limiter.Prune(config.SessionIdleTimeout)
	}

	if result.TargetCount > 0 || result.PrunedClients > 0 {
		log.Printf("Cleanup: %d idle sessions, closed %d, skipped %d, pruned %d clients (dry run: %t)",
			result.TargetCount, result.ClosedCount, result.SkippedCount, result.PrunedClients, result.DryRun)
	}
	return result
}
