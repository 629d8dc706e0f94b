package scheduler

import (
	"context"
	"fmt"
	"log"

	"listing-browser/internal/cleanup"
	"listing-browser/internal/config"

	"github.com/robfig/cron/v3"
)

// Refresher forces a full store re-fetch
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Evictor closes idle sessions
type Evictor interface {
	EvictIdle(cfg cleanup.CleanupConfig) *cleanup.CleanupResult
}

// Scheduler runs the periodic maintenance jobs
type Scheduler struct {
	cron      *cron.Cron
	config    *config.Config
	store     Refresher
	worker    *AddressWorker
	cleanup   Evictor
	ctx       context.Context
	cancel    context.CancelFunc
	isRunning bool
}

// NewScheduler creates a new scheduler. worker and evictor may be nil.
func NewScheduler(cfg *config.Config, store Refresher, worker *AddressWorker, evictor Evictor) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(),
		config:  cfg,
		store:   store,
		worker:  worker,
		cleanup: evictor,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start registers the jobs and starts the cron loop
func (s *Scheduler) Start() error {
	if !s.config.Scheduler.Enabled {
		log.Println("Scheduler: Disabled in configuration")
		return nil
	}

	if spec := s.config.Scheduler.ResyncSpec; spec != "" {
		if _, err := s.cron.AddFunc(spec, func() {
			if err := s.RunResync(); err != nil {
				log.Printf("Scheduler: Resync failed: %v", err)
			}
		}); err != nil {
			return fmt.Errorf("resync job: %w", err)
		}
	}

	if s.worker != nil {
		spec := s.parseDailyRunTime(s.config.Scheduler.DailyBackfillTime)
		if _, err := s.cron.AddFunc(spec, func() {
			log.Println("Scheduler: Starting address backfill...")
			if _, err := s.RunBackfill(); err != nil {
				log.Printf("Scheduler: Address backfill failed: %v", err)
			}
		}); err != nil {
			return fmt.Errorf("backfill job: %w", err)
		}
	}

	if spec := s.config.Scheduler.CleanupSpec; spec != "" && s.cleanup != nil {
		if _, err := s.cron.AddFunc(spec, func() { s.RunCleanup() }); err != nil {
			return fmt.Errorf("cleanup job: %w", err)
		}
	}

	s.cron.Start()
	s.isRunning = true
	log.Printf("Scheduler: Started with %d jobs", len(s.cron.Entries()))
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	s.cancel()
	if s.isRunning {
		<-s.cron.Stop().Done()
		s.isRunning = false
		log.Println("Scheduler: Stopped")
	}
}

// RunResync forces a full store refresh
func (s *Scheduler) RunResync() error {
	return s.store.Refresh(s.ctx)
}

// RunBackfill runs the address backfill now
func (s *Scheduler) RunBackfill() (BackfillResult, error) {
	if s.worker == nil {
		return BackfillResult{}, fmt.Errorf("address backfill not configured")
	}
	return s.worker.Backfill(s.ctx)
}

// RunCleanup evicts idle sessions now
func (s *Scheduler) RunCleanup() *cleanup.CleanupResult {
	cfg := cleanup.DefaultCleanupConfig()
	cfg.SessionIdleTimeout = s.config.Sessions.GetIdleTimeout()
	return s.cleanup.EvictIdle(cfg)
}

// parseDailyRunTime converts HH:MM format to cron specification
// Example: "02:00" -> "0 2 * * *" (run at 2:00 AM every day)
func (s *Scheduler) parseDailyRunTime(timeStr string) string {
	var hour, minute int
	n, _ := fmt.Sscanf(timeStr, "%d:%d", &hour, &minute)
	if n == 2 && hour >= 0 && hour < 24 && minute >= 0 && minute < 60 {
		return fmt.Sprintf("%d %d * * *", minute, hour)
	}

	// Default to 2:00 AM if parsing fails
	log.Printf("Scheduler: Failed to parse time '%s', using default 02:00", timeStr)
	return "0 2 * * *"
}
