package handlers

import (
	"log"
	"net/http"
	"time"

	"listing-browser/internal/browse"
	"listing-browser/internal/cleanup"
	"listing-browser/internal/config"
	"listing-browser/internal/geocode"
	"listing-browser/internal/ratelimit"
	"listing-browser/internal/scheduler"

	"github.com/gin-gonic/gin"
)

// AdminHandler handles admin-related requests
type AdminHandler struct {
	store          ListingStore
	sessions       *browse.Sessions
	scheduler      *scheduler.Scheduler
	cleanupService *cleanup.Service
	limiter        *ratelimit.RateLimiter
	breaker        *geocode.CircuitBreaker
	config         *config.Config
}

// NewAdminHandler creates a new admin handler. Everything except the store
// and sessions may be nil.
func NewAdminHandler(s ListingStore, sessions *browse.Sessions, sched *scheduler.Scheduler,
	cleanupService *cleanup.Service, limiter *ratelimit.RateLimiter, breaker *geocode.CircuitBreaker, cfg *config.Config) *AdminHandler {
	return &AdminHandler{
		store:          s,
		sessions:       sessions,
		scheduler:      sched,
		cleanupService: cleanupService,
		limiter:        limiter,
		breaker:        breaker,
		config:         cfg,
	}
}

// GetStats returns system statistics
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats := make(map[string]interface{})

	snap, loaded := h.store.Latest()
	snapshotStats := map[string]interface{}{
		"loaded":   loaded,
		"loading":  h.store.Loading(),
		"version":  snap.Version,
		"listings": len(snap.Listings),
	}
	if loaded {
		snapshotStats["at"] = snap.At
		snapshotStats["last_changes"] = snap.Changes.String()
	}
	if err := h.store.LastError(); err != nil {
		snapshotStats["last_error"] = err.Error()
	}
	stats["snapshot"] = snapshotStats

	stats["sessions"] = map[string]interface{}{
		"active": h.sessions.Count(),
	}

	if h.breaker != nil {
		stats["geocode_breaker"] = h.breaker.Status()
	}
	if h.limiter != nil {
		stats["rate_limit"] = h.limiter.GetStats()
	}

	c.JSON(http.StatusOK, stats)
}

// TriggerResync forces a store refresh
func (h *AdminHandler) TriggerResync(c *gin.Context) {
	log.Println("Admin: Manual resync requested")

	if err := h.store.Refresh(c.Request.Context()); err != nil {
		log.Printf("Admin: Resync failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Resync failed; the last snapshot is still served"})
		return
	}

	snap, _ := h.store.Latest()
	c.JSON(http.StatusOK, gin.H{
		"version":  snap.Version,
		"listings": len(snap.Listings),
		"changes":  snap.Changes,
	})
}

// TriggerBackfill starts the address backfill in the background
func (h *AdminHandler) TriggerBackfill(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Address backfill not available (geocoding not configured)",
		})
		return
	}

	log.Println("Admin: Manual address backfill requested")

	// Run in goroutine to avoid blocking
	go func() {
		result, err := h.scheduler.RunBackfill()
		if err != nil {
			log.Printf("Admin: Manual backfill failed: %v", err)
			return
		}
		log.Printf("Admin: Manual backfill completed: %d/%d updated", result.Updated, result.Candidates)
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Address backfill started",
		"status":  "running",
	})
}

// RunCleanup closes idle browsing sessions
func (h *AdminHandler) RunCleanup(c *gin.Context) {
	if h.cleanupService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Cleanup not available"})
		return
	}

	var req struct {
		IdleMinutes  int  `json:"idle_minutes"`  // Idle time before a session is closed
		MaxEvictions int  `json:"max_evictions"` // Safety limit (default: 10000)
		DryRun       bool `json:"dry_run"`       // Only report what would be closed
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	cfg := cleanup.DefaultCleanupConfig()
	if h.config != nil {
		cfg.SessionIdleTimeout = h.config.Sessions.GetIdleTimeout()
	}
	if req.IdleMinutes > 0 {
		cfg.SessionIdleTimeout = time.Duration(req.IdleMinutes) * time.Minute
	}
	if req.MaxEvictions > 0 {
		cfg.MaxEvictions = req.MaxEvictions
	}
	cfg.DryRun = req.DryRun

	log.Printf("Admin: Running cleanup (idle: %v, max: %d, dry-run: %v)",
		cfg.SessionIdleTimeout, cfg.MaxEvictions, cfg.DryRun)

	result := h.cleanupService.EvictIdle(cfg)
	c.JSON(http.StatusOK, result)
}

// Health reports whether the first snapshot has loaded
func (h *AdminHandler) Health(c *gin.Context) {
	_, loaded := h.store.Latest()
	status := "ok"
	if !loaded {
		status = "loading"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   status,
		"sessions": h.sessions.Count(),
	})
}

