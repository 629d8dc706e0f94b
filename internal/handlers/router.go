// Package handlers exposes the listing browser over HTTP.
package handlers

import (
	"log"
	"net/http"

	"listing-browser/internal/browse"
	"listing-browser/internal/cleanup"
	"listing-browser/internal/config"
	"listing-browser/internal/geocode"
	"listing-browser/internal/ratelimit"
	"listing-browser/internal/scheduler"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps collects what the router wires. Store, Sessions and Places are
// required; the rest may be nil.
type Deps struct {
	Config    *config.Config
	Store     ListingStore
	Sessions  *browse.Sessions
	Places    PlaceSearcher
	Resolver  *geocode.Resolver
	Breaker   *geocode.CircuitBreaker
	Limiter   *ratelimit.RateLimiter
	Scheduler *scheduler.Scheduler
	Cleanup   *cleanup.Service
}

// NewRouter builds the gin engine with every route registered
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if d.Config == nil || d.Config.Logging.LogRequests {
		r.Use(gin.Logger())
	}

	origins := []string{"http://localhost:5176"}
	if d.Config != nil && len(d.Config.Server.AllowedOrigins) > 0 {
		origins = d.Config.Server.AllowedOrigins
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))

	limit := func(c *gin.Context) { c.Next() }
	if d.Limiter != nil {
		limit = ratelimit.Middleware(d.Limiter)
	}

	listings := NewListingHandler(d.Store, d.Resolver)
	sessions := NewSessionHandler(d.Sessions)
	placeHandler := NewPlaceHandler(d.Places)
	admin := NewAdminHandler(d.Store, d.Sessions, d.Scheduler, d.Cleanup, d.Limiter, d.Breaker, d.Config)

	r.GET("/health", admin.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/listings", listings.List)
		api.GET("/listings/:id", listings.Get)
		api.GET("/listings/:id/address", listings.Address)
		api.POST("/listings", limit, listings.Create)
		api.PATCH("/listings/:id", limit, listings.Update)

		api.GET("/places", limit, placeHandler.Search)

		api.POST("/sessions", limit, sessions.Create)
		api.GET("/sessions/:id", sessions.Get)
		api.DELETE("/sessions/:id", sessions.Delete)
		api.GET("/sessions/:id/events", sessions.Events)
		api.PUT("/sessions/:id/filter", sessions.SetFilter)
		api.POST("/sessions/:id/filter/reset", sessions.ResetFilter)
		api.PUT("/sessions/:id/sort", sessions.SetSort)
		api.PUT("/sessions/:id/polygon", sessions.SetPolygon)
		api.DELETE("/sessions/:id/polygon", sessions.ClearPolygon)
		api.PUT("/sessions/:id/selection", sessions.Select)
		api.DELETE("/sessions/:id/selection", sessions.ClearSelection)
		api.POST("/sessions/:id/place", sessions.SelectPlace)
	}

	// Admin API routes (requires authentication in production)
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.GET("/stats", admin.GetStats)
		adminGroup.POST("/resync", admin.TriggerResync)
		adminGroup.POST("/backfill", admin.TriggerBackfill)
		adminGroup.POST("/cleanup", admin.RunCleanup)
	}
	log.Println("Handlers: Routes registered")

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	return r
}
