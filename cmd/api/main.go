package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"listing-browser/internal/browse"
	"listing-browser/internal/cleanup"
	"listing-browser/internal/config"
	"listing-browser/internal/database"
	"listing-browser/internal/geocode"
	"listing-browser/internal/handlers"
	"listing-browser/internal/messaging"
	"listing-browser/internal/places"
	"listing-browser/internal/ratelimit"
	"listing-browser/internal/scheduler"
	"listing-browser/internal/search"
	"listing-browser/internal/store"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	configPath := getEnv("CONFIG_PATH", "/app/config/config.yaml")
	appConfig, err := config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config from %s: %v. Using defaults.", configPath, err)
		appConfig = config.DefaultConfig()
	} else {
		log.Printf("Loaded configuration from %s", configPath)
	}
	if strings.ToLower(appConfig.Logging.Level) != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	appConfig.ApplyEnv()

	repo, err := database.Open(appConfig)
	if err != nil {
		log.Fatalf("Failed to open listing store: %v", err)
	}

	// Change notifications
	var notifier store.Notifier
	if url := appConfig.RabbitMQ.URL; url != "" {
		rabbit, err := messaging.NewRabbitNotifier(url, appConfig.RabbitMQ.Prefix)
		if err != nil {
			log.Printf("Warning: RabbitMQ unavailable (%v), change notifications stay in process", err)
		} else {
			defer rabbit.Close()
			notifier = rabbit
			log.Println("Change notifications via RabbitMQ")
		}
	}

	listingStore := store.New(repo, notifier)
	defer listingStore.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := listingStore.Run(ctx); err != nil {
			log.Printf("Store: Run stopped: %v", err)
		}
	}()

	// Geocoding
	var geocoder geocode.Geocoder
	var breaker *geocode.CircuitBreaker
	resolver := &geocode.Resolver{TTL: appConfig.Geocode.GetCacheTTL()}
	if apiKey := appConfig.Geocode.APIKey; apiKey != "" {
		client := geocode.NewClient(geocode.ClientConfig{
			APIKey:            apiKey,
			BaseURL:           appConfig.Geocode.BaseURL,
			Timeout:           appConfig.Geocode.GetTimeout(),
			RequestsPerSecond: appConfig.Geocode.RequestsPerSecond,
			FailureThreshold:  appConfig.Geocode.FailureThreshold,
			ResetTimeout:      appConfig.Geocode.GetResetTimeout(),
		})
		geocoder = client
		breaker = client.Breaker()
		resolver.Geocoder = client
		log.Println("Geocoding enabled")
	} else {
		log.Println("Geocoding disabled (no API key), addresses fall back to coordinates")
	}

	resolver.Cache = geocode.NewMemoryCache()
	if addr := appConfig.Redis.Addr; addr != "" {
		redisCache := geocode.NewRedisCache(addr, appConfig.Redis.Password, appConfig.Redis.DB)
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisCache.Ping(pingCtx); err != nil {
			log.Printf("Warning: Redis unavailable (%v), using in-memory address cache", err)
		} else {
			defer redisCache.Close()
			resolver.Cache = redisCache
			log.Printf("Address cache via Redis at %s", addr)
		}
		pingCancel()
	}

	// Place search
	placeService := &places.Service{Geocoder: geocoder, Limit: appConfig.Geocode.PlaceResultLimit}
	if host := appConfig.Search.Meilisearch.Host; host != "" {
		index := search.NewPlaceIndex(host,
			appConfig.Search.Meilisearch.APIKey,
			appConfig.Search.Meilisearch.Index)
		if err := index.InitIndex(); err != nil {
			log.Printf("Warning: Failed to initialize place index: %v", err)
		} else {
			placeService.Index = index
			unsubscribe := listingStore.Subscribe(func(snap store.Snapshot) {
				go index.IndexSnapshot(snap)
			})
			defer unsubscribe()
		}
	}

	// Sessions and rate limiting
	sessions := browse.NewSessions(listingStore)
	defer sessions.CloseAll()

	rateLimiter := ratelimit.NewRateLimiter(
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.Burst,
		appConfig.RateLimit.Enabled,
	)
	log.Printf("Rate limiter initialized: %d req/min, burst %d (enabled: %v)",
		appConfig.RateLimit.RequestsPerMinute, appConfig.RateLimit.Burst, appConfig.RateLimit.Enabled)

	cleanupService := cleanup.NewService(sessions, rateLimiter)

	// Background jobs
	var worker *scheduler.AddressWorker
	if geocoder != nil {
		worker = scheduler.NewAddressWorker(listingStore, resolver, appConfig.Scheduler.BackfillConcurrency)
	}
	appScheduler := scheduler.NewScheduler(appConfig, listingStore, worker, cleanupService)
	if err := appScheduler.Start(); err != nil {
		log.Printf("Warning: Failed to start scheduler: %v", err)
	}
	defer appScheduler.Stop()

	var adminScheduler *scheduler.Scheduler
	if worker != nil {
		adminScheduler = appScheduler
	}

	router := handlers.NewRouter(handlers.Deps{
		Config:    appConfig,
		Store:     listingStore,
		Sessions:  sessions,
		Places:    placeService,
		Resolver:  resolver,
		Breaker:   breaker,
		Limiter:   rateLimiter,
		Scheduler: adminScheduler,
		Cleanup:   cleanupService,
	})

	port := appConfig.Server.Port
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("Shutdown signal received")

	// Close sessions first so event streams end before the server drains
	sessions.CloseAll()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), appConfig.Server.GetShutdownTimeout())
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	} else {
		log.Println("Server shutdown complete")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
