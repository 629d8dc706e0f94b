// Package metrics holds the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SnapshotListings = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "listing_browser_snapshot_listings",
		Help: "Number of listings in the latest store snapshot",
	})
	SnapshotVersion = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "listing_browser_snapshot_version",
		Help: "Version of the latest store snapshot",
	})
	RefreshErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "listing_browser_refresh_errors_total",
		Help: "Failed store refreshes",
	})
	StoreWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listing_browser_store_writes_total",
		Help: "Listing writes by operation and result",
	}, []string{"op", "result"})

	PipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "listing_browser_pipeline_seconds",
		Help:    "Time spent deriving the visible listings",
		Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
	})
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "listing_browser_sessions_active",
		Help: "Open browsing sessions",
	})

	GeocodeLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listing_browser_geocode_lookups_total",
		Help: "Geocoding lookups by kind and outcome",
	}, []string{"kind", "outcome"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "listing_browser_rate_limited_total",
		Help: "Requests rejected by the write rate limiter",
	})
)
