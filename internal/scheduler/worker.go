package scheduler

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"listing-browser/internal/models"
	"listing-browser/internal/store"

	"golang.org/x/sync/errgroup"
)

// ListingSource is the part of the store the address worker uses
type ListingSource interface {
	Latest() (store.Snapshot, bool)
	Update(ctx context.Context, id string, patch models.ListingPatch) error
}

// AddressResolver reverse geocodes a coordinate
type AddressResolver interface {
	Resolve(ctx context.Context, p models.LatLng) (string, error)
}

// AddressWorker fills in missing listing addresses from the geocoder
type AddressWorker struct {
	source         ListingSource
	resolver       AddressResolver
	maxConcurrency int
}

// NewAddressWorker creates a new address worker
func NewAddressWorker(source ListingSource, resolver AddressResolver, maxConcurrency int) *AddressWorker {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &AddressWorker{
		source:         source,
		resolver:       resolver,
		maxConcurrency: maxConcurrency,
	}
}

// BackfillResult summarizes one backfill run
type BackfillResult struct {
	Candidates int           `json:"candidates"`
	Updated    int           `json:"updated"`
	Failed     int           `json:"failed"`
	Duration   time.Duration `json:"duration"`
}

// needsAddress reports whether geocoding can add an address to l
func needsAddress(l models.Listing) bool {
	return strings.TrimSpace(l.Address) == "" && !(l.Lat == 0 && l.Lng == 0)
}

// Backfill resolves and stores an address for every listing in the latest
// snapshot that lacks one. Single failures are counted, not returned.
func (w *AddressWorker) Backfill(ctx context.Context) (BackfillResult, error) {
	start := time.Now()
	var result BackfillResult

	snap, ok := w.source.Latest()
	if !ok {
		log.Println("AddressWorker: No snapshot yet, skipping backfill")
		return result, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.maxConcurrency)

	for _, l := range snap.Listings {
		if !needsAddress(l) {
			continue
		}
		result.Candidates++
		l := l
		g.Go(func() error {
			addr, err := w.resolver.Resolve(gctx, l.Point())
			if err == nil && addr != "" {
				err = w.source.Update(gctx, l.ID, models.ListingPatch{Address: &addr})
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("AddressWorker: Failed to backfill %s: %v", l.ID, err)
				result.Failed++
			} else if addr != "" {
				result.Updated++
			}
			return nil
		})
	}

	err := g.Wait()
	result.Duration = time.Since(start)
	log.Printf("AddressWorker: Backfill done. Candidates: %d, Updated: %d, Failed: %d",
		result.Candidates, result.Updated, result.Failed)
	if err == nil {
		err = ctx.Err()
	}
	return result, err
}
