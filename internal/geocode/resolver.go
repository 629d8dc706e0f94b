package geocode

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"listing-browser/internal/models"
)

// UnknownLocation is shown for a listing with neither an address nor a
// usable coordinate
const UnknownLocation = "Unknown Location"

// Resolver produces display addresses. Geocoder and Cache may both be nil.
type Resolver struct {
	Geocoder Geocoder
	Cache    Cache
	TTL      time.Duration
}

// Resolve reverse geocodes p, consulting the cache first
func (r *Resolver) Resolve(ctx context.Context, p models.LatLng) (string, error) {
	key := CacheKey(p)
	if r.Cache != nil {
		if v, ok, err := r.Cache.Get(ctx, key); err != nil {
			log.Printf("Geocode: cache get %s: %v", key, err)
		} else if ok {
			return v, nil
		}
	}
	if r.Geocoder == nil {
		return "", errors.New("no geocoder configured")
	}

	addr, err := r.Geocoder.Reverse(ctx, p)
	if err != nil {
		return "", err
	}
	if r.Cache != nil {
		if err := r.Cache.Set(ctx, key, addr, r.TTL); err != nil {
			log.Printf("Geocode: cache set %s: %v", key, err)
		}
	}
	return addr, nil
}

// DisplayAddress never fails: the stored address wins, then a geocoded one,
// then the raw coordinate pair.
func (r *Resolver) DisplayAddress(ctx context.Context, l models.Listing) string {
	if addr := strings.TrimSpace(l.Address); addr != "" {
		return addr
	}
	if l.Lat == 0 && l.Lng == 0 {
		return UnknownLocation
	}
	p := l.Point()
	if r != nil {
		addr, err := r.Resolve(ctx, p)
		if err == nil && addr != "" {
			return addr
		}
		if err != nil && !errors.Is(err, ErrNoResult) {
			log.Printf("Geocode: reverse lookup for %s failed: %v", l.ID, err)
		}
	}
	return p.String()
}
