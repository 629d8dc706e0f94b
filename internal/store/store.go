// Package store keeps the live listing snapshot in sync with the backing
// repository and fans it out to subscribers.
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"listing-browser/internal/metrics"
	"listing-browser/internal/models"
	"listing-browser/internal/snapshot"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repositories for an unknown listing id
var ErrNotFound = errors.New("listing not found")

// Repository is the persistent listing collection
type Repository interface {
	// List returns every listing ordered by createdAt descending
	List(ctx context.Context) ([]models.Listing, error)
	Get(ctx context.Context, id string) (models.Listing, error)
	Insert(ctx context.Context, l models.Listing) error
	Update(ctx context.Context, id string, patch models.ListingPatch) error
	Close() error
}

// Snapshot is the complete listing collection at one point in time. Listings
// must be treated as read-only by subscribers.
type Snapshot struct {
	Listings []models.Listing
	Version  uint64
	At       time.Time
	Changes  snapshot.Changes
}

// Store is the listing store adapter
type Store struct {
	repo     Repository
	notifier Notifier
	origin   string

	now   func() time.Time
	newID func() string

	refreshMu sync.Mutex

	mu        sync.RWMutex
	latest    Snapshot
	hasLatest bool
	loading   bool
	lastErr   error
	subs      map[int]func(Snapshot)
	nextSub   int
}

// New creates a store over repo. A nil notifier means changes are only
// seen by this process.
func New(repo Repository, notifier Notifier) *Store {
	if notifier == nil {
		notifier = NewLocalNotifier()
	}
	return &Store{
		repo:     repo,
		notifier: notifier,
		origin:   uuid.NewString(),
		now:      time.Now,
		newID:    uuid.NewString,
		loading:  true,
		subs:     make(map[int]func(Snapshot)),
	}
}

// Subscribe registers fn for every future snapshot. When a snapshot already
// exists fn receives it immediately. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	latest, ok := s.latest, s.hasLatest
	s.mu.Unlock()

	if ok {
		fn(latest)
	}
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Loading reports whether the first fetch is still pending
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Latest returns the most recent snapshot
func (s *Store) Latest() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.hasLatest
}

// LastError returns the error of the most recent failed refresh, nil after a
// successful one.
func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Find looks a listing up in the latest snapshot
func (s *Store) Find(id string) (models.Listing, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.latest.Listings {
		if l.ID == id {
			return l, true
		}
	}
	return models.Listing{}, false
}

// Refresh re-fetches the whole collection and publishes it as a new
// snapshot. On failure the previous snapshot stays in place.
func (s *Store) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	listings, err := s.repo.List(ctx)
	if err != nil {
		metrics.RefreshErrors.Inc()
		s.mu.Lock()
		s.loading = false
		s.lastErr = err
		s.mu.Unlock()
		log.Printf("Store: refresh failed: %v", err)
		return fmt.Errorf("refresh listings: %w", err)
	}
	if listings == nil {
		listings = []models.Listing{}
	}

	s.mu.Lock()
	next := Snapshot{
		Listings: slices.Clip(listings),
		Version:  s.latest.Version + 1,
		At:       s.now(),
		Changes:  snapshot.Diff(s.latest.Listings, listings),
	}
	s.latest = next
	s.hasLatest = true
	s.loading = false
	s.lastErr = nil
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	metrics.SnapshotListings.Set(float64(len(listings)))
	metrics.SnapshotVersion.Set(float64(next.Version))
	if !next.Changes.Empty() {
		log.Printf("Store: snapshot v%d (%d listings, %s)", next.Version, len(listings), next.Changes)
	}

	for _, fn := range subs {
		fn(next)
	}
	return nil
}

// Create validates and persists a new listing with a fresh id and creation
// time. The listing shows up in a later snapshot, not synchronously.
func (s *Store) Create(ctx context.Context, in models.ListingInput) (models.Listing, error) {
	if err := models.ValidateListing(in); err != nil {
		return models.Listing{}, err
	}
	l := in.ToListing(s.newID(), s.now())
	if err := s.repo.Insert(ctx, l); err != nil {
		metrics.StoreWrites.WithLabelValues("create", "error").Inc()
		return models.Listing{}, fmt.Errorf("insert listing: %w", err)
	}
	metrics.StoreWrites.WithLabelValues("create", "ok").Inc()
	s.announce(ctx, ChangeEvent{Kind: ChangeCreated, ID: l.ID})
	return l, nil
}

// Update applies a partial edit. The edited listing must still pass
// validation as a whole.
func (s *Store) Update(ctx context.Context, id string, patch models.ListingPatch) error {
	cur, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if patch.IsEmpty() {
		return nil
	}
	merged := patch.Apply(cur)
	if err := models.ValidateListing(merged.Input()); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		metrics.StoreWrites.WithLabelValues("update", "error").Inc()
		return fmt.Errorf("update listing %s: %w", id, err)
	}
	metrics.StoreWrites.WithLabelValues("update", "ok").Inc()
	s.announce(ctx, ChangeEvent{Kind: ChangeUpdated, ID: id})
	return nil
}

func (s *Store) announce(ctx context.Context, ev ChangeEvent) {
	ev.Origin = s.origin
	ev.At = s.now().UnixMilli()
	if err := s.notifier.Publish(ctx, ev); err != nil {
		// Without a notification nobody refreshes, so do it here.
		log.Printf("Store: publish %s %s failed, refreshing directly: %v", ev.Kind, ev.ID, err)
		_ = s.Refresh(ctx)
	}
}

// Run fetches the first snapshot and then refreshes after every change
// event until ctx is done. Bursts of events collapse into one refresh.
func (s *Store) Run(ctx context.Context) error {
	pending := make(chan struct{}, 1)
	if err := s.notifier.Listen(ctx, func(ev ChangeEvent) {
		select {
		case pending <- struct{}{}:
		default:
		}
	}); err != nil {
		return fmt.Errorf("listen for listing changes: %w", err)
	}

	_ = s.Refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pending:
			_ = s.Refresh(ctx)
		}
	}
}

// Close releases the repository
func (s *Store) Close() error {
	return s.repo.Close()
}
