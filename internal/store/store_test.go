package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"listing-browser/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput(title string) models.ListingInput {
	return models.ListingInput{
		Title:       title,
		Description: "Ocean view",
		Price:       1000,
		Bedrooms:    2,
		Bathrooms:   1,
		SquareFeet:  850,
		Lat:         34.03,
		Lng:         -118.75,
		ImageURL:    "https://example.com/a.jpg",
	}
}

type recorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recorder) add(s Snapshot) {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
}

func (r *recorder) last() (Snapshot, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snaps) == 0 {
		return Snapshot{}, 0
	}
	return r.snaps[len(r.snaps)-1], len(r.snaps)
}

func TestRefreshPublishesVersionedSnapshots(t *testing.T) {
	repo := NewMemoryRepository(
		models.Listing{ID: "old", CreatedAt: 1},
		models.Listing{ID: "new", CreatedAt: 2},
	)
	s := New(repo, nil)
	assert.True(t, s.Loading())

	rec := &recorder{}
	s.Subscribe(rec.add)

	require.NoError(t, s.Refresh(context.Background()))
	require.NoError(t, s.Refresh(context.Background()))

	assert.False(t, s.Loading())
	snap, n := rec.last()
	require.Equal(t, 2, n)
	assert.Equal(t, uint64(2), snap.Version)
	assert.Equal(t, "new", snap.Listings[0].ID)
	assert.Equal(t, "old", snap.Listings[1].ID)
	assert.True(t, snap.Changes.Empty())
}

func TestSubscribeReceivesLatestImmediately(t *testing.T) {
	s := New(NewMemoryRepository(models.Listing{ID: "a"}), nil)
	require.NoError(t, s.Refresh(context.Background()))

	rec := &recorder{}
	unsubscribe := s.Subscribe(rec.add)
	snap, n := rec.last()
	assert.Equal(t, 1, n)
	assert.Equal(t, uint64(1), snap.Version)

	unsubscribe()
	require.NoError(t, s.Refresh(context.Background()))
	_, n = rec.last()
	assert.Equal(t, 1, n)
}

func TestRefreshFailureKeepsLastSnapshot(t *testing.T) {
	repo := NewMemoryRepository(models.Listing{ID: "a"})
	s := New(repo, nil)
	require.NoError(t, s.Refresh(context.Background()))

	boom := errors.New("connection reset")
	repo.FailWith(boom)
	err := s.Refresh(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, s.LastError(), boom)

	snap, ok := s.Latest()
	require.True(t, ok)
	assert.Len(t, snap.Listings, 1)
	assert.Equal(t, uint64(1), snap.Version)
}

func TestFirstRefreshFailureClearsLoading(t *testing.T) {
	repo := NewMemoryRepository()
	repo.FailWith(errors.New("unavailable"))
	s := New(repo, nil)

	assert.Error(t, s.Refresh(context.Background()))
	assert.False(t, s.Loading())
	_, ok := s.Latest()
	assert.False(t, ok)
}

func TestCreateStampsIDAndCreatedAt(t *testing.T) {
	repo := NewMemoryRepository()
	s := New(repo, nil)
	fixed := time.UnixMilli(1700000000123)
	s.now = func() time.Time { return fixed }

	l, err := s.Create(context.Background(), validInput("Beach house"))
	require.NoError(t, err)
	assert.NotEmpty(t, l.ID)
	assert.Equal(t, int64(1700000000123), l.CreatedAt)

	stored, err := repo.Get(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, l, stored)
}

func TestCreateDoesNotUpdateSnapshotSynchronously(t *testing.T) {
	s := New(NewMemoryRepository(), nil)
	require.NoError(t, s.Refresh(context.Background()))

	_, err := s.Create(context.Background(), validInput("Cabin"))
	require.NoError(t, err)

	snap, _ := s.Latest()
	assert.Empty(t, snap.Listings)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	repo := NewMemoryRepository()
	s := New(repo, nil)

	in := validInput("")
	_, err := s.Create(context.Background(), in)

	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Field)

	all, _ := repo.List(context.Background())
	assert.Empty(t, all)
}

func TestCreateReportsStoreFailure(t *testing.T) {
	repo := NewMemoryRepository()
	boom := errors.New("write failed")
	repo.FailWith(boom)
	s := New(repo, nil)

	_, err := s.Create(context.Background(), validInput("Loft"))
	assert.ErrorIs(t, err, boom)
}

func TestUpdateValidatesMergedListing(t *testing.T) {
	in := validInput("Condo")
	repo := NewMemoryRepository(in.ToListing("c1", time.UnixMilli(5)))
	s := New(repo, nil)

	zero := 0.0
	err := s.Update(context.Background(), "c1", models.ListingPatch{Price: &zero})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "price", verr.Field)

	price := 2500.0
	require.NoError(t, s.Update(context.Background(), "c1", models.ListingPatch{Price: &price}))
	l, _ := repo.Get(context.Background(), "c1")
	assert.Equal(t, 2500.0, l.Price)
	assert.Equal(t, int64(5), l.CreatedAt)
}

func TestUpdateUnknownListing(t *testing.T) {
	s := New(NewMemoryRepository(), nil)
	title := "x"
	err := s.Update(context.Background(), "missing", models.ListingPatch{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunRefreshesAfterWrites(t *testing.T) {
	s := New(NewMemoryRepository(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()

	require.Eventually(t, func() bool { return !s.Loading() }, time.Second, 5*time.Millisecond)

	l, err := s.Create(ctx, validInput("Studio"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, ok := s.Find(l.ID)
		return ok
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

type failingNotifier struct{ *LocalNotifier }

func (failingNotifier) Publish(context.Context, ChangeEvent) error {
	return errors.New("broker down")
}

func TestPublishFailureFallsBackToRefresh(t *testing.T) {
	s := New(NewMemoryRepository(), failingNotifier{LocalNotifier: NewLocalNotifier()})
	l, err := s.Create(context.Background(), validInput("Bungalow"))
	require.NoError(t, err)

	_, ok := s.Find(l.ID)
	assert.True(t, ok)
}
