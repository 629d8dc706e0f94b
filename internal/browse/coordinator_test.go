package browse

import (
	"context"
	"testing"
	"time"

	"listing-browser/internal/models"
	"listing-browser/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, seed ...models.Listing) *store.Store {
	t.Helper()
	s := store.New(store.NewMemoryRepository(seed...), nil)
	require.NoError(t, s.Refresh(context.Background()))
	return s
}

func TestCoordinatorAppliesExistingSnapshot(t *testing.T) {
	c := NewCoordinator("s1", newStore(t, pair...))
	defer c.Close()

	v := c.View()
	assert.Equal(t, "s1", v.SessionID)
	assert.False(t, v.Loading)
	assert.Equal(t, []string{"2", "1"}, ids(v.Visible))
	assert.Equal(t, 2, v.Count)
	assert.Equal(t, 2, v.Total)
	assert.Equal(t, "Any price", v.PriceLabel)
}

func TestCoordinatorLoadingUntilFirstSnapshot(t *testing.T) {
	st := store.New(store.NewMemoryRepository(pair...), nil)
	c := NewCoordinator("s1", st)
	defer c.Close()

	assert.True(t, c.View().Loading)
	require.NoError(t, st.Refresh(context.Background()))
	assert.False(t, c.View().Loading)
	assert.Len(t, c.View().Visible, 2)
}

func TestCoordinatorRecomputesOnNewSnapshot(t *testing.T) {
	repo := store.NewMemoryRepository(pair...)
	st := store.New(repo, nil)
	require.NoError(t, st.Refresh(context.Background()))

	c := NewCoordinator("s1", st)
	defer c.Close()
	c.SetSort(models.SortPriceAsc)

	require.NoError(t, repo.Insert(context.Background(), models.Listing{ID: "3", Price: 10, CreatedAt: 300}))
	require.NoError(t, st.Refresh(context.Background()))

	v := c.View()
	assert.Equal(t, []string{"3", "1", "2"}, ids(v.Visible))
	assert.Equal(t, uint64(2), v.Version)
}

func TestCoordinatorWatch(t *testing.T) {
	c := NewCoordinator("s1", newStore(t, pair...))
	defer c.Close()

	views, cancel := c.Watch()
	defer cancel()

	first := <-views
	assert.Len(t, first.Visible, 2)

	c.PatchFilter(models.FilterPatch{MinPrice: ptr(600000.0)})
	select {
	case v := <-views:
		assert.Equal(t, []string{"2"}, ids(v.Visible))
		assert.Equal(t, "$600000 - No max", v.PriceLabel)
	case <-time.After(time.Second):
		t.Fatal("no view after filter change")
	}
}

func TestSlowWatcherGetsNewestView(t *testing.T) {
	c := NewCoordinator("s1", newStore(t, pair...))
	defer c.Close()

	views, cancel := c.Watch()
	defer cancel()

	for i := 0; i < 25; i++ {
		c.SetSort(models.SortPriceAsc)
		c.SetSort(models.SortNewest)
	}
	c.SetSort(models.SortOldest)

	var last View
	for len(views) > 0 {
		last = <-views
	}
	assert.Equal(t, models.SortOldest, last.Sort)
}

func TestCoordinatorSelect(t *testing.T) {
	c := NewCoordinator("s1", newStore(t, pair...))
	defer c.Close()

	v, err := c.Select("2")
	require.NoError(t, err)
	require.NotNil(t, v.Selected)
	assert.Equal(t, "2", v.Selected.ID)
	assert.Equal(t, models.DetailZoom, v.Viewport.Zoom)

	v = c.ClearSelection()
	assert.Nil(t, v.Selected)
	assert.Equal(t, models.DetailZoom, v.Viewport.Zoom)

	_, err = c.Select("missing")
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestCloseEndsWatchersAndSubscription(t *testing.T) {
	st := newStore(t, pair...)
	c := NewCoordinator("s1", st)
	views, _ := c.Watch()
	<-views

	c.Close()
	c.Close()

	_, open := <-views
	assert.False(t, open)
	select {
	case <-c.Done():
	default:
		t.Fatal("done not closed")
	}

	before := c.View().Version
	require.NoError(t, st.Refresh(context.Background()))
	assert.Equal(t, before, c.View().Version)
}
