package browse

import (
	"testing"

	"listing-browser/internal/filter"
	"listing-browser/internal/geofence"
	"listing-browser/internal/models"
	"listing-browser/internal/sorting"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(listings []models.Listing) []string {
	out := make([]string, len(listings))
	for i, l := range listings {
		out[i] = l.ID
	}
	return out
}

func ptr[T any](v T) *T { return &v }

var pair = []models.Listing{
	{ID: "1", Price: 500000, Bedrooms: 2, Bathrooms: 1, CreatedAt: 100, Lat: 34.01, Lng: -118.80},
	{ID: "2", Price: 700000, Bedrooms: 3, Bathrooms: 2, CreatedAt: 200, Lat: 34.10, Lng: -118.60},
}

// polygon around listing 1 only
var aroundFirst = models.Polygon{
	{Lat: 34.00, Lng: -118.81},
	{Lat: 34.00, Lng: -118.79},
	{Lat: 34.02, Lng: -118.79},
	{Lat: 34.02, Lng: -118.81},
}

func loaded(listings []models.Listing) State {
	return NewState().WithSnapshot(listings, 1)
}

func TestNewStateDefaults(t *testing.T) {
	s := NewState()
	assert.Equal(t, models.DefaultFilterState(), s.Filter())
	assert.Equal(t, models.SortNewest, s.Sort())
	assert.Equal(t, models.DefaultViewport(), s.Viewport())
	assert.Nil(t, s.Polygon())
	assert.False(t, s.Loaded())
	assert.Empty(t, s.Visible())
}

func TestScenarioMinPriceNewest(t *testing.T) {
	s := loaded(pair).PatchFilter(models.FilterPatch{
		MinPrice: ptr(600000.0),
		MaxPrice: ptr(999999999.0),
	})
	assert.Nil(t, s.Filter().MaxPrice)
	assert.Equal(t, []string{"2"}, ids(s.Visible()))
}

func TestScenarioDefaultsPriceAsc(t *testing.T) {
	s := loaded(pair).WithSort(models.SortPriceAsc)
	assert.Equal(t, []string{"1", "2"}, ids(s.Visible()))
}

func TestScenarioGeofenceAfterFilter(t *testing.T) {
	s := loaded(pair).WithSort(models.SortPriceAsc).WithPolygon(aroundFirst)
	assert.Equal(t, []string{"1"}, ids(s.Visible()))
}

func TestScenarioSelectAndClose(t *testing.T) {
	s, err := loaded(pair).Select("2")
	require.NoError(t, err)

	sel, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, "2", sel.ID)
	want := models.Viewport{Center: models.LatLng{Lat: 34.10, Lng: -118.60}, Zoom: models.DetailZoom}
	assert.Equal(t, want, s.Viewport())

	s = s.ClearSelection()
	_, ok = s.Selected()
	assert.False(t, ok)
	assert.Equal(t, want, s.Viewport())
}

func TestSelectUnknownListing(t *testing.T) {
	before := loaded(pair)
	after, err := before.Select("nope")
	assert.ErrorIs(t, err, ErrListingNotFound)
	assert.Equal(t, before.Viewport(), after.Viewport())
}

func TestPipelineComposesFilterGeofenceSort(t *testing.T) {
	all := []models.Listing{
		{ID: "rent", ForRent: true, Price: 100, Lat: 34.01, Lng: -118.80},
		{ID: "a", Price: 300, Lat: 34.01, Lng: -118.80},
		{ID: "far", Price: 300, Lat: 40, Lng: -100},
		{ID: "b", Price: 300, Lat: 34.015, Lng: -118.80},
		{ID: "c", Price: 200, Lat: 34.012, Lng: -118.80},
	}
	f := models.DefaultFilterState()

	got := Pipeline(all, f, aroundFirst, models.SortPriceDesc)
	want := sorting.Sort(geofence.Apply(filter.Apply(all, f), aroundFirst), models.SortPriceDesc)
	assert.Equal(t, want, got)
	// a and b tie on price and keep snapshot order after narrowing
	assert.Equal(t, []string{"a", "b", "c"}, ids(got))
}

func TestTransitionsDoNotMutateReceiver(t *testing.T) {
	base := loaded(pair)
	_ = base.WithPolygon(aroundFirst)
	_ = base.WithSort(models.SortPriceAsc)
	_ = base.PatchFilter(models.FilterPatch{Beds: ptr(3)})

	assert.Nil(t, base.Polygon())
	assert.Equal(t, models.SortNewest, base.Sort())
	assert.Equal(t, []string{"2", "1"}, ids(base.Visible()))
}

func TestPolygonReplacedAtomically(t *testing.T) {
	aroundSecond := models.Polygon{
		{Lat: 34.09, Lng: -118.61},
		{Lat: 34.09, Lng: -118.59},
		{Lat: 34.11, Lng: -118.59},
		{Lat: 34.11, Lng: -118.61},
	}
	s := loaded(pair).WithPolygon(aroundFirst)
	assert.Equal(t, []string{"1"}, ids(s.Visible()))

	s = s.WithPolygon(aroundSecond)
	assert.Equal(t, []string{"2"}, ids(s.Visible()))
	assert.Equal(t, aroundSecond, s.Polygon())
}

func TestDegeneratePolygonClears(t *testing.T) {
	s := loaded(pair).WithPolygon(aroundFirst).WithPolygon(aroundFirst[:2])
	assert.Nil(t, s.Polygon())
	assert.Len(t, s.Visible(), 2)

	s = loaded(pair).WithPolygon(aroundFirst).ClearPolygon()
	assert.Len(t, s.Visible(), 2)
}

func TestPolygonIsCopied(t *testing.T) {
	poly := models.Polygon{{Lat: 34.00, Lng: -118.81}, {Lat: 34.00, Lng: -118.79}, {Lat: 34.02, Lng: -118.79}}
	s := loaded(pair).WithPolygon(poly)
	poly[0] = models.LatLng{Lat: 80, Lng: 80}
	assert.Equal(t, 34.00, s.Polygon()[0].Lat)
}

func TestSelectPlaceMovesCenterOnly(t *testing.T) {
	s := loaded(pair).PatchFilter(models.FilterPatch{Beds: ptr(3)})
	before := s.Visible()

	p := models.LatLng{Lat: 40.7, Lng: -74}
	s = s.SelectPlace(p)
	assert.Equal(t, p, s.Viewport().Center)
	assert.Equal(t, models.DefaultZoom, s.Viewport().Zoom)
	assert.Equal(t, before, s.Visible())
	_, ok := s.Selected()
	assert.False(t, ok)
}

func TestResetFilter(t *testing.T) {
	s := loaded(pair).PatchFilter(models.FilterPatch{ForRent: ptr(true), Beds: ptr(4)})
	assert.Empty(t, s.Visible())

	s = s.ResetFilter()
	assert.Equal(t, models.DefaultFilterState(), s.Filter())
	assert.Len(t, s.Visible(), 2)
}

func TestSnapshotReplacesBaseline(t *testing.T) {
	s := loaded(pair)
	next := append([]models.Listing{{ID: "3", Price: 1, CreatedAt: 300}}, pair...)
	s = s.WithSnapshot(next, 2)
	assert.Equal(t, []string{"3", "2", "1"}, ids(s.Visible()))
	assert.Equal(t, 3, s.Total())
}

func TestStaleSnapshotIgnored(t *testing.T) {
	s := NewState().WithSnapshot(pair, 5)
	s = s.WithSnapshot(pair[:1], 4)
	assert.Equal(t, uint64(5), s.Version())
	assert.Len(t, s.Visible(), 2)
}

func TestSnapshotRefreshesSelection(t *testing.T) {
	s, err := loaded(pair).Select("1")
	require.NoError(t, err)

	changed := []models.Listing{pair[0], pair[1]}
	changed[0].Price = 450000
	s = s.WithSnapshot(changed, 2)
	sel, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, 450000.0, sel.Price)

	s = s.WithSnapshot(pair[1:], 3)
	_, ok = s.Selected()
	assert.False(t, ok)
}
