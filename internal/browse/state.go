// Package browse holds the view state of a browsing session and derives the
// visible listings from it.
package browse

import (
	"errors"
	"slices"
	"time"

	"listing-browser/internal/filter"
	"listing-browser/internal/geofence"
	"listing-browser/internal/metrics"
	"listing-browser/internal/models"
	"listing-browser/internal/sorting"
)

// ErrListingNotFound is returned when selecting an id that is not in the
// current snapshot.
var ErrListingNotFound = errors.New("listing not found")

// Pipeline derives the visible sequence: filter, then geofence, then sort.
// The order is fixed; sorting after narrowing keeps ties in the store's order.
func Pipeline(all []models.Listing, f models.FilterState, poly models.Polygon, opt models.SortOption) []models.Listing {
	return sorting.Sort(geofence.Apply(filter.Apply(all, f), poly), opt)
}

// State is the whole view state of one session. It is a value: every
// transition returns a new State and leaves the receiver untouched.
type State struct {
	listings []models.Listing
	version  uint64
	loaded   bool

	filter   models.FilterState
	sort     models.SortOption
	polygon  models.Polygon
	viewport models.Viewport
	selected *models.Listing

	visible []models.Listing
}

// NewState returns the state a new session starts in
func NewState() State {
	s := State{
		filter:   models.DefaultFilterState(),
		sort:     models.DefaultSortOption,
		viewport: models.DefaultViewport(),
	}
	return s.recompute()
}

func (s State) recompute() State {
	start := time.Now()
	s.visible = Pipeline(s.listings, s.filter, s.polygon, s.sort)
	metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	return s
}

// WithSnapshot replaces the listing baseline. Snapshots older than the one
// already applied are ignored. A selected listing is refreshed from the new
// snapshot, or dropped when it no longer exists.
func (s State) WithSnapshot(listings []models.Listing, version uint64) State {
	if s.loaded && version <= s.version {
		return s
	}
	s.listings = listings
	s.version = version
	s.loaded = true
	if s.selected != nil {
		if l, ok := find(listings, s.selected.ID); ok {
			s.selected = &l
		} else {
			s.selected = nil
		}
	}
	return s.recompute()
}

// WithFilter replaces the whole filter state
func (s State) WithFilter(f models.FilterState) State {
	if f.MaxPrice != nil {
		v := *f.MaxPrice
		f.MaxPrice = &v
	}
	s.filter = f
	return s.recompute()
}

// PatchFilter changes the filter fields a control touched
func (s State) PatchFilter(p models.FilterPatch) State {
	return s.WithFilter(p.Apply(s.filter))
}

// ResetFilter restores the default filter state
func (s State) ResetFilter() State {
	return s.WithFilter(models.DefaultFilterState())
}

// WithSort changes the ordering
func (s State) WithSort(opt models.SortOption) State {
	s.sort = opt
	return s.recompute()
}

// WithPolygon replaces any previous geofence in one step. A degenerate
// polygon is stored as no geofence.
func (s State) WithPolygon(poly models.Polygon) State {
	if !poly.Active() {
		return s.ClearPolygon()
	}
	s.polygon = slices.Clone(poly)
	return s.recompute()
}

// ClearPolygon removes the geofence
func (s State) ClearPolygon() State {
	s.polygon = nil
	return s.recompute()
}

// Select highlights a listing and recenters the map on it at DetailZoom
func (s State) Select(id string) (State, error) {
	l, ok := find(s.listings, id)
	if !ok {
		return s, ErrListingNotFound
	}
	s.selected = &l
	s.viewport = models.Viewport{Center: l.Point(), Zoom: models.DetailZoom}
	return s, nil
}

// ClearSelection closes the detail view. The viewport stays where it is.
func (s State) ClearSelection() State {
	s.selected = nil
	return s
}

// SelectPlace recenters the map on a searched place. It neither filters nor
// selects anything.
func (s State) SelectPlace(p models.LatLng) State {
	s.viewport.Center = p
	return s
}

func (s State) Filter() models.FilterState { return s.filter }
func (s State) Sort() models.SortOption    { return s.sort }
func (s State) Viewport() models.Viewport  { return s.viewport }
func (s State) Version() uint64            { return s.version }
func (s State) Loaded() bool               { return s.loaded }

// Polygon returns a copy of the active geofence, nil when none
func (s State) Polygon() models.Polygon { return slices.Clone(s.polygon) }

// Selected returns the selected listing, if any
func (s State) Selected() (models.Listing, bool) {
	if s.selected == nil {
		return models.Listing{}, false
	}
	return *s.selected, true
}

// Visible returns a copy of the derived visible sequence
func (s State) Visible() []models.Listing {
	return slices.Clone(s.visible)
}

// Total is the size of the current snapshot
func (s State) Total() int { return len(s.listings) }

func find(listings []models.Listing, id string) (models.Listing, bool) {
	for _, l := range listings {
		if l.ID == id {
			return l, true
		}
	}
	return models.Listing{}, false
}
