package models

import "strconv"

const (
	// DefaultZoom is the map zoom of a fresh session
	DefaultZoom = 12
	// DetailZoom is the zoom used when recentring on a selected listing
	DetailZoom = 15
)

// DefaultCenter is the initial map center (Malibu, CA)
var DefaultCenter = LatLng{Lat: 34.03356615, Lng: -118.7542039}

// LatLng is a geographic coordinate
type LatLng struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Valid reports whether the coordinate is finite and within range
func (p LatLng) Valid() bool {
	return finite(p.Lat) && finite(p.Lng) &&
		p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// String renders the raw coordinate pair shown when no address is known
func (p LatLng) String() string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + ", " + strconv.FormatFloat(p.Lng, 'f', -1, 64)
}

// Polygon is an ordered vertex sequence, implicitly closed
type Polygon []LatLng

// Active reports whether the polygon constrains anything. Fewer than three
// vertices means no geofence is active.
func (p Polygon) Active() bool {
	return len(p) >= 3
}

// Viewport is the map camera
type Viewport struct {
	Center LatLng `json:"center"`
	Zoom   int    `json:"zoom"`
}

// DefaultViewport returns the camera of a fresh session
func DefaultViewport() Viewport {
	return Viewport{Center: DefaultCenter, Zoom: DefaultZoom}
}

// Place is a place-search result
type Place struct {
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"formattedAddress"`
}
