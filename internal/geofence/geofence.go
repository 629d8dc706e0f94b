// Package geofence restricts listings to a user-drawn polygon.
//
// Coordinates are treated as planar (lng = x, lat = y); polygons crossing the
// antimeridian are not supported. The test is the even-odd crossing rule with
// half-open edges: a point exactly on a west or south edge of an axis-aligned
// polygon counts as inside, one on an east or north edge as outside. The
// result is deterministic for identical inputs.
package geofence

import "listing-browser/internal/models"

// Contains reports whether p lies inside poly. The polygon is implicitly
// closed; callers are expected to pass at least three vertices.
func Contains(poly models.Polygon, p models.LatLng) bool {
	inside := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Lat > p.Lat) != (b.Lat > p.Lat) {
			x := (b.Lng-a.Lng)*(p.Lat-a.Lat)/(b.Lat-a.Lat) + a.Lng
			if p.Lng < x {
				inside = !inside
			}
		}
	}
	return inside
}

type bounds struct {
	minLat, maxLat, minLng, maxLng float64
}

func boundsOf(poly models.Polygon) bounds {
	b := bounds{minLat: poly[0].Lat, maxLat: poly[0].Lat, minLng: poly[0].Lng, maxLng: poly[0].Lng}
	for _, v := range poly[1:] {
		b.minLat = min(b.minLat, v.Lat)
		b.maxLat = max(b.maxLat, v.Lat)
		b.minLng = min(b.minLng, v.Lng)
		b.maxLng = max(b.maxLng, v.Lng)
	}
	return b
}

func (b bounds) excludes(p models.LatLng) bool {
	return p.Lat < b.minLat || p.Lat > b.maxLat || p.Lng < b.minLng || p.Lng > b.maxLng
}

// Apply keeps the listings whose coordinate lies inside poly, in input order.
// An absent or degenerate polygon (< 3 vertices) means no geofence is active
// and the input is returned as is.
func Apply(listings []models.Listing, poly models.Polygon) []models.Listing {
	if !poly.Active() {
		return listings
	}
	b := boundsOf(poly)
	out := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		p := l.Point()
		if b.excludes(p) {
			continue
		}
		if Contains(poly, p) {
			out = append(out, l)
		}
	}
	return out
}
