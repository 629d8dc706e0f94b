// Package filter evaluates listings against the user's FilterState.
package filter

import "listing-browser/internal/models"

// Matches reports whether a listing passes every rule of the filter state.
// It is pure and total. Numeric fields the store never sent arrive here as 0
// (see models.ListingFromDocument), so a listing missing bedrooms fails any
// beds >= 1 threshold.
func Matches(l models.Listing, f models.FilterState) bool {
	// Exact match: browsing for sale never shows rentals and vice versa
	if l.ForRent != f.ForRent {
		return false
	}
	// Bounds must hold, so a NaN price never passes a price rule
	if !(l.Price >= f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && !(l.Price <= *f.MaxPrice) {
		return false
	}
	if f.PropertyType != "" && l.PropertyType != f.PropertyType {
		return false
	}
	if l.Bedrooms < f.Beds {
		return false
	}
	if l.Bathrooms < f.Baths {
		return false
	}
	return true
}

// Apply returns the listings that match, preserving input order. The input is
// never modified.
func Apply(listings []models.Listing, f models.FilterState) []models.Listing {
	out := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if Matches(l, f) {
			out = append(out, l)
		}
	}
	return out
}
