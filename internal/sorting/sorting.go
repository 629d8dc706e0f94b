// Package sorting orders listings for display.
package sorting

import (
	"cmp"
	"slices"

	"listing-browser/internal/models"
)

// Comparator returns the ordering for a sort option, or nil when the option is
// unknown.
func Comparator(opt models.SortOption) func(a, b models.Listing) int {
	switch opt {
	case models.SortNewest:
		return func(a, b models.Listing) int { return cmp.Compare(b.CreatedAt, a.CreatedAt) }
	case models.SortOldest:
		return func(a, b models.Listing) int { return cmp.Compare(a.CreatedAt, b.CreatedAt) }
	case models.SortPriceDesc:
		return func(a, b models.Listing) int { return cmp.Compare(b.Price, a.Price) }
	case models.SortPriceAsc:
		return func(a, b models.Listing) int { return cmp.Compare(a.Price, b.Price) }
	case models.SortSquareFeet:
		return func(a, b models.Listing) int { return cmp.Compare(b.SquareFeet, a.SquareFeet) }
	}
	return nil
}

// Sort returns a new, stably ordered slice; ties keep their input order. The
// input is never modified. An unknown option yields an unsorted copy.
func Sort(listings []models.Listing, opt models.SortOption) []models.Listing {
	out := slices.Clone(listings)
	if out == nil {
		out = []models.Listing{}
	}
	if cmpFn := Comparator(opt); cmpFn != nil {
		slices.SortStableFunc(out, cmpFn)
	}
	return out
}
