package models

import (
	"fmt"
	"strconv"
)

// LegacyMaxPriceSentinel is the "no max" value older clients send for maxPrice.
// Anything at or above it is normalized to an absent upper bound.
const LegacyMaxPriceSentinel = 999999999

// FilterState is the set of user-chosen inclusion criteria
type FilterState struct {
	ForRent  bool    `json:"forRent"`
	MinPrice float64 `json:"minPrice"`
	// nil means no upper bound
	MaxPrice     *float64     `json:"maxPrice"`
	PropertyType PropertyType `json:"propertyType"`
	// 0 = any, otherwise "at least"
	Beds  int `json:"beds"`
	Baths int `json:"baths"`
}

// DefaultFilterState returns the state a browsing session starts with
func DefaultFilterState() FilterState {
	return FilterState{}
}

// FilterPatch carries a partial filter change from a control. Nil fields are kept.
type FilterPatch struct {
	ForRent      *bool         `json:"forRent,omitempty"`
	MinPrice     *float64      `json:"minPrice,omitempty"`
	MaxPrice     *float64      `json:"maxPrice,omitempty"`
	NoMaxPrice   bool          `json:"noMaxPrice,omitempty"`
	PropertyType *PropertyType `json:"propertyType,omitempty"`
	Beds         *int          `json:"beds,omitempty"`
	Baths        *int          `json:"baths,omitempty"`
}

// Apply returns f with the patch merged in
func (p FilterPatch) Apply(f FilterState) FilterState {
	if p.ForRent != nil {
		f.ForRent = *p.ForRent
	}
	if p.MinPrice != nil {
		f.MinPrice = *p.MinPrice
	}
	if p.NoMaxPrice {
		f.MaxPrice = nil
	} else if p.MaxPrice != nil {
		f.MaxPrice = NormalizeMaxPrice(*p.MaxPrice)
	}
	if p.PropertyType != nil {
		f.PropertyType = *p.PropertyType
	}
	if p.Beds != nil {
		f.Beds = *p.Beds
	}
	if p.Baths != nil {
		f.Baths = *p.Baths
	}
	return f
}

// NormalizeMaxPrice turns the legacy sentinel into an absent bound
func NormalizeMaxPrice(v float64) *float64 {
	if v >= LegacyMaxPriceSentinel {
		return nil
	}
	return &v
}

// PriceRangeLabel renders the price dropdown caption
func PriceRangeLabel(minPrice float64, maxPrice *float64) string {
	if minPrice <= 0 && maxPrice == nil {
		return "Any price"
	}
	minLabel := "No min"
	if minPrice > 0 {
		minLabel = "$" + formatNumber(minPrice)
	}
	maxLabel := "No max"
	if maxPrice != nil {
		maxLabel = "$" + formatNumber(*maxPrice)
	}
	return fmt.Sprintf("%s - %s", minLabel, maxLabel)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
