package models

import "fmt"

// SortOption is the chosen ordering key and direction
type SortOption string

const (
	SortNewest     SortOption = "newest"
	SortOldest     SortOption = "oldest"
	SortPriceDesc  SortOption = "price_desc"
	SortPriceAsc   SortOption = "price_asc"
	SortSquareFeet SortOption = "square_feet"
)

// DefaultSortOption is used by new sessions
const DefaultSortOption = SortNewest

// SortOptions lists every supported option
var SortOptions = []SortOption{SortNewest, SortOldest, SortPriceDesc, SortPriceAsc, SortSquareFeet}

// ParseSortOption validates a sort parameter
func ParseSortOption(s string) (SortOption, error) {
	if s == "" {
		return DefaultSortOption, nil
	}
	for _, opt := range SortOptions {
		if string(opt) == s {
			return opt, nil
		}
	}
	return "", fmt.Errorf("unknown sort option %q", s)
}
