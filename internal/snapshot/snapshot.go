// Package snapshot compares consecutive listing snapshots.
package snapshot

import (
	"fmt"

	"listing-browser/internal/models"
)

// ChangeType classifies a detected change
type ChangeType string

const (
	ChangeTypeNew     ChangeType = "new"
	ChangeTypeRemoved ChangeType = "removed"
	ChangeTypeField   ChangeType = "field"
)

// Change is one difference between two snapshots
type Change struct {
	ListingID string     `json:"listingId"`
	Type      ChangeType `json:"type"`
	Field     string     `json:"field,omitempty"`
	OldValue  string     `json:"oldValue,omitempty"`
	NewValue  string     `json:"newValue,omitempty"`
}

// Changes summarizes a snapshot transition
type Changes struct {
	Added   []string `json:"added"`
	Updated []string `json:"updated"`
	Removed []string `json:"removed"`
	Details []Change `json:"details,omitempty"`
}

// Empty reports whether nothing changed
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Updated) == 0 && len(c.Removed) == 0
}

func (c Changes) String() string {
	return fmt.Sprintf("+%d ~%d -%d", len(c.Added), len(c.Updated), len(c.Removed))
}

// Diff compares prev and next by listing id. Ids are reported in the order
// they appear in next (added, updated) or prev (removed).
func Diff(prev, next []models.Listing) Changes {
	c := Changes{Added: []string{}, Updated: []string{}, Removed: []string{}}

	before := make(map[string]models.Listing, len(prev))
	for _, l := range prev {
		before[l.ID] = l
	}
	seen := make(map[string]bool, len(next))

	for _, l := range next {
		seen[l.ID] = true
		old, ok := before[l.ID]
		if !ok {
			c.Added = append(c.Added, l.ID)
			c.Details = append(c.Details, Change{ListingID: l.ID, Type: ChangeTypeNew})
			continue
		}
		if fields := DetectChanges(old, l); len(fields) > 0 {
			c.Updated = append(c.Updated, l.ID)
			c.Details = append(c.Details, fields...)
		}
	}

	for _, l := range prev {
		if !seen[l.ID] {
			c.Removed = append(c.Removed, l.ID)
			c.Details = append(c.Details, Change{ListingID: l.ID, Type: ChangeTypeRemoved})
		}
	}
	return c
}

// DetectChanges lists the fields that differ between two versions of a listing
func DetectChanges(old, cur models.Listing) []Change {
	changes := []Change{}
	add := func(field, oldVal, newVal string) {
		if oldVal != newVal {
			changes = append(changes, Change{
				ListingID: cur.ID,
				Type:      ChangeTypeField,
				Field:     field,
				OldValue:  oldVal,
				NewValue:  newVal,
			})
		}
	}

	add("title", old.Title, cur.Title)
	add("description", old.Description, cur.Description)
	add("price", formatFloat(old.Price), formatFloat(cur.Price))
	add("bedrooms", fmt.Sprintf("%d", old.Bedrooms), fmt.Sprintf("%d", cur.Bedrooms))
	add("bathrooms", fmt.Sprintf("%d", old.Bathrooms), fmt.Sprintf("%d", cur.Bathrooms))
	add("squareFeet", formatFloat(old.SquareFeet), formatFloat(cur.SquareFeet))
	add("propertyType", string(old.PropertyType), string(cur.PropertyType))
	add("forRent", fmt.Sprintf("%t", old.ForRent), fmt.Sprintf("%t", cur.ForRent))
	add("location", old.Point().String(), cur.Point().String())
	add("imageUrl", old.ImageURL, cur.ImageURL)
	add("address", old.Address, cur.Address)

	return changes
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
