package snapshot

import (
	"testing"

	"listing-browser/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestDiff(t *testing.T) {
	prev := []models.Listing{
		{ID: "a", Title: "A", Price: 100},
		{ID: "b", Title: "B", Price: 200},
		{ID: "c", Title: "C", Price: 300},
	}
	next := []models.Listing{
		{ID: "d", Title: "D", Price: 400},
		{ID: "a", Title: "A", Price: 100},
		{ID: "b", Title: "B", Price: 250},
	}

	c := Diff(prev, next)
	assert.Equal(t, []string{"d"}, c.Added)
	assert.Equal(t, []string{"b"}, c.Updated)
	assert.Equal(t, []string{"c"}, c.Removed)
	assert.False(t, c.Empty())
	assert.Equal(t, "+1 ~1 -1", c.String())

	var price *Change
	for i := range c.Details {
		if c.Details[i].Field == "price" {
			price = &c.Details[i]
		}
	}
	if assert.NotNil(t, price) {
		assert.Equal(t, "b", price.ListingID)
		assert.Equal(t, "200.00", price.OldValue)
		assert.Equal(t, "250.00", price.NewValue)
	}
}

func TestDiffIdentical(t *testing.T) {
	l := []models.Listing{{ID: "a", Lat: 1, Lng: 2}}
	c := Diff(l, l)
	assert.True(t, c.Empty())
	assert.Empty(t, c.Details)
}

func TestDiffFromNothing(t *testing.T) {
	c := Diff(nil, []models.Listing{{ID: "a"}, {ID: "b"}})
	assert.Equal(t, []string{"a", "b"}, c.Added)
	assert.Empty(t, c.Removed)
}

func TestDetectChangesLocation(t *testing.T) {
	old := models.Listing{ID: "a", Lat: 1, Lng: 2}
	cur := models.Listing{ID: "a", Lat: 1, Lng: 3}
	changes := DetectChanges(old, cur)
	if assert.Len(t, changes, 1) {
		assert.Equal(t, "location", changes[0].Field)
		assert.Equal(t, "1, 2", changes[0].OldValue)
		assert.Equal(t, "1, 3", changes[0].NewValue)
	}
}
