package filter

import (
	"math"
	"math/rand"
	"testing"

	"listing-browser/internal/models"

	"github.com/stretchr/testify/assert"
)

func priceRef(v float64) *float64 { return &v }

func TestMatchesRules(t *testing.T) {
	base := models.Listing{ID: "1", Price: 500000, Bedrooms: 2, Bathrooms: 1, PropertyType: models.PropertyTypeCondo}

	cases := []struct {
		name string
		f    models.FilterState
		want bool
	}{
		{"defaults", models.DefaultFilterState(), true},
		{"for rent excludes sale", models.FilterState{ForRent: true}, false},
		{"min price above", models.FilterState{MinPrice: 600000}, false},
		{"min price equal", models.FilterState{MinPrice: 500000}, true},
		{"max price below", models.FilterState{MaxPrice: priceRef(400000)}, false},
		{"max price equal", models.FilterState{MaxPrice: priceRef(500000)}, true},
		{"type mismatch", models.FilterState{PropertyType: models.PropertyTypeTownhome}, false},
		{"type match", models.FilterState{PropertyType: models.PropertyTypeCondo}, true},
		{"beds at least", models.FilterState{Beds: 2}, true},
		{"beds too many", models.FilterState{Beds: 3}, false},
		{"baths too many", models.FilterState{Baths: 2}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Matches(base, tc.f))
		})
	}
}

func TestZeroBedroomsOnlyPassAnyThreshold(t *testing.T) {
	studio := models.Listing{Bedrooms: 0, Bathrooms: 0}
	assert.True(t, Matches(studio, models.FilterState{}))
	assert.False(t, Matches(studio, models.FilterState{Beds: 1}))
	assert.False(t, Matches(studio, models.FilterState{Baths: 1}))
}

func TestNoUpperBoundKeepsExpensiveListings(t *testing.T) {
	mansion := models.Listing{Price: 2500000000}
	assert.True(t, Matches(mansion, models.DefaultFilterState()))
}

func TestNaNPriceFailsPriceBounds(t *testing.T) {
	odd := models.Listing{Price: math.NaN()}
	assert.False(t, Matches(odd, models.FilterState{MinPrice: 600000}))
	assert.False(t, Matches(odd, models.FilterState{MaxPrice: priceRef(100)}))
	assert.False(t, Matches(odd, models.DefaultFilterState()))
}

func randomListing(r *rand.Rand) models.Listing {
	types := append([]models.PropertyType{""}, models.KnownPropertyTypes...)
	return models.Listing{
		Price:        float64(r.Intn(2000000)),
		Bedrooms:     r.Intn(6),
		Bathrooms:    r.Intn(6),
		PropertyType: types[r.Intn(len(types))],
		ForRent:      r.Intn(2) == 0,
	}
}

func randomFilter(r *rand.Rand) models.FilterState {
	types := append([]models.PropertyType{""}, models.KnownPropertyTypes...)
	f := models.FilterState{
		ForRent:      r.Intn(2) == 0,
		MinPrice:     float64(r.Intn(1500000)),
		PropertyType: types[r.Intn(len(types))],
		Beds:         r.Intn(6),
		Baths:        r.Intn(6),
	}
	if r.Intn(2) == 0 {
		f.MaxPrice = priceRef(float64(r.Intn(2000000)))
	}
	return f
}

func TestMatchesAgainstReference(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 5000; i++ {
		l := randomListing(r)
		f := randomFilter(r)

		want := l.ForRent == f.ForRent &&
			l.Price >= f.MinPrice &&
			(f.MaxPrice == nil || l.Price <= *f.MaxPrice) &&
			(f.PropertyType == "" || l.PropertyType == f.PropertyType) &&
			l.Bedrooms >= f.Beds &&
			l.Bathrooms >= f.Baths

		if got := Matches(l, f); got != want {
			t.Fatalf("Matches(%+v, %+v) = %v, want %v", l, f, got, want)
		}
	}
}

func TestApplyIsIdempotentAndStable(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	listings := make([]models.Listing, 200)
	for i := range listings {
		listings[i] = randomListing(r)
		listings[i].ID = string(rune('a' + i%26))
	}
	f := models.FilterState{MinPrice: 300000, Beds: 1}

	once := Apply(listings, f)
	twice := Apply(once, f)
	assert.Equal(t, once, twice)

	// relative order is preserved
	pos := 0
	for _, l := range once {
		for pos < len(listings) && listings[pos] != l {
			pos++
		}
		assert.Less(t, pos, len(listings))
		pos++
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	in := []models.Listing{{ID: "1", ForRent: true}, {ID: "2"}}
	out := Apply(in, models.FilterState{})
	assert.Len(t, out, 1)
	assert.Equal(t, "1", in[0].ID)
	assert.Equal(t, "2", in[1].ID)
}
