package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"listing-browser/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
listings:
  - title: Ocean view condo
    description: Two blocks from the beach
    price: 3200
    bedrooms: 2
    bathrooms: 2
    squareFeet: 1100
    propertyType: Condo
    forRent: true
    lat: 34.0195
    lng: -118.4912
    imageUrl: https://example.com/condo.jpg
  - title: ""
    description: missing title
    price: 100
    bedrooms: 1
    bathrooms: 1
    squareFeet: 10
    lat: 0
    lng: 0
    imageUrl: https://example.com/x.jpg
`

func writeSeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o644))
	return path
}

func TestLoadSeed(t *testing.T) {
	inputs, err := loadSeed(writeSeed(t))
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	assert.Equal(t, "Ocean view condo", inputs[0].Title)
	assert.Equal(t, 1100.0, inputs[0].SquareFeet)
	assert.True(t, inputs[0].ForRent)
}

func TestLoadSeedMissingFile(t *testing.T) {
	_, err := loadSeed(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSeedSkipsInvalidEntries(t *testing.T) {
	inputs, err := loadSeed(writeSeed(t))
	require.NoError(t, err)

	repo := store.NewMemoryRepository()
	s := store.New(repo, nil)
	created, skipped, err := seed(context.Background(), s, inputs)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, skipped)

	all, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSeedStopsOnStoreFailure(t *testing.T) {
	inputs, err := loadSeed(writeSeed(t))
	require.NoError(t, err)

	repo := store.NewMemoryRepository()
	repo.FailWith(errors.New("disk full"))
	_, _, err = seed(context.Background(), store.New(repo, nil), inputs)
	assert.ErrorContains(t, err, "entry 1")
}

func TestImportKeepsIDsAndCreatedAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"b2": {"title":"Loft","description":"d","price":"2500","bedrooms":1,"bathrooms":1,
			"squareFeet":600,"forRent":true,"lat":34.1,"lng":-118.3,"imageUrl":"https://x/l.jpg","createdAt":1700000000000},
		"a1": {"title":"No image","description":"d","price":10,"bedrooms":1,"bathrooms":1,"squareFeet":1}
	}`), 0o644))

	listings, err := loadExport(path)
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, "a1", listings[0].ID)

	repo := store.NewMemoryRepository()
	imported, skipped, err := importListings(context.Background(), repo, listings)
	require.NoError(t, err)
	assert.Equal(t, 1, imported)
	assert.Equal(t, 1, skipped)

	l, err := repo.Get(context.Background(), "b2")
	require.NoError(t, err)
	assert.Equal(t, 2500.0, l.Price)
	assert.Equal(t, int64(1700000000000), l.CreatedAt)
}

func TestNonFiniteNumbersNeverReachTheRepository(t *testing.T) {
	dir := t.TempDir()
	exportPath := filepath.Join(dir, "export.json")
	require.NoError(t, os.WriteFile(exportPath, []byte(`{
		"n1": {"title":"Odd","description":"d","price":"NaN","bedrooms":1,"bathrooms":1,
			"squareFeet":600,"lat":"NaN","lng":-118.3,"imageUrl":"https://x/n.jpg"}
	}`), 0o644))
	listings, err := loadExport(exportPath)
	require.NoError(t, err)

	repo := store.NewMemoryRepository()
	imported, skipped, err := importListings(context.Background(), repo, listings)
	require.NoError(t, err)
	assert.Zero(t, imported)
	assert.Equal(t, 1, skipped)

	seedPath := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte(`
listings:
  - title: Odd
    description: d
    price: .nan
    bedrooms: 1
    bathrooms: 1
    squareFeet: 600
    lat: .nan
    lng: -118.3
    imageUrl: https://x/n.jpg
`), 0o644))
	inputs, err := loadSeed(seedPath)
	require.NoError(t, err)
	created, skipped, err := seed(context.Background(), store.New(repo, nil), inputs)
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Equal(t, 1, skipped)

	all, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}
