package search

import (
	"fmt"
	"log"
	"strings"

	"listing-browser/internal/models"
	"listing-browser/internal/store"

	"github.com/meilisearch/meilisearch-go"
)

// PlaceDocument is what the index stores per listing
type PlaceDocument struct {
	ID      string  `json:"id"`
	Address string  `json:"address"`
	Title   string  `json:"title"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// PlaceIndex is a Meilisearch index of listing addresses, used for place
// search before falling back to the geocoder.
type PlaceIndex struct {
	client *meilisearch.Client
	index  string
}

func NewPlaceIndex(host, apiKey, index string) *PlaceIndex {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})
	if index == "" {
		index = "listing_places"
	}

	return &PlaceIndex{
		client: client,
		index:  index,
	}
}

// InitIndex initializes the Meilisearch index
func (s *PlaceIndex) InitIndex() error {
	// Create index if it doesn't exist
	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	})
	// Ignore error if index already exists
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return err
	}

	_, err = s.client.Index(s.index).UpdateSearchableAttributes(&[]string{
		"address",
		"title",
	})
	return err
}

// Healthy reports whether the Meilisearch server answers
func (s *PlaceIndex) Healthy() bool {
	return s.client.IsHealthy()
}

// Documents builds index documents for the listings that carry an address
func Documents(listings []models.Listing) []PlaceDocument {
	docs := make([]PlaceDocument, 0, len(listings))
	for _, l := range listings {
		addr := strings.TrimSpace(l.Address)
		if addr == "" {
			continue
		}
		docs = append(docs, PlaceDocument{ID: l.ID, Address: addr, Title: l.Title, Lat: l.Lat, Lng: l.Lng})
	}
	return docs
}

// IndexListings upserts the listings that have an address
func (s *PlaceIndex) IndexListings(listings []models.Listing) error {
	docs := Documents(listings)
	if len(docs) == 0 {
		return nil
	}
	_, err := s.client.Index(s.index).AddDocuments(docs, "id")
	return err
}

// IndexSnapshot upserts what changed in a snapshot. Meant to be passed to
// store.Subscribe.
func (s *PlaceIndex) IndexSnapshot(snap store.Snapshot) {
	changed := make(map[string]bool, len(snap.Changes.Added)+len(snap.Changes.Updated))
	for _, id := range snap.Changes.Added {
		changed[id] = true
	}
	for _, id := range snap.Changes.Updated {
		changed[id] = true
	}
	if len(changed) == 0 {
		return
	}
	var listings []models.Listing
	for _, l := range snap.Listings {
		if changed[l.ID] {
			listings = append(listings, l)
		}
	}
	if err := s.IndexListings(listings); err != nil {
		log.Printf("Search: indexing snapshot v%d failed: %v", snap.Version, err)
	}
}

// Search returns places whose address matches query
func (s *PlaceIndex) Search(query string, limit int64) ([]models.Place, error) {
	if limit <= 0 {
		limit = 5
	}
	res, err := s.client.Index(s.index).Search(query, &meilisearch.SearchRequest{
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("meilisearch search: %w", err)
	}

	places := make([]models.Place, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if p, ok := parsePlaceFromHit(hit); ok {
			places = append(places, p)
		}
	}
	return places, nil
}

// parsePlaceFromHit converts a search hit to a Place
func parsePlaceFromHit(hit interface{}) (models.Place, bool) {
	hitMap, ok := hit.(map[string]interface{})
	if !ok {
		return models.Place{}, false
	}
	lat, latOK := hitMap["lat"].(float64)
	lng, lngOK := hitMap["lng"].(float64)
	if !latOK || !lngOK {
		return models.Place{}, false
	}
	return models.Place{
		Lat:              lat,
		Lng:              lng,
		FormattedAddress: getString(hitMap, "address"),
	}, true
}

// getString safely extracts a string from map
func getString(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}
