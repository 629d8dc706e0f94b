// Package places answers place-search queries for the map.
package places

import (
	"context"
	"errors"
	"log"
	"strings"

	"listing-browser/internal/geocode"
	"listing-browser/internal/models"
)

// ErrEmptyQuery is returned for a blank search
var ErrEmptyQuery = errors.New("empty place query")

// Index is a local place index searched before the geocoder
type Index interface {
	Search(query string, limit int64) ([]models.Place, error)
}

// Service looks places up in the index first, then asks the geocoder.
// Either may be nil.
type Service struct {
	Index    Index
	Geocoder geocode.Geocoder
	Limit    int
}

func (s *Service) limit() int {
	if s.Limit <= 0 {
		return 5
	}
	return s.Limit
}

// Search returns at most Limit places for query. Index failures are logged
// and the geocoder is tried instead.
func (s *Service) Search(ctx context.Context, query string) ([]models.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	if s.Index != nil {
		hits, err := s.Index.Search(query, int64(s.limit()))
		if err != nil {
			log.Printf("Places: index search for %q failed: %v", query, err)
		} else if len(hits) > 0 {
			return hits, nil
		}
	}

	if s.Geocoder == nil {
		return []models.Place{}, nil
	}
	found, err := s.Geocoder.Forward(ctx, query)
	if errors.Is(err, geocode.ErrNoResult) {
		return []models.Place{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(found) > s.limit() {
		found = found[:s.limit()]
	}
	return found, nil
}
