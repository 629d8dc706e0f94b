package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"listing-browser/internal/models"
	"listing-browser/internal/places"

	"github.com/gin-gonic/gin"
)

// PlaceSearcher resolves free-text place queries
type PlaceSearcher interface {
	Search(ctx context.Context, query string) ([]models.Place, error)
}

// PlaceHandler handles place search for the map
type PlaceHandler struct {
	places PlaceSearcher
}

func NewPlaceHandler(p PlaceSearcher) *PlaceHandler {
	return &PlaceHandler{places: p}
}

// Search handles GET /api/places?q=
func (h *PlaceHandler) Search(c *gin.Context) {
	results, err := h.places.Search(c.Request.Context(), c.Query("q"))
	switch {
	case errors.Is(err, places.ErrEmptyQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'q' is required"})
		return
	case err != nil:
		log.Printf("Handlers: place search failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Place search is unavailable right now"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"places": results,
		"count":  len(results),
	})
}
