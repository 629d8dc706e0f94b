package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"listing-browser/internal/geocode"
	"listing-browser/internal/models"
	"listing-browser/internal/store"

	"github.com/gin-gonic/gin"
)

// ListingStore is the store surface the HTTP layer uses
type ListingStore interface {
	Latest() (store.Snapshot, bool)
	Loading() bool
	LastError() error
	Find(id string) (models.Listing, bool)
	Create(ctx context.Context, in models.ListingInput) (models.Listing, error)
	Update(ctx context.Context, id string, patch models.ListingPatch) error
	Refresh(ctx context.Context) error
}

const saveFailedMessage = "Failed to save listing. Please try again."

// ListingHandler handles listing reads and writes
type ListingHandler struct {
	store    ListingStore
	resolver *geocode.Resolver
}

// NewListingHandler creates a new listing handler. resolver may be nil.
func NewListingHandler(s ListingStore, resolver *geocode.Resolver) *ListingHandler {
	return &ListingHandler{store: s, resolver: resolver}
}

// List returns the latest snapshot in store order
func (h *ListingHandler) List(c *gin.Context) {
	snap, _ := h.store.Latest()
	listings := snap.Listings
	if listings == nil {
		listings = []models.Listing{}
	}
	resp := gin.H{
		"listings": listings,
		"count":    len(listings),
		"version":  snap.Version,
		"loading":  h.store.Loading(),
	}
	if err := h.store.LastError(); err != nil {
		resp["error"] = "Listings could not be refreshed; showing the last known results."
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ListingHandler) find(c *gin.Context) (models.Listing, bool) {
	if _, ok := h.store.Latest(); !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Listings are still loading"})
		return models.Listing{}, false
	}
	l, ok := h.store.Find(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return models.Listing{}, false
	}
	return l, true
}

// Get returns one listing from the latest snapshot
func (h *ListingHandler) Get(c *gin.Context) {
	if l, ok := h.find(c); ok {
		c.JSON(http.StatusOK, l)
	}
}

// Address returns the display address of a listing
func (h *ListingHandler) Address(c *gin.Context) {
	l, ok := h.find(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":      l.ID,
		"address": h.resolver.DisplayAddress(c.Request.Context(), l),
	})
}

// Create validates and stores a new listing
func (h *ListingHandler) Create(c *gin.Context) {
	var in models.ListingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	l, err := h.store.Create(c.Request.Context(), in)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

// Update applies a partial edit to a listing
func (h *ListingHandler) Update(c *gin.Context) {
	var patch models.ListingPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	id := c.Param("id")
	if err := h.store.Update(c.Request.Context(), id, patch); err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": "updated"})
}

// writeStoreError maps write errors to responses. The form is expected to
// keep its input so the user can resubmit.
func writeStoreError(c *gin.Context, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
	default:
		log.Printf("Handlers: listing write failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": saveFailedMessage})
	}
}
