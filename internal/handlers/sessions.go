package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"listing-browser/internal/browse"
	"listing-browser/internal/models"

	"github.com/gin-gonic/gin"
)

// SessionHandler exposes browsing sessions: filter, sort, geofence,
// selection and viewport changes.
type SessionHandler struct {
	sessions  *browse.Sessions
	heartbeat time.Duration
}

func NewSessionHandler(sessions *browse.Sessions) *SessionHandler {
	return &SessionHandler{sessions: sessions, heartbeat: 25 * time.Second}
}

func (h *SessionHandler) session(c *gin.Context) (*browse.Coordinator, bool) {
	coord, err := h.sessions.Get(c.Param("id"))
	if errors.Is(err, browse.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return nil, false
	}
	return coord, true
}

func (h *SessionHandler) Create(c *gin.Context) {
	coord := h.sessions.Create()
	c.JSON(http.StatusCreated, coord.View())
}

func (h *SessionHandler) Get(c *gin.Context) {
	if coord, ok := h.session(c); ok {
		c.JSON(http.StatusOK, coord.View())
	}
}

func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.sessions.Close(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// SetFilter merges the fields present in the body into the filter
func (h *SessionHandler) SetFilter(c *gin.Context) {
	coord, ok := h.session(c)
	if !ok {
		return
	}
	var patch models.FilterPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if msg := checkFilterPatch(patch); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, coord.PatchFilter(patch))
}

func checkFilterPatch(p models.FilterPatch) string {
	switch {
	case p.MinPrice != nil && *p.MinPrice < 0:
		return "minPrice must not be negative"
	case p.MaxPrice != nil && *p.MaxPrice < 0:
		return "maxPrice must not be negative"
	case p.Beds != nil && *p.Beds < 0:
		return "beds must not be negative"
	case p.Baths != nil && *p.Baths < 0:
		return "baths must not be negative"
	}
	return ""
}

func (h *SessionHandler) ResetFilter(c *gin.Context) {
	if coord, ok := h.session(c); ok {
		c.JSON(http.StatusOK, coord.ResetFilter())
	}
}

func (h *SessionHandler) SetSort(c *gin.Context) {
	coord, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		Sort string `json:"sort"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	opt, err := models.ParseSortOption(req.Sort)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, coord.SetSort(opt))
}

// SetPolygon replaces the geofence. Fewer than three vertices clears it.
func (h *SessionHandler) SetPolygon(c *gin.Context) {
	coord, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		Vertices []models.LatLng `json:"vertices"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	for _, v := range req.Vertices {
		if !v.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Polygon vertex out of range"})
			return
		}
	}
	c.JSON(http.StatusOK, coord.DrawPolygon(req.Vertices))
}

func (h *SessionHandler) ClearPolygon(c *gin.Context) {
	if coord, ok := h.session(c); ok {
		c.JSON(http.StatusOK, coord.ClearPolygon())
	}
}

func (h *SessionHandler) Select(c *gin.Context) {
	coord, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		ID string `json:"id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}
	view, err := coord.Select(req.ID)
	if errors.Is(err, browse.ErrListingNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *SessionHandler) ClearSelection(c *gin.Context) {
	if coord, ok := h.session(c); ok {
		c.JSON(http.StatusOK, coord.ClearSelection())
	}
}

// SelectPlace recenters the map on a place-search result
func (h *SessionHandler) SelectPlace(c *gin.Context) {
	coord, ok := h.session(c)
	if !ok {
		return
	}
	var place models.Place
	if err := c.ShouldBindJSON(&place); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	p := models.LatLng{Lat: place.Lat, Lng: place.Lng}
	if !p.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Place coordinate out of range"})
		return
	}
	c.JSON(http.StatusOK, coord.SelectPlace(p))
}

// Events streams the session view after every change as server-sent events
func (h *SessionHandler) Events(c *gin.Context) {
	coord, ok := h.session(c)
	if !ok {
		return
	}
	views, cancel := coord.Watch()
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case v, ok := <-views:
			if !ok {
				c.SSEvent("closed", gin.H{"sessionId": coord.ID()})
				return false
			}
			c.SSEvent("view", v)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
}
