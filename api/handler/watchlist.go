package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ckarsten/watchdeck/models"
	"github.com/ckarsten/watchdeck/store"
)

// WatchlistHandler serves the persisted watchlist CRUD endpoints.
type WatchlistHandler struct {
	store *store.Store
}

func NewWatchlistHandler(s *store.Store) *WatchlistHandler {
	return &WatchlistHandler{store: s}
}

// List handles GET /api/watchlist. Returns {items: [...]} ordered by date
// added, newest first. Date fields serialize as ISO-8601 strings.
func (h *WatchlistHandler) List(c *gin.Context) {
	items, err := h.store.List(c.Request.Context())
	if err != nil {
		slog.Error("listing watchlist", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch watchlist"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type createEntryRequest struct {
	ExternalMediaID int64      `json:"externalMediaId" binding:"required"`
	MediaType       string     `json:"mediaType"       binding:"required"`
	Title           string     `json:"title"           binding:"required"`
	Overview        string     `json:"overview"`
	PosterURL       string     `json:"posterUrl"`
	ReleaseDate     string     `json:"releaseDate"`
	Rating          float64    `json:"rating"`
	Watched         bool       `json:"watched"`
	Favorite        bool       `json:"favorite"`
	DateWatched     *time.Time `json:"dateWatched"`
	UserRating      *float64   `json:"userRating"`
	Priority        *int       `json:"priority"`
	RecommendedBy   *string    `json:"recommendedBy"`
}

// Create handles POST /api/watchlist. A duplicate (externalMediaId, mediaType)
// pair yields 409 with the existing item so the client can tell the user the
// title is already listed.
func (h *WatchlistHandler) Create(c *gin.Context) {
	var req createEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields: externalMediaId, mediaType, title"})
		return
	}
	mediaType := models.MediaType(req.MediaType)
	if !mediaType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": `mediaType must be either "movie" or "tv"`})
		return
	}
	if req.Priority != nil && (*req.Priority < models.PriorityLow || *req.Priority > models.PriorityHigh) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "priority must be 0 (low), 1 (medium) or 2 (high)"})
		return
	}

	if req.RecommendedBy != nil {
		rb := strings.TrimSpace(*req.RecommendedBy)
		if rb == "" {
			req.RecommendedBy = nil
		} else {
			// A visitor recommendation always arrives unwatched.
			req.RecommendedBy = &rb
			req.Watched = false
			req.Favorite = false
			req.DateWatched = nil
			req.UserRating = nil
		}
	}

	entry := models.Entry{
		ExternalMediaID: req.ExternalMediaID,
		MediaType:       mediaType,
		Title:           req.Title,
		Overview:        req.Overview,
		PosterURL:       req.PosterURL,
		ReleaseDate:     req.ReleaseDate,
		Rating:          req.Rating,
		Watched:         req.Watched,
		Favorite:        req.Favorite,
		DateWatched:     req.DateWatched,
		UserRating:      req.UserRating,
		Priority:        req.Priority,
		RecommendedBy:   req.RecommendedBy,
	}

	created, err := h.store.Create(c.Request.Context(), entry)
	if errors.Is(err, store.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Item already exists in watchlist",
			"item":  created,
		})
		return
	}
	if err != nil {
		slog.Error("creating watchlist entry", "error", err, "title", req.Title)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add item to watchlist"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "item": created})
}

// Update handles PUT /api/watchlist/:id with a partial body of mutable fields.
func (h *WatchlistHandler) Update(c *gin.Context) {
	id, ok := entryID(c)
	if !ok {
		return
	}

	var patch models.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	updated, err := h.store.Update(c.Request.Context(), id, patch)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}
	if err != nil {
		slog.Error("updating watchlist entry", "error", err, "id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update item"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "item": updated})
}

// Delete handles DELETE /api/watchlist/:id.
func (h *WatchlistHandler) Delete(c *gin.Context) {
	id, ok := entryID(c)
	if !ok {
		return
	}

	err := h.store.Delete(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}
	if err != nil {
		slog.Error("deleting watchlist entry", "error", err, "id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete item"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// entryID parses the :id route parameter, writing a 400 response on failure.
func entryID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID parameter"})
		return 0, false
	}
	return id, true
}
