package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ckarsten/watchdeck/catalog"
	"github.com/ckarsten/watchdeck/models"
)

// CatalogHandler serves the search and details proxies over the external
// metadata provider.
type CatalogHandler struct {
	catalog *catalog.Client
}

func NewCatalogHandler(c *catalog.Client) *CatalogHandler {
	return &CatalogHandler{catalog: c}
}

// Search handles GET /api/search?q=. Returns {results: [...]} capped at ten
// combined movie and TV hits.
func (h *CatalogHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter is required"})
		return
	}

	results, err := h.catalog.Search(c.Request.Context(), query)
	if errors.Is(err, catalog.ErrNotConfigured) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Catalog API key not configured"})
		return
	}
	if err != nil {
		slog.Error("catalog search", "error", err, "query", query)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to search movies/shows"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// Details handles GET /api/details?externalId=&mediaType=. The response is a
// single denormalized detail object used for read-only display.
func (h *CatalogHandler) Details(c *gin.Context) {
	rawID := c.Query("externalId")
	mediaType := models.MediaType(c.Query("mediaType"))
	if rawID == "" || mediaType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "externalId and mediaType parameters are required"})
		return
	}
	externalID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "externalId must be an integer"})
		return
	}
	if !mediaType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": `mediaType must be either "movie" or "tv"`})
		return
	}

	detail, err := h.catalog.Details(c.Request.Context(), externalID, mediaType)
	if errors.Is(err, catalog.ErrNotConfigured) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Catalog API key not configured"})
		return
	}
	if err != nil {
		slog.Error("catalog details", "error", err, "external_id", externalID, "media_type", mediaType)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch details"})
		return
	}
	c.JSON(http.StatusOK, detail)
}
