package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ckarsten/watchdeck/store"
)

// SystemHandler serves unauthenticated health probes for container
// orchestrators.
type SystemHandler struct {
	store *store.Store
}

func NewSystemHandler(s *store.Store) *SystemHandler {
	return &SystemHandler{store: s}
}

// HealthLive handles GET /health — process is up.
func (h *SystemHandler) HealthLive(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HealthReady handles GET /ready — process is up and the database answers.
func (h *SystemHandler) HealthReady(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
