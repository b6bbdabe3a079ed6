package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ckarsten/watchdeck/config"
)

// AuthHandler resolves the admin flag for a client-supplied email address.
//
// The trust model here is intentionally weak and inherited from the product's
// design: the client submits an email and the server compares it against a
// configured value. The configured address itself is never exposed; the only
// hardening applied is per-IP rate limiting (see middleware.AdminCheckRateLimiter).
type AuthHandler struct {
	cfg     config.Config
	onMiss  func(ip string)
	onMatch func(ip string)
}

func NewAuthHandler(cfg config.Config, onMiss, onMatch func(string)) *AuthHandler {
	return &AuthHandler{cfg: cfg, onMiss: onMiss, onMatch: onMatch}
}

type checkAdminRequest struct {
	Email string `json:"email"`
}

// CheckAdmin handles POST /api/auth/check-admin.
func (h *AuthHandler) CheckAdmin(c *gin.Context) {
	var req checkAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"isAdmin": false})
		return
	}

	if h.cfg.AdminEmail == "" {
		slog.Warn("ADMIN_EMAIL is not set; all admin checks resolve to false")
		c.JSON(http.StatusOK, gin.H{"isAdmin": false, "error": "Admin email not configured"})
		return
	}

	isAdmin := req.Email == h.cfg.AdminEmail
	if isAdmin {
		h.onMatch(c.ClientIP())
	} else {
		h.onMiss(c.ClientIP())
	}
	c.JSON(http.StatusOK, gin.H{"isAdmin": isAdmin})
}
