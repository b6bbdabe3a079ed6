// Package api wires the HTTP surface: routing, CORS and middleware.
package api

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ckarsten/watchdeck/api/handler"
	"github.com/ckarsten/watchdeck/api/middleware"
	"github.com/ckarsten/watchdeck/catalog"
	"github.com/ckarsten/watchdeck/config"
	"github.com/ckarsten/watchdeck/store"
)

// corsMiddleware returns a gin-contrib/cors middleware configured with the
// allowed origins derived from ExternalURL plus CORSOrigins.
func corsMiddleware(cfg config.Config) gin.HandlerFunc {
	allowed := buildAllowedOrigins(cfg.ExternalURL)
	for _, o := range cfg.CORSOrigins {
		allowed[strings.ToLower(o)] = true
	}

	return cors.New(cors.Config{
		AllowOriginWithContextFunc: func(_ *gin.Context, origin string) bool {
			return allowed[strings.ToLower(origin)]
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	})
}

// NewRouter builds the HTTP handler and returns it together with a stop
// function that cleans up background middleware goroutines.
func NewRouter(db *store.Store, cat *catalog.Client, cfg config.Config) (http.Handler, func()) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), corsMiddleware(cfg))

	checkMW, onMiss, onMatch, stopLimiter := middleware.AdminCheckRateLimiter(cfg)

	watchlistH := handler.NewWatchlistHandler(db)
	catalogH := handler.NewCatalogHandler(cat)
	authH := handler.NewAuthHandler(cfg, onMiss, onMatch)
	systemH := handler.NewSystemHandler(db)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/watchlist", watchlistH.List)
		apiGroup.POST("/watchlist", watchlistH.Create)
		apiGroup.PUT("/watchlist/:id", watchlistH.Update)
		apiGroup.DELETE("/watchlist/:id", watchlistH.Delete)

		apiGroup.GET("/search", catalogH.Search)
		apiGroup.GET("/details", catalogH.Details)

		apiGroup.POST("/auth/check-admin", checkMW, authH.CheckAdmin)
	}

	// Health probes — unauthenticated, for container orchestrators.
	r.GET("/health", systemH.HealthLive)
	r.GET("/ready", systemH.HealthReady)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
	})

	return r, stopLimiter
}

// buildAllowedOrigins returns a set of lower-cased origin strings allowed to
// make credentialed cross-origin requests, derived from ExternalURL. Both
// schemes of the host are included so http and https work during development.
func buildAllowedOrigins(externalURL string) map[string]bool {
	origins := make(map[string]bool)
	if externalURL == "" {
		return origins
	}
	parsed, err := url.Parse(externalURL)
	if err != nil {
		origins[strings.ToLower(externalURL)] = true
		return origins
	}
	host := strings.ToLower(parsed.Host)
	origins[strings.ToLower(parsed.Scheme)+"://"+host] = true
	switch parsed.Scheme {
	case "https":
		origins["http://"+host] = true
	case "http":
		origins["https://"+host] = true
	}
	return origins
}
