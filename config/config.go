package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`
	// ExternalURL is the publicly reachable URL for this server, used to
	// derive the credentialed CORS origin.
	ExternalURL string `env:"EXTERNAL_URL" envDefault:"http://localhost:8080"`
	// DatabasePath is the SQLite database file. The parent directory is
	// created on startup if missing.
	DatabasePath string `env:"DATABASE_PATH" envDefault:"data/watchdeck.db"`
	// CatalogAPIKey is the TMDB API key used by the search and details proxies.
	// Search and details return errors when unset.
	CatalogAPIKey string `env:"TMDB_API_KEY"`
	// CatalogBaseURL is the TMDB API base URL. Overridable for tests.
	CatalogBaseURL string `env:"TMDB_BASE_URL" envDefault:"https://api.themoviedb.org/3"`
	// CatalogImageBaseURL is prepended to poster/backdrop/profile paths.
	CatalogImageBaseURL string `env:"TMDB_IMAGE_BASE_URL" envDefault:"https://image.tmdb.org/t/p/w500"`
	// AdminEmail is the single privileged account. The check-admin endpoint
	// compares the submitted email against this value and never exposes it.
	AdminEmail string `env:"ADMIN_EMAIL"`
	// SearchCacheTTL is how long proxied search results are cached.
	SearchCacheTTL time.Duration `env:"SEARCH_CACHE_TTL" envDefault:"60s"`
	// DetailsCacheTTL is how long proxied detail objects are cached. Title
	// metadata rarely changes, so this is much longer than the search TTL.
	DetailsCacheTTL time.Duration `env:"DETAILS_CACHE_TTL" envDefault:"6h"`
	// AdminCheckMaxAttempts is the number of admin-check requests allowed per
	// IP within AdminCheckWindow before the IP is temporarily blocked. Guards
	// against brute-forcing the admin email. Set to 0 to disable.
	AdminCheckMaxAttempts int `env:"ADMIN_CHECK_MAX_ATTEMPTS" envDefault:"20"`
	// AdminCheckWindow is the sliding window for counting admin-check requests.
	AdminCheckWindow time.Duration `env:"ADMIN_CHECK_WINDOW" envDefault:"15m"`
	// AdminCheckBanDuration is how long an IP is blocked after exceeding
	// AdminCheckMaxAttempts.
	AdminCheckBanDuration time.Duration `env:"ADMIN_CHECK_BAN_DURATION" envDefault:"15m"`
	// ShutdownTimeout is the maximum duration to wait for in-flight requests
	// to complete during graceful shutdown.
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	// CORSOrigins is an additional set of origins (comma-separated) that are
	// allowed to make credentialed cross-origin requests. The ExternalURL
	// origin is always included automatically.
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`
}

// Load parses configuration from environment variables.
// Returns an error if a value cannot be parsed into the expected type.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
