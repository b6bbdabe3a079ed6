package config_test

import (
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ckarsten/watchdeck/config"
)

var _ = Describe("Load", func() {
	// Keys managed by these tests — saved and restored around each spec.
	var envKeys = []string{
		"LISTEN_ADDR", "EXTERNAL_URL", "DATABASE_PATH", "TMDB_API_KEY",
		"TMDB_BASE_URL", "TMDB_IMAGE_BASE_URL", "ADMIN_EMAIL",
		"SEARCH_CACHE_TTL", "DETAILS_CACHE_TTL", "ADMIN_CHECK_MAX_ATTEMPTS",
		"ADMIN_CHECK_WINDOW", "ADMIN_CHECK_BAN_DURATION", "SHUTDOWN_TIMEOUT",
		"CORS_ORIGINS",
	}

	var saved map[string]string

	BeforeEach(func() {
		saved = make(map[string]string, len(envKeys))
		for _, k := range envKeys {
			saved[k] = os.Getenv(k)
			Expect(os.Unsetenv(k)).To(Succeed())
		}
	})

	AfterEach(func() {
		for k, v := range saved {
			if v == "" {
				Expect(os.Unsetenv(k)).To(Succeed())
			} else {
				Expect(os.Setenv(k, v)).To(Succeed())
			}
		}
	})

	It("returns defaults when no env vars are set", func() {
		cfg, err := config.Load()
		Expect(err).NotTo(HaveOccurred())

		Expect(cfg.ListenAddr).To(Equal(":8080"))
		Expect(cfg.ExternalURL).To(Equal("http://localhost:8080"))
		Expect(cfg.DatabasePath).To(Equal("data/watchdeck.db"))
		Expect(cfg.CatalogAPIKey).To(BeEmpty())
		Expect(cfg.CatalogBaseURL).To(Equal("https://api.themoviedb.org/3"))
		Expect(cfg.CatalogImageBaseURL).To(Equal("https://image.tmdb.org/t/p/w500"))
		Expect(cfg.AdminEmail).To(BeEmpty())
		Expect(cfg.SearchCacheTTL).To(Equal(60 * time.Second))
		Expect(cfg.DetailsCacheTTL).To(Equal(6 * time.Hour))
		Expect(cfg.AdminCheckMaxAttempts).To(Equal(20))
		Expect(cfg.AdminCheckWindow).To(Equal(15 * time.Minute))
		Expect(cfg.AdminCheckBanDuration).To(Equal(15 * time.Minute))
		Expect(cfg.ShutdownTimeout).To(Equal(15 * time.Second))
		Expect(cfg.CORSOrigins).To(BeEmpty())
	})

	It("reads string values from env vars", func() {
		Expect(os.Setenv("LISTEN_ADDR", ":9090")).To(Succeed())
		Expect(os.Setenv("EXTERNAL_URL", "https://watchdeck.example.com")).To(Succeed())
		Expect(os.Setenv("DATABASE_PATH", "/var/lib/watchdeck/db.sqlite")).To(Succeed())
		Expect(os.Setenv("TMDB_API_KEY", "secret-key")).To(Succeed())
		Expect(os.Setenv("ADMIN_EMAIL", "admin@example.com")).To(Succeed())

		cfg, err := config.Load()
		Expect(err).NotTo(HaveOccurred())

		Expect(cfg.ListenAddr).To(Equal(":9090"))
		Expect(cfg.ExternalURL).To(Equal("https://watchdeck.example.com"))
		Expect(cfg.DatabasePath).To(Equal("/var/lib/watchdeck/db.sqlite"))
		Expect(cfg.CatalogAPIKey).To(Equal("secret-key"))
		Expect(cfg.AdminEmail).To(Equal("admin@example.com"))
	})

	It("reads duration values from env vars", func() {
		Expect(os.Setenv("SEARCH_CACHE_TTL", "30s")).To(Succeed())
		Expect(os.Setenv("DETAILS_CACHE_TTL", "1h")).To(Succeed())
		Expect(os.Setenv("ADMIN_CHECK_BAN_DURATION", "30m")).To(Succeed())

		cfg, err := config.Load()
		Expect(err).NotTo(HaveOccurred())

		Expect(cfg.SearchCacheTTL).To(Equal(30 * time.Second))
		Expect(cfg.DetailsCacheTTL).To(Equal(time.Hour))
		Expect(cfg.AdminCheckBanDuration).To(Equal(30 * time.Minute))
	})

	It("returns an error for an invalid duration", func() {
		Expect(os.Setenv("SEARCH_CACHE_TTL", "not-a-duration")).To(Succeed())

		_, err := config.Load()
		Expect(err).To(HaveOccurred())
	})

	It("reads int values from env vars", func() {
		Expect(os.Setenv("ADMIN_CHECK_MAX_ATTEMPTS", "5")).To(Succeed())

		cfg, err := config.Load()
		Expect(err).NotTo(HaveOccurred())

		Expect(cfg.AdminCheckMaxAttempts).To(Equal(5))
	})

	It("returns an error for an invalid int", func() {
		Expect(os.Setenv("ADMIN_CHECK_MAX_ATTEMPTS", "not-a-number")).To(Succeed())

		_, err := config.Load()
		Expect(err).To(HaveOccurred())
	})

	It("splits CORS origins on commas", func() {
		Expect(os.Setenv("CORS_ORIGINS", "http://localhost:3000,https://app.example.com")).To(Succeed())

		cfg, err := config.Load()
		Expect(err).NotTo(HaveOccurred())

		Expect(cfg.CORSOrigins).To(Equal([]string{"http://localhost:3000", "https://app.example.com"}))
	})
})
