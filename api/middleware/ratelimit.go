package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ckarsten/watchdeck/config"
)

// ipEntry tracks admin-check attempts for a single IP.
type ipEntry struct {
	attempts    int
	windowEnd   time.Time // when the current sliding window expires
	bannedUntil time.Time
}

// checkLimiter is an in-memory rate limiter for the admin-check endpoint.
// The endpoint answers whether an email matches the configured admin address,
// so unbounded probing would let a visitor brute-force it.
type checkLimiter struct {
	mu      sync.Mutex
	entries map[string]*ipEntry
	cfg     config.Config
	stop    chan struct{}
}

func newCheckLimiter(cfg config.Config) *checkLimiter {
	l := &checkLimiter{
		entries: make(map[string]*ipEntry),
		cfg:     cfg,
		stop:    make(chan struct{}),
	}
	// Periodically clean up stale entries to prevent unbounded memory growth.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.cleanup()
			case <-l.stop:
				return
			}
		}
	}()
	return l
}

// cleanup removes entries whose ban and window have both expired.
func (l *checkLimiter) cleanup() {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, e := range l.entries {
		if now.After(e.bannedUntil) && now.After(e.windowEnd) {
			delete(l.entries, ip)
		}
	}
}

// allow returns true if the IP is permitted to make an admin-check request.
func (l *checkLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[ip]
	if !ok {
		return true
	}
	return !time.Now().Before(e.bannedUntil)
}

// recordMiss counts a non-matching email for an IP and bans it when the
// threshold is exceeded within the window.
func (l *checkLimiter) recordMiss(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	e, ok := l.entries[ip]
	if !ok || now.After(e.windowEnd) {
		// Start a fresh window.
		l.entries[ip] = &ipEntry{
			attempts:  1,
			windowEnd: now.Add(l.cfg.AdminCheckWindow),
		}
		return
	}
	e.attempts++
	if e.attempts >= l.cfg.AdminCheckMaxAttempts {
		e.bannedUntil = now.Add(l.cfg.AdminCheckBanDuration)
	}
}

// recordMatch resets the counter for an IP after a matching email.
func (l *checkLimiter) recordMatch(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, ip)
}

// AdminCheckRateLimiter returns a middleware plus onMiss(ip) / onMatch(ip)
// callbacks so the auth handler can signal outcomes, and a stop function to
// clean up the background goroutine on shutdown.
func AdminCheckRateLimiter(cfg config.Config) (gin.HandlerFunc, func(string), func(string), func()) {
	limiter := newCheckLimiter(cfg)

	mw := func(c *gin.Context) {
		if cfg.AdminCheckMaxAttempts <= 0 {
			c.Next()
			return
		}
		if !limiter.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests. Please try again later.",
			})
			return
		}
		c.Next()
	}

	stop := func() { close(limiter.stop) }

	return mw, limiter.recordMiss, limiter.recordMatch, stop
}
