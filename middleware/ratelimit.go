package middleware

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"notehub-api/types"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterStore maps keys (user id or client IP) to token buckets. A janitor
// drops entries not seen for staleAfter so the map cannot grow unbounded.
type limiterStore struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	staleAfter time.Duration
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterStore(staleAfter time.Duration) *limiterStore {
	s := &limiterStore{
		buckets:    make(map[string]*bucket),
		staleAfter: staleAfter,
	}
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			s.cleanup()
		}
	}()
	return s
}

func (s *limiterStore) allow(key string, limit rate.Limit, burst int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(limit, burst)}
		s.buckets[key] = b
	}
	b.lastSeen = time.Now()
	return b.limiter.Allow()
}

func (s *limiterStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-s.staleAfter)
	for k, b := range s.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(s.buckets, k)
		}
	}
}

func envFloat(name string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return def
}

func envInt(name string, def int) int {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return def
}

// rateLimitWhitelist parses RATE_LIMIT_WHITELIST, comma-separated IPs or
// CIDR ranges.
func rateLimitWhitelist() ([]net.IP, []*net.IPNet) {
	var ips []net.IP
	var nets []*net.IPNet
	for _, part := range strings.Split(os.Getenv("RATE_LIMIT_WHITELIST"), ",") {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}
		if ip := net.ParseIP(p); ip != nil {
			ips = append(ips, ip)
			continue
		}
		if _, n, err := net.ParseCIDR(p); err == nil {
			nets = append(nets, n)
		}
	}
	return ips, nets
}

func whitelisted(clientIP string, ips []net.IP, nets []*net.IPNet) bool {
	ip := net.ParseIP(clientIP)
	if ip == nil {
		return false
	}
	for _, w := range ips {
		if w.Equal(ip) {
			return true
		}
	}
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func rateLimitDisabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED"))) {
	case "0", "false", "no":
		return true
	}
	return strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV"))) == "test"
}

func tooManyRequests(c *gin.Context) {
	c.Header("Retry-After", "1")
	c.JSON(http.StatusTooManyRequests, types.NewErrorResponse("RATE_LIMIT_EXCEEDED", "Too many requests"))
	c.Abort()
}

// RateLimitMiddleware token-bucket limits every request, keyed by user id
// when authenticated and by client IP otherwise. The public note surface is
// read-heavy, so the defaults are generous; tune via env:
//   - RATE_LIMIT_ENABLED (bool, default true; APP_ENV=test disables)
//   - RATE_LIMIT_RPS (float, default 10), RATE_LIMIT_BURST (int, default 30)
//   - RATE_LIMIT_WHITELIST (comma-separated IPs or CIDRs)
//
// Preflight requests and /health are never limited.
func RateLimitMiddleware() gin.HandlerFunc {
	if rateLimitDisabled() {
		return func(c *gin.Context) { c.Next() }
	}

	limit := rate.Limit(envFloat("RATE_LIMIT_RPS", 10))
	burst := envInt("RATE_LIMIT_BURST", 30)
	ips, nets := rateLimitWhitelist()
	store := newLimiterStore(10 * time.Minute)

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || c.Request.URL.Path == "/health" {
			c.Next()
			return
		}
		clientIP := c.ClientIP()
		if whitelisted(clientIP, ips, nets) {
			c.Next()
			return
		}
		key := "ip:" + clientIP
		if userID := c.GetInt("userId"); userID != 0 {
			key = "uid:" + strconv.Itoa(userID)
		}
		if !store.allow(key, limit, burst) {
			tooManyRequests(c)
			return
		}
		c.Next()
	}
}

// RateLimitAuthMiddleware applies a much stricter per-IP limit to /register
// and /login so credential stuffing cannot hide inside the general budget.
// Tune via RATE_LIMIT_AUTH_RPS (default 1) and RATE_LIMIT_AUTH_BURST
// (default 5).
func RateLimitAuthMiddleware() gin.HandlerFunc {
	if rateLimitDisabled() {
		return func(c *gin.Context) { c.Next() }
	}

	limit := rate.Limit(envFloat("RATE_LIMIT_AUTH_RPS", 1))
	burst := envInt("RATE_LIMIT_AUTH_BURST", 5)
	store := newLimiterStore(10 * time.Minute)

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		if !store.allow("auth:"+c.ClientIP(), limit, burst) {
			tooManyRequests(c)
			return
		}
		c.Next()
	}
}
