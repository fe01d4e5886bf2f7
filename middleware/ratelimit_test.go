package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimitAuthMiddlewareBlocksAfterBurst(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("RATE_LIMIT_ENABLED", "")
	t.Setenv("RATE_LIMIT_AUTH_RPS", "0.001")
	t.Setenv("RATE_LIMIT_AUTH_BURST", "3")

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", RateLimitAuthMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		assert.Equal(t, http.StatusOK, w.Code, "request %d should pass within the burst", i+1)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestRateLimitMiddlewareSkipsHealth(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("RATE_LIMIT_ENABLED", "")
	t.Setenv("RATE_LIMIT_RPS", "0.001")
	t.Setenv("RATE_LIMIT_BURST", "1")

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitMiddleware())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimitDisabledInTestEnv(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("RATE_LIMIT_AUTH_RPS", "0.001")
	t.Setenv("RATE_LIMIT_AUTH_BURST", "1")

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", RateLimitAuthMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimitWhitelistParsing(t *testing.T) {
	t.Setenv("RATE_LIMIT_WHITELIST", "10.0.0.1, 192.168.0.0/16, bogus")
	ips, nets := rateLimitWhitelist()
	assert.Len(t, ips, 1)
	assert.Len(t, nets, 1)

	assert.True(t, whitelisted("10.0.0.1", ips, nets))
	assert.True(t, whitelisted("192.168.44.5", ips, nets))
	assert.False(t, whitelisted("10.0.0.2", ips, nets))
	assert.False(t, whitelisted("not-an-ip", ips, nets))
}
