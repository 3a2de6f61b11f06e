package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestRateLimitMiddleware_AllowsUnderLimit(t *testing.T) {
	r := gin.New()
	r.Use(AdminIdentity("allow-test@system.local"))
	r.Use(RateLimitMiddleware(10, 2)) // generous rate
	r.GET("/ok", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	req := httptest.NewRequest("GET", "/ok", nil)
	w := httptest.NewRecorder()

	// two quick requests should pass
	r.ServeHTTP(w, req)
	req2 := httptest.NewRequest("GET", "/ok", nil)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req2)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, http.StatusOK, w2.Code)
}

func TestRateLimitMiddleware_BlocksWhenExceeded(t *testing.T) {
	r := gin.New()
	// low rate to force rejections; own identity so the limiter key
	// is not shared with other tests
	r.Use(AdminIdentity("block-test@system.local"))
	r.Use(RateLimitMiddleware(2, 1))
	r.GET("/limited", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	// first request -> allowed
	rq1 := httptest.NewRequest("GET", "/limited", nil)
	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, rq1)
	require.Equal(t, http.StatusOK, w1.Code)

	// immediate second request -> should be rate-limited
	rq2 := httptest.NewRequest("GET", "/limited", nil)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, rq2)
	require.Equal(t, http.StatusTooManyRequests, w2.Code)

	// at 2 rps a token replenishes every 500ms; after 600ms the request
	// should be allowed again
	time.Sleep(600 * time.Millisecond)
	rq3 := httptest.NewRequest("GET", "/limited", nil)
	w3 := httptest.NewRecorder()
	r.ServeHTTP(w3, rq3)
	require.Equal(t, http.StatusOK, w3.Code)
}

func TestRateLimitMiddleware_UsesAdminIdentityWhenPresent(t *testing.T) {
	r := gin.New()
	// identity middleware runs before the limiter so keys are per-admin
	r.Use(AdminIdentity("admin@system.local"))
	r.Use(RateLimitMiddleware(0.5, 1))
	r.GET("/u", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	// first request allowed
	rq1 := httptest.NewRequest("GET", "/u", nil)
	rq1.Header.Set("X-Admin-Email", "ops@example.com")
	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, rq1)
	require.Equal(t, http.StatusOK, w1.Code)

	// immediate second request => rejected for same admin
	rq2 := httptest.NewRequest("GET", "/u", nil)
	rq2.Header.Set("X-Admin-Email", "ops@example.com")
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, rq2)
	require.Equal(t, http.StatusTooManyRequests, w2.Code)
}
