package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisRateLimitMiddleware_FixedWindow(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})

	r := gin.New()
	r.Use(AdminIdentity("admin@system.local"))
	r.Use(RedisRateLimitMiddleware(client, 1, 0, 1*time.Second)) // 1 req/sec, no burst
	r.GET("/r", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	// first request allowed
	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, httptest.NewRequest("GET", "/r", nil))
	require.Equal(t, http.StatusOK, w1.Code)

	// immediate second request -> blocked
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest("GET", "/r", nil))
	require.Equal(t, http.StatusTooManyRequests, w2.Code)

	// a different admin identity gets its own window
	rqOther := httptest.NewRequest("GET", "/r", nil)
	rqOther.Header.Set("X-Admin-Email", "other@example.com")
	wOther := httptest.NewRecorder()
	r.ServeHTTP(wOther, rqOther)
	require.Equal(t, http.StatusOK, wOther.Code)

	// advance miniredis clock past window and request should be allowed
	m.FastForward(2 * time.Second)
	w3 := httptest.NewRecorder()
	r.ServeHTTP(w3, httptest.NewRequest("GET", "/r", nil))
	require.Equal(t, http.StatusOK, w3.Code)
}

func TestRedisRateLimitMiddleware_NilClientFallsBack(t *testing.T) {
	r := gin.New()
	r.Use(RedisRateLimitMiddleware(nil, 10, 5, time.Second))
	r.GET("/r", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/r", nil))
	require.Equal(t, http.StatusOK, w.Code)
}
