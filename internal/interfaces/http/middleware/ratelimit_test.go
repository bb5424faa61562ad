package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Stop()

	assert.Equal(t, 3, rl.Remaining("10.0.0.1"))
	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d", i+1)
	}
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.Equal(t, 0, rl.Remaining("10.0.0.1"))

	// Other clients have their own bucket
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestRateLimiter_Refills(t *testing.T) {
	rl := NewRateLimiter(2, 100*time.Millisecond)
	defer rl.Stop()

	assert.True(t, rl.Allow("k"))
	assert.True(t, rl.Allow("k"))
	assert.False(t, rl.Allow("k"))

	assert.Eventually(t, func() bool {
		return rl.Allow("k")
	}, time.Second, 10*time.Millisecond)
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, time.Second)
	assert.NotPanics(t, func() {
		rl.Stop()
		rl.Stop()
	})
}

func TestRateLimit_Middleware(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	router := newTestRouter(RequestID(), RateLimit(rl))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, w.Body.String(), "ERR_RATE_LIMITED")
}

func TestRateLimitByKey(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	router := newTestRouter(RateLimitByKey(rl, func(c *gin.Context) string {
		return c.GetHeader("X-Client")
	}))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func(client string) int {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Client", client)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("a"))
	assert.Equal(t, http.StatusTooManyRequests, send("a"))
	assert.Equal(t, http.StatusOK, send("b"))
}
