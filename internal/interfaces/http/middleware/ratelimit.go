package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/erp/resale/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client key.
// A client may burst up to limit requests and then gets limit per window.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientBucket
	limit    int
	window   time.Duration
	every    rate.Limit
	stopOnce sync.Once
	stop     chan struct{}
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a rate limiter and starts its idle client sweeper.
// Call Stop to end the sweeper.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	rl := &RateLimiter{
		clients: make(map[string]*clientBucket),
		limit:   limit,
		window:  window,
		every:   rate.Every(window / time.Duration(limit)),
		stop:    make(chan struct{}),
	}
	go rl.sweep(window * 2)
	return rl
}

// sweep drops clients that have been idle for two windows
func (rl *RateLimiter) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for key, c := range rl.clients {
				if now.Sub(c.lastSeen) > rl.window*2 {
					delete(rl.clients, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Stop ends the idle client sweeper
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) bucket(key string) *clientBucket {
	c, ok := rl.clients[key]
	if !ok {
		c = &clientBucket{limiter: rate.NewLimiter(rl.every, rl.limit)}
		rl.clients[key] = c
	}
	c.lastSeen = time.Now()
	return c
}

// Allow reports whether a request from key may proceed and consumes a token if so
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.bucket(key).limiter.Allow()
}

// Remaining returns the number of requests key may still send right now
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[key]
	if !ok {
		return rl.limit
	}
	tokens := int(c.limiter.Tokens())
	if tokens < 0 {
		return 0
	}
	return tokens
}

// Limit returns the burst size of each client
func (rl *RateLimiter) Limit() int {
	return rl.limit
}

// RateLimit returns a rate limiting middleware keyed by client IP
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string {
		return c.ClientIP()
	})
}

// RateLimitByKey returns a rate limiting middleware with custom key extractor
func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		if !limiter.Allow(key) {
			c.Header("X-RateLimit-Remaining", "0")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited,
				"Too many requests. Please try again later.",
				GetRequestID(c),
			))
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(key)))

		c.Next()
	}
}
