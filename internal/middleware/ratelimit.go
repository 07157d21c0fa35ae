package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/xetrapulse/internal/domain/dto"
)

// client is the request count of one IP inside the current window.
type client struct {
	windowStart time.Time
	count       int
}

type rateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   int
	window  time.Duration
	now     func() time.Time
}

// RateLimiter limits each client IP to limit requests per fixed window and
// answers 429 with an ErrorResponse beyond that. A limit <= 0 disables it.
//
// State is per process; several API replicas each keep their own counts.
//
// Usage:
//
//	router.Use(middleware.RateLimiter(60, time.Minute))
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	rl := &rateLimiter{clients: make(map[string]*client), limit: limit, window: window, now: time.Now}
	return rl.handle
}

func (rl *rateLimiter) handle(c *gin.Context) {
	if rl.limit <= 0 {
		c.Next()
		return
	}
	if !rl.allow(c.ClientIP()) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponse("rate limit exceeded", nil))
		return
	}
	c.Next()
}

func (rl *rateLimiter) allow(ip string) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, ok := rl.clients[ip]
	if !ok || now.Sub(cl.windowStart) > rl.window {
		rl.prune(now)
		rl.clients[ip] = &client{windowStart: now, count: 1}
		return true
	}
	cl.count++
	return cl.count <= rl.limit
}

// prune drops clients whose window has expired. Caller holds mu.
func (rl *rateLimiter) prune(now time.Time) {
	for ip, cl := range rl.clients {
		if now.Sub(cl.windowStart) > rl.window {
			delete(rl.clients, ip)
		}
	}
}
