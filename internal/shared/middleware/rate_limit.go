package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"printshop-backend/internal/shared/response"
)

// DefaultLimiterIdleTTL is how long an IP's bucket survives without traffic.
const DefaultLimiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP. Buckets idle for longer
// than idleTTL are dropped on the next sweep, which runs at most once per
// idleTTL from inside GetLimiter.
type RateLimiter struct {
	ips       map[string]*visitor
	mu        sync.Mutex
	rate      rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewRateLimiter(perMinute, burst int) *RateLimiter {
	return &RateLimiter{
		ips:       make(map[string]*visitor),
		rate:      rate.Every(time.Minute / time.Duration(perMinute)),
		burst:     burst,
		idleTTL:   DefaultLimiterIdleTTL,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (rl *RateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= rl.idleTTL {
		rl.sweep(now)
	}

	if v, exists := rl.ips[ip]; exists {
		v.lastSeen = now
		return v.limiter
	}

	limiter := rate.NewLimiter(rl.rate, rl.burst)
	rl.ips[ip] = &visitor{limiter: limiter, lastSeen: now}
	return limiter
}

// sweep drops idle buckets. Callers hold rl.mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for ip, v := range rl.ips {
		if now.Sub(v.lastSeen) >= rl.idleTTL {
			delete(rl.ips, ip)
		}
	}
	rl.lastSweep = now
}

// Size reports how many IPs currently hold a bucket.
func (rl *RateLimiter) Size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.ips)
}

// Middleware answers 429 once a client IP exhausts its bucket.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.GetLimiter(c.ClientIP()).Allow() {
			response.ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, please retry later")
			c.Abort()
			return
		}
		c.Next()
	}
}
