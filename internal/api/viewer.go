package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limiterCleanupThreshold = 500
	limiterMaxIdle          = 10 * time.Minute
)

func (a *API) ServeWS(c *gin.Context) {
	a.viewers.ServeWS(c.Writer, c.Request)
}

func (a *API) GetViewerStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"connection_count": a.viewers.Viewers()})
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter keeps one token bucket per client IP and prunes idle entries
// once the table grows past limiterCleanupThreshold.
type ipRateLimiter struct {
	mu  sync.Mutex
	ips map[string]*ipLimiter
	r   rate.Limit
	b   int
}

func newIPRateLimiter(r float64, b int) *ipRateLimiter {
	return &ipRateLimiter{
		ips: make(map[string]*ipLimiter),
		r:   rate.Limit(r),
		b:   max(b, 1),
	}
}

func (l *ipRateLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if len(l.ips) > limiterCleanupThreshold {
		cutoff := now.Add(-limiterMaxIdle)
		for k, e := range l.ips {
			if e.lastSeen.Before(cutoff) {
				delete(l.ips, k)
			}
		}
	}

	e, ok := l.ips[ip]
	if !ok {
		e = &ipLimiter{limiter: rate.NewLimiter(l.r, l.b)}
		l.ips[ip] = e
	}
	e.lastSeen = now

	return e.limiter
}

func rateLimit(l *ipRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    "ResourceExhausted",
				"message": "too many connection attempts",
			})
			return
		}

		c.Next()
	}
}
