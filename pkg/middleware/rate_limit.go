package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tcmng/tcmng-server/internal/models"
	"github.com/tcmng/tcmng-server/pkg/metrics"
)

// in-memory token buckets, one per caller key
var limiterStore sync.Map // map[string]*rate.Limiter

func getLimiter(key string, rps float64, burst int) *rate.Limiter {
	v, ok := limiterStore.Load(key)
	if ok {
		return v.(*rate.Limiter)
	}
	lim := rate.NewLimiter(rate.Limit(rps), burst)
	limiterStore.Store(key, lim)
	return lim
}

// limiterKey buckets traffic by the account Protect resolved; anonymous
// requests fall back to the client IP.
func limiterKey(c *gin.Context) string {
	if v, ok := c.Get("user"); ok {
		if u, ok := v.(*models.User); ok && !u.ID.IsZero() {
			return "sub:" + u.ID.Hex()
		}
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

// RateLimitMiddleware enforces a per-caller token-bucket limit in process
// memory. rps is the refill rate, burst the bucket size. Single-instance
// deployments use this; distributed ones use RedisRateLimitMiddleware.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	return func(c *gin.Context) {
		lim := getLimiter(limiterKey(c), rps, burst)
		if !lim.Allow() {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}
