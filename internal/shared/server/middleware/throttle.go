package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ats-backend/internal/shared/metrics"
	"ats-backend/internal/shared/server/respond"
	"ats-backend/internal/shared/telemetry"
	"ats-backend/internal/throttle"
)

// CallerKey resolves the throttle identity for the current request.
func CallerKey(c *gin.Context) string {
	return throttle.CallerKey(AccessTokenFromContext(c), UserEmailFromContext(c), c.ClientIP())
}

// Throttle guards the routes it wraps with limiter under the given endpoint
// name. Store failures let the request through.
func Throttle(limiter *throttle.Limiter, endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		d, err := limiter.Allow(c.Request.Context(), CallerKey(c), endpoint)
		if err != nil {
			metrics.IncThrottleStoreError()
			telemetry.Warn("throttle.store_failed", map[string]any{
				"request_id": RequestIDFromContext(c),
				"endpoint":   endpoint,
				"error":      err,
			})
			c.Next()
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if d.Allowed {
			c.Next()
			return
		}
		WriteRateLimited(c, d.RetryAfterSeconds())
	}
}

// WriteRateLimited writes a 429 with Retry-After in seconds.
func WriteRateLimited(c *gin.Context, retryAfterSeconds int) {
	if retryAfterSeconds <= 0 {
		retryAfterSeconds = 1
	}
	c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
	respond.Error(c, http.StatusTooManyRequests, "rate_limited", "Too many requests, try again later", gin.H{
		"retryAfterSeconds": retryAfterSeconds,
	})
}
