// ===========================================
// Package middleware - Rate Limiting
// ===========================================
// Generic API rate limit, fixed window per client.
// Clients are identified by user id when authenticated, otherwise by
// the forwarded client IP.
//
// HOW IT WORKS:
// 1. Limiter.Allow counts the request in the current window
// 2. X-RateLimit-* headers describe the window
// 3. Over the limit -> 429 with Retry-After
// Limiter errors fail open.
// ===========================================

package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/user/smartshort/internal/models"
	"github.com/user/smartshort/internal/ratelimit"
)

// RateLimiter is the middleware for rate limiting.
type RateLimiter struct {
	limiter ratelimit.Limiter
	limit   int
	window  time.Duration
	logger  logrus.FieldLogger
	now     func() time.Time
}

// NewRateLimiter creates a new rate limiter middleware.
func NewRateLimiter(limiter ratelimit.Limiter, limit int, window time.Duration, logger logrus.FieldLogger) *RateLimiter {
	return &RateLimiter{
		limiter: limiter,
		limit:   limit,
		window:  window,
		logger:  logger,
		now:     time.Now,
	}
}

// Middleware returns the Gin middleware handler.
// Place it after RequireUser to key by user id.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identifier := rl.clientIdentifier(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		res, err := rl.limiter.Allow(ctx, identifier, rl.limit, rl.window)
		if err != nil {
			rl.logger.WithError(err).Warn("Rate limiter unavailable, allowing request")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", res.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", res.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", res.ResetAt.Unix()))

		if !res.Allowed {
			retryAfter := int(res.ResetAt.Sub(rl.now()).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))

			rl.logger.WithField("client", identifier).Info("Rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error:   "Rate limit exceeded",
				Code:    models.ErrCodeRateLimited,
				Details: fmt.Sprintf("Try again in %d seconds", retryAfter),
			})
			return
		}

		c.Next()
	}
}

// clientIdentifier prefers the authenticated user, then the first
// X-Forwarded-For entry, then X-Real-IP, then the peer address.
//
// X-Forwarded-For can be spoofed; only trust it behind a proxy that
// overwrites it.
func (rl *RateLimiter) clientIdentifier(c *gin.Context) string {
	if userID := UserID(c); userID != "" {
		return "user:" + userID
	}

	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		if ip := strings.TrimSpace(strings.Split(forwarded, ",")[0]); ip != "" {
			return "ip:" + ip
		}
	}
	if realIP := c.GetHeader("X-Real-IP"); realIP != "" {
		return "ip:" + realIP
	}
	return "ip:" + c.ClientIP()
}
