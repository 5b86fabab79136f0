package middleware

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"ordercore/internal/core/apperror"
	appctx "ordercore/internal/core/context"
	"ordercore/pkg/logger"
)

// NewRateLimiter builds an in-process limiter from a formatted rate such as "60-M".
func NewRateLimiter(formatted string) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("parse rate %q: %w", formatted, err)
	}
	return limiter.New(memory.NewStore(), rate), nil
}

// RateLimit throttles requests per actor, or per client IP for anonymous callers.
func RateLimit(limiterInstance *limiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if userID := appctx.GetUserID(c.Request.Context()); userID != "" {
			key = "user:" + userID
		}

		lctx, err := limiterInstance.Get(c.Request.Context(), key)
		if err != nil {
			_ = c.Error(apperror.NewInternal(fmt.Errorf("rate limit check: %w", err)))
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))

		if lctx.Reached {
			logger.Warn(c.Request.Context(), "rate limit exceeded",
				"key", key,
				"limit", lctx.Limit,
			)
			c.Header("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))
			_ = c.Error(apperror.NewRateLimited(lctx.Limit))
			c.Abort()
			return
		}

		c.Next()
	}
}
