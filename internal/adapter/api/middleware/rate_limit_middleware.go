package middleware

import (
	"math"
	"strconv"

	"github.com/labstack/echo/v4"

	"hajzi/internal/infrastructure/ratelimit"
	"hajzi/pkg/errors"
	"hajzi/pkg/logger"
	"hajzi/pkg/response"
)

// RateLimit limits requests per authenticated identity, falling back to the
// client IP on public routes.
func RateLimit(limiter *ratelimit.RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := Identity(c)
			if key == "" {
				key = c.RealIP()
			}

			allowed, wait := limiter.Allow(key)
			if !allowed {
				logger.Warn("RATE LIMIT: blocked %s %s for %s (retry in %v)", c.Request().Method, c.Path(), key, wait)
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				return response.Error(c, errors.TooManyRequests("Rate limit exceeded"))
			}

			return next(c)
		}
	}
}
