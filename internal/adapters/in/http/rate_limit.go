package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// RateLimiter counts requests per scope in a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, scope string) (bool, int64, error)
	Limit() int64
}

// RateLimit throttles by client IP. A limiter outage lets requests through.
func RateLimit(limiter RateLimiter, logger *slog.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "rate_limit")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			allowed, remaining, err := limiter.Allow(ctx, "ip:"+c.RealIP())
			if err != nil {
				logger.WarnContext(ctx, "rate limiter unavailable", slog.Any("error", err))
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(limiter.Limit(), 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if !allowed {
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
			}
			return next(c)
		}
	}
}
