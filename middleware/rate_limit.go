package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimitConfig defines the configuration for rate limiting
type RateLimitConfig struct {
	// Requests is the maximum number of requests allowed within the window
	Requests int
	// Window is the time window for rate limiting
	Window time.Duration
	// KeyFunc is a function that returns a unique key for rate limiting (defaults to IP)
	KeyFunc func(c echo.Context) string
	// Message is the error message returned when rate limit is exceeded
	Message string
	// Prefix separates the counters of limiters sharing a store
	Prefix string
}

// RateLimiter limits requests per key over a fixed window
type RateLimiter struct {
	config  RateLimitConfig
	limiter *limiter.Limiter
}

// NewRateLimiter creates a new rate limiter with the given configuration
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = func(c echo.Context) string {
			return c.RealIP()
		}
	}
	if config.Message == "" {
		config.Message = "Too many requests. Please try again later."
	}
	if config.Prefix == "" {
		config.Prefix = "limiter"
	}

	rate := limiter.Rate{Period: config.Window, Limit: int64(config.Requests)}
	store := memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          config.Prefix,
		CleanUpInterval: time.Minute,
	})

	return &RateLimiter{
		config:  config,
		limiter: limiter.New(store, rate),
	}
}

// Middleware returns the rate limiting middleware
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rl.config.KeyFunc(c)

			lctx, err := rl.limiter.Get(c.Request().Context(), key)
			if err != nil {
				// Store failure: let the request through
				log.Error().Err(err).Str("key", key).Msg("Rate limiter unavailable")
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

			if lctx.Reached {
				log.Warn().Str("key", key).Str("path", c.Path()).Msg("Rate limit exceeded")
				return echo.NewHTTPError(http.StatusTooManyRequests, map[string]string{
					"error":  rl.config.Message,
					"reason": "rate_limited",
				})
			}
			return next(c)
		}
	}
}

// ScanRateLimiter limits scans to 120 per minute per IP
func ScanRateLimiter() *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		Requests: 120,
		Window:   time.Minute,
		Prefix:   "scan",
		Message:  "Too many scans. Please slow down.",
	})
}

// ImportRateLimiter limits workbook imports to 5 per 10 minutes per IP
func ImportRateLimiter() *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		Requests: 5,
		Window:   10 * time.Minute,
		Prefix:   "import",
		Message:  "Too many imports. Please try again later.",
	})
}
