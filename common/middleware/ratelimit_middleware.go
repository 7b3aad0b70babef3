package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/lyzr/compressor/common/models"
	"github.com/lyzr/compressor/common/ratelimit"
)

// CategoryFormField is the multipart field naming the media category
const CategoryFormField = "file_type"

// GlobalRateLimitMiddleware checks the global service-wide rate limit
// Protects the encoders from being overwhelmed
func GlobalRateLimitMiddleware(rateLimiter *ratelimit.RateLimiter, limit int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			result, err := rateLimiter.CheckGlobalLimit(c.Request().Context(), limit)
			if err != nil {
				// On error, allow request (fail open for availability)
				return next(c)
			}

			if !result.Allowed {
				c.Response().Header().Set("Retry-After", strconv.FormatInt(result.RetryAfterSeconds, 10))
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"status":  "error",
					"error":   "global_rate_limit_exceeded",
					"message": "Service is experiencing high load. Please try again later.",
					"details": map[string]interface{}{
						"limit":               result.Limit,
						"window":              "60 seconds",
						"retry_after_seconds": result.RetryAfterSeconds,
					},
				})
			}

			return next(c)
		}
	}
}

// CategoryRateLimitMiddleware checks per-client limits for the submitted
// category. Clients are keyed by their real IP. Requests with a missing or
// unknown category pass through so the validator can reject them properly.
func CategoryRateLimitMiddleware(rateLimiter *ratelimit.RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			category, ok := models.ParseCategory(c.FormValue(CategoryFormField))
			if !ok {
				return next(c)
			}
			client := c.RealIP()

			result, err := rateLimiter.CheckCategoryLimit(c.Request().Context(), client, category)
			if err != nil {
				// On error, allow request (fail open for availability)
				return next(c)
			}

			if !result.Allowed {
				c.Response().Header().Set("Retry-After", strconv.FormatInt(result.RetryAfterSeconds, 10))
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"status":  "error",
					"error":   "category_rate_limit_exceeded",
					"message": "You have exceeded your " + category.String() + " quota. Please wait before trying again.",
					"details": map[string]interface{}{
						"category":            category,
						"limit":               result.Limit,
						"window_seconds":      ratelimit.GetWindowForCategory(category),
						"current_count":       result.CurrentCount,
						"retry_after_seconds": result.RetryAfterSeconds,
					},
				})
			}

			return next(c)
		}
	}
}
