package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/lyzr/compressor/cmd/compressor/container"
	"github.com/lyzr/compressor/cmd/compressor/handlers"
	"github.com/lyzr/compressor/common/middleware"
)

// Register wires every route of the compressor onto e
func Register(e *echo.Echo, c *container.Container) {
	compression := handlers.NewCompressionHandler(c.Components, c.CompressionService, ArtifactPath)
	artifacts := handlers.NewArtifactHandler(c.Components, c.ArtifactService)
	health := handlers.NewHealthHandler(c)

	var limits []echo.MiddlewareFunc
	if c.RateLimiter != nil {
		limits = append(limits,
			middleware.GlobalRateLimitMiddleware(c.RateLimiter, c.Components.Config.RateLimit.GlobalPerMinute),
			middleware.CategoryRateLimitMiddleware(c.RateLimiter),
		)
	}

	api := e.Group("/api/v1")
	RegisterCompressionRoutes(api, compression, limits...)
	RegisterArtifactRoutes(api, artifacts)

	RegisterLegacyCompressionRoutes(e, compression, limits...)
	RegisterLegacyArtifactRoutes(e, artifacts)

	// GET /health - Backend, tool and host status
	e.GET("/health", health.Health)

	if m := c.Components.Metrics; m != nil {
		// GET /metrics - Prometheus exposition
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
}
