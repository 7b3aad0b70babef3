package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/lyzr/compressor/cmd/compressor/handlers"
)

// RegisterCompressionRoutes registers submit routes. limits run before the
// handler, in order.
func RegisterCompressionRoutes(g *echo.Group, handler *handlers.CompressionHandler, limits ...echo.MiddlewareFunc) {
	// POST /api/v1/compress - Upload a file and compress it to the target size
	g.POST("/compress", handler.Compress, limits...)
}

// RegisterLegacyCompressionRoutes keeps the original single-page app path working
func RegisterLegacyCompressionRoutes(e *echo.Echo, handler *handlers.CompressionHandler, limits ...echo.MiddlewareFunc) {
	// POST /compress-image - Same as /api/v1/compress
	e.POST("/compress-image", handler.Compress, limits...)
}
