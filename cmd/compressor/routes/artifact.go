package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/lyzr/compressor/cmd/compressor/handlers"
)

// ArtifactPath is the download path prefix handed out in submit responses
const ArtifactPath = "/api/v1/artifacts/"

// RegisterArtifactRoutes registers artifact-related routes
func RegisterArtifactRoutes(g *echo.Group, handler *handlers.ArtifactHandler) {
	// GET /api/v1/artifacts/:id - Redeem an artifact handle
	g.GET("/artifacts/:id", handler.Download)
}

// RegisterLegacyArtifactRoutes keeps the original download path working
func RegisterLegacyArtifactRoutes(e *echo.Echo, handler *handlers.ArtifactHandler) {
	// GET /download/:id
	e.GET("/download/:id", handler.Download)
}
