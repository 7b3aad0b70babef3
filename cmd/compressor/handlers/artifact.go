package handlers

import (
	"fmt"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/lyzr/compressor/cmd/compressor/service"
	"github.com/lyzr/compressor/common/bootstrap"
)

// ArtifactHandler serves compressed outputs
type ArtifactHandler struct {
	components  *bootstrap.Components
	artifactSvc *service.ArtifactService
}

// NewArtifactHandler creates a new artifact handler
func NewArtifactHandler(components *bootstrap.Components, artifactSvc *service.ArtifactService) *ArtifactHandler {
	return &ArtifactHandler{
		components:  components,
		artifactSvc: artifactSvc,
	}
}

// Download redeems an artifact handle and streams the file back as an attachment
// GET /api/v1/artifacts/:id
func (h *ArtifactHandler) Download(c echo.Context) error {
	artifact, err := h.artifactSvc.Redeem(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, h.components.Logger, err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(artifact.Handle.Filename))
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", artifact.Handle.Filename))
	return c.Blob(http.StatusOK, contentType, artifact.Data)
}
