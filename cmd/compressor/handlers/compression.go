package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lyzr/compressor/cmd/compressor/service"
	"github.com/lyzr/compressor/common/bootstrap"
	"github.com/lyzr/compressor/common/engine"
)

// Multipart fields of a submit request
const (
	FieldFile       = "file"
	FieldCategory   = "file_type"
	FieldTargetSize = "target_size"
	FieldSizeFormat = "size_format"
)

// CompressionHandler handles compression submits
type CompressionHandler struct {
	components     *bootstrap.Components
	compressionSvc *service.CompressionService
	downloadPrefix string
}

// NewCompressionHandler creates a new compression handler. downloadPrefix is
// the path the artifact id is appended to in responses.
func NewCompressionHandler(components *bootstrap.Components, compressionSvc *service.CompressionService, downloadPrefix string) *CompressionHandler {
	return &CompressionHandler{
		components:     components,
		compressionSvc: compressionSvc,
		downloadPrefix: downloadPrefix,
	}
}

// CompressionInfo is the result summary returned to callers
type CompressionInfo struct {
	OriginalSize     int64   `json:"original_size"`
	CompressedSize   int64   `json:"compressed_size"`
	ReductionPercent float64 `json:"reduction_percent"`
	Quality          string  `json:"quality"`
}

// CompressResponse is the success body of a submit
type CompressResponse struct {
	Status          string          `json:"status"`
	Filename        string          `json:"filename"`
	ArtifactID      string          `json:"artifact_id"`
	DownloadURL     string          `json:"download_url"`
	ExpiresAt       time.Time       `json:"expires_at"`
	Unchanged       bool            `json:"unchanged"`
	CompressionInfo CompressionInfo `json:"compression_info"`
}

// Compress accepts one multipart upload and compresses it to the target size
// POST /api/v1/compress
func (h *CompressionHandler) Compress(c echo.Context) error {
	ctx := c.Request().Context()

	in := service.SubmitInput{
		Category: c.FormValue(FieldCategory),
		Target:   c.FormValue(FieldTargetSize),
		Unit:     c.FormValue(FieldSizeFormat),
	}

	fileHeader, err := c.FormFile(FieldFile)
	switch {
	case errors.Is(err, http.ErrMissingFile):
		// left empty; the validator reports "No file selected"
	case err != nil:
		return respondError(c, h.components.Logger, engine.ValidationError("Could not read the uploaded file"))
	default:
		src, err := fileHeader.Open()
		if err != nil {
			return respondError(c, h.components.Logger, engine.ValidationError("Could not read the uploaded file"))
		}
		defer src.Close()

		in.Data, err = io.ReadAll(src)
		if err != nil {
			return respondError(c, h.components.Logger, engine.ValidationError("Could not read the uploaded file"))
		}
		in.Filename = fileHeader.Filename
	}

	out, err := h.compressionSvc.Submit(ctx, in)
	if err != nil {
		return respondError(c, h.components.Logger, err)
	}

	return c.JSON(http.StatusOK, CompressResponse{
		Status:      "success",
		Filename:    out.Handle.Filename,
		ArtifactID:  out.Handle.ID.String(),
		DownloadURL: h.downloadPrefix + out.Handle.ID.String(),
		ExpiresAt:   out.Handle.ExpiresAt,
		Unchanged:   out.Result.Unchanged,
		CompressionInfo: CompressionInfo{
			OriginalSize:     out.Result.OriginalSize,
			CompressedSize:   out.Result.CompressedSize,
			ReductionPercent: out.Result.ReductionPercent,
			Quality:          out.Result.Quality,
		},
	})
}
