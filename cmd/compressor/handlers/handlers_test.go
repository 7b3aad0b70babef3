package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyzr/compressor/cmd/compressor/container"
	"github.com/lyzr/compressor/cmd/compressor/repository"
	"github.com/lyzr/compressor/cmd/compressor/service"
	"github.com/lyzr/compressor/common/bootstrap"
	"github.com/lyzr/compressor/common/cache"
	"github.com/lyzr/compressor/common/config"
	"github.com/lyzr/compressor/common/engine"
	"github.com/lyzr/compressor/common/logger"
	"github.com/lyzr/compressor/common/metrics"
	"github.com/lyzr/compressor/common/models"
	"github.com/lyzr/compressor/common/validation"
)

type stubCompressor struct {
	err error
}

func (s stubCompressor) Run(_ context.Context, _ string, req *models.CompressionRequest) (*models.CompressionResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return models.NewCompressionResult(req.Data[:len(req.Data)/4], req.OriginalSize, "63"), nil
}

type fixture struct {
	echo       *echo.Echo
	components *bootstrap.Components
}

func newFixture(t *testing.T, compressor service.Compressor) *fixture {
	t.Helper()
	cfg := config.Default("compressor")
	c := cache.NewMemoryCache(time.Minute, logger.Discard())
	t.Cleanup(func() { _ = c.Close() })

	components := &bootstrap.Components{Config: cfg, Logger: logger.Discard(), Cache: c}
	artifacts := service.NewArtifactService(repository.NewArtifactRepository(c), cfg.Artifacts, metrics.Noop{}, components.Logger)
	compression := service.NewCompressionService(validation.NewRequestValidator(), compressor, artifacts, components.Logger)

	e := echo.New()
	ch := NewCompressionHandler(components, compression, "/api/v1/artifacts/")
	ah := NewArtifactHandler(components, artifacts)
	e.POST("/api/v1/compress", ch.Compress)
	e.GET("/api/v1/artifacts/:id", ah.Download)
	return &fixture{echo: e, components: components}
}

func multipartBody(t *testing.T, fields map[string]string, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile(FieldFile, filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func (f *fixture) submit(t *testing.T, fields map[string]string, filename string, data []byte) *httptest.ResponseRecorder {
	body, contentType := multipartBody(t, fields, filename, data)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/compress", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	return rec
}

func TestCompressThenDownload(t *testing.T) {
	f := newFixture(t, stubCompressor{})
	data := bytes.Repeat([]byte{7}, 80*1024)

	rec := f.submit(t, map[string]string{
		FieldCategory:   "image",
		FieldTargetSize: "40",
		FieldSizeFormat: "kb",
	}, "photo.png", data)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp CompressResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "compressed_image.png", resp.Filename)
	assert.Equal(t, "/api/v1/artifacts/"+resp.ArtifactID, resp.DownloadURL)
	assert.Equal(t, int64(80*1024), resp.CompressionInfo.OriginalSize)
	assert.Equal(t, int64(20*1024), resp.CompressionInfo.CompressedSize)
	assert.Equal(t, 75.0, resp.CompressionInfo.ReductionPercent)
	assert.Equal(t, "63", resp.CompressionInfo.Quality)

	req := httptest.NewRequest(http.MethodGet, resp.DownloadURL, nil)
	dl := httptest.NewRecorder()
	f.echo.ServeHTTP(dl, req)

	require.Equal(t, http.StatusOK, dl.Code)
	assert.Equal(t, `attachment; filename="compressed_image.png"`, dl.Header().Get(echo.HeaderContentDisposition))
	assert.Equal(t, "image/png", dl.Header().Get(echo.HeaderContentType))
	assert.Equal(t, 20*1024, dl.Body.Len())
}

func TestCompressErrors(t *testing.T) {
	valid := map[string]string{FieldCategory: "image", FieldTargetSize: "40", FieldSizeFormat: "kb"}
	data := make([]byte, 80*1024)

	tests := []struct {
		name       string
		compressor stubCompressor
		fields     map[string]string
		filename   string
		status     int
		kind       string
		message    string
	}{
		{
			name:    "missing file",
			fields:  valid,
			status:  http.StatusBadRequest,
			kind:    "validation",
			message: "No file selected",
		},
		{
			name:     "wrong extension",
			fields:   valid,
			filename: "clip.mp4",
			status:   http.StatusBadRequest,
			kind:     "validation",
			message:  "Unsupported file type. Please upload .gif, .jpeg, .jpg, .png, .webp files.",
		},
		{
			name:       "unreachable",
			compressor: stubCompressor{err: engine.TargetUnreachableError("Could not compress the image to 40KB")},
			fields:     valid,
			filename:   "a.png",
			status:     http.StatusUnprocessableEntity,
			kind:       "target_unreachable",
			message:    "Could not compress the image to 40KB",
		},
		{
			name:       "timeout",
			compressor: stubCompressor{err: engine.TimeoutError("Compression timed out", context.DeadlineExceeded)},
			fields:     valid,
			filename:   "a.png",
			status:     http.StatusGatewayTimeout,
			kind:       "timeout",
			message:    "Compression timed out",
		},
		{
			name:       "encoder crash hides detail",
			compressor: stubCompressor{err: engine.EncodingFailureError("Image encoding failed", assert.AnError)},
			fields:     valid,
			filename:   "a.png",
			status:     http.StatusInternalServerError,
			kind:       "encoding_failure",
			message:    "Image encoding failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.compressor)

			rec := f.submit(t, tt.fields, tt.filename, data)

			assert.Equal(t, tt.status, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, tt.kind, body["error"])
			assert.Equal(t, tt.message, body["message"])
		})
	}
}

func TestDownloadUnknown(t *testing.T) {
	f := newFixture(t, stubCompressor{})

	for _, path := range []string{"/api/v1/artifacts/nope", "/api/v1/artifacts/7b0c6d52-8c1e-4f4e-9c57-0d1f6f0a0b11"} {
		rec := httptest.NewRecorder()
		f.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "File not found or expired")
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(engine.KindValidation))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(engine.KindTargetUnreachable))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(engine.KindEncodingFailure))
	assert.Equal(t, http.StatusGatewayTimeout, StatusFor(engine.KindTimeout))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(engine.KindStorage))
	assert.Equal(t, http.StatusNotFound, StatusFor(engine.KindNotFound))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(""))
}

func TestHealth(t *testing.T) {
	f := newFixture(t, stubCompressor{})
	c := &container.Container{
		Components: f.components,
		Tools: map[string]container.ToolStatus{
			"ffmpeg":      {Path: "ffmpeg", Available: true, Version: "ffmpeg version 6.1"},
			"ghostscript": {Path: "gs", Available: false},
		},
		Host: metrics.CaptureHost(),
	}
	f.echo.GET("/health", NewHealthHandler(c).Health)

	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status  string                          `json:"status"`
		Service string                          `json:"service"`
		Tools   map[string]container.ToolStatus `json:"tools"`
		Backend map[string]interface{}          `json:"artifact_backend"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "compressor", body.Service)
	assert.Equal(t, "memory", body.Backend["type"])
	assert.True(t, body.Tools["ffmpeg"].Available)
	assert.False(t, body.Tools["ghostscript"].Available)
}
