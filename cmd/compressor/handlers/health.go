package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lyzr/compressor/cmd/compressor/container"
)

const healthTimeout = 2 * time.Second

// HealthHandler reports service, backend and encoder tool status
type HealthHandler struct {
	container *container.Container
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(c *container.Container) *HealthHandler {
	return &HealthHandler{container: c}
}

// Health returns 200 when the artifact backend is reachable. Missing encoder
// tools only degrade the status, since image jobs still work without them.
// GET /health
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()

	components := h.container.Components
	status := "ok"
	code := http.StatusOK
	backend := map[string]interface{}{
		"type":    components.Config.Artifacts.Backend,
		"healthy": true,
	}
	if components.Redis == nil {
		backend["type"] = "memory"
	}
	if err := components.Health(ctx); err != nil {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
		backend["healthy"] = false
		backend["error"] = err.Error()
	}

	if status == "ok" {
		for _, tool := range h.container.Tools {
			if !tool.Available {
				status = "degraded"
				break
			}
		}
	}

	return c.JSON(code, map[string]interface{}{
		"status":           status,
		"service":          components.Config.Service.Name,
		"artifact_backend": backend,
		"tools":            h.container.Tools,
		"host":             h.container.Host,
	})
}
