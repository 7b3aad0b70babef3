package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lyzr/compressor/common/engine"
	"github.com/lyzr/compressor/common/logger"
)

// StatusFor maps an engine error kind to its HTTP status
func StatusFor(kind engine.Kind) int {
	switch kind {
	case engine.KindValidation:
		return http.StatusBadRequest
	case engine.KindTargetUnreachable:
		return http.StatusUnprocessableEntity
	case engine.KindTimeout:
		return http.StatusGatewayTimeout
	case engine.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the structured error body. Only the safe message leaves
// the process; the cause is logged for server-side failures.
func respondError(c echo.Context, log *logger.Logger, err error) error {
	kind := engine.KindOf(err)
	status := StatusFor(kind)
	if kind == "" {
		kind = "internal"
	}

	if status >= http.StatusInternalServerError && kind != engine.KindTimeout {
		log.WithContext(c.Request().Context()).Error("request failed", "kind", kind, "error", err)
	}

	return c.JSON(status, map[string]interface{}{
		"status":  "error",
		"error":   kind,
		"message": engine.SafeMessage(err),
	})
}
