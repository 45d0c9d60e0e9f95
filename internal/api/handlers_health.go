// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version string
	batches func() int
}

// NewHealthHandler creates a new health handler. batches may be nil.
func NewHealthHandler(version string, batches func() int) HealthHandler {
	return &HealthHandlerImpl{
		version: version,
		batches: batches,
	}
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	body := map[string]interface{}{
		"status":  "ok",
		"version": h.version,
	}
	if h.batches != nil {
		body["batches"] = h.batches()
	}
	return c.JSON(http.StatusOK, body)
}
