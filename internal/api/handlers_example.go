// handlers_example.go - Example file and profile handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vcf-converter/backend/internal/converter"
	"go.uber.org/zap"
)

// ExampleErrorPlaceholder is shown instead of the example file when it
// cannot be loaded.
const ExampleErrorPlaceholder = "Error loading file."

// ExampleLoader returns the example input file.
type ExampleLoader func() ([]byte, error)

// ExampleHandlerImpl implements the ExampleHandler interface
type ExampleHandlerImpl struct {
	load     ExampleLoader
	registry *converter.Registry
	logger   *zap.Logger
}

// NewExampleHandler creates a new example handler instance
func NewExampleHandler(load ExampleLoader, registry *converter.Registry, logger *zap.Logger) ExampleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = converter.NewRegistry()
	}
	return &ExampleHandlerImpl{
		load:     load,
		registry: registry,
		logger:   logger.Named("example"),
	}
}

// HandleGetExample returns the example file as plain text. A load failure is
// logged and answered with ExampleErrorPlaceholder.
func (h *ExampleHandlerImpl) HandleGetExample(c echo.Context) error {
	if h.load == nil {
		return c.String(http.StatusOK, ExampleErrorPlaceholder)
	}
	data, err := h.load()
	if err != nil {
		h.logger.Warn("error loading the example file", zap.Error(err))
		return c.String(http.StatusOK, ExampleErrorPlaceholder)
	}
	return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, data)
}

// HandleListProfiles returns the registered conversion profiles
func (h *ExampleHandlerImpl) HandleListProfiles(c echo.Context) error {
	return c.JSON(http.StatusOK, h.registry.Profiles())
}
