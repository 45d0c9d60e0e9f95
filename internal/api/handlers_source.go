// handlers_source.go - Uploaded source file handlers
package api

import (
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vcf-converter/backend/internal/converter"
	"github.com/vcf-converter/backend/internal/storage"
)

// SourceHandlerImpl implements the SourceHandler interface
type SourceHandlerImpl struct {
	store storage.Store
}

// NewSourceHandler creates a new source handler instance
func NewSourceHandler(store storage.Store) SourceHandler {
	return &SourceHandlerImpl{store: store}
}

// HandleGetSource streams the raw text of an uploaded source file
func (h *SourceHandlerImpl) HandleGetSource(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	info, err := h.store.Get(id)
	if err != nil {
		return NewNotFoundError("file", id)
	}

	rc, err := h.store.Open(id)
	if err != nil {
		return NewNotFoundError("file", id)
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition,
		mime.FormatMediaType("inline", map[string]string{"filename": converter.BaseName(info.Name)}))
	return c.Stream(http.StatusOK, echo.MIMETextPlainCharsetUTF8, rc)
}
