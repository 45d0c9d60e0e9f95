// handlers_convert.go - Phone list conversion handlers
package api

import (
	"bytes"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vcf-converter/backend/internal/converter"
	"github.com/vcf-converter/backend/internal/models"
	"github.com/vcf-converter/backend/internal/session"
	"github.com/vcf-converter/backend/internal/storage"
	"go.uber.org/zap"
)

// ConvertHandlerImpl implements the ConvertHandler interface
type ConvertHandlerImpl struct {
	store        storage.Store
	batches      BatchManager
	logger       *zap.Logger
	allowedTypes []string
	maxBytes     int64
}

// ConvertOptions configures upload checks.
type ConvertOptions struct {
	AllowedTypes []string
	MaxBytes     int64
}

// NewConvertHandler creates a new convert handler instance
func NewConvertHandler(store storage.Store, batches BatchManager, opts ConvertOptions, logger *zap.Logger) ConvertHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(opts.AllowedTypes) == 0 {
		opts.AllowedTypes = []string{".txt"}
	}
	return &ConvertHandlerImpl{
		store:        store,
		batches:      batches,
		logger:       logger.Named("convert"),
		allowedTypes: opts.AllowedTypes,
		maxBytes:     opts.MaxBytes,
	}
}

// HandleConvert accepts a multipart .txt upload, filters it and appends the
// generated vCard file to the batch
func (h *ConvertHandlerImpl) HandleConvert(c echo.Context) error {
	id := c.Param("id")
	if _, ok := h.batches.Get(id); !ok {
		return NewNotFoundError("batch", id)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("no file provided", err)
	}
	if !h.allowed(file.Filename) {
		return NewUnsupportedFileTypeError(file.Filename, h.allowedTypes)
	}
	if h.maxBytes > 0 && file.Size > h.maxBytes {
		return NewPayloadTooLargeError(file.Size, h.maxBytes)
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return NewInternalError("failed to read uploaded file", err)
	}

	info, err := h.store.SaveBytes(file.Filename, data)
	if err != nil {
		return NewInternalError("failed to save file", err)
	}

	content, err := converter.ReadText(bytes.NewReader(data))
	if err != nil {
		h.discard(info.ID)
		return NewBadRequestError("file is not readable text", err)
	}

	converted, err := h.batches.Convert(id, file.Filename, content, session.ConvertOptions{
		FileName:    c.FormValue("fileName"),
		ContactName: c.FormValue("contactName"),
		Profile:     c.FormValue("profile"),
		SourceID:    info.ID,
	})
	if err != nil {
		h.discard(info.ID)
		return batchError(err, id)
	}

	if err := h.store.SetStatus(info.ID, "converted"); err != nil {
		h.logger.Warn("failed to mark source converted", zap.String("source", info.ID), zap.Error(err))
	}

	return h.respond(c, id, converted)
}

// HandleReconvert converts the last source again with the current contact name
func (h *ConvertHandlerImpl) HandleReconvert(c echo.Context) error {
	id := c.Param("id")

	var req reconvertRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	if req.ContactName != "" {
		if err := h.batches.SetContactName(id, req.ContactName); err != nil {
			return batchError(err, id)
		}
	}

	converted, err := h.batches.Reconvert(id, req.FileName)
	if err != nil {
		return batchError(err, id)
	}

	return h.respond(c, id, converted)
}

func (h *ConvertHandlerImpl) respond(c echo.Context, id string, f models.ConvertedFile) error {
	b, ok := h.batches.Get(id)
	if !ok {
		return NewNotFoundError("batch", id)
	}
	return c.JSON(http.StatusCreated, convertResponse{
		File:  f.Summary(),
		Batch: b,
	})
}

// discard removes an upload that did not become part of a batch.
func (h *ConvertHandlerImpl) discard(sourceID string) {
	if err := h.store.Delete(sourceID); err != nil {
		h.logger.Warn("failed to discard upload", zap.String("source", sourceID), zap.Error(err))
	}
}

func (h *ConvertHandlerImpl) allowed(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, a := range h.allowedTypes {
		if ext == a {
			return true
		}
	}
	return false
}

// Request/Response types

type reconvertRequest struct {
	FileName    string `json:"fileName"`
	ContactName string `json:"contactName"`
}

type convertResponse struct {
	File  models.ConvertedFile `json:"file"`
	Batch *models.Batch        `json:"batch"`
}
