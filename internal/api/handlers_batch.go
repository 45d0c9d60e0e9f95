// handlers_batch.go - Converted-file list handlers
package api

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vcf-converter/backend/internal/converter"
	"github.com/vcf-converter/backend/internal/models"
	"github.com/vcf-converter/backend/internal/session"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

const (
	// MIMETypeVCard is the content type of generated files.
	MIMETypeVCard = "text/vcard; charset=utf-8"
	// MIMETypeMsgpack is returned by listing endpoints for ?format=msgpack.
	MIMETypeMsgpack = "application/msgpack"

	bundleName = "contacts.zip"
)

// BatchHandlerImpl implements the BatchHandler interface
type BatchHandlerImpl struct {
	batches BatchManager
	logger  *zap.Logger
}

// NewBatchHandler creates a new batch handler instance
func NewBatchHandler(batches BatchManager, logger *zap.Logger) BatchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchHandlerImpl{
		batches: batches,
		logger:  logger.Named("batch"),
	}
}

// HandleCreateBatch starts a new converted-file list
func (h *BatchHandlerImpl) HandleCreateBatch(c echo.Context) error {
	var req contactNameRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	b := h.batches.Create(req.ContactName)
	return c.JSON(http.StatusCreated, b)
}

// HandleGetBatch returns the batch state without file contents
func (h *BatchHandlerImpl) HandleGetBatch(c echo.Context) error {
	id := c.Param("id")
	b, ok := h.batches.Get(id)
	if !ok {
		return NewNotFoundError("batch", id)
	}
	h.batches.Touch(id)
	return c.JSON(http.StatusOK, b)
}

// HandleSetContactName updates the contact name used by later conversions
func (h *BatchHandlerImpl) HandleSetContactName(c echo.Context) error {
	id := c.Param("id")

	var req contactNameRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	if err := h.batches.SetContactName(id, req.ContactName); err != nil {
		return batchError(err, id)
	}

	b, _ := h.batches.Get(id)
	return c.JSON(http.StatusOK, b)
}

// HandlePreview returns the filtered lines of the last converted source
func (h *BatchHandlerImpl) HandlePreview(c echo.Context) error {
	id := c.Param("id")
	name, content, err := h.batches.Preview(id)
	if err != nil {
		return batchError(err, id)
	}

	lines := 0
	if content != "" {
		lines = strings.Count(content, "\n") + 1
	}
	return c.JSON(http.StatusOK, previewResponse{
		FileName: name,
		Content:  content,
		Lines:    lines,
	})
}

// HandleListFiles lists converted files as JSON or MessagePack
func (h *BatchHandlerImpl) HandleListFiles(c echo.Context) error {
	id := c.Param("id")
	files, err := h.batches.Files(id)
	if err != nil {
		return batchError(err, id)
	}

	summaries := make([]models.ConvertedFile, len(files))
	for i, f := range files {
		summaries[i] = f.Summary()
	}

	if strings.EqualFold(c.QueryParam("format"), "msgpack") {
		data, err := msgpack.Marshal(summaries)
		if err != nil {
			return NewInternalError("failed to encode msgpack", err)
		}
		return c.Blob(http.StatusOK, MIMETypeMsgpack, data)
	}

	return c.JSON(http.StatusOK, summaries)
}

// HandleDeleteFile removes one converted file by position
func (h *BatchHandlerImpl) HandleDeleteFile(c echo.Context) error {
	id := c.Param("id")
	index, err := indexParam(c)
	if err != nil {
		return err
	}

	if err := h.batches.Delete(id, index); err != nil {
		return batchError(err, id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleDownloadFile sends one converted file as a .vcf attachment
func (h *BatchHandlerImpl) HandleDownloadFile(c echo.Context) error {
	id := c.Param("id")
	index, err := indexParam(c)
	if err != nil {
		return err
	}

	f, err := h.batches.File(id, index)
	if err != nil {
		return batchError(err, id)
	}
	return sendVCard(c, f)
}

// HandleDownloadAll sends every converted file and clears the list. One file
// is sent as a plain .vcf, several as a zip archive.
func (h *BatchHandlerImpl) HandleDownloadAll(c echo.Context) error {
	id := c.Param("id")

	files, err := h.batches.Drain(id)
	if err != nil {
		return batchError(err, id)
	}
	if len(files) == 0 {
		return NewConflictError("no converted files to download")
	}
	h.logger.Info("downloading all files", zap.String("batch", id), zap.Int("files", len(files)))

	if len(files) == 1 {
		return sendVCard(c, files[0])
	}

	data, err := BuildArchive(files)
	if err != nil {
		return NewInternalError("failed to build archive", err)
	}
	setAttachment(c, bundleName)
	return c.Blob(http.StatusOK, "application/zip", data)
}

// BuildArchive zips files under their normalized download names. Repeated
// names get a " (n)" suffix.
func BuildArchive(files []models.ConvertedFile) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	seen := make(map[string]int)
	for _, f := range files {
		name := converter.UniqueName(f.FileName, seen)
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: f.CreatedAt,
		})
		if err != nil {
			return nil, fmt.Errorf("adding %s: %w", name, err)
		}
		if _, err := w.Write([]byte(f.Content)); err != nil {
			return nil, fmt.Errorf("writing %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}
	return buf.Bytes(), nil
}

func sendVCard(c echo.Context, f models.ConvertedFile) error {
	setAttachment(c, converter.DownloadName(f.FileName))
	c.Response().Header().Set("X-Contact-Count", strconv.Itoa(f.Count))
	return c.Blob(http.StatusOK, MIMETypeVCard, []byte(f.Content))
}

func setAttachment(c echo.Context, name string) {
	disp := mime.FormatMediaType("attachment", map[string]string{"filename": name})
	if disp == "" {
		disp = "attachment"
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, disp)
}

func indexParam(c echo.Context) (int, error) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return 0, NewValidationError("index")
	}
	return index, nil
}

// batchError maps session errors onto API errors.
func batchError(err error, id string) error {
	switch {
	case errors.Is(err, session.ErrBatchNotFound):
		return NewNotFoundError("batch", id)
	case errors.Is(err, session.ErrIndexOutOfRange):
		return NewNotFoundError("file", err.Error())
	case errors.Is(err, session.ErrNothingConverted):
		return NewConflictError(err.Error())
	case errors.Is(err, session.ErrUnknownProfile):
		return NewBadRequestError("unknown profile", err)
	}
	return NewInternalError("batch operation failed", err)
}

// Request/Response types

type contactNameRequest struct {
	ContactName string `json:"contactName"`
}

type previewResponse struct {
	FileName string `json:"fileName"`
	Content  string `json:"content"`
	Lines    int    `json:"lines"`
}
