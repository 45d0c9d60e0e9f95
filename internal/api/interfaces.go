// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"
	"github.com/vcf-converter/backend/internal/models"
	"github.com/vcf-converter/backend/internal/session"
)

// BatchHandler handles the converted-file list of a browser session
type BatchHandler interface {
	HandleCreateBatch(c echo.Context) error
	HandleGetBatch(c echo.Context) error
	HandleSetContactName(c echo.Context) error
	HandlePreview(c echo.Context) error
	HandleListFiles(c echo.Context) error
	HandleDeleteFile(c echo.Context) error
	HandleDownloadFile(c echo.Context) error
	HandleDownloadAll(c echo.Context) error
}

// ConvertHandler handles phone list conversion
type ConvertHandler interface {
	HandleConvert(c echo.Context) error
	HandleReconvert(c echo.Context) error
}

// ExampleHandler serves the example input file and the profile list
type ExampleHandler interface {
	HandleGetExample(c echo.Context) error
	HandleListProfiles(c echo.Context) error
}

// SourceHandler serves uploaded source files
type SourceHandler interface {
	HandleGetSource(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// BatchManager defines the batch operations the handlers need.
// This allows mocking in tests
type BatchManager interface {
	Create(contactName string) *models.Batch
	Get(id string) (*models.Batch, bool)
	Touch(id string) bool
	SetContactName(id, name string) error
	Convert(id, sourceName, content string, opts session.ConvertOptions) (models.ConvertedFile, error)
	Reconvert(id, fileName string) (models.ConvertedFile, error)
	Preview(id string) (string, string, error)
	Files(id string) ([]models.ConvertedFile, error)
	File(id string, index int) (models.ConvertedFile, error)
	Delete(id string, index int) error
	Drain(id string) ([]models.ConvertedFile, error)
}

var _ BatchManager = (*session.Manager)(nil)
