// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/vcf-converter/backend/internal/converter"
	"github.com/vcf-converter/backend/internal/storage"
	"go.uber.org/zap"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store        storage.Store
	Batches      BatchManager
	Registry     *converter.Registry
	Example      ExampleLoader
	BatchCount   func() int
	AllowedTypes []string
	MaxBytes     int64
	Version      string
	Logger       *zap.Logger
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	Batch   BatchHandler
	Convert ConvertHandler
	Example ExampleHandler
	Source  SourceHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health: NewHealthHandler(deps.Version, deps.BatchCount),
		Batch:  NewBatchHandler(deps.Batches, deps.Logger),
		Convert: NewConvertHandler(deps.Store, deps.Batches, ConvertOptions{
			AllowedTypes: deps.AllowedTypes,
			MaxBytes:     deps.MaxBytes,
		}, deps.Logger),
		Example: NewExampleHandler(deps.Example, deps.Registry, deps.Logger),
		Source:  NewSourceHandler(deps.Store),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Example file and profiles
	apiGroup.GET("/example", handlers.Example.HandleGetExample)
	apiGroup.GET("/profiles", handlers.Example.HandleListProfiles)

	// Batch routes
	batchGroup := apiGroup.Group("/batches")
	batchGroup.POST("", handlers.Batch.HandleCreateBatch)
	batchGroup.GET("/:id", handlers.Batch.HandleGetBatch)
	batchGroup.PUT("/:id/contact-name", handlers.Batch.HandleSetContactName)
	batchGroup.POST("/:id/convert", handlers.Convert.HandleConvert)
	batchGroup.POST("/:id/reconvert", handlers.Convert.HandleReconvert)
	batchGroup.GET("/:id/preview", handlers.Batch.HandlePreview)
	batchGroup.GET("/:id/files", handlers.Batch.HandleListFiles)
	batchGroup.DELETE("/:id/files/:index", handlers.Batch.HandleDeleteFile)
	batchGroup.GET("/:id/files/:index/download", handlers.Batch.HandleDownloadFile)
	batchGroup.POST("/:id/download", handlers.Batch.HandleDownloadAll)

	// Uploaded sources
	apiGroup.GET("/sources/:id", handlers.Source.HandleGetSource)
}

// MiddlewareConfig selects the optional middleware.
type MiddlewareConfig struct {
	RequestLogging bool
	EnableCORS     bool
	AllowOrigins   []string
	BodyLimit      string
	Timeout        time.Duration
	ShowDetails    bool
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, cfg MiddlewareConfig, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Use custom error handler
	e.HTTPErrorHandler = NewErrorHandler(logger, cfg.ShowDetails)

	if cfg.RequestLogging {
		httpLog := logger.Named("http")
		e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			Skipper: func(c echo.Context) bool {
				return c.Request().URL.Path == "/api/health"
			},
			LogMethod:   true,
			LogURI:      true,
			LogStatus:   true,
			LogLatency:  true,
			LogError:    true,
			HandleError: true,
			LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
				fields := []zap.Field{
					zap.String("method", v.Method),
					zap.String("uri", v.URI),
					zap.Int("status", v.Status),
					zap.Duration("latency", v.Latency),
				}
				if v.Error != nil {
					httpLog.Warn("request", append(fields, zap.Error(v.Error))...)
					return nil
				}
				httpLog.Info("request", fields...)
				return nil
			},
		}))
	}

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("handler panicked",
				zap.String("path", c.Request().URL.Path),
				zap.Error(err),
				zap.ByteString("stack", stack),
			)
			return err
		},
	}))

	if cfg.Timeout > 0 {
		e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Timeout: cfg.Timeout,
			Skipper: func(c echo.Context) bool {
				return strings.HasSuffix(c.Request().URL.Path, "/convert")
			},
			ErrorMessage: "Request timeout",
		}))
	}

	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	if cfg.EnableCORS {
		origins := cfg.AllowOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:  origins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
			ExposeHeaders: []string{echo.HeaderContentDisposition, "X-Contact-Count"},
		}))
	}
}
