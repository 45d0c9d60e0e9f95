package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"github.com/vcf-converter/backend/internal/api"
	"github.com/vcf-converter/backend/internal/config"
	"github.com/vcf-converter/backend/internal/converter"
	"github.com/vcf-converter/backend/internal/logging"
	"github.com/vcf-converter/backend/internal/session"
	"github.com/vcf-converter/backend/internal/storage"
	"github.com/vcf-converter/backend/internal/web"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var (
	configPath string
	servePort  int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the converter web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "Path to the XML config file (default: next to the executable)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Override the configured port")
}

func runServe(ctx context.Context) error {
	if configPath == "" {
		exePath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to get executable path: %w", err)
		}
		configPath = filepath.Join(filepath.Dir(exePath), config.DefaultFileName)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	if !verbose {
		if logger, err = logging.New(cfg.Advanced.LogLevel, false); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	registry, err := loadRegistry(cfg, logger)
	if err != nil {
		return err
	}

	fileStore, err := storage.NewLocalStore(cfg.GetUploadDir())
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	batches := session.NewManager(registry, logger)
	batches.SetMaxBatches(cfg.Session.MaxBatches)
	batches.SetDefaultContactName(cfg.Conversion.DefaultContactName)
	batches.SetReleaseFunc(releaseSource(fileStore, logger))

	// Background batch cleanup
	go batches.Run(ctx,
		time.Duration(cfg.Session.CleanupIntervalMinutes)*time.Minute,
		time.Duration(cfg.Session.TimeoutMinutes)*time.Minute,
	)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	api.SetupMiddleware(e, api.MiddlewareConfig{
		RequestLogging: cfg.Advanced.EnableRequestLogging,
		EnableCORS:     cfg.Server.EnableCORS,
		AllowOrigins:   splitOrigins(cfg.Server.AllowOrigins),
		BodyLimit:      cfg.Server.BodyLimit,
		Timeout:        time.Duration(cfg.Server.ReadTimeout) * time.Second,
		ShowDetails:    verbose,
	}, logger)

	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Store:        fileStore,
		Batches:      batches,
		Registry:     registry,
		Example:      exampleLoader(cfg.Conversion.ExampleFile),
		BatchCount:   batches.Count,
		AllowedTypes: cfg.AllowedExtensions(),
		MaxBytes:     cfg.Security.MaxUploadBytes,
		Version:      Version,
		Logger:       logger,
	}))

	embedded := web.HasEmbeddedFiles()
	if embedded {
		if err := web.RegisterStaticRoutes(e); err != nil {
			logger.Warn("failed to register static routes", zap.Error(err))
			embedded = false
		}
	}

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	printBanner(cfg, embedded)

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.StartServer(s)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = e.Shutdown(shutdownCtx)

	// Batches live in memory only, so their uploads go with them.
	if n, perr := storage.Purge(fileStore); perr != nil {
		logger.Warn("failed to purge uploads", zap.Error(perr))
	} else {
		logger.Info("purged uploads", zap.Int("files", n))
	}
	return err
}

// releaseSource deletes an upload once no batch refers to it.
func releaseSource(store storage.Store, logger *zap.Logger) session.ReleaseFunc {
	return func(sourceID string) {
		if err := store.Delete(sourceID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			logger.Warn("failed to delete upload", zap.String("source", sourceID), zap.Error(err))
		}
	}
}

// loadRegistry builds the profile registry from the built-in profile and the
// optional profiles file.
func loadRegistry(cfg *config.AppConfig, logger *zap.Logger) (*converter.Registry, error) {
	registry := converter.NewRegistry()

	if path := cfg.Conversion.ProfilesFile; path != "" {
		set, err := converter.ParseProfiles(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.Debug("no profiles file", zap.String("path", path))
		case err != nil:
			return nil, fmt.Errorf("failed to load profiles: %w", err)
		default:
			if err := registry.RegisterAll(set); err != nil {
				return nil, fmt.Errorf("invalid profile in %s: %w", path, err)
			}
			logger.Info("profiles loaded", zap.String("path", path), zap.Int("count", len(set.Profiles)))
		}
	}

	if name := cfg.Conversion.DefaultProfile; name != "" {
		if err := registry.SetDefault(name); err != nil {
			logger.Warn("default profile not available, using built-in", zap.String("profile", name))
		}
	}
	return registry, nil
}

// exampleLoader reads the example file from disk and falls back to the
// embedded copy.
func exampleLoader(path string) api.ExampleLoader {
	return func() ([]byte, error) {
		if path != "" {
			if data, err := os.ReadFile(path); err == nil {
				return data, nil
			}
		}
		return web.ExampleFile()
	}
}

func splitOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func printBanner(cfg *config.AppConfig, embedded bool) {
	mode := "API only"
	if embedded {
		mode = "Embedded page"
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           vCard Converter Server                          ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Mode:       %-45s║\n", mode)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Data Dir:  %-46s║\n", cfg.GetDataDir())
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	if embedded {
		fmt.Printf("Open http://localhost:%d in your browser\n\n", cfg.Server.Port)
	}
}
