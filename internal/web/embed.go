// Package web provides the embedded converter page and example file.
package web

import (
	"embed"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
)

// ExampleFilePath is the example input file inside the embedded tree.
const ExampleFilePath = "ExampleFile/onlyNumberWithAAA.txt"

//go:embed dist/*
var staticFiles embed.FS

// GetFileSystem returns the embedded filesystem with the dist folder as root.
func GetFileSystem() (fs.FS, error) {
	return fs.Sub(staticFiles, "dist")
}

// RegisterStaticRoutes registers the page and its assets with Echo.
// The API routes should be registered before calling this function.
func RegisterStaticRoutes(e *echo.Echo) error {
	staticFS, err := GetFileSystem()
	if err != nil {
		return err
	}

	fileServer := http.FileServer(http.FS(staticFS))

	e.GET("/*", func(c echo.Context) error {
		requestPath := path.Clean(c.Request().URL.Path)
		if requestPath == "." || requestPath == "/" {
			return serveIndexHTML(c, staticFS)
		}

		// Unknown API paths must not fall back to the page
		if strings.HasPrefix(requestPath, "/api/") {
			return echo.ErrNotFound
		}

		file, err := staticFS.Open(strings.TrimPrefix(requestPath, "/"))
		if err != nil {
			return serveIndexHTML(c, staticFS)
		}
		defer file.Close()

		stat, err := file.Stat()
		if err != nil || stat.IsDir() {
			return serveIndexHTML(c, staticFS)
		}

		fileServer.ServeHTTP(c.Response(), c.Request())
		return nil
	})

	return nil
}

func serveIndexHTML(c echo.Context, staticFS fs.FS) error {
	content, err := fs.ReadFile(staticFS, "index.html")
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "index.html not found")
	}
	return c.HTMLBlob(http.StatusOK, content)
}

// HasEmbeddedFiles returns true if the page has been embedded.
func HasEmbeddedFiles() bool {
	_, err := fs.Stat(staticFiles, "dist/index.html")
	return err == nil
}

// ExampleFile returns the embedded example input file.
func ExampleFile() ([]byte, error) {
	f, err := GetEmbeddedFile(ExampleFilePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// GetEmbeddedFile returns a specific file from the embedded filesystem.
func GetEmbeddedFile(name string) (fs.File, error) {
	staticFS, err := GetFileSystem()
	if err != nil {
		return nil, err
	}
	return staticFS.Open(name)
}
