// Package config provides XML-based configuration management.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultFileName is the configuration file created next to the executable.
const DefaultFileName = "VCFConverter.config.xml"

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"VCFConverter"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage"`

	// Conversion defaults
	Conversion ConversionConfig `xml:"Conversion"`

	// Batch lifetime
	Session SessionConfig `xml:"Session"`

	// Security configuration
	Security SecurityConfig `xml:"Security"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// StorageConfig contains file storage settings
type StorageConfig struct {
	DataDirectory    string `xml:"DataDirectory"`
	UploadsDirectory string `xml:"UploadsDirectory"`
}

// ConversionConfig contains converter defaults
type ConversionConfig struct {
	DefaultContactName string `xml:"DefaultContactName"`
	DefaultProfile     string `xml:"DefaultProfile"`
	ProfilesFile       string `xml:"ProfilesFile"`
	ExampleFile        string `xml:"ExampleFile"`
}

// SessionConfig contains batch cleanup settings
type SessionConfig struct {
	TimeoutMinutes         int `xml:"TimeoutMinutes"`
	CleanupIntervalMinutes int `xml:"CleanupIntervalMinutes"`
	MaxBatches             int `xml:"MaxBatches"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	AllowedFileTypes string `xml:"AllowedFileTypes"`
	MaxUploadBytes   int64  `xml:"MaxUploadBytes"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8090,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
			BodyLimit:    "20M",
		},
		Storage: StorageConfig{
			DataDirectory:    "./data",
			UploadsDirectory: "./data/uploads",
		},
		Conversion: ConversionConfig{
			DefaultContactName: "contact",
			DefaultProfile:     "onlynumber",
			ProfilesFile:       "./data/profiles.yaml",
			ExampleFile:        "./data/ExampleFile/onlyNumberWithAAA.txt",
		},
		Session: SessionConfig{
			TimeoutMinutes:         60,
			CleanupIntervalMinutes: 5,
			MaxBatches:             100,
		},
		Security: SecurityConfig{
			AllowedFileTypes: ".txt",
			MaxUploadBytes:   10 << 20,
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			EnableRequestLogging: true,
		},
	}
}

// LoadConfig loads configuration from XML file
func LoadConfig(configPath string) (*AppConfig, error) {
	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		config.applyEnvironmentOverrides()
		config.applyLimits()
		config.resolvePaths(filepath.Dir(configPath))
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := xml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()
	config.applyLimits()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- vCard Converter Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	// DATA_DIR moves every data path that still sits under the default root
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		old := c.Storage.DataDirectory
		c.Storage.DataDirectory = dataDir
		c.Storage.UploadsDirectory = rebase(c.Storage.UploadsDirectory, old, dataDir)
		c.Conversion.ProfilesFile = rebase(c.Conversion.ProfilesFile, old, dataDir)
		c.Conversion.ExampleFile = rebase(c.Conversion.ExampleFile, old, dataDir)
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}
}

// applyLimits replaces non-positive durations and sizes with the defaults.
func (c *AppConfig) applyLimits() {
	def := DefaultConfig()
	if c.Session.TimeoutMinutes <= 0 {
		c.Session.TimeoutMinutes = def.Session.TimeoutMinutes
	}
	if c.Session.CleanupIntervalMinutes <= 0 {
		c.Session.CleanupIntervalMinutes = def.Session.CleanupIntervalMinutes
	}
	if c.Session.MaxBatches <= 0 {
		c.Session.MaxBatches = def.Session.MaxBatches
	}
	if c.Security.MaxUploadBytes <= 0 {
		c.Security.MaxUploadBytes = def.Security.MaxUploadBytes
	}
}

func rebase(path, oldRoot, newRoot string) string {
	rel, err := filepath.Rel(oldRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.Join(newRoot, rel)
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	for _, p := range []*string{
		&c.Storage.DataDirectory,
		&c.Storage.UploadsDirectory,
		&c.Conversion.ProfilesFile,
		&c.Conversion.ExampleFile,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
}

// GetDataDir returns the absolute data directory path
func (c *AppConfig) GetDataDir() string {
	return c.Storage.DataDirectory
}

// GetUploadDir returns the absolute uploads directory path
func (c *AppConfig) GetUploadDir() string {
	return c.Storage.UploadsDirectory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// AllowedExtensions returns the lower-cased allowed upload extensions.
func (c *AppConfig) AllowedExtensions() []string {
	var exts []string
	for _, e := range strings.Split(c.Security.AllowedFileTypes, ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	return exts
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.UploadsDirectory,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
