// Package config provides XML-based configuration management.
package config

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// FileName is the configuration file looked up next to the executable.
const FileName = "varbridge.config"

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"VarBridge"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Remote design API
	Figma FigmaConfig `xml:"Figma"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage"`

	// Security configuration
	Security SecurityConfig `xml:"Security"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port              int    `xml:"Port"`
	BindAddress       string `xml:"BindAddress"`
	EnableCORS        bool   `xml:"EnableCORS"`
	AllowOrigins      string `xml:"AllowOrigins"`
	ReadTimeout       int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout      int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout       int    `xml:"IdleTimeoutSeconds"`
	BodyLimit         string `xml:"BodyLimit"`
	EnableCompression bool   `xml:"EnableCompression"`
	CompressionLevel  int    `xml:"CompressionLevel"`
}

// FigmaConfig contains settings for the remote variables API
type FigmaConfig struct {
	APIBaseURL     string `xml:"APIBaseURL"`
	Token          string `xml:"Token"`
	TimeoutSeconds int    `xml:"TimeoutSeconds"`
	DefaultFileKey string `xml:"DefaultFileKey"`
}

// StorageConfig contains file storage settings
type StorageConfig struct {
	DataDirectory      string `xml:"DataDirectory"`
	DocumentsDirectory string `xml:"DocumentsDirectory"`
	CatalogPath        string `xml:"CatalogPath"`
	EnableCatalog      bool   `xml:"EnableCatalog"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	AllowDocumentDeletion bool `xml:"AllowDocumentDeletion"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel               string `xml:"LogLevel"`
	EnableRequestLogging   bool   `xml:"EnableRequestLogging"`
	ShowErrorDetails       bool   `xml:"ShowErrorDetails"`
	SessionIdleMinutes     int    `xml:"SessionIdleMinutes"`
	CleanupIntervalMinutes int    `xml:"CleanupIntervalMinutes"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:              8090,
			BindAddress:       "0.0.0.0",
			EnableCORS:        true,
			AllowOrigins:      "*",
			ReadTimeout:       30,
			WriteTimeout:      30,
			IdleTimeout:       120,
			BodyLimit:         "32M",
			EnableCompression: true,
			CompressionLevel:  5,
		},
		Figma: FigmaConfig{
			APIBaseURL:     "https://api.figma.com",
			TimeoutSeconds: 30,
		},
		Storage: StorageConfig{
			DataDirectory:      "./data",
			DocumentsDirectory: "./data/documents",
			CatalogPath:        "./data/catalog.duckdb",
			EnableCatalog:      true,
		},
		Security: SecurityConfig{
			AllowDocumentDeletion: true,
		},
		Advanced: AdvancedConfig{
			LogLevel:               "info",
			EnableRequestLogging:   true,
			ShowErrorDetails:       false,
			SessionIdleMinutes:     30,
			CleanupIntervalMinutes: 5,
		},
	}
}

// LoadConfig loads configuration from XML file
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := xml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

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

	header := []byte(xml.Header + "\n<!-- VarBridge Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
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

	// Moving the data directory moves everything below it unless the
	// sub-paths were configured elsewhere.
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		old := c.Storage.DataDirectory
		c.Storage.DataDirectory = dataDir
		c.Storage.DocumentsDirectory = rebase(c.Storage.DocumentsDirectory, old, dataDir)
		c.Storage.CatalogPath = rebase(c.Storage.CatalogPath, old, dataDir)
	}

	// The token is a secret and should normally come from the environment.
	if token := os.Getenv("FIGMA_TOKEN"); token != "" {
		c.Figma.Token = token
	}

	if url := os.Getenv("FIGMA_API_URL"); url != "" {
		c.Figma.APIBaseURL = url
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
		&c.Storage.DocumentsDirectory,
		&c.Storage.CatalogPath,
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

// GetDocumentsDir returns the absolute documents directory path
func (c *AppConfig) GetDocumentsDir() string {
	return c.Storage.DocumentsDirectory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// FigmaTimeout returns the upstream request timeout.
func (c *AppConfig) FigmaTimeout() time.Duration {
	if c.Figma.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Figma.TimeoutSeconds) * time.Second
}

// SessionIdle returns how long a plugin session may stay silent.
func (c *AppConfig) SessionIdle() time.Duration {
	if c.Advanced.SessionIdleMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Advanced.SessionIdleMinutes) * time.Minute
}

// CleanupInterval returns how often idle sessions are swept.
func (c *AppConfig) CleanupInterval() time.Duration {
	if c.Advanced.CleanupIntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Advanced.CleanupIntervalMinutes) * time.Minute
}

// Origins returns the configured CORS origins.
func (c *AppConfig) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.Server.AllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *AppConfig) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.Advanced.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the application logger.
func (c *AppConfig) NewLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.SlogLevel()}))
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.DocumentsDirectory,
	}
	if c.Storage.EnableCatalog && c.Storage.CatalogPath != "" {
		dirs = append(dirs, filepath.Dir(c.Storage.CatalogPath))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
