package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/varbridge/backend/internal/api"
	"github.com/varbridge/backend/internal/catalog"
	"github.com/varbridge/backend/internal/config"
	"github.com/varbridge/backend/internal/figma"
	"github.com/varbridge/backend/internal/proxy"
	"github.com/varbridge/backend/internal/session"
	"github.com/varbridge/backend/internal/storage"
	"github.com/varbridge/backend/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath, err := resolveConfigPath()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}

	// Load XML configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		logger.Error("failed to create directories", "error", err)
		os.Exit(1)
	}

	// Initialize storage
	docStore, err := storage.NewLocalStore(cfg.GetDocumentsDir())
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Snapshot catalog is optional; the proxy works without it.
	var (
		snapshots *catalog.Catalog
		recorder  proxy.Recorder
		reader    api.SnapshotReader
	)
	if cfg.Storage.EnableCatalog {
		snapshots, err = catalog.Open(cfg.Storage.CatalogPath)
		if err != nil {
			logger.Warn("snapshot catalog disabled", "path", cfg.Storage.CatalogPath, "error", err)
		} else {
			defer snapshots.Close()
			recorder = snapshots
			reader = snapshots
		}
	}

	client := figma.NewClient(cfg.Figma.Token,
		figma.WithBaseURL(cfg.Figma.APIBaseURL),
		figma.WithTimeout(cfg.FigmaTimeout()))
	if !client.HasToken() {
		logger.Warn("FIGMA_TOKEN is not set; remote variable endpoints will fail")
	}
	proxySvc := proxy.NewService(client, recorder, logger)

	sessions := session.NewManager(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Close plugin sessions that went quiet
	go func() {
		ticker := time.NewTicker(cfg.CleanupInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sessions.CleanupIdle(cfg.SessionIdle()); n > 0 {
					logger.Info("closed idle plugin sessions", "count", n)
				}
			}
		}
	}()

	e := echo.New()
	e.HideBanner = true
	api.SetupMiddleware(e, cfg)

	handlers := api.NewHandlers(&api.Dependencies{
		Store:          docStore,
		Sessions:       sessions,
		Proxy:          proxySvc,
		Catalog:        reader,
		DefaultFileKey: cfg.Figma.DefaultFileKey,
		AllowDeletion:  cfg.Security.AllowDocumentDeletion,
		Version:        Version,
		Logger:         logger,
	})
	api.RegisterRoutes(e, handlers)

	// Register embedded UI if available
	embeddedMode := web.HasEmbeddedFiles()
	if embeddedMode {
		if err := web.RegisterStaticRoutes(e); err != nil {
			logger.Warn("failed to register static routes", "error", err)
		}
	}

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	printBanner(cfg, configPath, embeddedMode, snapshots != nil)

	go func() {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	sessions.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

// resolveConfigPath returns VARBRIDGE_CONFIG or the config next to the executable.
func resolveConfigPath() (string, error) {
	if p := os.Getenv("VARBRIDGE_CONFIG"); p != "" {
		return p, nil
	}
	exePath, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(exePath), config.FileName), nil
}

func printBanner(cfg *config.AppConfig, configPath string, embedded, catalogEnabled bool) {
	ui := "not built"
	if embedded {
		ui = "embedded"
	}
	catalogState := "disabled"
	if catalogEnabled {
		catalogState = cfg.Storage.CatalogPath
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           VarBridge Server                                ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  UI:         %-45s║\n", ui)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Documents: %-46s║\n", cfg.GetDocumentsDir())
	fmt.Printf("║  Catalog:   %-46s║\n", catalogState)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")
}
