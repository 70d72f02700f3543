package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dejoiner/dejoiner/internal/bot"
	"github.com/dejoiner/dejoiner/internal/config"
	"github.com/dejoiner/dejoiner/internal/figma"
	"github.com/dejoiner/dejoiner/internal/gitmeta"
	"github.com/dejoiner/dejoiner/internal/httpapi"
	"github.com/dejoiner/dejoiner/internal/ingest"
	"github.com/dejoiner/dejoiner/internal/logging"
	"github.com/dejoiner/dejoiner/internal/mcp"
	"github.com/dejoiner/dejoiner/internal/search"
	"github.com/dejoiner/dejoiner/internal/storage"
	"github.com/dejoiner/dejoiner/internal/summarizer"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	mcpMode := flag.Bool("mcp", false, "serve the MCP protocol on stdio instead of the HTTP API")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Dejoiner\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", storage.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr; stdout is reserved for the MCP protocol stream
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting dejoiner",
		zap.String("version", version),
		zap.String("build_mode", storage.BuildMode),
		zap.String("driver", storage.DriverName),
		zap.String("db_path", cfg.DBPath),
	)

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	settings := config.NewSettingsCache(store, cfg)

	figmaClient := figma.NewClient(func(ctx context.Context) (string, error) {
		s, err := settings.Get(ctx)
		if err != nil {
			return "", err
		}
		return s.FigmaToken, nil
	}, logger.Named("figma"))

	gitClient := gitmeta.NewClient(cfg.GitHubToken, logger.Named("gitmeta"))

	ai := summarizer.NewGroqClient(func(ctx context.Context) (string, error) {
		s, err := settings.Get(ctx)
		if err != nil {
			return "", err
		}
		return s.GroqAPIKey, nil
	}, logger.Named("summarizer"))

	searchService := search.NewService(store, logger.Named("search"))
	ingestService := ingest.NewService(store, figmaClient, gitClient, ai,
		searchService, cfg.SyncWorkers, logger.Named("ingest"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *mcpMode {
		runMCP(ctx, cancel, store, searchService, ingestService, logger)
		return
	}

	commander := bot.NewProcessor(store, searchService, ingestService, settings, logger.Named("bot"))
	runHTTP(ctx, cfg, store, searchService, ingestService, commander, logger)
}

// runMCP serves the MCP protocol on stdio until the stream closes or a
// shutdown signal arrives.
func runMCP(ctx context.Context, cancel context.CancelFunc, store storage.Store,
	searchService *search.Service, ingestService *ingest.Service, logger *zap.Logger) {
	server := mcp.NewServer(store, searchService, ingestService, logger.Named("mcp"))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		cancel()
	case err := <-errChan:
		if err != nil {
			logger.Fatal("mcp server error", zap.Error(err))
		}
	}
}

// runHTTP serves the REST API until a shutdown signal arrives
func runHTTP(ctx context.Context, cfg *config.Config, store storage.Store,
	searchService *search.Service, ingestService *ingest.Service,
	commander *bot.Processor, logger *zap.Logger) {
	server := httpapi.NewServer(cfg.HTTPAddr, store, searchService, ingestService,
		commander, logger.Named("http"))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	select {
	case sig := <-sigChan:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, shutdownTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
	case err := <-errChan:
		if err != nil {
			logger.Fatal("http server error", zap.Error(err))
		}
	}
}
