package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/buildpeek/buildpeek/internal/adapter/httpsource"
	"github.com/buildpeek/buildpeek/internal/adapter/sqlite"
	"github.com/buildpeek/buildpeek/internal/config"
	"github.com/buildpeek/buildpeek/internal/controller"
	"github.com/buildpeek/buildpeek/internal/fetcher"
	"github.com/buildpeek/buildpeek/internal/logger"
	"github.com/buildpeek/buildpeek/internal/port"
	"github.com/buildpeek/buildpeek/internal/service/maintenance"
	"github.com/buildpeek/buildpeek/internal/service/server"
	"github.com/buildpeek/buildpeek/internal/telemetry"
	"go.uber.org/zap"
)

const version = "0.1.0"

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	zapLogger, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	zapLogger.Info("starting buildpeek",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	// Open database
	store, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		zapLogger.Fatal("failed to open database", zap.Error(err), zap.String("path", cfg.Database.Path))
	}
	defer store.Close()

	// Telemetry: structured logs plus the events table
	events := telemetry.NewFanout(zapLogger,
		telemetry.NewZapSink(zapLogger),
		telemetry.NewStoreSink(store, zapLogger),
	)

	// Streaming HTTP log source
	source := httpsource.NewClient(&httpsource.Config{
		SkipTLSVerify: cfg.Fetch.SkipTLSVerify,
		UserAgent:     cfg.Fetch.UserAgent,
	})

	streamFetcher := fetcher.New(source, zapLogger, cfg.Fetch.GetChunkSize())

	// Fetch limits track the config file; Watch makes them live-reloadable
	cfg.Watch(zapLogger)

	controllerCfg := &controller.Config{
		Limits:              cfg.CurrentLimits,
		ProgressLogInterval: cfg.Fetch.GetProgressLogInterval(),
	}
	factory := func(notifier port.Notifier) *controller.Controller {
		return controller.New(controllerCfg, streamFetcher, store, events, notifier, zapLogger)
	}

	// Create HTTP server
	serverCfg := &server.Config{
		BindAddr:      cfg.HTTP.BindAddr,
		AdminUsername: cfg.HTTP.AdminUsername,
		AdminPassword: cfg.HTTP.AdminPassword,
		ReadTimeout:   cfg.HTTP.GetReadTimeout(),
		WriteTimeout:  cfg.HTTP.GetWriteTimeout(),
		IdleTimeout:   cfg.HTTP.GetIdleTimeout(),
	}
	httpServer := server.New(serverCfg, factory, store, zapLogger)

	// Create maintenance service
	maintenanceCfg := &maintenance.Config{
		PruneInterval: cfg.Retention.GetPruneInterval(),
		MaxAge:        cfg.Retention.GetMaxAge(),
	}
	maintenanceService := maintenance.New(maintenanceCfg, store, events, zapLogger)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start HTTP server
	go func() {
		if err := httpServer.Start(); err != nil {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Start maintenance service
	go func() {
		if err := maintenanceService.Start(ctx); err != nil && err != context.Canceled {
			zapLogger.Error("maintenance service stopped with error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	zapLogger.Info("application started successfully",
		zap.String("http_addr", cfg.HTTP.BindAddr),
		zap.String("database", cfg.Database.Path),
	)
	<-sigChan

	zapLogger.Info("shutdown signal received, stopping services...")

	cancel()
	maintenanceService.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		zapLogger.Error("failed to stop HTTP server gracefully", zap.Error(err))
	}

	zapLogger.Info("application stopped successfully")
}
