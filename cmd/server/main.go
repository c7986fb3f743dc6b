package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"platsbanken-sync/internal/api/handlers"
	"platsbanken-sync/internal/api/routes"
	"platsbanken-sync/internal/background"
	"platsbanken-sync/internal/config"
	"platsbanken-sync/internal/importer"
	"platsbanken-sync/internal/jobstream"
	"platsbanken-sync/internal/logging"
	"platsbanken-sync/internal/storage"
	"platsbanken-sync/internal/syncer"
	"platsbanken-sync/internal/transform"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logging
	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseLogging()

	logger := logging.GetGlobalLogger()
	logger.Info("Starting Platsbanken Sync", map[string]interface{}{
		"source": cfg.JobStream.Source,
	})

	ctx := context.Background()

	// Connect to the database and bootstrap the schema
	pool, err := storage.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", map[string]interface{}{"error": err.Error()})
	}
	defer pool.Close()

	if err := storage.Bootstrap(ctx, pool); err != nil {
		logger.Fatal("Failed to bootstrap schema", map[string]interface{}{"error": err.Error()})
	}

	store := storage.NewPostgresStore(pool)

	// Build the sync pipeline
	client := jobstream.NewClient(cfg)
	transformer := transform.NewTransformer(cfg.JobStream.HomeCountry)
	imp := importer.NewImporter(store, cfg.JobStream.Source)
	s := syncer.NewSyncer(cfg, client, transformer, imp)

	// Background task manager for API-triggered runs
	taskStore := background.NewTaskStore(cfg)
	taskManager := background.NewTaskManager(cfg, taskStore)
	if err := taskManager.Start(ctx); err != nil {
		logger.Fatal("Failed to start task manager", map[string]interface{}{"error": err.Error()})
	}

	// Hourly scheduler
	scheduler := syncer.NewScheduler(cfg, s)
	if err := scheduler.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", map[string]interface{}{"error": err.Error()})
	}

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	var redisPinger handlers.Pinger
	if rs, ok := taskStore.(*background.RedisTaskStore); ok {
		redisPinger = rs
	}
	routes.SetupRoutes(e, cfg, store, redisPinger, s, taskManager)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		scheduler.Stop()

		if err := taskManager.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping task manager", map[string]interface{}{"error": err.Error()})
		}

		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down server", map[string]interface{}{"error": err.Error()})
		}

		logger.Info("Server shutdown complete")
	}()

	// Start server
	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", map[string]interface{}{"address": address})

	if err := e.Start(address); err != nil && err != http.ErrServerClosed {
		logger.Fatal("Server failed to start", map[string]interface{}{"error": err.Error()})
	}
}
