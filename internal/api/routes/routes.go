package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"platsbanken-sync/internal/api/handlers"
	"platsbanken-sync/internal/api/middleware"
	"platsbanken-sync/internal/background"
	"platsbanken-sync/internal/config"
	"platsbanken-sync/internal/syncer"
)

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, cfg *config.Config, db handlers.Pinger, redis handlers.Pinger, s *syncer.Syncer, taskManager background.TaskManager) {
	// Global middleware
	e.HTTPErrorHandler = middleware.ErrorHandler()
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CORSConfig())
	e.Use(middleware.TimeoutConfig(cfg.Server.ReadTimeout))

	// Health check routes
	health := e.Group("/health")
	{
		health.GET("", handlers.HealthHandler)
		health.GET("/ready", handlers.ReadinessHandler(db, redis))
		health.GET("/live", handlers.LivenessHandler)
	}

	// Status route
	e.GET("/status", handlers.StatusHandler(taskManager))

	// API v1 routes
	v1 := e.Group("/api/v1")
	{
		sync := v1.Group("/sync")
		{
			sync.POST("", handlers.TriggerSyncHandler(s, taskManager))
			sync.POST("/snapshot", handlers.TriggerSnapshotHandler(s, taskManager))
			sync.GET("", handlers.SyncListHandler(taskManager))
			sync.GET("/:processId", handlers.SyncStatusHandler(taskManager))
		}
	}

	// Root route
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "Platsbanken Sync",
			"version": "1.0.0",
			"status":  "running",
		})
	})
}
