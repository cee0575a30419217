package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sensei-service/sensei_service/internal/api/routes"
	"github.com/sensei-service/sensei_service/internal/infrastructure/cache"
	"github.com/sensei-service/sensei_service/internal/infrastructure/config"
	"github.com/sensei-service/sensei_service/internal/infrastructure/database"
	"github.com/sensei-service/sensei_service/internal/infrastructure/di"
	"github.com/sensei-service/sensei_service/internal/infrastructure/scheduler"
	"github.com/sensei-service/sensei_service/pkg/logger"
	"github.com/sensei-service/sensei_service/pkg/tracing"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel, cfg.Environment)

	// Initialize database
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
		log.Fatal("Failed to run migrations", "error", err)
	}

	// Initialize Redis
	redisCache, err := cache.New(cfg.Redis, log.Zap())
	if err != nil {
		log.Fatal("Failed to connect to Redis", "error", err)
	}
	defer redisCache.Close()

	// Initialize tracing
	shutdownTracing, err := tracing.InitProvider(context.Background(), tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "sensei_service",
		Environment: cfg.Environment,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		log.Fatal("Failed to initialize tracing", "error", err)
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Build dependency injection container
	container := di.NewContainer(cfg, log, db, redisCache)

	// Initialize router with DI container
	router := routes.SetupRoutes(container)

	// Start the market data cache warm-up job
	jobs := scheduler.New(log)
	if err := jobs.AddJob(cfg.CoinGecko.WarmupSpec, "market_cache_warmup", container.MarketData.WarmCache); err != nil {
		log.Fatal("Failed to schedule cache warm-up", "error", err)
	}
	jobs.Start()
	log.Info("Background scheduler started")

	// Create server
	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	// Start server in goroutine
	go func() {
		log.Info("Starting server", "port", cfg.Server.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	jobs.Stop()

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", "error", err)
	}

	if err := shutdownTracing(ctx); err != nil {
		log.Warn("Error shutting down tracing", "error", err)
	}

	log.Info("Server exited")
}
