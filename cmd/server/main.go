package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/stwalsh4118/mppl/dashboard/internal/backend"
	"github.com/stwalsh4118/mppl/dashboard/internal/config"
	"github.com/stwalsh4118/mppl/dashboard/internal/handlers"
	"github.com/stwalsh4118/mppl/dashboard/internal/logger"
	"github.com/stwalsh4118/mppl/dashboard/internal/middleware"
	"github.com/stwalsh4118/mppl/dashboard/internal/pages"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.Server.Env, cfg.Log.Level)
	log.Info("Starting connections dashboard", logger.Fields{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
		"backend":     cfg.Backend.URL,
	})

	// Records backend and page sessions
	client := backend.NewClient(cfg.Backend, log)
	registry, err := pages.NewRegistry(client, cfg.Grid, cfg.Sessions, log)
	if err != nil {
		log.Fatal("Failed to create page registry", err, nil)
	}

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	// Register health check routes
	healthHandler := handlers.NewHealthHandler(client, registry, cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/api/v1/info", healthHandler.Info)

	// Register API v1 routes
	v1 := router.Group("/api/v1")
	handlers.NewGridHandler(registry).RegisterRoutes(v1)
	handlers.NewChartsHandler(registry).RegisterRoutes(v1)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           gzhttp.GzipHandler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Server listening", logger.Fields{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return registry.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server forced to shutdown", err, logger.Fields{
				"timeout": shutdownTimeout.String(),
			})
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("Server exited with error", err, nil)
		os.Exit(1)
	}

	log.Info("Server exited", nil)
}
