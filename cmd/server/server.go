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

	"github.com/dnovakovic099/secure-stay-server-sub003/internal/ai"
	"github.com/dnovakovic099/secure-stay-server-sub003/internal/clients"
	"github.com/dnovakovic099/secure-stay-server-sub003/internal/config"
	"github.com/dnovakovic099/secure-stay-server-sub003/internal/db"
	"github.com/dnovakovic099/secure-stay-server-sub003/internal/handlers"
	"github.com/dnovakovic099/secure-stay-server-sub003/internal/scheduler"
	"github.com/dnovakovic099/secure-stay-server-sub003/internal/services"
	"github.com/dnovakovic099/secure-stay-server-sub003/pkg/logger"
	"github.com/dnovakovic099/secure-stay-server-sub003/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupServer initializes the HTTP server and the analysis scheduler.
// Services are constructed once here and injected; no per-request state.
func SetupServer(cfg *config.Config) (*http.Server, *scheduler.Scheduler, error) {
	if cfg == nil {
		return nil, nil, errors.New("configuration is required")
	}

	if cfg.Server.Port <= 0 {
		return nil, nil, errors.New("invalid server port")
	}

	// Initialize database
	database, err := db.NewDatabase(cfg.Database.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize repositories
	commRepo := db.NewCommunicationRepository(database.GetDB())
	analysisRepo := db.NewAnalysisRepository(database.GetDB())

	// Initialize collaborator clients
	openPhoneClient := clients.NewOpenPhoneClient(cfg.OpenPhone.APIKey, cfg.OpenPhone.BaseURL)
	hostifyClient := clients.NewHostifyClient(cfg.Hostify.APIKey, cfg.Hostify.BaseURL)
	reservationClient := clients.NewReservationClient(cfg.Reservations.BaseURL)
	aiClient := ai.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)

	// Initialize services
	aggregator := services.NewAggregatorService(commRepo, openPhoneClient, hostifyClient, reservationClient)
	analysisService := services.NewAnalysisService(aggregator, commRepo, analysisRepo, reservationClient, aiClient)

	// Initialize router
	router := gin.Default()
	setupRoutes(router, cfg, analysisService)

	// Create server with security timeouts
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enable {
		sched, err = scheduler.New(analysisService, cfg.Scheduler.CronSpec, cfg.Reservations.Timezone)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to setup scheduler: %w", err)
		}
	}

	return srv, sched, nil
}

// setupRoutes configures all the HTTP routes
func setupRoutes(router *gin.Engine, cfg *config.Config, analysisService *services.AnalysisService) {
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware())

	analysisHandler := handlers.NewAnalysisHandler(analysisService)

	// Basic health check endpoint (public)
	router.GET("/health", handleHealthCheck)

	// Analysis endpoints (protected)
	analysisGroup := router.Group("/api/analysis")
	analysisGroup.Use(middleware.AuthMiddleware(cfg))
	{
		analysisGroup.GET("/bulk", analysisHandler.GetBulkAnalyses)
		analysisGroup.GET("/:reservationId", analysisHandler.GetAnalysis)
		analysisGroup.POST("/:reservationId/generate", analysisHandler.GenerateAnalysis)
		analysisGroup.POST("/:reservationId/regenerate", analysisHandler.GenerateAnalysis)
		analysisGroup.GET("/:reservationId/communications", analysisHandler.GetCommunications)
		analysisGroup.POST("/:reservationId/fetch-communications", analysisHandler.FetchCommunications)
	}
}

// handleHealthCheck handles the health check endpoint
func handleHealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"time":    time.Now().UTC(),
		"version": version,
		"service": "secure-stay-server",
	})
}

// StartServer starts the HTTP server and handles graceful shutdown
func StartServer(srv *http.Server, sched *scheduler.Scheduler) error {
	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	if sched != nil {
		sched.Start()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if sched != nil {
		sched.Stop()
	}

	// Create a timeout context for shutdown
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}
