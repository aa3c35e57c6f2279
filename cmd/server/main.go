package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"whatsdesk/internal/auth"
	"whatsdesk/internal/automation"
	"whatsdesk/internal/channel"
	"whatsdesk/internal/config"
	"whatsdesk/internal/database"
	"whatsdesk/internal/handlers"
	"whatsdesk/internal/middleware"
	"whatsdesk/internal/repositories"
	"whatsdesk/internal/services"
	"whatsdesk/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// =========================================================================
	// Load configuration
	// =========================================================================
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// =========================================================================
	// Khởi tạo Logger
	// =========================================================================
	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.Int("port", cfg.App.Port),
	)

	// =========================================================================
	// Kết nối Database
	// =========================================================================
	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	// Auto migrate trong development mode
	if cfg.App.IsDevelopment() {
		if err := database.AutoMigrate(db); err != nil {
			log.Warn("auto migrate failed", zap.Error(err))
		} else {
			log.Info("database auto migration completed")
		}
	}

	// =========================================================================
	// Khởi tạo Repositories
	// =========================================================================
	integrationRepo := repositories.NewIntegrationRepository(db)
	ticketBindingRepo := repositories.NewTicketBindingRepository(db)
	queueBindingRepo := repositories.NewQueueBindingRepository(db)
	sessionBindingRepo := repositories.NewSessionBindingRepository(db)
	ticketStore := repositories.NewTicketStore(db)
	sessionStore := repositories.NewSessionStore(db)

	log.Info("repositories initialized")

	// =========================================================================
	// Khởi tạo Channel Sender
	// Implementation thật do messaging layer cung cấp, mock cho local dev
	// =========================================================================
	var sender channel.Sender = channel.NewMockSender()
	log.Info("channel sender initialized (mock)")

	// =========================================================================
	// Khởi tạo Automation Core (Resolver -> Dispatcher -> Session Manager)
	// =========================================================================
	resolver := automation.NewResolver(ticketBindingRepo, queueBindingRepo, sessionBindingRepo, log)

	dispatcher := automation.NewDispatcher(
		resolver,
		sessionStore,
		&http.Client{},
		automation.DispatcherOptions{
			MaxConcurrent: cfg.Dispatch.MaxConcurrent,
			AsyncTimeout:  cfg.Dispatch.AsyncTimeout,
		},
		log,
	)

	sessionManager := automation.NewSessionManager(ticketStore, resolver, dispatcher, sender, log)

	log.Info("automation core initialized",
		zap.Int("max_concurrent", cfg.Dispatch.MaxConcurrent),
	)

	// =========================================================================
	// Khởi tạo Services
	// =========================================================================
	integrationService := services.NewIntegrationService(integrationRepo, log)
	bindingService := services.NewBindingService(
		integrationRepo,
		ticketBindingRepo,
		queueBindingRepo,
		sessionBindingRepo,
		log,
	)
	automationService := services.NewAutomationService(
		integrationRepo,
		ticketStore,
		resolver,
		dispatcher,
		sessionManager,
		log,
	)

	log.Info("services initialized")

	// =========================================================================
	// Khởi tạo Handlers
	// =========================================================================
	jwtService := auth.NewJWTService(cfg.JWT)
	authMiddleware := middleware.AuthMiddleware(jwtService)

	integrationHandler := handlers.NewIntegrationHandler(integrationService, automationService, log)
	bindingHandler := handlers.NewBindingHandler(bindingService, log)
	automationHandler := handlers.NewAutomationHandler(automationService, log)

	log.Info("handlers initialized")

	// =========================================================================
	// Thiết lập Gin Router
	// =========================================================================
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logging(log))
	router.Use(middleware.CORS([]string{"*"}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": cfg.App.Name,
			"version": "1.0.0",
		})
	})

	// =========================================================================
	// API Routes
	// =========================================================================
	api := router.Group("/api/v1")
	{
		// Ping endpoint (public)
		api.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong"})
		})

		// =====================================================================
		// Protected routes - Require authentication
		// =====================================================================
		protected := api.Group("")
		protected.Use(authMiddleware)
		{
			integrationHandler.RegisterRoutes(protected)
			bindingHandler.RegisterRoutes(protected)
			automationHandler.RegisterRoutes(protected)
		}
	}

	log.Info("routes registered",
		zap.Strings("endpoints", []string{
			"/api/v1/integrations",
			"/api/v1/integrations/:id/test",
			"/api/v1/bindings/queues",
			"/api/v1/bindings/sessions",
			"/api/v1/bindings/tickets/:ticketId",
			"/api/v1/tickets/:ticketId/automations",
		}),
	)

	// =========================================================================
	// Khởi động HTTP Server
	// =========================================================================
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.Int("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// =========================================================================
	// Graceful Shutdown
	// =========================================================================
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
