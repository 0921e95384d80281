package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Rupe88/kaji-service-backend-sub004/internal/config"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/database"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/handlers"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/middleware"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/migrations"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/models"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/realtime"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/routes"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/services"
	"github.com/Rupe88/kaji-service-backend-sub004/pkg/logger"
)

func main() {
	config.LoadConfig()

	env := config.AppConfig.Env
	logger.Init(env)

	logger.Info().Str("environment", env).Msg("Starting Kaji Service messaging backend")

	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	database.Connect()
	database.InitRedis()

	logger.Info().Msg("Running database migrations...")
	if err := database.DB.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.Message{},
		&models.Notification{},
	); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate schema")
	}
	if err := migrations.NewMigrator(database.DB).Run(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run versioned migrations")
	}
	logger.Info().Msg("Database migrations complete")

	// Realtime gateway. Everything downstream talks to the interface, so a
	// disabled gateway swaps in as a no-op instead of nil checks everywhere.
	var gateway realtime.Gateway = realtime.NopGateway{}
	var socket *realtime.SocketGateway
	if config.AppConfig.RealtimeOn() {
		socket = realtime.NewSocketGateway()
		gateway = socket
		go func() {
			if err := socket.Serve(); err != nil {
				logger.Error().Err(err).Msg("Socket.IO server stopped")
			}
		}()
		defer socket.Close()
	}

	conversationService := services.NewConversationService()
	notificationService := services.NewNotificationService(gateway)
	messageService := services.NewMessageService(conversationService, notificationService, gateway)

	messageHandler := handlers.NewMessageHandler(messageService)
	conversationHandler := handlers.NewConversationHandler(conversationService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	r := gin.New()

	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.ErrorHandlerMiddleware())
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.SecurityHeaders())

	api := r.Group("/api")
	api.Use(middleware.GeneralRateLimit())
	{
		routes.RegisterMessageRoutes(api, messageHandler, conversationHandler)
		routes.RegisterNotificationRoutes(api, notificationHandler)
	}

	r.GET("/health", handlers.Health)

	if socket != nil {
		r.GET("/socket.io/*any", socket.Handler())
		r.POST("/socket.io/*any", socket.Handler())
	}

	// Expired notifications are invisible to list queries the moment they
	// lapse; the sweeper just reclaims the rows.
	purgeStop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := notificationService.PurgeExpired(); err != nil {
					logger.Error().Err(err).Msg("Failed to purge expired notifications")
				} else if n > 0 {
					logger.Info().Int64("purged", n).Msg("Purged expired notifications")
				}
			case <-purgeStop:
				return
			}
		}
	}()

	port := config.AppConfig.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", port).Str("env", env).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server gracefully...")
	close(purgeStop)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
