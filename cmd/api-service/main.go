package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/karansks78/RiseUp-App/internal/api"
	"github.com/karansks78/RiseUp-App/pkg/config"
	"github.com/karansks78/RiseUp-App/pkg/postgres"
	"github.com/karansks78/RiseUp-App/pkg/rabbitmq"

	log "github.com/sirupsen/logrus"

	_ "github.com/karansks78/RiseUp-App/docs"
)

// @title           RiseUp Reactive Backend API
// @version         1.0
// @description     Client mutation surface for the RiseUp app. Every write publishes a change event to RabbitMQ; the engine consumer derives notifications, counters, rewards and moderation state asynchronously.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
func main() {
	log.Info("[API] Starting api-service...")

	cfg := config.LoadForService("API")

	// Connect to PostgreSQL
	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[API] Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := postgres.RunMigrations(db, "api"); err != nil {
		log.Fatalf("[API] Failed to run migrations: %v", err)
	}

	// Connect to RabbitMQ
	rmqConn, err := rabbitmq.Connect(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("[API] Failed to connect to RabbitMQ: %v", err)
	}
	defer rmqConn.Close()

	// Create publisher
	publisher, err := rabbitmq.NewPublisher(rmqConn)
	if err != nil {
		log.Fatalf("[API] Failed to create publisher: %v", err)
	}
	defer publisher.Close()

	// Setup handlers and router
	handler := api.NewSocialHandler(db, publisher)
	router := api.NewRouter(handler)

	// HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	go func() {
		log.Infof("[API] Listening on port %s", cfg.APIPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[API] Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("[API] Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("[API] Server forced to shutdown: %v", err)
	}
	log.Info("[API] Server exited gracefully")
}
