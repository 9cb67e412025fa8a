package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/karansks78/RiseUp-App/internal/engine"
	"github.com/karansks78/RiseUp-App/internal/store"
	"github.com/karansks78/RiseUp-App/pkg/config"
	"github.com/karansks78/RiseUp-App/pkg/postgres"
	"github.com/karansks78/RiseUp-App/pkg/rabbitmq"

	log "github.com/sirupsen/logrus"
)

func main() {
	log.Info("[Engine] Starting engine-consumer...")

	cfg := config.LoadForService("ENGINE")

	// Connect to PostgreSQL
	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[Engine] Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := postgres.RunMigrations(db, "engine"); err != nil {
		log.Fatalf("[Engine] Failed to run migrations: %v", err)
	}

	// Connect to RabbitMQ
	rmqConn, err := rabbitmq.Connect(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("[Engine] Failed to connect to RabbitMQ: %v", err)
	}
	defer rmqConn.Close()

	// Publisher for follow-on events (counter updates feed the reward machine)
	publisher, err := rabbitmq.NewPublisher(rmqConn)
	if err != nil {
		log.Fatalf("[Engine] Failed to create publisher: %v", err)
	}
	defer publisher.Close()

	eng := engine.New(store.New(db), publisher)

	consumerCfg := rabbitmq.ConsumerConfig{
		QueueName:    "engine.change.events",
		DLQName:      "dlq.engine.change.events",
		RoutingKeys:  []string{"store.#"},
		ConsumerName: "engine-consumer",
	}

	if err := rabbitmq.SetupConsumer(rmqConn, consumerCfg, eng.HandleMessage); err != nil {
		log.Fatalf("[Engine] Failed to setup consumer: %v", err)
	}

	log.Info("[Engine] Consumer is running. Waiting for change events...")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("[Engine] Shutting down...")
}
