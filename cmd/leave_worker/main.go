package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/leave-balance-ledger/internal/config"
	"github.com/leave-balance-ledger/internal/data/mongo"
	"github.com/leave-balance-ledger/internal/data/postgres"
	"github.com/leave-balance-ledger/internal/leave_processor/consumer"
	"github.com/leave-balance-ledger/internal/leave_processor/outbox_poller"
	"github.com/leave-balance-ledger/internal/leave_processor/service"
	"github.com/leave-balance-ledger/internal/logger"
	"github.com/leave-balance-ledger/internal/platform/messaging/consumers"
	"github.com/leave-balance-ledger/internal/platform/messaging/producers"
	"github.com/leave-balance-ledger/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("leave_worker")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting Leave Worker",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	employeeRepo := postgres.NewEmployeeRepository(log, postgresDB)
	balanceRepo := postgres.NewBalanceRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	historyRepo := mongo.NewHistoryRepository(log, mongoDB.Database())

	// Initialize Kafka producers
	eventProducer, err := producers.NewLeaveEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize leave event producer", "error", err)
		os.Exit(1)
	}

	outboxDLQ, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka, cfg.Kafka.LeaveEventsTopic)
	if err != nil {
		log.Error("Failed to initialize outbox DLQ producer", "error", err)
		os.Exit(1)
	}
	employeeDLQ, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka, cfg.Kafka.EmployeeTopic)
	if err != nil {
		log.Error("Failed to initialize employee DLQ producer", "error", err)
		os.Exit(1)
	}
	// Both DLQ producers are nil when KAFKA_DLQ_TOPIC is empty; their methods are nil-safe.

	// Employee directory feed
	directoryService := service.NewDirectorySyncService(employeeRepo, balanceRepo, cfg.Leave.Location(), nil, log)
	employeeHandler := consumer.NewEmployeeEventHandler(log, directoryService, employeeDLQ)
	employeeConsumer := consumers.NewKafkaConsumer(log, &cfg.Kafka, cfg.Kafka.EmployeeTopic)

	// Outbox relay: history into Mongo, events into Kafka
	relay := outbox_poller.NewEventRelay(outboxRepo, historyRepo, eventProducer, outboxDLQ, log)
	poller := outbox_poller.NewPoller(&cfg.Outbox, outboxRepo, relay, outboxDLQ, log)

	errChan := make(chan error, 1)
	var wg sync.WaitGroup

	log.Info("Starting employee directory consumer",
		"topic", cfg.Kafka.EmployeeTopic,
		"group", cfg.Kafka.ConsumerGroup,
	)
	if err := employeeConsumer.Subscribe(appCtx, employeeHandler.HandleMessage); err != nil {
		errChan <- fmt.Errorf("kafka consumer error: %w", err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(appCtx)
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	log.Info("Waiting for services to stop...")
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	var shutdownErr error
	if err := employeeConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
		shutdownErr = err
	}
	if err := eventProducer.Close(); err != nil {
		log.Error("Error closing leave event producer", "error", err)
		shutdownErr = err
	}
	for _, dlq := range []*producers.DLQProducer{outboxDLQ, employeeDLQ} {
		if err := dlq.Close(); err != nil {
			log.Error("Error closing DLQ producer", "error", err)
			shutdownErr = err
		}
	}

	postgresDB.Close()

	if err := mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
		shutdownErr = err
	}

	if serviceErr != nil {
		log.Error("Leave Worker shutdown with errors", "error", serviceErr)
	}
	if shutdownErr != nil {
		log.Error("Leave Worker shutdown completed with errors")
		os.Exit(1)
	}
	log.Info("Leave Worker shutdown completed successfully")
}
