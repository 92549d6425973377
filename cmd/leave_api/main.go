package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/leave-balance-ledger/internal/api_gateway"
	"github.com/leave-balance-ledger/internal/config"
	"github.com/leave-balance-ledger/internal/data/mongo"
	"github.com/leave-balance-ledger/internal/data/postgres"
	"github.com/leave-balance-ledger/internal/leave_processor/service"
	"github.com/leave-balance-ledger/internal/logger"
	"github.com/leave-balance-ledger/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("leave_api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting Leave API",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"general_type", cfg.Leave.GeneralTypeCode,
		"timezone", cfg.Leave.Timezone,
	)

	// Initialize databases with app context; migrations run before the pool opens
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
	leaveTypeRepo := postgres.NewLeaveTypeRepository(log, postgresDB)
	balanceRepo := postgres.NewBalanceRepository(log, postgresDB)
	requestRepo := postgres.NewLeaveRequestRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	historyRepo := mongo.NewHistoryRepository(log, mongoDB.Database())

	services, err := service.CreateServices(postgresDB.Transactor(), service.Repositories{
		Employees:  employeeRepo,
		LeaveTypes: leaveTypeRepo,
		Balances:   balanceRepo,
		Requests:   requestRepo,
		Outbox:     outboxRepo,
		History:    historyRepo,
	}, cfg, log)
	if err != nil {
		log.Error("Failed to initialize leave services", "error", err)
		os.Exit(1)
	}

	server, err := api_gateway.NewServer(log, cfg, api_gateway.Services{
		Lifecycle: services.Lifecycle,
		Registry:  services.Registry,
		Reporting: services.Reporting,
		Rollover:  services.Rollover,
	})
	if err != nil {
		log.Error("Failed to initialize REST server", "error", err)
		os.Exit(1)
	}
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// Stop accepting requests before releasing what they depend on
	var shutdownErr error
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
		shutdownErr = err
	}

	services.Rollover.Shutdown()

	postgresDB.Close()

	if err := mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
		shutdownErr = err
	}

	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if shutdownErr != nil {
		log.Error("Leave API shutdown completed with errors")
		os.Exit(1)
	}
	log.Info("Leave API shutdown completed successfully")
}
