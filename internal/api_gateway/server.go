package api_gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leave-balance-ledger/internal/api_gateway/handler"
	"github.com/leave-balance-ledger/internal/api_gateway/middleware"
	"github.com/leave-balance-ledger/internal/config"
	"github.com/leave-balance-ledger/internal/leave_processor/service"
)

// Services groups the application services exposed over HTTP
type Services struct {
	Lifecycle service.LeaveLifecycleService
	Registry  service.LeaveTypeRegistry
	Reporting service.ReportingService
	Rollover  service.RolloverService
}

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger // For structured logging
	httpServer *http.Server // Underlying HTTP server
	httpRouter *gin.Engine  // Gin router instance
}

// NewServer creates and configures a new HTTP server with the given services
func NewServer(log *slog.Logger, cfg *config.Config, services Services) (*Server, error) {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	writeLimit, err := middleware.RateLimit(log, cfg.RateLimit.Rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", cfg.RateLimit.Rate, err)
	}

	httpRouter := gin.New()

	handlers := routeHandlers{
		leaveRequests: handler.NewLeaveRequestHandler(log, services.Lifecycle),
		leaveTypes:    handler.NewLeaveTypeHandler(log, services.Registry),
		reports:       handler.NewReportHandler(log, services.Reporting),
		rollover:      handler.NewRolloverHandler(log, services.Rollover),
	}

	setupRouter(log, httpRouter, middleware.Auth(log, cfg.Auth.JWTSecret, cfg.Auth.Issuer), writeLimit, handlers)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}, nil
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server. In-flight requests get until
// ctx is done to complete.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}

	return nil
}
