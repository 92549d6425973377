package service

import (
	"fmt"
	"log/slog"

	"github.com/leave-balance-ledger/internal/config"
	"github.com/leave-balance-ledger/internal/domain/balance"
	"github.com/leave-balance-ledger/internal/domain/employee"
	"github.com/leave-balance-ledger/internal/domain/history"
	"github.com/leave-balance-ledger/internal/domain/leaverequest"
	"github.com/leave-balance-ledger/internal/domain/leavetype"
	"github.com/leave-balance-ledger/internal/domain/outbox"
	"github.com/leave-balance-ledger/internal/leave_processor/components"
)

// Repositories groups the stores the leave services run on
type Repositories struct {
	Employees  employee.Repository
	LeaveTypes leavetype.Repository
	Balances   balance.Repository
	Requests   leaverequest.Repository
	Outbox     outbox.Repository
	History    history.Repository
}

// Services is the set of services served by the HTTP API
type Services struct {
	Lifecycle *LeaveLifecycleServiceImpl
	Registry  *LeaveTypeRegistryImpl
	Reporting *ReportingServiceImpl
	Rollover  *BalanceRolloverService
}

// CreateServices builds the leave services and their allocation components
// from the configured accounting rules.
func CreateServices(tx TxRunner, repos Repositories, cfg *config.Config, logger *slog.Logger) (*Services, error) {
	calculator := components.NewDurationCalculator(cfg.Leave.WorkdayHours)
	allocator := components.NewAllocationEngine(repos.Balances, repos.LeaveTypes, cfg.Leave.GeneralTypeCode,
		logger.With("component", "allocation_engine"))
	recorder := components.NewOutboxRecorder(repos.Outbox, logger)

	lifecycle := NewLeaveLifecycleService(LifecycleDependencies{
		Tx:         tx,
		Requests:   repos.Requests,
		LeaveTypes: repos.LeaveTypes,
		Employees:  repos.Employees,
		Balances:   repos.Balances,
		History:    repos.History,
		Calculator: calculator,
		Allocator:  allocator,
		Events:     recorder,
		Location:   cfg.Leave.Location(),
	}, logger)

	rollover, err := NewBalanceRolloverService(repos.Employees, repos.LeaveTypes, repos.Balances,
		WorkerPoolConfig{Size: cfg.WorkerPool.Size}, logger.With("component", "worker_pool"))
	if err != nil {
		return nil, fmt.Errorf("failed to create rollover worker pool: %w", err)
	}

	logger.Info("Created leave services", "pool_size", cfg.WorkerPool.Size, "general_type", cfg.Leave.GeneralTypeCode)
	return &Services{
		Lifecycle: lifecycle,
		Registry:  NewLeaveTypeRegistry(tx, repos.LeaveTypes, repos.Requests, repos.Balances, cfg.Leave.GeneralTypeCode, logger),
		Reporting: NewReportingService(repos.Requests, logger),
		Rollover:  rollover,
	}, nil
}
