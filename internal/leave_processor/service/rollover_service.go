package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leave-balance-ledger/internal/domain/balance"
	"github.com/leave-balance-ledger/internal/domain/employee"
	"github.com/leave-balance-ledger/internal/domain/leavetype"
	"github.com/leave-balance-ledger/internal/domain/shared"
	"github.com/panjf2000/ants/v2"
)

const (
	minRolloverYear = 2000
	maxRolloverYear = 2100
)

// RolloverReport summarizes a bulk year initialization
type RolloverReport struct {
	Year               int   `json:"year"`
	EmployeesProcessed int   `json:"employees_processed"`
	EmployeesFailed    int   `json:"employees_failed"`
	BalancesCreated    int64 `json:"balances_created"`
	BalancesExisting   int64 `json:"balances_existing"`
}

// BalanceRolloverService seeds a year's balances for every active employee on a
// bounded worker pool.
type BalanceRolloverService struct {
	employees  employee.Repository
	leaveTypes leavetype.Repository
	balances   balance.Repository
	pool       *ants.Pool
	logger     *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

func NewBalanceRolloverService(
	employees employee.Repository,
	leaveTypes leavetype.Repository,
	balances balance.Repository,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*BalanceRolloverService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &BalanceRolloverService{
		employees:  employees,
		leaveTypes: leaveTypes,
		balances:   balances,
		pool:       pool,
		logger:     logger,
	}, nil
}

// InitializeYear creates the missing balance rows of year for all active employees.
// Rows that already exist are left untouched, so running it twice is harmless.
// Per-employee failures do not stop the run; they are joined into the returned error.
func (s *BalanceRolloverService) InitializeYear(ctx context.Context, year int) (*RolloverReport, error) {
	if year < minRolloverYear || year > maxRolloverYear {
		return nil, shared.ValidationError{Message: fmt.Sprintf("Année invalide: %d", year)}
	}

	logger := s.logger.With("year", year)
	if id := shared.CorrelationID(ctx); id != "" {
		logger = logger.With("correlation_id", id)
	}

	types, err := s.leaveTypes.List(ctx, leavetype.FilterActive)
	if err != nil {
		return nil, err
	}
	ids, err := s.employees.ListActiveIDs(ctx)
	if err != nil {
		return nil, err
	}

	logger.Info("Starting balance rollover", "employees", len(ids), "leave_types", len(types))

	report := &RolloverReport{Year: year}
	var errs []error
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, id := range ids {
		employeeID := id
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			created, err := s.balances.EnsureYearInitialized(ctx, employeeID, year)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.EmployeesFailed++
				errs = append(errs, fmt.Errorf("employee %s: %w", employeeID, err))
				return
			}
			report.EmployeesProcessed++
			report.BalancesCreated += created
			report.BalancesExisting += int64(len(types)) - created
		})
		if err != nil {
			wg.Done()
			logger.Error("Failed to submit rollover task to worker pool", "employee_id", employeeID.String(), "error", err)
			mu.Lock()
			report.EmployeesFailed++
			errs = append(errs, fmt.Errorf("employee %s: %w", employeeID, err))
			mu.Unlock()
		}
	}
	wg.Wait()

	if len(errs) > 0 {
		logger.Error("Balance rollover finished with failures",
			"processed", report.EmployeesProcessed,
			"failed", report.EmployeesFailed,
		)
		return report, fmt.Errorf("failed to initialize %d employee(s): %w", len(errs), errors.Join(errs...))
	}

	logger.Info("Balance rollover completed",
		"processed", report.EmployeesProcessed,
		"created", report.BalancesCreated,
		"existing", report.BalancesExisting,
	)
	return report, nil
}

// Shutdown releases the worker pool
func (s *BalanceRolloverService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *BalanceRolloverService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *BalanceRolloverService) Capacity() int {
	return s.pool.Cap()
}
