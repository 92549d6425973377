package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/leave-balance-ledger/internal/domain/balance"
	"github.com/leave-balance-ledger/internal/domain/shared"
	"github.com/leave-balance-ledger/internal/platform/persistence"
)

// BalanceRepository implements the balance.Repository interface for PostgreSQL
type BalanceRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewBalanceRepository creates a new PostgreSQL balance repository
func NewBalanceRepository(logger *slog.Logger, db *persistence.PostgresDB) balance.Repository {
	return &BalanceRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *BalanceRepository) WithTx(tx pgx.Tx) balance.Repository {
	return &BalanceRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// EnsureYearInitialized seeds a row per active leave type for the year. Rows that
// already exist, including ones inserted concurrently by another transaction, are
// left untouched by ON CONFLICT DO NOTHING.
func (r *BalanceRepository) EnsureYearInitialized(ctx context.Context, employeeID uuid.UUID, year int) (int64, error) {
	query := `
		INSERT INTO leave_balances (employee_id, leave_type_id, year, remaining_days, updated_at)
		SELECT $1, t.id, $2, t.annual_quota, NOW()
		FROM leave_types t
		WHERE t.active = TRUE
		ON CONFLICT (employee_id, leave_type_id, year) DO NOTHING
	`

	result, err := r.querier.Exec(ctx, query, employeeID, year)
	if err != nil {
		r.logger.Error("Failed to initialize leave balances",
			"employee_id", employeeID.String(),
			"year", year,
			"error", err,
		)
		return 0, fmt.Errorf("failed to initialize leave balances: %w", err)
	}

	return result.RowsAffected(), nil
}

// GetForUpdate reads a balance row and locks it until the transaction ends
func (r *BalanceRepository) GetForUpdate(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int) (*balance.Record, error) {
	query := `
		SELECT b.employee_id, b.leave_type_id, b.year, b.remaining_days, t.annual_quota, b.updated_at
		FROM leave_balances b
		JOIN leave_types t ON t.id = b.leave_type_id
		WHERE b.employee_id = $1 AND b.leave_type_id = $2 AND b.year = $3
		FOR UPDATE OF b
	`
	return r.getOne(ctx, query, "lock leave balance", employeeID, leaveTypeID, year)
}

// Get reads a balance row without locking
func (r *BalanceRepository) Get(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int) (*balance.Record, error) {
	query := `
		SELECT b.employee_id, b.leave_type_id, b.year, b.remaining_days, t.annual_quota, b.updated_at
		FROM leave_balances b
		JOIN leave_types t ON t.id = b.leave_type_id
		WHERE b.employee_id = $1 AND b.leave_type_id = $2 AND b.year = $3
	`
	return r.getOne(ctx, query, "get leave balance", employeeID, leaveTypeID, year)
}

func (r *BalanceRepository) getOne(ctx context.Context, query, op string, employeeID, leaveTypeID uuid.UUID, year int) (*balance.Record, error) {
	var rec balance.Record
	err := r.querier.QueryRow(ctx, query, employeeID, leaveTypeID, year).Scan(
		&rec.EmployeeID,
		&rec.LeaveTypeID,
		&rec.Year,
		&rec.RemainingDays,
		&rec.AnnualQuota,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFoundError{
				Resource: shared.ResourceBalance,
				Key:      fmt.Sprintf("%s/%s/%d", employeeID, leaveTypeID, year),
			}
		}
		r.logger.Error("Failed to "+op,
			"employee_id", employeeID.String(),
			"leave_type_id", leaveTypeID.String(),
			"year", year,
			"error", err,
		)
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}

	return &rec, nil
}

// UpdateRemaining persists the remaining days of a row
func (r *BalanceRepository) UpdateRemaining(ctx context.Context, rec *balance.Record) error {
	query := `
		UPDATE leave_balances
		SET remaining_days = $1, updated_at = $2
		WHERE employee_id = $3 AND leave_type_id = $4 AND year = $5
	`

	result, err := r.querier.Exec(ctx, query,
		rec.RemainingDays,
		rec.UpdatedAt,
		rec.EmployeeID,
		rec.LeaveTypeID,
		rec.Year,
	)
	if err != nil {
		r.logger.Error("Failed to update leave balance",
			"employee_id", rec.EmployeeID.String(),
			"leave_type_id", rec.LeaveTypeID.String(),
			"year", rec.Year,
			"error", err,
		)
		return fmt.Errorf("failed to update leave balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.NotFoundError{
			Resource: shared.ResourceBalance,
			Key:      fmt.Sprintf("%s/%s/%d", rec.EmployeeID, rec.LeaveTypeID, rec.Year),
		}
	}

	return nil
}

// ListByEmployee returns every balance of an employee, most recent year first
func (r *BalanceRepository) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]*balance.Summary, error) {
	query := `
		SELECT t.code, t.name, b.year, b.remaining_days, t.annual_quota
		FROM leave_balances b
		JOIN leave_types t ON t.id = b.leave_type_id
		WHERE b.employee_id = $1
		ORDER BY b.year DESC, t.code
	`

	rows, err := r.querier.Query(ctx, query, employeeID)
	if err != nil {
		r.logger.Error("Failed to list leave balances", "employee_id", employeeID.String(), "error", err)
		return nil, fmt.Errorf("failed to list leave balances: %w", err)
	}
	defer rows.Close()

	var summaries []*balance.Summary
	for rows.Next() {
		var s balance.Summary
		if err := rows.Scan(&s.LeaveTypeCode, &s.LeaveTypeName, &s.Year, &s.RemainingDays, &s.AnnualQuota); err != nil {
			r.logger.Error("Failed to scan leave balance", "error", err)
			return nil, fmt.Errorf("failed to scan leave balance: %w", err)
		}
		summaries = append(summaries, &s)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over leave balances", "error", err)
		return nil, fmt.Errorf("error iterating over leave balances: %w", err)
	}

	return summaries, nil
}

// DeleteByLeaveType removes every balance row of a leave type
func (r *BalanceRepository) DeleteByLeaveType(ctx context.Context, leaveTypeID uuid.UUID) error {
	query := `DELETE FROM leave_balances WHERE leave_type_id = $1`

	if _, err := r.querier.Exec(ctx, query, leaveTypeID); err != nil {
		r.logger.Error("Failed to delete leave balances", "leave_type_id", leaveTypeID.String(), "error", err)
		return fmt.Errorf("failed to delete leave balances: %w", err)
	}

	return nil
}
