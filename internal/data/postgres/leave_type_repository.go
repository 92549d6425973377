// Package postgres provides PostgreSQL implementations of the domain repositories.
// Every repository can be rebound to a transaction with WithTx so that ledger
// mutations, request transitions and outbox writes commit atomically.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/leave-balance-ledger/internal/domain/leavetype"
	"github.com/leave-balance-ledger/internal/domain/shared"
	"github.com/leave-balance-ledger/internal/platform/persistence"
)

const leaveTypeColumns = `id, code, name, description, annual_quota, counts_weekends, may_overflow_to_general, active, created_at, updated_at`

// LeaveTypeRepository implements the leavetype.Repository interface for PostgreSQL
type LeaveTypeRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewLeaveTypeRepository creates a new PostgreSQL leave type repository
func NewLeaveTypeRepository(logger *slog.Logger, db *persistence.PostgresDB) leavetype.Repository {
	return &LeaveTypeRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *LeaveTypeRepository) WithTx(tx pgx.Tx) leavetype.Repository {
	return &LeaveTypeRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new leave type. A duplicate code yields a ConflictError.
func (r *LeaveTypeRepository) Create(ctx context.Context, lt *leavetype.LeaveType) error {
	query := `
		INSERT INTO leave_types (id, code, name, description, annual_quota, counts_weekends, may_overflow_to_general, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.querier.Exec(ctx, query,
		lt.ID,
		lt.Code,
		lt.Name,
		lt.Description,
		lt.AnnualQuota,
		lt.CountsWeekends,
		lt.MayOverflowToGeneral,
		lt.Active,
		lt.CreatedAt,
		lt.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return shared.ConflictError{Message: fmt.Sprintf("Un type de congé avec le code '%s' existe déjà", lt.Code)}
		}
		r.logger.Error("Failed to create leave type", "code", lt.Code, "error", err)
		return fmt.Errorf("failed to create leave type: %w", err)
	}

	return nil
}

// Update persists the mutable attributes of a leave type. The code never changes.
func (r *LeaveTypeRepository) Update(ctx context.Context, lt *leavetype.LeaveType) error {
	query := `
		UPDATE leave_types
		SET name = $1, description = $2, annual_quota = $3, counts_weekends = $4, may_overflow_to_general = $5, updated_at = $6
		WHERE id = $7
	`

	result, err := r.querier.Exec(ctx, query,
		lt.Name,
		lt.Description,
		lt.AnnualQuota,
		lt.CountsWeekends,
		lt.MayOverflowToGeneral,
		lt.UpdatedAt,
		lt.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update leave type", "id", lt.ID.String(), "error", err)
		return fmt.Errorf("failed to update leave type: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.NotFoundError{Resource: shared.ResourceLeaveType, Key: lt.ID.String()}
	}

	return nil
}

// GetByID retrieves a leave type by its ID
func (r *LeaveTypeRepository) GetByID(ctx context.Context, id uuid.UUID) (*leavetype.LeaveType, error) {
	query := `SELECT ` + leaveTypeColumns + ` FROM leave_types WHERE id = $1`

	lt, err := scanLeaveType(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFoundError{Resource: shared.ResourceLeaveType, Key: id.String()}
		}
		r.logger.Error("Failed to get leave type", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get leave type: %w", err)
	}

	return lt, nil
}

// GetByCode retrieves a leave type by its code
func (r *LeaveTypeRepository) GetByCode(ctx context.Context, code string) (*leavetype.LeaveType, error) {
	query := `SELECT ` + leaveTypeColumns + ` FROM leave_types WHERE code = $1`

	code = leavetype.NormalizeCode(code)
	lt, err := scanLeaveType(r.querier.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFoundError{Resource: shared.ResourceLeaveType, Key: code}
		}
		r.logger.Error("Failed to get leave type by code", "code", code, "error", err)
		return nil, fmt.Errorf("failed to get leave type by code: %w", err)
	}

	return lt, nil
}

// List returns leave types ordered by code
func (r *LeaveTypeRepository) List(ctx context.Context, filter leavetype.ActiveFilter) ([]*leavetype.LeaveType, error) {
	query := `SELECT ` + leaveTypeColumns + ` FROM leave_types`
	var args []interface{}
	switch filter {
	case leavetype.FilterActive:
		query += ` WHERE active = $1`
		args = append(args, true)
	case leavetype.FilterInactive:
		query += ` WHERE active = $1`
		args = append(args, false)
	}
	query += ` ORDER BY code`

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list leave types", "error", err)
		return nil, fmt.Errorf("failed to list leave types: %w", err)
	}
	defer rows.Close()

	var types []*leavetype.LeaveType
	for rows.Next() {
		lt, err := scanLeaveType(rows)
		if err != nil {
			r.logger.Error("Failed to scan leave type", "error", err)
			return nil, fmt.Errorf("failed to scan leave type: %w", err)
		}
		types = append(types, lt)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over leave types", "error", err)
		return nil, fmt.Errorf("error iterating over leave types: %w", err)
	}

	return types, nil
}

// SetActive toggles the active flag
func (r *LeaveTypeRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `
		UPDATE leave_types
		SET active = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := r.querier.Exec(ctx, query, active, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Failed to set leave type active flag", "id", id.String(), "active", active, "error", err)
		return fmt.Errorf("failed to set leave type active flag: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.NotFoundError{Resource: shared.ResourceLeaveType, Key: id.String()}
	}

	return nil
}

// Delete removes a leave type. Callers must delete its balances first.
func (r *LeaveTypeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM leave_types WHERE id = $1`

	result, err := r.querier.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete leave type", "id", id.String(), "error", err)
		return fmt.Errorf("failed to delete leave type: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.NotFoundError{Resource: shared.ResourceLeaveType, Key: id.String()}
	}

	return nil
}

func scanLeaveType(row pgx.Row) (*leavetype.LeaveType, error) {
	var lt leavetype.LeaveType
	err := row.Scan(
		&lt.ID,
		&lt.Code,
		&lt.Name,
		&lt.Description,
		&lt.AnnualQuota,
		&lt.CountsWeekends,
		&lt.MayOverflowToGeneral,
		&lt.Active,
		&lt.CreatedAt,
		&lt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lt, nil
}
