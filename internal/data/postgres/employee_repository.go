package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/leave-balance-ledger/internal/domain/employee"
	"github.com/leave-balance-ledger/internal/domain/shared"
	"github.com/leave-balance-ledger/internal/platform/persistence"
)

// EmployeeRepository implements the employee.Repository interface for PostgreSQL
type EmployeeRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewEmployeeRepository creates a new PostgreSQL employee repository
func NewEmployeeRepository(logger *slog.Logger, db *persistence.PostgresDB) employee.Repository {
	return &EmployeeRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *EmployeeRepository) WithTx(tx pgx.Tx) employee.Repository {
	return &EmployeeRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// GetByID retrieves an employee by ID
func (r *EmployeeRepository) GetByID(ctx context.Context, id uuid.UUID) (*employee.Employee, error) {
	query := `
		SELECT id, full_name, email, department, active, updated_at
		FROM employees
		WHERE id = $1
	`

	var e employee.Employee
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&e.ID,
		&e.FullName,
		&e.Email,
		&e.Department,
		&e.Active,
		&e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFoundError{Resource: shared.ResourceEmployee, Key: id.String()}
		}
		r.logger.Error("Failed to get employee", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}

	return &e, nil
}

// Upsert inserts or refreshes an employee. Older updates never overwrite newer ones.
func (r *EmployeeRepository) Upsert(ctx context.Context, e *employee.Employee) error {
	query := `
		INSERT INTO employees (id, full_name, email, department, active, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET full_name = EXCLUDED.full_name,
			email = EXCLUDED.email,
			department = EXCLUDED.department,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
		WHERE employees.updated_at <= EXCLUDED.updated_at
	`

	_, err := r.querier.Exec(ctx, query,
		e.ID,
		e.FullName,
		e.Email,
		e.Department,
		e.Active,
		e.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to upsert employee", "id", e.ID.String(), "error", err)
		return fmt.Errorf("failed to upsert employee: %w", err)
	}

	return nil
}

// ListActiveIDs returns the IDs of every active employee
func (r *EmployeeRepository) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	query := `SELECT id FROM employees WHERE active = TRUE ORDER BY id`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list active employees", "error", err)
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			r.logger.Error("Failed to scan employee id", "error", err)
			return nil, fmt.Errorf("failed to scan employee id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over employees", "error", err)
		return nil, fmt.Errorf("error iterating over employees: %w", err)
	}

	return ids, nil
}
