package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/leave-balance-ledger/internal/domain/leaverequest"
	"github.com/leave-balance-ledger/internal/domain/shared"
	"github.com/leave-balance-ledger/internal/platform/persistence"
	"github.com/shopspring/decimal"
)

const leaveRequestSelect = `
		SELECT r.id, r.employee_id, r.leave_type_id, t.code, r.start_date, r.end_date, r.duration_mode,
			r.start_time, r.end_time, r.status, r.total_days, r.specific_days_deducted, r.general_days_deducted,
			r.deduction_breakdown, r.reason, r.approver_id, r.decision_comment, r.requested_at, r.decided_at, r.cancelled_at
		FROM leave_requests r
		JOIN leave_types t ON t.id = r.leave_type_id`

// LeaveRequestRepository implements the leaverequest.Repository interface for PostgreSQL
type LeaveRequestRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewLeaveRequestRepository creates a new PostgreSQL leave request repository
func NewLeaveRequestRepository(logger *slog.Logger, db *persistence.PostgresDB) leaverequest.Repository {
	return &LeaveRequestRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *LeaveRequestRepository) WithTx(tx pgx.Tx) leaverequest.Repository {
	return &LeaveRequestRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new leave request
func (r *LeaveRequestRepository) Create(ctx context.Context, req *leaverequest.LeaveRequest) error {
	query := `
		INSERT INTO leave_requests (id, employee_id, leave_type_id, start_date, end_date, duration_mode, start_time, end_time,
			status, total_days, reason, requested_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.querier.Exec(ctx, query,
		req.ID,
		req.EmployeeID,
		req.LeaveTypeID,
		req.StartDate,
		req.EndDate,
		req.DurationMode,
		req.StartTime,
		req.EndTime,
		req.Status,
		req.TotalDays,
		req.Reason,
		req.RequestedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create leave request",
			"request_id", req.ID.String(),
			"employee_id", req.EmployeeID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create leave request: %w", err)
	}

	return nil
}

// GetByID retrieves a leave request by its ID
func (r *LeaveRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*leaverequest.LeaveRequest, error) {
	query := leaveRequestSelect + `
		WHERE r.id = $1`
	return r.getOne(ctx, query, id, "get leave request")
}

// GetForUpdate retrieves a leave request and locks its row
func (r *LeaveRequestRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*leaverequest.LeaveRequest, error) {
	query := leaveRequestSelect + `
		WHERE r.id = $1
		FOR UPDATE OF r`
	return r.getOne(ctx, query, id, "lock leave request")
}

func (r *LeaveRequestRepository) getOne(ctx context.Context, query string, id uuid.UUID, op string) (*leaverequest.LeaveRequest, error) {
	req, err := scanLeaveRequest(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFoundError{Resource: shared.ResourceLeaveRequest, Key: id.String()}
		}
		r.logger.Error("Failed to "+op, "request_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return req, nil
}

// UpdateStatus persists the status, decision and deduction fields
func (r *LeaveRequestRepository) UpdateStatus(ctx context.Context, req *leaverequest.LeaveRequest) error {
	var breakdown []byte
	if len(req.DeductionBreakdown) > 0 {
		var err error
		if breakdown, err = json.Marshal(req.DeductionBreakdown); err != nil {
			return fmt.Errorf("failed to encode deduction breakdown: %w", err)
		}
	}

	query := `
		UPDATE leave_requests
		SET status = $1, specific_days_deducted = $2, general_days_deducted = $3, deduction_breakdown = $4,
			approver_id = $5, decision_comment = $6, decided_at = $7, cancelled_at = $8
		WHERE id = $9
	`

	result, err := r.querier.Exec(ctx, query,
		req.Status,
		req.SpecificDaysDeducted,
		req.GeneralDaysDeducted,
		breakdown,
		req.ApproverID,
		req.DecisionComment,
		req.DecidedAt,
		req.CancelledAt,
		req.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update leave request status",
			"request_id", req.ID.String(),
			"status", string(req.Status),
			"error", err,
		)
		return fmt.Errorf("failed to update leave request status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.NotFoundError{Resource: shared.ResourceLeaveRequest, Key: req.ID.String()}
	}

	return nil
}

// ListByEmployee returns an employee's requests, most recent first
func (r *LeaveRequestRepository) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]*leaverequest.LeaveRequest, error) {
	query := leaveRequestSelect + `
		WHERE r.employee_id = $1
		ORDER BY r.requested_at DESC`
	return r.list(ctx, "list employee leave requests", query, employeeID)
}

// ListPending returns requests awaiting a decision, oldest first, excluding the
// given employee's own requests
func (r *LeaveRequestRepository) ListPending(ctx context.Context, excludeEmployeeID uuid.UUID) ([]*leaverequest.LeaveRequest, error) {
	query := leaveRequestSelect + `
		WHERE r.status = $1 AND r.employee_id <> $2
		ORDER BY r.requested_at ASC`
	return r.list(ctx, "list pending leave requests", query, shared.StatusPending, excludeEmployeeID)
}

// HasOverlap reports whether an active request of the employee intersects [start, end]
func (r *LeaveRequestRepository) HasOverlap(ctx context.Context, employeeID uuid.UUID, start, end time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM leave_requests
			WHERE employee_id = $1
				AND status IN ($2, $3)
				AND start_date <= $4
				AND end_date >= $5
		)
	`

	var exists bool
	err := r.querier.QueryRow(ctx, query, employeeID, shared.StatusPending, shared.StatusApproved, end, start).Scan(&exists)
	if err != nil {
		r.logger.Error("Failed to check leave overlap", "employee_id", employeeID.String(), "error", err)
		return false, fmt.Errorf("failed to check leave overlap: %w", err)
	}

	return exists, nil
}

// CountByLeaveType counts requests of every status referencing a leave type
func (r *LeaveRequestRepository) CountByLeaveType(ctx context.Context, leaveTypeID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM leave_requests WHERE leave_type_id = $1`

	var count int64
	if err := r.querier.QueryRow(ctx, query, leaveTypeID).Scan(&count); err != nil {
		r.logger.Error("Failed to count leave requests", "leave_type_id", leaveTypeID.String(), "error", err)
		return 0, fmt.Errorf("failed to count leave requests: %w", err)
	}

	return count, nil
}

// Search returns requests matching the filter, ordered by start date
func (r *LeaveRequestRepository) Search(ctx context.Context, filter leaverequest.Filter) ([]*leaverequest.LeaveRequest, error) {
	var conditions []string
	var args []interface{}
	add := func(cond string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.From != nil {
		add("r.end_date >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("r.start_date <= $%d", *filter.To)
	}
	if filter.LeaveTypeCode != "" {
		add("t.code = $%d", strings.ToUpper(filter.LeaveTypeCode))
	}
	if filter.Status != "" {
		add("r.status = $%d", filter.Status)
	}
	if filter.EmployeeID != nil {
		add("r.employee_id = $%d", *filter.EmployeeID)
	}
	if filter.Department != "" {
		add("e.department = $%d", filter.Department)
	}

	query := leaveRequestSelect + `
		JOIN employees e ON e.id = r.employee_id`
	if len(conditions) > 0 {
		query += `
		WHERE ` + strings.Join(conditions, " AND ")
	}
	query += `
		ORDER BY r.start_date ASC, r.requested_at ASC`

	return r.list(ctx, "search leave requests", query, args...)
}

func (r *LeaveRequestRepository) list(ctx context.Context, op, query string, args ...interface{}) ([]*leaverequest.LeaveRequest, error) {
	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to "+op, "error", err)
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	var requests []*leaverequest.LeaveRequest
	for rows.Next() {
		req, err := scanLeaveRequest(rows)
		if err != nil {
			r.logger.Error("Failed to scan leave request", "error", err)
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over leave requests", "error", err)
		return nil, fmt.Errorf("error iterating over leave requests: %w", err)
	}

	return requests, nil
}

func scanLeaveRequest(row pgx.Row) (*leaverequest.LeaveRequest, error) {
	var (
		req                    leaverequest.LeaveRequest
		startTime, endTime     pgtype.Text
		specific, general      decimal.NullDecimal
		breakdown              []byte
		approver               uuid.NullUUID
		decidedAt, cancelledAt pgtype.Timestamptz
	)

	err := row.Scan(
		&req.ID,
		&req.EmployeeID,
		&req.LeaveTypeID,
		&req.LeaveTypeCode,
		&req.StartDate,
		&req.EndDate,
		&req.DurationMode,
		&startTime,
		&endTime,
		&req.Status,
		&req.TotalDays,
		&specific,
		&general,
		&breakdown,
		&req.Reason,
		&approver,
		&req.DecisionComment,
		&req.RequestedAt,
		&decidedAt,
		&cancelledAt,
	)
	if err != nil {
		return nil, err
	}

	if startTime.Valid {
		req.StartTime = &startTime.String
	}
	if endTime.Valid {
		req.EndTime = &endTime.String
	}
	if specific.Valid {
		req.SpecificDaysDeducted = &specific.Decimal
	}
	if general.Valid {
		req.GeneralDaysDeducted = &general.Decimal
	}
	if len(breakdown) > 0 {
		if err := json.Unmarshal(breakdown, &req.DeductionBreakdown); err != nil {
			return nil, fmt.Errorf("decode deduction breakdown: %w", err)
		}
	}
	if approver.Valid {
		req.ApproverID = &approver.UUID
	}
	if decidedAt.Valid {
		req.DecidedAt = &decidedAt.Time
	}
	if cancelledAt.Valid {
		req.CancelledAt = &cancelledAt.Time
	}

	return &req, nil
}
