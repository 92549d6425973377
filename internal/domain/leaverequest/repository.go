package leaverequest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/leave-balance-ledger/internal/domain/shared"
)

// Filter narrows report queries. Zero values are ignored.
type Filter struct {
	From          *time.Time
	To            *time.Time
	LeaveTypeCode string
	Status        shared.RequestStatus
	EmployeeID    *uuid.UUID
	Department    string
}

// Repository defines leave request persistence operations
type Repository interface {
	Create(ctx context.Context, req *LeaveRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*LeaveRequest, error)

	// GetForUpdate reads the request and locks its row until the transaction ends
	GetForUpdate(ctx context.Context, id uuid.UUID) (*LeaveRequest, error)

	// UpdateStatus persists status, decision and deduction fields
	UpdateStatus(ctx context.Context, req *LeaveRequest) error

	ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]*LeaveRequest, error)
	ListPending(ctx context.Context, excludeEmployeeID uuid.UUID) ([]*LeaveRequest, error)

	// HasOverlap reports whether the employee holds a PENDING or APPROVED request
	// intersecting [start, end]
	HasOverlap(ctx context.Context, employeeID uuid.UUID, start, end time.Time) (bool, error)

	CountByLeaveType(ctx context.Context, leaveTypeID uuid.UUID) (int64, error)
	Search(ctx context.Context, filter Filter) ([]*LeaveRequest, error)
	WithTx(tx pgx.Tx) Repository
}
