// Package service implements the leave request lifecycle, the leave-type registry,
// reporting and balance rollover on top of the allocation components.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/leave-balance-ledger/internal/domain/balance"
	"github.com/leave-balance-ledger/internal/domain/history"
	"github.com/leave-balance-ledger/internal/domain/leaverequest"
	"github.com/leave-balance-ledger/internal/domain/leavetype"
	"github.com/leave-balance-ledger/internal/domain/shared"
)

// LeaveLifecycleService drives requests through PENDING → APPROVED/REJECTED/CANCELLED,
// applying and reversing balance allocations.
type LeaveLifecycleService interface {
	CreateRequest(ctx context.Context, cmd CreateLeaveCommand) (*leaverequest.LeaveRequest, error)
	Decide(ctx context.Context, requestID uuid.UUID, outcome shared.DecisionOutcome, actorID uuid.UUID, comment string) (*leaverequest.LeaveRequest, error)
	Cancel(ctx context.Context, requestID, actorID uuid.UUID) (*leaverequest.LeaveRequest, error)
	GetBalances(ctx context.Context, employeeID uuid.UUID) ([]*balance.Summary, error)
	GetRequest(ctx context.Context, requestID uuid.UUID) (*leaverequest.LeaveRequest, error)
	ListEmployeeRequests(ctx context.Context, employeeID uuid.UUID) ([]*leaverequest.LeaveRequest, error)
	ListPending(ctx context.Context, approverID uuid.UUID) ([]*leaverequest.LeaveRequest, error)
	History(ctx context.Context, requestID uuid.UUID) ([]*history.Entry, error)
}

// LeaveTypeRegistry administers the leave-type catalog
type LeaveTypeRegistry interface {
	Create(ctx context.Context, input LeaveTypeInput) (*leavetype.LeaveType, error)
	Update(ctx context.Context, code string, input LeaveTypeInput) (*leavetype.LeaveType, error)
	Remove(ctx context.Context, code string) (*RemovalResult, error)
	Reactivate(ctx context.Context, code string) (*leavetype.LeaveType, error)
	Get(ctx context.Context, code string) (*leavetype.LeaveType, error)
	List(ctx context.Context, filter leavetype.ActiveFilter) ([]*leavetype.LeaveType, error)
}

// ReportingService answers filtered queries over requests
type ReportingService interface {
	Report(ctx context.Context, filter leaverequest.Filter) ([]*leaverequest.LeaveRequest, error)
	Statistics(ctx context.Context, filter leaverequest.Filter) (*Statistics, error)
}

// RolloverService seeds balances in bulk
type RolloverService interface {
	InitializeYear(ctx context.Context, year int) (*RolloverReport, error)
	Shutdown()
}

// DirectorySyncService applies employee directory updates
type DirectorySyncService interface {
	SyncEmployee(ctx context.Context, event *shared.EmployeeEvent) error
}

// TxRunner runs fn inside one database transaction, committing on nil
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// EventRecorder stores lifecycle events in the outbox within a transaction
type EventRecorder interface {
	Record(ctx context.Context, tx pgx.Tx, event *shared.LeaveEvent) error
}

// Clock returns the current time
type Clock func() time.Time

// Ensure implementations satisfy their interfaces (compile-time check)
var (
	_ LeaveLifecycleService = (*LeaveLifecycleServiceImpl)(nil)
	_ LeaveTypeRegistry     = (*LeaveTypeRegistryImpl)(nil)
	_ ReportingService      = (*ReportingServiceImpl)(nil)
	_ RolloverService       = (*BalanceRolloverService)(nil)
	_ DirectorySyncService  = (*DirectorySyncServiceImpl)(nil)
)
