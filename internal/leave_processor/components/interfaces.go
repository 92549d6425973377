package components

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/leave-balance-ledger/internal/domain/leaverequest"
	"github.com/leave-balance-ledger/internal/domain/leavetype"
)

// Calculator converts a requested range into per-year consumption
type Calculator interface {
	ComputeConsumption(in DurationInput) (Consumption, error)
}

// Allocator validates, debits and reverses consumption against the balance ledger.
// Debit and Credit must run on an allocator bound to the caller's transaction.
type Allocator interface {
	ValidateSufficiency(ctx context.Context, employeeID uuid.UUID, lt *leavetype.LeaveType, consumption Consumption) error
	Debit(ctx context.Context, employeeID uuid.UUID, lt *leavetype.LeaveType, consumption Consumption) (*leaverequest.Deduction, error)
	Credit(ctx context.Context, employeeID uuid.UUID, lt *leavetype.LeaveType, consumption Consumption, deduction *leaverequest.Deduction) error
	WithTx(tx pgx.Tx) Allocator
}

var (
	_ Calculator = (*DurationCalculator)(nil)
	_ Allocator  = (*AllocationEngine)(nil)
)
