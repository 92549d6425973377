// Package balance models the per employee, leave type and year ledger rows.
package balance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var (
	ErrNonPositiveAmount = errors.New("amount must be greater than zero")
	ErrNegativeBalance   = errors.New("operation would make the balance negative")
	ErrQuotaExceeded     = errors.New("operation would exceed the annual quota")
)

// Record is the remaining balance of one leave type for one employee and year.
// AnnualQuota is read from the leave type when the row is loaded.
type Record struct {
	EmployeeID    uuid.UUID       `json:"employee_id"`
	LeaveTypeID   uuid.UUID       `json:"leave_type_id"`
	Year          int             `json:"year"`
	RemainingDays decimal.Decimal `json:"remaining_days"`
	AnnualQuota   int             `json:"annual_quota"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Quota returns the annual quota as a decimal
func (r *Record) Quota() decimal.Decimal {
	return decimal.NewFromInt(int64(r.AnnualQuota))
}

// Headroom is how many days can be credited before reaching the quota
func (r *Record) Headroom() decimal.Decimal {
	h := r.Quota().Sub(r.RemainingDays)
	if h.IsNegative() {
		return decimal.Zero
	}
	return h
}

// Debit removes days from the balance. It never clamps: a debit larger than the
// remaining balance is refused.
func (r *Record) Debit(days decimal.Decimal) error {
	if !days.IsPositive() {
		return ErrNonPositiveAmount
	}
	if days.GreaterThan(r.RemainingDays) {
		return ErrNegativeBalance
	}
	r.RemainingDays = r.RemainingDays.Sub(days)
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// Credit returns days to the balance, refusing to exceed the annual quota
func (r *Record) Credit(days decimal.Decimal) error {
	if !days.IsPositive() {
		return ErrNonPositiveAmount
	}
	if r.RemainingDays.Add(days).GreaterThan(r.Quota()) {
		return ErrQuotaExceeded
	}
	r.RemainingDays = r.RemainingDays.Add(days)
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// Summary is a read model joining a balance row with its leave type
type Summary struct {
	LeaveTypeCode string          `json:"leave_type_code"`
	LeaveTypeName string          `json:"leave_type_name"`
	Year          int             `json:"year"`
	RemainingDays decimal.Decimal `json:"remaining_days"`
	AnnualQuota   int             `json:"annual_quota"`
}

// Repository defines balance ledger persistence operations
type Repository interface {
	// EnsureYearInitialized creates missing rows for every active leave type,
	// seeded to the quota, and returns how many rows it created. Concurrent
	// callers never fail on duplicates.
	EnsureYearInitialized(ctx context.Context, employeeID uuid.UUID, year int) (int64, error)

	// GetForUpdate reads a row and holds a row lock until the transaction ends
	GetForUpdate(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int) (*Record, error)

	Get(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int) (*Record, error)
	UpdateRemaining(ctx context.Context, record *Record) error
	ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]*Summary, error)
	DeleteByLeaveType(ctx context.Context, leaveTypeID uuid.UUID) error
	WithTx(tx pgx.Tx) Repository
}
