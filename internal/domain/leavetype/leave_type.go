// Package leavetype holds the catalog of leave types and their accounting rules.
package leavetype

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LeaveType describes a category of leave and how it is accounted
type LeaveType struct {
	ID                   uuid.UUID `json:"id"`
	Code                 string    `json:"code"`
	Name                 string    `json:"name"`
	Description          string    `json:"description,omitempty"`
	AnnualQuota          int       `json:"annual_quota"`
	CountsWeekends       bool      `json:"counts_weekends"`
	MayOverflowToGeneral bool      `json:"may_overflow_to_general"`
	Active               bool      `json:"active"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// NewLeaveType creates an active leave type with a normalized code
func NewLeaveType(code, name, description string, quota int, countsWeekends, mayOverflow bool) *LeaveType {
	now := time.Now().UTC()
	return &LeaveType{
		ID:                   uuid.New(),
		Code:                 NormalizeCode(code),
		Name:                 strings.TrimSpace(name),
		Description:          strings.TrimSpace(description),
		AnnualQuota:          quota,
		CountsWeekends:       countsWeekends,
		MayOverflowToGeneral: mayOverflow,
		Active:               true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// NormalizeCode trims and upper-cases a type code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsGeneral reports whether this type is the general paid-leave type
func (lt *LeaveType) IsGeneral(generalCode string) bool {
	return lt.Code == NormalizeCode(generalCode)
}

// OverflowsTo reports whether shortfalls of this type may be taken from the general type
func (lt *LeaveType) OverflowsTo(generalCode string) bool {
	return lt.MayOverflowToGeneral && !lt.IsGeneral(generalCode)
}

// ActiveFilter selects types by their active flag
type ActiveFilter int

const (
	FilterAll ActiveFilter = iota
	FilterActive
	FilterInactive
)

// Repository defines leave type persistence operations
type Repository interface {
	Create(ctx context.Context, lt *LeaveType) error
	Update(ctx context.Context, lt *LeaveType) error
	GetByID(ctx context.Context, id uuid.UUID) (*LeaveType, error)
	GetByCode(ctx context.Context, code string) (*LeaveType, error)
	List(ctx context.Context, filter ActiveFilter) ([]*LeaveType, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	WithTx(tx pgx.Tx) Repository
}
