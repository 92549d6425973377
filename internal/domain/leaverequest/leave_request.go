// Package leaverequest holds the leave request aggregate and its lifecycle rules.
package leaverequest

import (
	"time"

	"github.com/google/uuid"
	"github.com/leave-balance-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MaxReasonLength bounds the free-text reason of a request
const MaxReasonLength = 500

// YearDeduction is the part of a deduction taken in one calendar year
type YearDeduction struct {
	Year     int             `json:"year"`
	Specific decimal.Decimal `json:"specific"`
	General  decimal.Decimal `json:"general"`
}

// Deduction is the split recorded when a request is approved
type Deduction struct {
	Specific decimal.Decimal `json:"specific"`
	General  decimal.Decimal `json:"general"`
	ByYear   []YearDeduction `json:"by_year,omitempty"`
}

// ForYear returns the per-year part, if one was recorded
func (d *Deduction) ForYear(year int) (YearDeduction, bool) {
	for _, yd := range d.ByYear {
		if yd.Year == year {
			return yd, true
		}
	}
	return YearDeduction{}, false
}

// LeaveRequest is an employee's request for absence
type LeaveRequest struct {
	ID                   uuid.UUID            `json:"id"`
	EmployeeID           uuid.UUID            `json:"employee_id"`
	LeaveTypeID          uuid.UUID            `json:"leave_type_id"`
	LeaveTypeCode        string               `json:"leave_type_code"`
	StartDate            time.Time            `json:"start_date"`
	EndDate              time.Time            `json:"end_date"`
	DurationMode         shared.DurationMode  `json:"duration_mode"`
	StartTime            *string              `json:"start_time,omitempty"` // HH:MM, hourly mode only
	EndTime              *string              `json:"end_time,omitempty"`
	Status               shared.RequestStatus `json:"status"`
	TotalDays            decimal.Decimal      `json:"total_days"`
	SpecificDaysDeducted *decimal.Decimal     `json:"specific_days_deducted,omitempty"`
	GeneralDaysDeducted  *decimal.Decimal     `json:"general_days_deducted,omitempty"`
	DeductionBreakdown   []YearDeduction      `json:"deduction_breakdown,omitempty"`
	Reason               string               `json:"reason,omitempty"`
	ApproverID           *uuid.UUID           `json:"approver_id,omitempty"`
	DecisionComment      string               `json:"decision_comment,omitempty"`
	RequestedAt          time.Time            `json:"requested_at"`
	DecidedAt            *time.Time           `json:"decided_at,omitempty"`
	CancelledAt          *time.Time           `json:"cancelled_at,omitempty"`
}

// NewPending creates a request awaiting a decision. Deduction fields stay nil
// until approval.
func NewPending(employeeID uuid.UUID, leaveTypeID uuid.UUID, leaveTypeCode string, start, end time.Time,
	mode shared.DurationMode, startTime, endTime *string, totalDays decimal.Decimal, reason string, now time.Time) *LeaveRequest {
	return &LeaveRequest{
		ID:            uuid.New(),
		EmployeeID:    employeeID,
		LeaveTypeID:   leaveTypeID,
		LeaveTypeCode: leaveTypeCode,
		StartDate:     start,
		EndDate:       end,
		DurationMode:  mode,
		StartTime:     startTime,
		EndTime:       endTime,
		Status:        shared.StatusPending,
		TotalDays:     totalDays,
		Reason:        reason,
		RequestedAt:   now,
	}
}

// Deduction returns the recorded split, or nil when nothing was deducted
func (r *LeaveRequest) Deduction() *Deduction {
	if r.SpecificDaysDeducted == nil {
		return nil
	}
	d := &Deduction{Specific: *r.SpecificDaysDeducted, ByYear: r.DeductionBreakdown}
	if r.GeneralDaysDeducted != nil {
		d.General = *r.GeneralDaysDeducted
	}
	return d
}

// Approve moves a pending request to APPROVED and records the deduction split
func (r *LeaveRequest) Approve(approverID uuid.UUID, comment string, d Deduction, now time.Time) error {
	if err := r.transition(shared.StatusApproved); err != nil {
		return err
	}
	specific, general := d.Specific, d.General
	r.SpecificDaysDeducted = &specific
	r.GeneralDaysDeducted = &general
	r.DeductionBreakdown = d.ByYear
	r.ApproverID = &approverID
	r.DecisionComment = comment
	r.DecidedAt = &now
	return nil
}

// Reject moves a pending request to REJECTED
func (r *LeaveRequest) Reject(approverID uuid.UUID, comment string, now time.Time) error {
	if err := r.transition(shared.StatusRejected); err != nil {
		return err
	}
	r.ApproverID = &approverID
	r.DecisionComment = comment
	r.DecidedAt = &now
	return nil
}

// Cancel moves a pending or approved request to CANCELLED
func (r *LeaveRequest) Cancel(now time.Time) error {
	if !r.Status.CanTransitionTo(shared.StatusCancelled) {
		return shared.AlreadyProcessedError{RequestID: r.ID, Status: r.Status, Message: "Ce congé ne peut pas être annulé"}
	}
	r.Status = shared.StatusCancelled
	r.CancelledAt = &now
	return nil
}

func (r *LeaveRequest) transition(next shared.RequestStatus) error {
	if r.Status != shared.StatusPending || !r.Status.CanTransitionTo(next) {
		return shared.AlreadyProcessedError{RequestID: r.ID, Status: r.Status}
	}
	r.Status = next
	return nil
}

// Overlaps reports whether the request's date range intersects [start, end]
func (r *LeaveRequest) Overlaps(start, end time.Time) bool {
	return !r.StartDate.After(end) && !r.EndDate.Before(start)
}
