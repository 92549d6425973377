package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/leave-balance-ledger/internal/domain/leaverequest"
	"github.com/leave-balance-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format accepted and returned by the API
const DateLayout = "2006-01-02"

// CreateLeaveRequest represents a request to take leave
type CreateLeaveRequest struct {
	LeaveTypeCode string  `json:"leave_type_code" binding:"required,max=20"`
	StartDate     string  `json:"start_date" binding:"required"`
	EndDate       string  `json:"end_date" binding:"required"`
	DurationMode  string  `json:"duration_mode"`
	StartTime     *string `json:"start_time,omitempty"`
	EndTime       *string `json:"end_time,omitempty"`
	Reason        string  `json:"reason" binding:"max=500"`
}

// DecisionRequest represents an approver's decision on a pending request
type DecisionRequest struct {
	Outcome string `json:"outcome" binding:"required,oneof=APPROVE REJECT"`
	Comment string `json:"comment" binding:"max=500"`
}

// LeaveTypeRequest represents the attributes of a leave type on create and update
type LeaveTypeRequest struct {
	Code                 string `json:"code"`
	Name                 string `json:"name"`
	Description          string `json:"description"`
	AnnualQuota          int    `json:"annual_quota"`
	CountsWeekends       bool   `json:"counts_weekends"`
	MayOverflowToGeneral bool   `json:"may_overflow_to_general"`
}

// RolloverRequest represents a bulk balance initialization for one year
type RolloverRequest struct {
	Year int `json:"year" binding:"required"`
}

// ReportQuery represents report filters passed as query parameters
type ReportQuery struct {
	From          string `form:"from"`
	To            string `form:"to"`
	LeaveTypeCode string `form:"leave_type"`
	Status        string `form:"status"`
	EmployeeID    string `form:"employee_id"`
	Department    string `form:"department"`
}

// LeaveTypeListQuery selects leave types by their active flag
type LeaveTypeListQuery struct {
	Status string `form:"status,default=active" binding:"oneof=active inactive all"`
}

// LeaveRequestResponse represents a leave request in API responses
type LeaveRequestResponse struct {
	ID                   string                       `json:"id"`
	EmployeeID           string                       `json:"employee_id"`
	LeaveTypeCode        string                       `json:"leave_type_code"`
	StartDate            string                       `json:"start_date"`
	EndDate              string                       `json:"end_date"`
	DurationMode         shared.DurationMode          `json:"duration_mode"`
	StartTime            *string                      `json:"start_time,omitempty"`
	EndTime              *string                      `json:"end_time,omitempty"`
	Status               shared.RequestStatus         `json:"status"`
	TotalDays            decimal.Decimal              `json:"total_days"`
	SpecificDaysDeducted *decimal.Decimal             `json:"specific_days_deducted,omitempty"`
	GeneralDaysDeducted  *decimal.Decimal             `json:"general_days_deducted,omitempty"`
	DeductionBreakdown   []leaverequest.YearDeduction `json:"deduction_breakdown,omitempty"`
	Reason               string                       `json:"reason,omitempty"`
	ApproverID           string                       `json:"approver_id,omitempty"`
	DecisionComment      string                       `json:"decision_comment,omitempty"`
	RequestedAt          string                       `json:"requested_at"`
	DecidedAt            string                       `json:"decided_at,omitempty"`
	CancelledAt          string                       `json:"cancelled_at,omitempty"`
}

// mapLeaveRequestToResponse maps a leave request to its response DTO
func mapLeaveRequestToResponse(req *leaverequest.LeaveRequest) LeaveRequestResponse {
	response := LeaveRequestResponse{
		ID:                   req.ID.String(),
		EmployeeID:           req.EmployeeID.String(),
		LeaveTypeCode:        req.LeaveTypeCode,
		StartDate:            req.StartDate.Format(DateLayout),
		EndDate:              req.EndDate.Format(DateLayout),
		DurationMode:         req.DurationMode,
		StartTime:            req.StartTime,
		EndTime:              req.EndTime,
		Status:               req.Status,
		TotalDays:            req.TotalDays,
		SpecificDaysDeducted: req.SpecificDaysDeducted,
		GeneralDaysDeducted:  req.GeneralDaysDeducted,
		DeductionBreakdown:   req.DeductionBreakdown,
		Reason:               req.Reason,
		DecisionComment:      req.DecisionComment,
		RequestedAt:          req.RequestedAt.Format(time.RFC3339),
	}

	if req.ApproverID != nil {
		response.ApproverID = req.ApproverID.String()
	}
	if req.DecidedAt != nil {
		response.DecidedAt = req.DecidedAt.Format(time.RFC3339)
	}
	if req.CancelledAt != nil {
		response.CancelledAt = req.CancelledAt.Format(time.RFC3339)
	}

	return response
}

func mapLeaveRequests(reqs []*leaverequest.LeaveRequest) []LeaveRequestResponse {
	responses := make([]LeaveRequestResponse, 0, len(reqs))
	for _, req := range reqs {
		responses = append(responses, mapLeaveRequestToResponse(req))
	}
	return responses
}

// parseDate reads a calendar date in DateLayout
func parseDate(value string) (time.Time, error) {
	d, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, shared.ValidationError{Message: "Format de date invalide, attendu AAAA-MM-JJ: " + value}
	}
	return d, nil
}

// parseOptionalDate returns nil for an empty value
func parseOptionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	d, err := parseDate(value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseUUIDParam(value, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, shared.ValidationError{Message: what + " invalide: " + value}
	}
	return id, nil
}
