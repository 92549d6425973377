package service

import (
	"context"
	"log/slog"

	"github.com/leave-balance-ledger/internal/domain/leaverequest"
	"github.com/leave-balance-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Statistics aggregates the requests matched by a report filter
type Statistics struct {
	TotalRequests     int                          `json:"total_requests"`
	ByStatus          map[shared.RequestStatus]int `json:"by_status"`
	ByLeaveType       map[string]int               `json:"by_leave_type"`
	DaysByLeaveType   map[string]decimal.Decimal   `json:"days_by_leave_type"`
	TotalApprovedDays decimal.Decimal              `json:"total_approved_days"`
	ApprovalRate      decimal.Decimal              `json:"approval_rate"` // approved / decided, percent
}

type ReportingServiceImpl struct {
	requests leaverequest.Repository
	logger   *slog.Logger
}

func NewReportingService(requests leaverequest.Repository, logger *slog.Logger) *ReportingServiceImpl {
	return &ReportingServiceImpl{requests: requests, logger: logger}
}

func (s *ReportingServiceImpl) Report(ctx context.Context, filter leaverequest.Filter) ([]*leaverequest.LeaveRequest, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	return s.requests.Search(ctx, filter)
}

// Statistics counts requests per status and type. Days per type only include
// approved requests.
func (s *ReportingServiceImpl) Statistics(ctx context.Context, filter leaverequest.Filter) (*Statistics, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	requests, err := s.requests.Search(ctx, filter)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{
		ByStatus:          make(map[shared.RequestStatus]int),
		ByLeaveType:       make(map[string]int),
		DaysByLeaveType:   make(map[string]decimal.Decimal),
		TotalApprovedDays: decimal.Zero,
		ApprovalRate:      decimal.Zero,
	}
	for _, req := range requests {
		stats.TotalRequests++
		stats.ByStatus[req.Status]++
		stats.ByLeaveType[req.LeaveTypeCode]++
		if req.Status == shared.StatusApproved {
			stats.DaysByLeaveType[req.LeaveTypeCode] = stats.DaysByLeaveType[req.LeaveTypeCode].Add(req.TotalDays)
			stats.TotalApprovedDays = stats.TotalApprovedDays.Add(req.TotalDays)
		}
	}

	approved := stats.ByStatus[shared.StatusApproved]
	decided := approved + stats.ByStatus[shared.StatusRejected]
	if decided > 0 {
		stats.ApprovalRate = decimal.NewFromInt(int64(approved*100)).DivRound(decimal.NewFromInt(int64(decided)), 2)
	}

	s.logger.Debug("Computed leave statistics", "requests", stats.TotalRequests)
	return stats, nil
}

func validateFilter(filter leaverequest.Filter) error {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return shared.InvalidRangeError{Message: "La date de fin doit être après la date de début"}
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return shared.ValidationError{Message: "Statut inconnu: " + string(filter.Status)}
	}
	return nil
}
