package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/leave-balance-ledger/internal/domain/balance"
	"github.com/leave-balance-ledger/internal/domain/employee"
	"github.com/leave-balance-ledger/internal/domain/history"
	"github.com/leave-balance-ledger/internal/domain/leaverequest"
	"github.com/leave-balance-ledger/internal/domain/leavetype"
	"github.com/leave-balance-ledger/internal/domain/shared"
	"github.com/leave-balance-ledger/internal/leave_processor/components"
)

const cancelComment = "Annulation par l'employé"

// LifecycleDependencies groups the collaborators of the lifecycle service
type LifecycleDependencies struct {
	Tx         TxRunner
	Requests   leaverequest.Repository
	LeaveTypes leavetype.Repository
	Employees  employee.Repository
	Balances   balance.Repository
	History    history.Repository
	Calculator components.Calculator
	Allocator  components.Allocator
	Events     EventRecorder
	Location   *time.Location
	Clock      Clock
}

type LeaveLifecycleServiceImpl struct {
	tx         TxRunner
	requests   leaverequest.Repository
	leaveTypes leavetype.Repository
	employees  employee.Repository
	balances   balance.Repository
	history    history.Repository
	calculator components.Calculator
	allocator  components.Allocator
	events     EventRecorder
	location   *time.Location
	now        Clock
	validate   *validator.Validate
	logger     *slog.Logger
}

func NewLeaveLifecycleService(deps LifecycleDependencies, logger *slog.Logger) *LeaveLifecycleServiceImpl {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	return &LeaveLifecycleServiceImpl{
		tx:         deps.Tx,
		requests:   deps.Requests,
		leaveTypes: deps.LeaveTypes,
		employees:  deps.Employees,
		balances:   deps.Balances,
		history:    deps.History,
		calculator: deps.Calculator,
		allocator:  deps.Allocator,
		events:     deps.Events,
		location:   loc,
		now:        now,
		validate:   newValidator(),
		logger:     logger,
	}
}

func (s *LeaveLifecycleServiceImpl) loggerFor(ctx context.Context) *slog.Logger {
	if id := shared.CorrelationID(ctx); id != "" {
		return s.logger.With("correlation_id", id)
	}
	return s.logger
}

// CreateRequest validates and stores a PENDING request. Balances are checked but
// not touched; nothing is persisted when any check fails.
func (s *LeaveLifecycleServiceImpl) CreateRequest(ctx context.Context, cmd CreateLeaveCommand) (*leaverequest.LeaveRequest, error) {
	logger := s.loggerFor(ctx)

	cmd.DurationMode = shared.ParseDurationMode(string(cmd.DurationMode))
	cmd.Reason = strings.TrimSpace(cmd.Reason)
	if err := s.validate.Struct(cmd); err != nil {
		return nil, validationError(err)
	}

	start, end := components.DateOnly(cmd.StartDate), components.DateOnly(cmd.EndDate)
	if end.Before(start) {
		return nil, shared.InvalidRangeError{Message: "La date de fin doit être après la date de début"}
	}
	today := components.DateOnly(s.now().In(s.location))
	if start.Before(today) {
		return nil, shared.ValidationError{Message: "La date de début ne peut pas être dans le passé"}
	}

	emp, err := s.employees.GetByID(ctx, cmd.EmployeeID)
	if err != nil {
		return nil, err
	}
	if !emp.Active {
		return nil, shared.ValidationError{Message: "Employé inactif"}
	}

	lt, err := s.leaveTypes.GetByCode(ctx, cmd.LeaveTypeCode)
	if err != nil {
		return nil, err
	}
	if !lt.Active {
		return nil, shared.ValidationError{Message: "Ce type de congé n'est plus disponible"}
	}

	consumption, err := s.calculator.ComputeConsumption(components.DurationInput{
		Start:          start,
		End:            end,
		Mode:           cmd.DurationMode,
		StartTime:      cmd.StartTime,
		EndTime:        cmd.EndTime,
		CountsWeekends: lt.CountsWeekends,
	})
	if err != nil {
		return nil, err
	}

	req := leaverequest.NewPending(emp.ID, lt.ID, lt.Code, start, end, cmd.DurationMode,
		cmd.StartTime, cmd.EndTime, consumption.Total(), cmd.Reason, s.now().UTC())

	err = s.tx.WithinTx(ctx, func(tx pgx.Tx) error {
		requests := s.requests.WithTx(tx)

		overlap, err := requests.HasOverlap(ctx, emp.ID, start, end)
		if err != nil {
			return err
		}
		if overlap {
			return shared.ValidationError{Message: "Chevauchement avec un congé existant"}
		}

		if err := s.allocator.WithTx(tx).ValidateSufficiency(ctx, emp.ID, lt, consumption); err != nil {
			return err
		}
		if err := requests.Create(ctx, req); err != nil {
			return err
		}
		return s.events.Record(ctx, tx, s.newEvent(ctx, req, "", emp.ID, ""))
	})
	if err != nil {
		s.logRejection(logger, "Leave request refused", err, "employee_id", cmd.EmployeeID.String(), "leave_type", lt.Code)
		return nil, err
	}

	logger.Info("Leave request created",
		"request_id", req.ID.String(),
		"employee_id", emp.ID.String(),
		"leave_type", lt.Code,
		"days", req.TotalDays.String(),
	)
	return req, nil
}

// Decide approves or rejects a pending request. Approval debits the balances and
// records the split for later reversal.
func (s *LeaveLifecycleServiceImpl) Decide(ctx context.Context, requestID uuid.UUID, outcome shared.DecisionOutcome, actorID uuid.UUID, comment string) (*leaverequest.LeaveRequest, error) {
	logger := s.loggerFor(ctx)

	if outcome != shared.OutcomeApprove && outcome != shared.OutcomeReject {
		return nil, shared.ValidationError{Message: "Décision invalide: " + string(outcome)}
	}
	comment = strings.TrimSpace(comment)

	var req *leaverequest.LeaveRequest
	err := s.tx.WithinTx(ctx, func(tx pgx.Tx) error {
		requests := s.requests.WithTx(tx)

		var err error
		if req, err = requests.GetForUpdate(ctx, requestID); err != nil {
			return err
		}
		if req.Status != shared.StatusPending {
			return shared.AlreadyProcessedError{RequestID: req.ID, Status: req.Status}
		}
		if req.EmployeeID == actorID {
			return shared.ValidationError{Message: "Vous ne pouvez pas valider votre propre demande de congé"}
		}

		now := s.now().UTC()
		if outcome == shared.OutcomeReject {
			if err := req.Reject(actorID, comment, now); err != nil {
				return err
			}
		} else {
			lt, consumption, err := s.consumptionOf(ctx, tx, req)
			if err != nil {
				return err
			}
			deduction, err := s.allocator.WithTx(tx).Debit(ctx, req.EmployeeID, lt, consumption)
			if err != nil {
				return err
			}
			if err := req.Approve(actorID, comment, *deduction, now); err != nil {
				return err
			}
		}

		if err := requests.UpdateStatus(ctx, req); err != nil {
			return err
		}
		return s.events.Record(ctx, tx, s.newEvent(ctx, req, shared.StatusPending, actorID, comment))
	})
	if err != nil {
		s.logRejection(logger, "Leave decision refused", err, "request_id", requestID.String(), "outcome", string(outcome))
		return nil, err
	}

	logger.Info("Leave request decided",
		"request_id", req.ID.String(),
		"status", string(req.Status),
		"approver_id", actorID.String(),
	)
	return req, nil
}

// Cancel withdraws a pending or approved request on behalf of its owner. An
// approved request has its deduction credited back first.
func (s *LeaveLifecycleServiceImpl) Cancel(ctx context.Context, requestID, actorID uuid.UUID) (*leaverequest.LeaveRequest, error) {
	logger := s.loggerFor(ctx)

	var req *leaverequest.LeaveRequest
	err := s.tx.WithinTx(ctx, func(tx pgx.Tx) error {
		requests := s.requests.WithTx(tx)

		var err error
		if req, err = requests.GetForUpdate(ctx, requestID); err != nil {
			return err
		}
		if req.EmployeeID != actorID {
			return shared.NotOwnerError{RequestID: req.ID, ActorID: actorID}
		}

		previous := req.Status
		if err := req.Cancel(s.now().UTC()); err != nil {
			return err
		}

		if previous == shared.StatusApproved {
			lt, consumption, err := s.consumptionOf(ctx, tx, req)
			if err != nil {
				return err
			}
			if err := s.allocator.WithTx(tx).Credit(ctx, req.EmployeeID, lt, consumption, req.Deduction()); err != nil {
				return err
			}
		}

		if err := requests.UpdateStatus(ctx, req); err != nil {
			return err
		}
		return s.events.Record(ctx, tx, s.newEvent(ctx, req, previous, actorID, cancelComment))
	})
	if err != nil {
		s.logRejection(logger, "Leave cancellation refused", err, "request_id", requestID.String())
		return nil, err
	}

	logger.Info("Leave request cancelled", "request_id", req.ID.String(), "employee_id", actorID.String())
	return req, nil
}

// GetBalances lists an employee's balances, most recent year first
func (s *LeaveLifecycleServiceImpl) GetBalances(ctx context.Context, employeeID uuid.UUID) ([]*balance.Summary, error) {
	if _, err := s.employees.GetByID(ctx, employeeID); err != nil {
		return nil, err
	}
	return s.balances.ListByEmployee(ctx, employeeID)
}

func (s *LeaveLifecycleServiceImpl) GetRequest(ctx context.Context, requestID uuid.UUID) (*leaverequest.LeaveRequest, error) {
	return s.requests.GetByID(ctx, requestID)
}

func (s *LeaveLifecycleServiceImpl) ListEmployeeRequests(ctx context.Context, employeeID uuid.UUID) ([]*leaverequest.LeaveRequest, error) {
	return s.requests.ListByEmployee(ctx, employeeID)
}

// ListPending returns requests awaiting a decision that approverID may decide
func (s *LeaveLifecycleServiceImpl) ListPending(ctx context.Context, approverID uuid.UUID) ([]*leaverequest.LeaveRequest, error) {
	return s.requests.ListPending(ctx, approverID)
}

// History returns the status transitions of a request, newest first
func (s *LeaveLifecycleServiceImpl) History(ctx context.Context, requestID uuid.UUID) ([]*history.Entry, error) {
	if _, err := s.requests.GetByID(ctx, requestID); err != nil {
		return nil, err
	}
	return s.history.ListByRequest(ctx, requestID)
}

// consumptionOf recomputes a stored request's per-year consumption with its type's
// current weekend rule.
func (s *LeaveLifecycleServiceImpl) consumptionOf(ctx context.Context, tx pgx.Tx, req *leaverequest.LeaveRequest) (*leavetype.LeaveType, components.Consumption, error) {
	lt, err := s.leaveTypes.WithTx(tx).GetByID(ctx, req.LeaveTypeID)
	if err != nil {
		return nil, nil, err
	}
	consumption, err := s.calculator.ComputeConsumption(components.DurationInput{
		Start:          req.StartDate,
		End:            req.EndDate,
		Mode:           req.DurationMode,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		CountsWeekends: lt.CountsWeekends,
	})
	if err != nil {
		return nil, nil, err
	}
	return lt, consumption, nil
}

func (s *LeaveLifecycleServiceImpl) newEvent(ctx context.Context, req *leaverequest.LeaveRequest, previous shared.RequestStatus, actorID uuid.UUID, comment string) *shared.LeaveEvent {
	return &shared.LeaveEvent{
		EventID:        uuid.New(),
		EventType:      shared.EventTypeFor(req.Status),
		RequestID:      req.ID,
		EmployeeID:     req.EmployeeID,
		LeaveTypeCode:  req.LeaveTypeCode,
		StartYear:      req.StartDate.Year(),
		EndYear:        req.EndDate.Year(),
		DaysTotal:      req.TotalDays,
		PreviousStatus: previous,
		NewStatus:      req.Status,
		ActorID:        actorID,
		Comment:        comment,
		CorrelationID:  shared.CorrelationID(ctx),
		OccurredAt:     s.now().UTC(),
	}
}

// logRejection logs business refusals at Warn and infrastructure failures at Error
func (s *LeaveLifecycleServiceImpl) logRejection(logger *slog.Logger, msg string, err error, attrs ...any) {
	attrs = append(attrs, "error", err)
	if isBusinessError(err) {
		logger.Warn(msg, attrs...)
		return
	}
	logger.Error(msg, attrs...)
}

func isBusinessError(err error) bool {
	var (
		validation   shared.ValidationError
		insufficient shared.InsufficientBalanceError
		processed    shared.AlreadyProcessedError
		notOwner     shared.NotOwnerError
		notFound     shared.NotFoundError
		conflict     shared.ConflictError
	)
	return errors.As(err, &validation) ||
		errors.As(err, &insufficient) ||
		errors.As(err, &processed) ||
		errors.As(err, &notOwner) ||
		errors.As(err, &notFound) ||
		errors.As(err, &conflict)
}
