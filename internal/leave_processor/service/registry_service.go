package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/leave-balance-ledger/internal/domain/balance"
	"github.com/leave-balance-ledger/internal/domain/leaverequest"
	"github.com/leave-balance-ledger/internal/domain/leavetype"
	"github.com/leave-balance-ledger/internal/domain/shared"
)

// RemovalResult tells whether a removed type was deleted or only deactivated
type RemovalResult struct {
	LeaveType           *leavetype.LeaveType `json:"leave_type"`
	Deleted             bool                 `json:"deleted"`
	ReferencingRequests int64                `json:"referencing_requests"`
	Message             string               `json:"message"`
}

type LeaveTypeRegistryImpl struct {
	tx          TxRunner
	leaveTypes  leavetype.Repository
	requests    leaverequest.Repository
	balances    balance.Repository
	generalCode string
	validate    *validator.Validate
	logger      *slog.Logger
}

func NewLeaveTypeRegistry(tx TxRunner, leaveTypes leavetype.Repository, requests leaverequest.Repository,
	balances balance.Repository, generalCode string, logger *slog.Logger) *LeaveTypeRegistryImpl {
	return &LeaveTypeRegistryImpl{
		tx:          tx,
		leaveTypes:  leaveTypes,
		requests:    requests,
		balances:    balances,
		generalCode: leavetype.NormalizeCode(generalCode),
		validate:    newValidator(),
		logger:      logger,
	}
}

func (s *LeaveTypeRegistryImpl) Create(ctx context.Context, input LeaveTypeInput) (*leavetype.LeaveType, error) {
	input.Code = leavetype.NormalizeCode(input.Code)
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	lt := leavetype.NewLeaveType(input.Code, input.Name, input.Description, input.AnnualQuota,
		input.CountsWeekends, input.MayOverflowToGeneral)
	if err := s.leaveTypes.Create(ctx, lt); err != nil {
		return nil, err
	}

	s.logger.Info("Leave type created", "code", lt.Code, "annual_quota", lt.AnnualQuota)
	return lt, nil
}

// Update changes name, quota and accounting flags. The code is immutable.
func (s *LeaveTypeRegistryImpl) Update(ctx context.Context, code string, input LeaveTypeInput) (*leavetype.LeaveType, error) {
	lt, err := s.leaveTypes.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	input.Code = lt.Code
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	updated := *lt
	updated.Name = input.Name
	updated.Description = input.Description
	updated.AnnualQuota = input.AnnualQuota
	updated.CountsWeekends = input.CountsWeekends
	updated.MayOverflowToGeneral = input.MayOverflowToGeneral
	updated.UpdatedAt = time.Now().UTC()

	if err := s.leaveTypes.Update(ctx, &updated); err != nil {
		return nil, err
	}

	s.logger.Info("Leave type updated", "code", updated.Code, "annual_quota", updated.AnnualQuota)
	return &updated, nil
}

// Remove deletes an unused type together with its balances. A type referenced by
// any request is only deactivated so its history stays readable.
func (s *LeaveTypeRegistryImpl) Remove(ctx context.Context, code string) (*RemovalResult, error) {
	var result *RemovalResult
	err := s.tx.WithinTx(ctx, func(tx pgx.Tx) error {
		leaveTypes := s.leaveTypes.WithTx(tx)

		lt, err := leaveTypes.GetByCode(ctx, code)
		if err != nil {
			return err
		}
		if lt.IsGeneral(s.generalCode) {
			return shared.ValidationError{Message: "Le type de congé général ne peut pas être supprimé"}
		}

		count, err := s.requests.WithTx(tx).CountByLeaveType(ctx, lt.ID)
		if err != nil {
			return err
		}

		if count > 0 {
			if err := leaveTypes.SetActive(ctx, lt.ID, false); err != nil {
				return err
			}
			lt.Active = false
			result = &RemovalResult{
				LeaveType:           lt,
				ReferencingRequests: count,
				Message:             fmt.Sprintf("Type de congé désactivé : %d demande(s) de congé l'utilisent actuellement ou l'ont utilisé dans le passé", count),
			}
			return nil
		}

		if err := s.balances.WithTx(tx).DeleteByLeaveType(ctx, lt.ID); err != nil {
			return err
		}
		if err := leaveTypes.Delete(ctx, lt.ID); err != nil {
			return err
		}
		result = &RemovalResult{LeaveType: lt, Deleted: true, Message: "Type de congé supprimé"}
		return nil
	})
	if err != nil {
		s.logger.Warn("Leave type removal refused", "code", code, "error", err)
		return nil, err
	}

	s.logger.Info("Leave type removed",
		"code", result.LeaveType.Code,
		"deleted", result.Deleted,
		"referencing_requests", result.ReferencingRequests,
	)
	return result, nil
}

func (s *LeaveTypeRegistryImpl) Reactivate(ctx context.Context, code string) (*leavetype.LeaveType, error) {
	lt, err := s.leaveTypes.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if lt.Active {
		return lt, nil
	}
	if err := s.leaveTypes.SetActive(ctx, lt.ID, true); err != nil {
		return nil, err
	}
	lt.Active = true

	s.logger.Info("Leave type reactivated", "code", lt.Code)
	return lt, nil
}

func (s *LeaveTypeRegistryImpl) Get(ctx context.Context, code string) (*leavetype.LeaveType, error) {
	return s.leaveTypes.GetByCode(ctx, code)
}

func (s *LeaveTypeRegistryImpl) List(ctx context.Context, filter leavetype.ActiveFilter) ([]*leavetype.LeaveType, error) {
	return s.leaveTypes.List(ctx, filter)
}
