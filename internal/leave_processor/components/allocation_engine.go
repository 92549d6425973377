package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/leave-balance-ledger/internal/domain/balance"
	"github.com/leave-balance-ledger/internal/domain/leaverequest"
	"github.com/leave-balance-ledger/internal/domain/leavetype"
	"github.com/leave-balance-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AllocationEngine splits consumption between a leave type's own balance and the
// general paid-leave balance. Rows are always visited year ascending, and within a
// year the specific row is locked before the general one.
type AllocationEngine struct {
	balances    balance.Repository
	leaveTypes  leavetype.Repository
	generalCode string
	logger      *slog.Logger
}

func NewAllocationEngine(balances balance.Repository, leaveTypes leavetype.Repository, generalCode string, logger *slog.Logger) *AllocationEngine {
	return &AllocationEngine{
		balances:    balances,
		leaveTypes:  leaveTypes,
		generalCode: leavetype.NormalizeCode(generalCode),
		logger:      logger,
	}
}

// WithTx returns an engine whose reads, locks and writes run inside tx
func (e *AllocationEngine) WithTx(tx pgx.Tx) Allocator {
	return &AllocationEngine{
		balances:    e.balances.WithTx(tx),
		leaveTypes:  e.leaveTypes.WithTx(tx),
		generalCode: e.generalCode,
		logger:      e.logger,
	}
}

// GeneralCode is the code of the type receiving overflow
func (e *AllocationEngine) GeneralCode() string {
	return e.generalCode
}

// ValidateSufficiency checks, without locking, that every year of the consumption
// can be covered by the specific balance plus, when allowed, the general balance.
func (e *AllocationEngine) ValidateSufficiency(ctx context.Context, employeeID uuid.UUID, lt *leavetype.LeaveType, consumption Consumption) error {
	var general *leavetype.LeaveType

	for _, year := range consumption.Years() {
		requested := consumption[year]

		if _, err := e.balances.EnsureYearInitialized(ctx, employeeID, year); err != nil {
			return err
		}
		specific, err := e.balances.Get(ctx, employeeID, lt.ID, year)
		if err != nil {
			return err
		}
		if specific.RemainingDays.GreaterThanOrEqual(requested) {
			continue
		}

		generalRemaining := decimal.Zero
		if lt.OverflowsTo(e.generalCode) {
			if general == nil {
				if general, err = e.generalType(ctx); err != nil {
					return err
				}
			}
			rec, err := e.balances.Get(ctx, employeeID, general.ID, year)
			if err != nil {
				return err
			}
			generalRemaining = rec.RemainingDays
		}

		if specific.RemainingDays.Add(generalRemaining).LessThan(requested) {
			return e.insufficient(year, lt, specific.RemainingDays, generalRemaining, requested)
		}
	}
	return nil
}

// Debit takes the consumption from the specific balance first and the remainder from
// the general balance, locking each row it reads. Any year that cannot be covered
// aborts with InsufficientBalanceError; the caller's transaction discards earlier years.
func (e *AllocationEngine) Debit(ctx context.Context, employeeID uuid.UUID, lt *leavetype.LeaveType, consumption Consumption) (*leaverequest.Deduction, error) {
	deduction := &leaverequest.Deduction{Specific: decimal.Zero, General: decimal.Zero}
	var general *leavetype.LeaveType

	for _, year := range consumption.Years() {
		requested := consumption[year]

		if _, err := e.balances.EnsureYearInitialized(ctx, employeeID, year); err != nil {
			return nil, err
		}
		specific, err := e.balances.GetForUpdate(ctx, employeeID, lt.ID, year)
		if err != nil {
			return nil, err
		}

		fromSpecific := decimal.Min(specific.RemainingDays, requested)
		remainder := requested.Sub(fromSpecific)

		var generalRec *balance.Record
		if remainder.IsPositive() {
			if !lt.OverflowsTo(e.generalCode) {
				return nil, e.insufficient(year, lt, specific.RemainingDays, decimal.Zero, requested)
			}
			if general == nil {
				if general, err = e.generalType(ctx); err != nil {
					return nil, err
				}
			}
			generalRec, err = e.balances.GetForUpdate(ctx, employeeID, general.ID, year)
			if err != nil {
				return nil, err
			}
			if generalRec.RemainingDays.LessThan(remainder) {
				return nil, e.insufficient(year, lt, specific.RemainingDays, generalRec.RemainingDays, requested)
			}
		}

		if fromSpecific.IsPositive() {
			if err := e.apply(ctx, specific, fromSpecific, (*balance.Record).Debit); err != nil {
				return nil, err
			}
		}
		if generalRec != nil {
			if err := e.apply(ctx, generalRec, remainder, (*balance.Record).Debit); err != nil {
				return nil, err
			}
		}

		e.logger.Debug("Debited leave balance",
			"employee_id", employeeID.String(),
			"leave_type", lt.Code,
			"year", year,
			"specific", fromSpecific.String(),
			"general", remainder.String(),
		)

		deduction.Specific = deduction.Specific.Add(fromSpecific)
		deduction.General = deduction.General.Add(remainder)
		deduction.ByYear = append(deduction.ByYear, leaverequest.YearDeduction{
			Year:     year,
			Specific: fromSpecific,
			General:  remainder,
		})
	}

	return deduction, nil
}

// Credit reverses a recorded deduction. Each year refills the specific balance up to
// its quota, bounded by what remains of the specific deduction, and sends the rest
// to the general balance bounded by the general deduction. When the deduction holds
// a per-year split, each year is additionally bounded by its own split. A nil
// deduction is a no-op.
func (e *AllocationEngine) Credit(ctx context.Context, employeeID uuid.UUID, lt *leavetype.LeaveType, consumption Consumption, deduction *leaverequest.Deduction) error {
	if deduction == nil {
		return nil
	}

	specificBudget := deduction.Specific
	generalBudget := deduction.General
	var general *leavetype.LeaveType

	for _, year := range consumption.Years() {
		yearDays := consumption[year]
		split, hasSplit := deduction.ForYear(year)

		if _, err := e.balances.EnsureYearInitialized(ctx, employeeID, year); err != nil {
			return err
		}
		specific, err := e.balances.GetForUpdate(ctx, employeeID, lt.ID, year)
		if err != nil {
			return err
		}

		specificCap := decimal.Min(specificBudget, yearDays)
		if hasSplit {
			specificCap = decimal.Min(specificCap, split.Specific)
		}
		toSpecific := decimal.Min(specific.Headroom(), specificCap)
		if toSpecific.IsPositive() {
			if err := e.apply(ctx, specific, toSpecific, (*balance.Record).Credit); err != nil {
				return err
			}
			specificBudget = specificBudget.Sub(toSpecific)
		}

		generalCap := decimal.Min(yearDays.Sub(toSpecific), generalBudget)
		if hasSplit {
			generalCap = decimal.Min(generalCap, split.General)
		}
		toGeneral := decimal.Zero
		if generalCap.IsPositive() {
			if general == nil {
				if general, err = e.generalType(ctx); err != nil {
					return err
				}
			}
			generalRec, err := e.balances.GetForUpdate(ctx, employeeID, general.ID, year)
			if err != nil {
				return err
			}
			toGeneral = decimal.Min(generalCap, generalRec.Headroom())
			if toGeneral.IsPositive() {
				if err := e.apply(ctx, generalRec, toGeneral, (*balance.Record).Credit); err != nil {
					return err
				}
				generalBudget = generalBudget.Sub(toGeneral)
			}
		}

		e.logger.Debug("Credited leave balance",
			"employee_id", employeeID.String(),
			"leave_type", lt.Code,
			"year", year,
			"specific", toSpecific.String(),
			"general", toGeneral.String(),
		)
	}

	return nil
}

func (e *AllocationEngine) apply(ctx context.Context, rec *balance.Record, days decimal.Decimal, op func(*balance.Record, decimal.Decimal) error) error {
	if err := op(rec, days); err != nil {
		return fmt.Errorf("balance %s/%d: %w", rec.LeaveTypeID, rec.Year, err)
	}
	return e.balances.UpdateRemaining(ctx, rec)
}

func (e *AllocationEngine) generalType(ctx context.Context) (*leavetype.LeaveType, error) {
	general, err := e.leaveTypes.GetByCode(ctx, e.generalCode)
	if err != nil {
		if errors.Is(err, shared.NotFoundError{}) {
			return nil, shared.ConfigurationError{
				Message: fmt.Sprintf("Type congé %s non configuré ou introuvable", e.generalCode),
			}
		}
		return nil, err
	}
	return general, nil
}

func (e *AllocationEngine) insufficient(year int, lt *leavetype.LeaveType, specific, general, requested decimal.Decimal) error {
	return shared.InsufficientBalanceError{
		Year:              year,
		LeaveTypeName:     lt.Name,
		GeneralTypeCode:   e.generalCode,
		SpecificRemaining: specific,
		GeneralRemaining:  general,
		Requested:         requested,
	}
}
