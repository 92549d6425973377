package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/leave-balance-ledger/internal/domain/balance"
	"github.com/leave-balance-ledger/internal/domain/employee"
	"github.com/leave-balance-ledger/internal/domain/shared"
)

// DirectorySyncServiceImpl keeps the local employee directory in step with the HR feed
type DirectorySyncServiceImpl struct {
	employees employee.Repository
	balances  balance.Repository
	location  *time.Location
	now       Clock
	logger    *slog.Logger
}

func NewDirectorySyncService(employees employee.Repository, balances balance.Repository, location *time.Location, clock Clock, logger *slog.Logger) *DirectorySyncServiceImpl {
	if location == nil {
		location = time.UTC
	}
	if clock == nil {
		clock = time.Now
	}
	return &DirectorySyncServiceImpl{
		employees: employees,
		balances:  balances,
		location:  location,
		now:       clock,
		logger:    logger,
	}
}

// SyncEmployee upserts the employee and, when active, seeds the current year's
// balances so the first request of the year finds them.
func (s *DirectorySyncServiceImpl) SyncEmployee(ctx context.Context, event *shared.EmployeeEvent) error {
	if err := validateEmployeeEvent(event); err != nil {
		s.logger.Warn("Invalid employee event", "error", err)
		return err
	}
	logger := s.logger.With("employee_id", event.EmployeeID.String())

	updatedAt := event.OccurredAt
	if updatedAt.IsZero() {
		updatedAt = s.now()
	}
	emp := &employee.Employee{
		ID:         event.EmployeeID,
		FullName:   strings.TrimSpace(event.FullName),
		Email:      strings.ToLower(strings.TrimSpace(event.Email)),
		Department: strings.TrimSpace(event.Department),
		Active:     event.Active,
		UpdatedAt:  updatedAt.UTC(),
	}
	if err := s.employees.Upsert(ctx, emp); err != nil {
		return err
	}

	if !emp.Active {
		logger.Info("Employee deactivated")
		return nil
	}

	year := s.now().In(s.location).Year()
	created, err := s.balances.EnsureYearInitialized(ctx, emp.ID, year)
	if err != nil {
		return err
	}

	logger.Info("Employee synchronized", "year", year, "balances_created", created)
	return nil
}

func validateEmployeeEvent(event *shared.EmployeeEvent) error {
	switch {
	case event == nil:
		return shared.ValidationError{Message: "Événement employé vide"}
	case event.EmployeeID == uuid.Nil:
		return shared.ValidationError{Message: "L'employé est obligatoire"}
	case strings.TrimSpace(event.FullName) == "":
		return shared.ValidationError{Message: "Le nom de l'employé est obligatoire"}
	}
	return nil
}
