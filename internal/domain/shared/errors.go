package shared

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Resource names used in NotFoundError
const (
	ResourceEmployee     = "Employé"
	ResourceLeaveType    = "Type de congé"
	ResourceLeaveRequest = "Demande de congé"
	ResourceBalance      = "Solde"
)

// ValidationError indicates malformed or rule-violating input
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// InvalidRangeError indicates an end date before the start date
type InvalidRangeError struct {
	Message string
}

func (e InvalidRangeError) Error() string {
	return e.Message
}

// Unwrap lets callers treat the error as a ValidationError
func (e InvalidRangeError) Unwrap() error {
	return ValidationError{Message: e.Message}
}

// InvalidDurationError indicates a duration mode used outside its constraints
type InvalidDurationError struct {
	Message string
}

func (e InvalidDurationError) Error() string {
	return e.Message
}

// Unwrap lets callers treat the error as a ValidationError
func (e InvalidDurationError) Unwrap() error {
	return ValidationError{Message: e.Message}
}

// InsufficientBalanceError reports the specific and general balances available for a
// year against the requested days.
type InsufficientBalanceError struct {
	Year              int
	LeaveTypeName     string
	GeneralTypeCode   string
	SpecificRemaining decimal.Decimal
	GeneralRemaining  decimal.Decimal
	Requested         decimal.Decimal
}

// Available is the sum of specific and general remaining days
func (e InsufficientBalanceError) Available() decimal.Decimal {
	return e.SpecificRemaining.Add(e.GeneralRemaining)
}

// Shortfall is how many days are missing to cover the request
func (e InsufficientBalanceError) Shortfall() decimal.Decimal {
	s := e.Requested.Sub(e.Available())
	if s.IsNegative() {
		return decimal.Zero
	}
	return s
}

func (e InsufficientBalanceError) Error() string {
	general := e.GeneralTypeCode
	if general == "" {
		general = "CP"
	}
	return fmt.Sprintf(
		"Quota insuffisant pour l'année %d. Il vous reste %s jours (%s) + %s jours (%s). Total disponible: %s j pour une demande de %s j. Manque: %s j.",
		e.Year,
		e.SpecificRemaining.StringFixed(1), e.LeaveTypeName,
		e.GeneralRemaining.StringFixed(1), general,
		e.Available().StringFixed(1), e.Requested.StringFixed(1),
		e.Shortfall().StringFixed(1),
	)
}

// AlreadyProcessedError indicates a transition attempted from a state that forbids it
type AlreadyProcessedError struct {
	RequestID uuid.UUID
	Status    RequestStatus
	Message   string
}

func (e AlreadyProcessedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "Ce congé a déjà été traité"
}

// NotOwnerError indicates an actor acting on a request they do not own
type NotOwnerError struct {
	RequestID uuid.UUID
	ActorID   uuid.UUID
}

func (e NotOwnerError) Error() string {
	return "Vous ne pouvez annuler que vos propres demandes"
}

// ConfigurationError indicates missing reference data, such as the general leave type
type ConfigurationError struct {
	Message string
}

func (e ConfigurationError) Error() string {
	return e.Message
}

// ConflictError indicates a uniqueness violation on reference data
type ConflictError struct {
	Message string
}

func (e ConflictError) Error() string {
	return e.Message
}

// NotFoundError indicates a missing entity. Empty fields match anything in errors.Is.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s introuvable: %s", e.Resource, e.Key)
}

// Is implements the errors.Is interface for NotFoundError
func (e NotFoundError) Is(target error) bool {
	t, ok := target.(NotFoundError)
	if !ok {
		return false
	}
	return (t.Resource == "" || t.Resource == e.Resource) && (t.Key == "" || t.Key == e.Key)
}
