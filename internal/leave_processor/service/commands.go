package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/leave-balance-ledger/internal/domain/leaverequest"
	"github.com/leave-balance-ledger/internal/domain/shared"
)

// CreateLeaveCommand is an employee's request for absence
type CreateLeaveCommand struct {
	EmployeeID    uuid.UUID           `validate:"required"`
	StartDate     time.Time           `validate:"required"`
	EndDate       time.Time           `validate:"required"`
	DurationMode  shared.DurationMode `validate:"omitempty,oneof=FULL_DAY HALF_DAY_MORNING HALF_DAY_AFTERNOON HOURLY"`
	StartTime     *string
	EndTime       *string
	LeaveTypeCode string `validate:"required,max=20"`
	Reason        string `validate:"max=500"`
}

// LeaveTypeInput carries the attributes of a leave type on create and update.
// Code is ignored on update.
type LeaveTypeInput struct {
	Code                 string `validate:"required,max=20,leavecode"`
	Name                 string `validate:"required,max=100"`
	Description          string `validate:"max=500"`
	AnnualQuota          int    `validate:"min=1,max=365"`
	CountsWeekends       bool
	MayOverflowToGeneral bool
}

var fieldMessages = map[string]string{
	"EmployeeID":    "L'employé est obligatoire",
	"StartDate":     "Les dates sont obligatoires",
	"EndDate":       "Les dates sont obligatoires",
	"DurationMode":  "Type de durée inconnu",
	"LeaveTypeCode": "Le type de congé est obligatoire",
	"Reason":        fmt.Sprintf("Le motif ne peut pas dépasser %d caractères", leaverequest.MaxReasonLength),
	"Code":          "Le code doit contenir uniquement des majuscules, chiffres ou _ (20 caractères max)",
	"Name":          "Le nom est obligatoire (100 caractères max)",
	"Description":   "La description ne peut pas dépasser 500 caractères",
	"AnnualQuota":   "Le quota annuel doit être compris entre 1 et 365 jours",
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("leavecode", func(fl validator.FieldLevel) bool {
		code := fl.Field().String()
		for _, r := range code {
			if !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') && r != '_' {
				return false
			}
		}
		return true
	})
	return v
}

// validationError converts validator failures into a single ValidationError
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return shared.ValidationError{Message: err.Error()}
	}

	seen := make(map[string]bool)
	var messages []string
	for _, fe := range fieldErrs {
		msg, ok := fieldMessages[fe.Field()]
		if !ok {
			msg = fmt.Sprintf("Champ invalide: %s", fe.Field())
		}
		if !seen[msg] {
			seen[msg] = true
			messages = append(messages, msg)
		}
	}
	return shared.ValidationError{Message: strings.Join(messages, ", ")}
}
