package shared

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LeaveEvent is published for every lifecycle transition. It doubles as the
// status transition log entry: PreviousStatus is empty for creation.
type LeaveEvent struct {
	EventID        uuid.UUID       `json:"event_id"`
	EventType      EventType       `json:"event_type"`
	RequestID      uuid.UUID       `json:"request_id"`
	EmployeeID     uuid.UUID       `json:"employee_id"`
	LeaveTypeCode  string          `json:"leave_type_code"`
	StartYear      int             `json:"start_year"`
	EndYear        int             `json:"end_year"`
	DaysTotal      decimal.Decimal `json:"days_total"`
	PreviousStatus RequestStatus   `json:"previous_status,omitempty"`
	NewStatus      RequestStatus   `json:"new_status"`
	ActorID        uuid.UUID       `json:"actor_id"`
	Comment        string          `json:"comment,omitempty"`
	CorrelationID  string          `json:"correlation_id,omitempty"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

// EmployeeEvent carries an employee directory update from the HR system
type EmployeeEvent struct {
	EmployeeID uuid.UUID `json:"employee_id"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	Department string    `json:"department"`
	Active     bool      `json:"active"`
	OccurredAt time.Time `json:"occurred_at"`
}
