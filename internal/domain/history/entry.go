// Package history is the append-only status transition log of leave requests.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/leave-balance-ledger/internal/domain/shared"
)

// Entry records one status transition. Entries are never updated or deleted.
type Entry struct {
	EventID        uuid.UUID            `bson:"_id" json:"event_id"`
	RequestID      uuid.UUID            `bson:"request_id" json:"request_id"`
	EmployeeID     uuid.UUID            `bson:"employee_id" json:"employee_id"`
	PreviousStatus shared.RequestStatus `bson:"previous_status,omitempty" json:"previous_status,omitempty"`
	NewStatus      shared.RequestStatus `bson:"new_status" json:"new_status"`
	ActorID        uuid.UUID            `bson:"actor_id" json:"actor_id"`
	Comment        string               `bson:"comment,omitempty" json:"comment,omitempty"`
	OccurredAt     time.Time            `bson:"occurred_at" json:"occurred_at"`
}

// FromEvent builds the log entry carried by a lifecycle event
func FromEvent(e *shared.LeaveEvent) *Entry {
	return &Entry{
		EventID:        e.EventID,
		RequestID:      e.RequestID,
		EmployeeID:     e.EmployeeID,
		PreviousStatus: e.PreviousStatus,
		NewStatus:      e.NewStatus,
		ActorID:        e.ActorID,
		Comment:        e.Comment,
		OccurredAt:     e.OccurredAt,
	}
}

// Repository appends and reads transition entries
type Repository interface {
	// Append stores the entry; appending an already stored event returns ErrDuplicateEntry
	Append(ctx context.Context, entry *Entry) error
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*Entry, error)
}

// ErrDuplicateEntry indicates the event was already recorded
type ErrDuplicateEntry struct {
	EventID uuid.UUID
}

func (e ErrDuplicateEntry) Error() string {
	return "history entry already recorded: " + e.EventID.String()
}

// Is implements the errors.Is interface for ErrDuplicateEntry
func (e ErrDuplicateEntry) Is(target error) bool {
	t, ok := target.(ErrDuplicateEntry)
	if !ok {
		return false
	}
	return t.EventID == uuid.Nil || t.EventID == e.EventID
}
