package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/leave-balance-ledger/internal/domain/shared"
)

// Message stores a lifecycle event written in the same transaction as the
// transition it describes, for reliable publishing.
type Message struct {
	ID            int64               `json:"id"`
	EventID       uuid.UUID           `json:"event_id"`
	RequestID     uuid.UUID           `json:"request_id"`
	EventType     shared.EventType    `json:"event_type"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

func NewMessage(event *shared.LeaveEvent) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &Message{
		EventID:   event.EventID,
		RequestID: event.RequestID,
		EventType: event.EventType,
		Payload:   payload,
		Status:    shared.OutboxStatusPending,
		CreatedAt: event.OccurredAt,
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	now := time.Now()
	m.LastAttemptAt = &now
}

// LeaveEvent decodes the event carried in the payload
func (m *Message) LeaveEvent() (*shared.LeaveEvent, error) {
	var event shared.LeaveEvent
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
