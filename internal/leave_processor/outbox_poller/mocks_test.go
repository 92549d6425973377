package outbox_poller

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/leave-balance-ledger/internal/domain/history"
	"github.com/leave-balance-ledger/internal/domain/outbox"
	"github.com/leave-balance-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	return m.Called(ctx, message).Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockOutboxRepo) IncrementAttempts(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository {
	return m
}

type MockHistoryRepo struct {
	mock.Mock
}

func (m *MockHistoryRepo) Append(ctx context.Context, entry *history.Entry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockHistoryRepo) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*history.Entry, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*history.Entry), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishEvent(ctx context.Context, event *shared.LeaveEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockEventPublisher) Close() error {
	return m.Called().Error(0)
}

type MockDeadLetterPublisher struct {
	mock.Mock
}

func (m *MockDeadLetterPublisher) PublishToDLQ(ctx context.Context, key string, value []byte, reason string) error {
	return m.Called(ctx, key, value, reason).Error(0)
}

func (m *MockDeadLetterPublisher) Close() error {
	return m.Called().Error(0)
}

type MockEventRelay struct {
	mock.Mock
}

func (m *MockEventRelay) Relay(ctx context.Context, message *outbox.Message) error {
	return m.Called(ctx, message).Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newOutboxMessage(id int64, attempts int) (*outbox.Message, *shared.LeaveEvent) {
	event := &shared.LeaveEvent{
		EventID:        uuid.New(),
		EventType:      shared.EventLeaveApproved,
		RequestID:      uuid.New(),
		EmployeeID:     uuid.New(),
		LeaveTypeCode:  "CP",
		StartYear:      2026,
		EndYear:        2026,
		DaysTotal:      decimal.NewFromInt(2),
		PreviousStatus: shared.StatusPending,
		NewStatus:      shared.StatusApproved,
		ActorID:        uuid.New(),
		CorrelationID:  "corr-1",
		OccurredAt:     time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC),
	}
	payload, _ := json.Marshal(event)
	return &outbox.Message{
		ID:        id,
		EventID:   event.EventID,
		RequestID: event.RequestID,
		EventType: event.EventType,
		Payload:   payload,
		Status:    shared.OutboxStatusPending,
		Attempts:  attempts,
		CreatedAt: event.OccurredAt,
	}, event
}
