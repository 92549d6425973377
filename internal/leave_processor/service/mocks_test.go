package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/leave-balance-ledger/internal/domain/balance"
	"github.com/leave-balance-ledger/internal/domain/employee"
	"github.com/leave-balance-ledger/internal/domain/history"
	"github.com/leave-balance-ledger/internal/domain/leaverequest"
	"github.com/leave-balance-ledger/internal/domain/leavetype"
	"github.com/leave-balance-ledger/internal/domain/shared"
	"github.com/leave-balance-ledger/internal/leave_processor/components"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type MockRequestRepo struct {
	mock.Mock
}

func (m *MockRequestRepo) Create(ctx context.Context, req *leaverequest.LeaveRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*leaverequest.LeaveRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*leaverequest.LeaveRequest), args.Error(1)
}

func (m *MockRequestRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*leaverequest.LeaveRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*leaverequest.LeaveRequest), args.Error(1)
}

func (m *MockRequestRepo) UpdateStatus(ctx context.Context, req *leaverequest.LeaveRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockRequestRepo) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]*leaverequest.LeaveRequest, error) {
	args := m.Called(ctx, employeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*leaverequest.LeaveRequest), args.Error(1)
}

func (m *MockRequestRepo) ListPending(ctx context.Context, excludeEmployeeID uuid.UUID) ([]*leaverequest.LeaveRequest, error) {
	args := m.Called(ctx, excludeEmployeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*leaverequest.LeaveRequest), args.Error(1)
}

func (m *MockRequestRepo) HasOverlap(ctx context.Context, employeeID uuid.UUID, start, end time.Time) (bool, error) {
	args := m.Called(ctx, employeeID, start, end)
	return args.Bool(0), args.Error(1)
}

func (m *MockRequestRepo) CountByLeaveType(ctx context.Context, leaveTypeID uuid.UUID) (int64, error) {
	args := m.Called(ctx, leaveTypeID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRequestRepo) Search(ctx context.Context, filter leaverequest.Filter) ([]*leaverequest.LeaveRequest, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*leaverequest.LeaveRequest), args.Error(1)
}

func (m *MockRequestRepo) WithTx(tx pgx.Tx) leaverequest.Repository {
	return m
}

type MockLeaveTypeRepo struct {
	mock.Mock
}

func (m *MockLeaveTypeRepo) Create(ctx context.Context, lt *leavetype.LeaveType) error {
	return m.Called(ctx, lt).Error(0)
}

func (m *MockLeaveTypeRepo) Update(ctx context.Context, lt *leavetype.LeaveType) error {
	return m.Called(ctx, lt).Error(0)
}

func (m *MockLeaveTypeRepo) GetByID(ctx context.Context, id uuid.UUID) (*leavetype.LeaveType, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*leavetype.LeaveType), args.Error(1)
}

func (m *MockLeaveTypeRepo) GetByCode(ctx context.Context, code string) (*leavetype.LeaveType, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*leavetype.LeaveType), args.Error(1)
}

func (m *MockLeaveTypeRepo) List(ctx context.Context, filter leavetype.ActiveFilter) ([]*leavetype.LeaveType, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*leavetype.LeaveType), args.Error(1)
}

func (m *MockLeaveTypeRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}

func (m *MockLeaveTypeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockLeaveTypeRepo) WithTx(tx pgx.Tx) leavetype.Repository {
	return m
}

type MockEmployeeRepo struct {
	mock.Mock
}

func (m *MockEmployeeRepo) GetByID(ctx context.Context, id uuid.UUID) (*employee.Employee, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*employee.Employee), args.Error(1)
}

func (m *MockEmployeeRepo) Upsert(ctx context.Context, e *employee.Employee) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockEmployeeRepo) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockEmployeeRepo) WithTx(tx pgx.Tx) employee.Repository {
	return m
}

type MockBalanceRepo struct {
	mock.Mock
}

func (m *MockBalanceRepo) EnsureYearInitialized(ctx context.Context, employeeID uuid.UUID, year int) (int64, error) {
	args := m.Called(ctx, employeeID, year)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBalanceRepo) GetForUpdate(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int) (*balance.Record, error) {
	args := m.Called(ctx, employeeID, leaveTypeID, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*balance.Record), args.Error(1)
}

func (m *MockBalanceRepo) Get(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int) (*balance.Record, error) {
	args := m.Called(ctx, employeeID, leaveTypeID, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*balance.Record), args.Error(1)
}

func (m *MockBalanceRepo) UpdateRemaining(ctx context.Context, record *balance.Record) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockBalanceRepo) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]*balance.Summary, error) {
	args := m.Called(ctx, employeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*balance.Summary), args.Error(1)
}

func (m *MockBalanceRepo) DeleteByLeaveType(ctx context.Context, leaveTypeID uuid.UUID) error {
	return m.Called(ctx, leaveTypeID).Error(0)
}

func (m *MockBalanceRepo) WithTx(tx pgx.Tx) balance.Repository {
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

type MockAllocator struct {
	mock.Mock
}

func (m *MockAllocator) ValidateSufficiency(ctx context.Context, employeeID uuid.UUID, lt *leavetype.LeaveType, consumption components.Consumption) error {
	return m.Called(ctx, employeeID, lt, consumption).Error(0)
}

func (m *MockAllocator) Debit(ctx context.Context, employeeID uuid.UUID, lt *leavetype.LeaveType, consumption components.Consumption) (*leaverequest.Deduction, error) {
	args := m.Called(ctx, employeeID, lt, consumption)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*leaverequest.Deduction), args.Error(1)
}

func (m *MockAllocator) Credit(ctx context.Context, employeeID uuid.UUID, lt *leavetype.LeaveType, consumption components.Consumption, deduction *leaverequest.Deduction) error {
	return m.Called(ctx, employeeID, lt, consumption, deduction).Error(0)
}

func (m *MockAllocator) WithTx(tx pgx.Tx) components.Allocator {
	return m
}

type MockEventRecorder struct {
	mock.Mock
}

func (m *MockEventRecorder) Record(ctx context.Context, tx pgx.Tx, event *shared.LeaveEvent) error {
	return m.Called(ctx, tx, event).Error(0)
}
