package components

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/leave-balance-ledger/internal/domain/balance"
	"github.com/leave-balance-ledger/internal/domain/leavetype"
	"github.com/leave-balance-ledger/internal/domain/shared"
)

type balanceKey struct {
	employeeID  uuid.UUID
	leaveTypeID uuid.UUID
	year        int
}

// memoryLedger is an in-memory balance store backed by an in-memory type catalog.
// UpdateRemaining enforces the same bounds as the database CHECK constraint.
type memoryLedger struct {
	mu      sync.Mutex
	types   *memoryLeaveTypes
	rows    map[balanceKey]balance.Record
	locks   []balanceKey
	updates int
}

func newMemoryLedger(types *memoryLeaveTypes) *memoryLedger {
	return &memoryLedger{types: types, rows: map[balanceKey]balance.Record{}}
}

func (m *memoryLedger) EnsureYearInitialized(ctx context.Context, employeeID uuid.UUID, year int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var created int64
	for _, lt := range m.types.snapshot() {
		if !lt.Active {
			continue
		}
		key := balanceKey{employeeID, lt.ID, year}
		if _, ok := m.rows[key]; ok {
			continue
		}
		m.rows[key] = balance.Record{EmployeeID: employeeID, LeaveTypeID: lt.ID, Year: year, RemainingDays: dec(fmt.Sprint(lt.AnnualQuota))}
		created++
	}
	return created, nil
}

func (m *memoryLedger) read(employeeID, leaveTypeID uuid.UUID, year int) (*balance.Record, error) {
	rec, ok := m.rows[balanceKey{employeeID, leaveTypeID, year}]
	if !ok {
		return nil, shared.NotFoundError{Resource: shared.ResourceBalance, Key: fmt.Sprintf("%s/%s/%d", employeeID, leaveTypeID, year)}
	}
	lt, err := m.types.GetByID(context.Background(), leaveTypeID)
	if err != nil {
		return nil, err
	}
	rec.AnnualQuota = lt.AnnualQuota
	return &rec, nil
}

func (m *memoryLedger) GetForUpdate(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int) (*balance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks = append(m.locks, balanceKey{employeeID, leaveTypeID, year})
	return m.read(employeeID, leaveTypeID, year)
}

func (m *memoryLedger) Get(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int) (*balance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.read(employeeID, leaveTypeID, year)
}

func (m *memoryLedger) UpdateRemaining(ctx context.Context, record *balance.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if record.RemainingDays.IsNegative() {
		return fmt.Errorf("check constraint violated: negative balance")
	}
	key := balanceKey{record.EmployeeID, record.LeaveTypeID, record.Year}
	stored := m.rows[key]
	stored.RemainingDays = record.RemainingDays
	m.rows[key] = stored
	m.updates++
	return nil
}

func (m *memoryLedger) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]*balance.Summary, error) {
	return nil, nil
}

func (m *memoryLedger) DeleteByLeaveType(ctx context.Context, leaveTypeID uuid.UUID) error {
	return nil
}

func (m *memoryLedger) WithTx(tx pgx.Tx) balance.Repository {
	return m
}

func (m *memoryLedger) remaining(employeeID uuid.UUID, lt *leavetype.LeaveType, year int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rows[balanceKey{employeeID, lt.ID, year}]
	if !ok {
		return "missing"
	}
	return rec.RemainingDays.String()
}

func (m *memoryLedger) set(employeeID uuid.UUID, lt *leavetype.LeaveType, year int, remaining string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[balanceKey{employeeID, lt.ID, year}] = balance.Record{EmployeeID: employeeID, LeaveTypeID: lt.ID, Year: year, RemainingDays: dec(remaining)}
}

type memoryLeaveTypes struct {
	mu    sync.Mutex
	types map[uuid.UUID]*leavetype.LeaveType
}

func newMemoryLeaveTypes(types ...*leavetype.LeaveType) *memoryLeaveTypes {
	m := &memoryLeaveTypes{types: map[uuid.UUID]*leavetype.LeaveType{}}
	for _, lt := range types {
		m.types[lt.ID] = lt
	}
	return m
}

func (m *memoryLeaveTypes) snapshot() []*leavetype.LeaveType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*leavetype.LeaveType, 0, len(m.types))
	for _, lt := range m.types {
		out = append(out, lt)
	}
	return out
}

func (m *memoryLeaveTypes) Create(ctx context.Context, lt *leavetype.LeaveType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.types[lt.ID] = lt
	return nil
}

func (m *memoryLeaveTypes) Update(ctx context.Context, lt *leavetype.LeaveType) error {
	return m.Create(ctx, lt)
}

func (m *memoryLeaveTypes) GetByID(ctx context.Context, id uuid.UUID) (*leavetype.LeaveType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lt, ok := m.types[id]
	if !ok {
		return nil, shared.NotFoundError{Resource: shared.ResourceLeaveType, Key: id.String()}
	}
	return lt, nil
}

func (m *memoryLeaveTypes) GetByCode(ctx context.Context, code string) (*leavetype.LeaveType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, lt := range m.types {
		if lt.Code == code {
			return lt, nil
		}
	}
	return nil, shared.NotFoundError{Resource: shared.ResourceLeaveType, Key: code}
}

func (m *memoryLeaveTypes) List(ctx context.Context, filter leavetype.ActiveFilter) ([]*leavetype.LeaveType, error) {
	return m.snapshot(), nil
}

func (m *memoryLeaveTypes) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.types[id].Active = active
	return nil
}

func (m *memoryLeaveTypes) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.types, id)
	return nil
}

func (m *memoryLeaveTypes) WithTx(tx pgx.Tx) leavetype.Repository {
	return m
}
