package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/leave-balance-ledger/internal/api_gateway/middleware"
	"github.com/leave-balance-ledger/internal/domain/balance"
	"github.com/leave-balance-ledger/internal/domain/history"
	"github.com/leave-balance-ledger/internal/domain/leaverequest"
	"github.com/leave-balance-ledger/internal/domain/leavetype"
	"github.com/leave-balance-ledger/internal/domain/shared"
	"github.com/leave-balance-ledger/internal/leave_processor/service"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLifecycleService struct {
	mock.Mock
}

func (m *MockLifecycleService) CreateRequest(ctx context.Context, cmd service.CreateLeaveCommand) (*leaverequest.LeaveRequest, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*leaverequest.LeaveRequest), args.Error(1)
}

func (m *MockLifecycleService) Decide(ctx context.Context, requestID uuid.UUID, outcome shared.DecisionOutcome, actorID uuid.UUID, comment string) (*leaverequest.LeaveRequest, error) {
	args := m.Called(ctx, requestID, outcome, actorID, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*leaverequest.LeaveRequest), args.Error(1)
}

func (m *MockLifecycleService) Cancel(ctx context.Context, requestID, actorID uuid.UUID) (*leaverequest.LeaveRequest, error) {
	args := m.Called(ctx, requestID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*leaverequest.LeaveRequest), args.Error(1)
}

func (m *MockLifecycleService) GetBalances(ctx context.Context, employeeID uuid.UUID) ([]*balance.Summary, error) {
	args := m.Called(ctx, employeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*balance.Summary), args.Error(1)
}

func (m *MockLifecycleService) GetRequest(ctx context.Context, requestID uuid.UUID) (*leaverequest.LeaveRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*leaverequest.LeaveRequest), args.Error(1)
}

func (m *MockLifecycleService) ListEmployeeRequests(ctx context.Context, employeeID uuid.UUID) ([]*leaverequest.LeaveRequest, error) {
	args := m.Called(ctx, employeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*leaverequest.LeaveRequest), args.Error(1)
}

func (m *MockLifecycleService) ListPending(ctx context.Context, approverID uuid.UUID) ([]*leaverequest.LeaveRequest, error) {
	args := m.Called(ctx, approverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*leaverequest.LeaveRequest), args.Error(1)
}

func (m *MockLifecycleService) History(ctx context.Context, requestID uuid.UUID) ([]*history.Entry, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*history.Entry), args.Error(1)
}

type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) Create(ctx context.Context, input service.LeaveTypeInput) (*leavetype.LeaveType, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*leavetype.LeaveType), args.Error(1)
}

func (m *MockRegistry) Update(ctx context.Context, code string, input service.LeaveTypeInput) (*leavetype.LeaveType, error) {
	args := m.Called(ctx, code, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*leavetype.LeaveType), args.Error(1)
}

func (m *MockRegistry) Remove(ctx context.Context, code string) (*service.RemovalResult, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RemovalResult), args.Error(1)
}

func (m *MockRegistry) Reactivate(ctx context.Context, code string) (*leavetype.LeaveType, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*leavetype.LeaveType), args.Error(1)
}

func (m *MockRegistry) Get(ctx context.Context, code string) (*leavetype.LeaveType, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*leavetype.LeaveType), args.Error(1)
}

func (m *MockRegistry) List(ctx context.Context, filter leavetype.ActiveFilter) ([]*leavetype.LeaveType, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*leavetype.LeaveType), args.Error(1)
}

type MockReportingService struct {
	mock.Mock
}

func (m *MockReportingService) Report(ctx context.Context, filter leaverequest.Filter) ([]*leaverequest.LeaveRequest, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*leaverequest.LeaveRequest), args.Error(1)
}

func (m *MockReportingService) Statistics(ctx context.Context, filter leaverequest.Filter) (*service.Statistics, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Statistics), args.Error(1)
}

type MockRolloverService struct {
	mock.Mock
}

func (m *MockRolloverService) InitializeYear(ctx context.Context, year int) (*service.RolloverReport, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RolloverReport), args.Error(1)
}

func (m *MockRolloverService) Shutdown() {}

// testResponse decodes the envelope keeping data raw for typed assertions
type testResponse struct {
	Data          json.RawMessage `json:"data"`
	Error         *ErrorInfo      `json:"error"`
	CorrelationID string          `json:"correlation_id"`
	Meta          *MetaInfo       `json:"meta"`
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// setupTestRouter authenticates every request as actorID unless it is uuid.Nil
func setupTestRouter(actorID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.CorrelationID())
	if actorID != uuid.Nil {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.ActorIDKey, actorID)
			c.Next()
		})
	}
	return r
}

func perform(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, testResponse) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var resp testResponse
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	}
	return rr, resp
}
