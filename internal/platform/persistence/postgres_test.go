package persistence

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestPostgresDB_Pool(t *testing.T) {
	var nilPool *pgxpool.Pool
	db := &PostgresDB{
		pool:   nilPool,
		logger: newTestLogger(),
	}
	assert.Equal(t, nilPool, db.Pool(), "Pool() should return the initialized pool")
}

func TestTransactor_WithinTx(t *testing.T) {
	businessErr := errors.New("insufficient balance")

	testCases := []struct {
		name        string
		lockTimeout time.Duration
		setupMock   func(mock pgxmock.PgxPoolIface)
		fn          func(tx pgx.Tx) error
		expectedErr error
		errContains string
	}{
		{
			name:        "Commit on success with lock timeout",
			lockTimeout: 1500 * time.Millisecond,
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta("SET LOCAL lock_timeout = '1500ms'")).
					WillReturnResult(pgxmock.NewResult("SET", 0))
				mock.ExpectExec("UPDATE leave_balances").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				mock.ExpectCommit()
			},
			fn: func(tx pgx.Tx) error {
				_, err := tx.Exec(context.Background(), "UPDATE leave_balances SET remaining_days = 1")
				return err
			},
		},
		{
			name: "Rollback keeps business error identity",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectRollback()
			},
			fn:          func(tx pgx.Tx) error { return businessErr },
			expectedErr: businessErr,
		},
		{
			name: "Begin failure",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin().WillReturnError(errors.New("connection refused"))
			},
			fn:          func(tx pgx.Tx) error { return nil },
			errContains: "failed to begin transaction",
		},
		{
			name: "Commit failure",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))
			},
			fn:          func(tx pgx.Tx) error { return nil },
			errContains: "failed to commit transaction",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tc.setupMock(mock)

			transactor := NewTransactor(mock, tc.lockTimeout, newTestLogger())
			err = transactor.WithinTx(context.Background(), tc.fn)

			switch {
			case tc.expectedErr != nil:
				assert.ErrorIs(t, err, tc.expectedErr)
			case tc.errContains != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errContains)
			default:
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTransactor_WithinTx_RollsBackOnPanic(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	transactor := NewTransactor(mock, 0, newTestLogger())
	assert.Panics(t, func() {
		_ = transactor.WithinTx(context.Background(), func(tx pgx.Tx) error {
			panic("boom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}
