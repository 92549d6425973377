package components

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/leave-balance-ledger/internal/domain/leaverequest"
	"github.com/leave-balance-ledger/internal/domain/leavetype"
	"github.com/leave-balance-ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engineFixture struct {
	employee uuid.UUID
	form     *leavetype.LeaveType
	cp       *leavetype.LeaveType
	types    *memoryLeaveTypes
	ledger   *memoryLedger
	engine   Allocator
}

func newEngineFixture(withGeneral bool) *engineFixture {
	form := leavetype.NewLeaveType("FORM", "Formation", "", 3, true, true)
	cp := leavetype.NewLeaveType("CP", "Congés payés", "", 10, true, false)

	types := newMemoryLeaveTypes(form)
	if withGeneral {
		_ = types.Create(context.Background(), cp)
	}
	ledger := newMemoryLedger(types)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &engineFixture{
		employee: uuid.New(),
		form:     form,
		cp:       cp,
		types:    types,
		ledger:   ledger,
		engine:   NewAllocationEngine(ledger, types, "CP", logger).WithTx(nil),
	}
}

func consumptionOf(days map[int]string) Consumption {
	c := Consumption{}
	for y, d := range days {
		c[y] = dec(d)
	}
	return c
}

func TestAllocationEngine_DebitAcrossYearsWithOverflow(t *testing.T) {
	f := newEngineFixture(true)
	ctx := context.Background()
	c := consumptionOf(map[int]string{2026: "3", 2027: "5"})

	require.NoError(t, f.engine.ValidateSufficiency(ctx, f.employee, f.form, c))

	d, err := f.engine.Debit(ctx, f.employee, f.form, c)
	require.NoError(t, err)

	assert.Equal(t, "0", f.ledger.remaining(f.employee, f.form, 2026))
	assert.Equal(t, "0", f.ledger.remaining(f.employee, f.form, 2027))
	assert.Equal(t, "10", f.ledger.remaining(f.employee, f.cp, 2026))
	assert.Equal(t, "8", f.ledger.remaining(f.employee, f.cp, 2027))

	assert.True(t, dec("6").Equal(d.Specific))
	assert.True(t, dec("2").Equal(d.General))
	require.Len(t, d.ByYear, 2)
	assert.Equal(t, 2026, d.ByYear[0].Year)
	assert.True(t, d.ByYear[0].General.IsZero())
	assert.True(t, dec("2").Equal(d.ByYear[1].General))

	assert.Equal(t, []balanceKey{
		{f.employee, f.form.ID, 2026},
		{f.employee, f.form.ID, 2027},
		{f.employee, f.cp.ID, 2027},
	}, f.ledger.locks, "years ascending, specific before general")
}

func TestAllocationEngine_DebitThenCancelWithoutOverflow(t *testing.T) {
	f := newEngineFixture(true)
	ctx := context.Background()
	c := consumptionOf(map[int]string{2026: "3", 2027: "2"})

	d, err := f.engine.Debit(ctx, f.employee, f.form, c)
	require.NoError(t, err)
	assert.Equal(t, "0", f.ledger.remaining(f.employee, f.form, 2026))
	assert.Equal(t, "1", f.ledger.remaining(f.employee, f.form, 2027))
	assert.True(t, d.General.IsZero())

	require.NoError(t, f.engine.Credit(ctx, f.employee, f.form, c, d))
	assert.Equal(t, "3", f.ledger.remaining(f.employee, f.form, 2026))
	assert.Equal(t, "3", f.ledger.remaining(f.employee, f.form, 2027))
	assert.Equal(t, "10", f.ledger.remaining(f.employee, f.cp, 2026))
	assert.Equal(t, "10", f.ledger.remaining(f.employee, f.cp, 2027))
}

func TestAllocationEngine_RoundTripRestoresBalances(t *testing.T) {
	f := newEngineFixture(true)
	ctx := context.Background()
	c := consumptionOf(map[int]string{2026: "3", 2027: "5"})

	d, err := f.engine.Debit(ctx, f.employee, f.form, c)
	require.NoError(t, err)
	require.NoError(t, f.engine.Credit(ctx, f.employee, f.form, c, d))

	for _, year := range []int{2026, 2027} {
		assert.Equal(t, "3", f.ledger.remaining(f.employee, f.form, year))
		assert.Equal(t, "10", f.ledger.remaining(f.employee, f.cp, year))
	}
}

func TestAllocationEngine_CreditUsesPerYearSplit(t *testing.T) {
	f := newEngineFixture(true)
	ctx := context.Background()
	_, err := f.ledger.EnsureYearInitialized(ctx, f.employee, 2026)
	require.NoError(t, err)
	f.ledger.set(f.employee, f.form, 2026, "0")

	c := consumptionOf(map[int]string{2026: "1", 2027: "4"})
	d, err := f.engine.Debit(ctx, f.employee, f.form, c)
	require.NoError(t, err)
	assert.Equal(t, "9", f.ledger.remaining(f.employee, f.cp, 2026))
	assert.Equal(t, "9", f.ledger.remaining(f.employee, f.cp, 2027))

	require.NoError(t, f.engine.Credit(ctx, f.employee, f.form, c, d))
	assert.Equal(t, "0", f.ledger.remaining(f.employee, f.form, 2026))
	assert.Equal(t, "3", f.ledger.remaining(f.employee, f.form, 2027))
	assert.Equal(t, "10", f.ledger.remaining(f.employee, f.cp, 2026))
	assert.Equal(t, "10", f.ledger.remaining(f.employee, f.cp, 2027))
}

func TestAllocationEngine_CreditWithTotalsOnlyNeverExceedsQuota(t *testing.T) {
	f := newEngineFixture(true)
	ctx := context.Background()
	_, err := f.ledger.EnsureYearInitialized(ctx, f.employee, 2026)
	require.NoError(t, err)
	f.ledger.set(f.employee, f.form, 2026, "0")

	c := consumptionOf(map[int]string{2026: "1", 2027: "4"})
	d, err := f.engine.Debit(ctx, f.employee, f.form, c)
	require.NoError(t, err)

	totalsOnly := &leaverequest.Deduction{Specific: d.Specific, General: d.General}
	require.NoError(t, f.engine.Credit(ctx, f.employee, f.form, c, totalsOnly))

	for _, year := range []int{2026, 2027} {
		assert.True(t, dec(f.ledger.remaining(f.employee, f.form, year)).LessThanOrEqual(dec("3")))
		assert.True(t, dec(f.ledger.remaining(f.employee, f.cp, year)).LessThanOrEqual(dec("10")))
	}
}

func TestAllocationEngine_CreditNilDeductionIsNoop(t *testing.T) {
	f := newEngineFixture(true)

	err := f.engine.Credit(context.Background(), f.employee, f.form, consumptionOf(map[int]string{2026: "2"}), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, f.ledger.updates)
	assert.Empty(t, f.ledger.locks)
}

func TestAllocationEngine_Insufficient(t *testing.T) {
	testCases := []struct {
		name        string
		overflow    bool
		consumption map[int]string
		specific    string
		general     string
	}{
		{"Overflow exhausted", true, map[int]string{2026: "14"}, "3.0", "10.0"},
		{"Overflow not allowed", false, map[int]string{2026: "4"}, "3.0", "0.0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newEngineFixture(true)
			f.form.MayOverflowToGeneral = tc.overflow
			ctx := context.Background()
			c := consumptionOf(tc.consumption)

			err := f.engine.ValidateSufficiency(ctx, f.employee, f.form, c)
			var ibe shared.InsufficientBalanceError
			require.True(t, errors.As(err, &ibe))
			assert.Equal(t, 2026, ibe.Year)
			assert.Equal(t, tc.specific, ibe.SpecificRemaining.StringFixed(1))
			assert.Equal(t, tc.general, ibe.GeneralRemaining.StringFixed(1))
			assert.True(t, ibe.Shortfall().IsPositive())
			assert.Contains(t, err.Error(), "Quota insuffisant pour l'année 2026")

			_, err = f.engine.Debit(ctx, f.employee, f.form, c)
			require.True(t, errors.As(err, &ibe), "debit re-checks under lock")
			assert.Equal(t, "3", f.ledger.remaining(f.employee, f.form, 2026))
			assert.Equal(t, "10", f.ledger.remaining(f.employee, f.cp, 2026))
		})
	}
}

func TestAllocationEngine_MissingGeneralType(t *testing.T) {
	f := newEngineFixture(false)
	ctx := context.Background()

	within := consumptionOf(map[int]string{2026: "2"})
	require.NoError(t, f.engine.ValidateSufficiency(ctx, f.employee, f.form, within), "general type only needed on overflow")

	beyond := consumptionOf(map[int]string{2026: "5"})
	err := f.engine.ValidateSufficiency(ctx, f.employee, f.form, beyond)
	var ce shared.ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "Type congé CP non configuré ou introuvable", ce.Error())

	_, err = f.engine.Debit(ctx, f.employee, f.form, beyond)
	assert.True(t, errors.As(err, &ce))

	d := &leaverequest.Deduction{Specific: dec("0"), General: dec("2")}
	err = f.engine.Credit(ctx, f.employee, f.form, within, d)
	assert.True(t, errors.As(err, &ce))
}

func TestAllocationEngine_GeneralTypeNeverOverflowsIntoItself(t *testing.T) {
	f := newEngineFixture(true)
	f.cp.MayOverflowToGeneral = true
	ctx := context.Background()

	err := f.engine.ValidateSufficiency(ctx, f.employee, f.cp, consumptionOf(map[int]string{2026: "11"}))
	var ibe shared.InsufficientBalanceError
	require.True(t, errors.As(err, &ibe))
	assert.True(t, ibe.GeneralRemaining.IsZero())
}

func TestAllocationEngine_ConcurrentDebitsNeverGoNegative(t *testing.T) {
	f := newEngineFixture(true)
	ctx := context.Background()
	c := consumptionOf(map[int]string{2026: "1"})

	// Row locks serialize transactions touching the same balances.
	var txLock sync.Mutex
	var wg sync.WaitGroup
	var mu sync.Mutex
	approved, rejected := 0, 0

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			txLock.Lock()
			defer txLock.Unlock()

			err := f.engine.ValidateSufficiency(ctx, f.employee, f.form, c)
			if err == nil {
				_, err = f.engine.Debit(ctx, f.employee, f.form, c)
			}

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				approved++
				return
			}
			var ibe shared.InsufficientBalanceError
			if errors.As(err, &ibe) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 13, approved)
	assert.Equal(t, 7, rejected)
	assert.Equal(t, "0", f.ledger.remaining(f.employee, f.form, 2026))
	assert.Equal(t, "0", f.ledger.remaining(f.employee, f.cp, 2026))
}
