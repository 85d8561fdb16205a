package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/venuesim/currency"
	"pgregory.net/rapid"
)

var (
	usdt = currency.NewCode("USDT")
	btc  = currency.NewCode("BTC")
)

func funded(t *testing.T, asset currency.Code, amount int64) *Ledger {
	t.Helper()
	l := New()
	require.NoError(t, l.Credit(asset, decimal.NewFromInt(amount)))
	return l
}

func TestReserve(t *testing.T) {
	t.Parallel()
	l := funded(t, usdt, 10000)
	require.NoError(t, l.Reserve(usdt, decimal.NewFromInt(9000)))
	b := l.Balance(usdt)
	assert.True(t, b.Free.Equal(decimal.NewFromInt(1000)))
	assert.True(t, b.Locked.Equal(decimal.NewFromInt(9000)))

	err := l.Reserve(usdt, decimal.NewFromInt(1001))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, b, l.Balance(usdt), "failed reservation must not mutate")

	assert.ErrorIs(t, l.Reserve(usdt, decimal.NewFromInt(-1)), errNegativeAmount)
	assert.ErrorIs(t, l.Reserve(currency.Code(""), decimal.NewFromInt(1)), errEmptyAsset)
	assert.ErrorIs(t, l.Reserve(btc, decimal.NewFromInt(1)), ErrInsufficientBalance)
}

func TestRelease(t *testing.T) {
	t.Parallel()
	l := funded(t, usdt, 100)
	require.NoError(t, l.Reserve(usdt, decimal.NewFromInt(60)))
	require.NoError(t, l.Release(usdt, decimal.NewFromInt(60)))
	b := l.Balance(usdt)
	assert.True(t, b.Free.Equal(decimal.NewFromInt(100)))
	assert.True(t, b.Locked.IsZero())

	err := l.Release(usdt, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrInvariantViolation)
	assert.Equal(t, b, l.Balance(usdt))

	require.NoError(t, l.Release(usdt, decimal.New(1, -11)), "drift within epsilon is tolerated")
}

func TestSpend(t *testing.T) {
	t.Parallel()
	l := funded(t, usdt, 100)
	require.NoError(t, l.Reserve(usdt, decimal.NewFromInt(90)))
	require.NoError(t, l.Spend(usdt, decimal.NewFromInt(90)))
	b := l.Balance(usdt)
	assert.True(t, b.Free.Equal(decimal.NewFromInt(10)))
	assert.True(t, b.Locked.IsZero())
	assert.ErrorIs(t, l.Spend(usdt, decimal.NewFromInt(1)), ErrInvariantViolation)
}

func TestDebitFree(t *testing.T) {
	t.Parallel()
	l := funded(t, usdt, 10)
	require.NoError(t, l.DebitFree(usdt, decimal.NewFromFloat(2.5)))
	assert.True(t, l.Balance(usdt).Free.Equal(decimal.NewFromFloat(7.5)))
	assert.ErrorIs(t, l.DebitFree(usdt, decimal.NewFromInt(8)), ErrInvariantViolation)
	assert.True(t, l.Balance(usdt).Free.Equal(decimal.NewFromFloat(7.5)))
}

func TestApplyAtomic(t *testing.T) {
	t.Parallel()
	l := funded(t, usdt, 100)
	require.NoError(t, l.Reserve(usdt, decimal.NewFromInt(50)))
	before := l.Balances()

	err := l.Apply(func(tx *Tx) error {
		if err := tx.Credit(btc, decimal.NewFromInt(1)); err != nil {
			return err
		}
		if err := tx.Spend(usdt, decimal.NewFromInt(50)); err != nil {
			return err
		}
		return tx.DebitFree(usdt, decimal.NewFromInt(51))
	})
	assert.ErrorIs(t, err, ErrInvariantViolation)
	assert.Equal(t, before, l.Balances(), "no operation of a failed transaction may apply")

	tx := l.Begin()
	require.NoError(t, tx.Credit(btc, decimal.NewFromInt(1)))
	assert.True(t, tx.Balance(btc).Free.Equal(decimal.NewFromInt(1)))
	assert.True(t, l.Balance(btc).IsZero(), "staged changes are invisible before commit")
	require.NoError(t, tx.Commit())
	assert.ErrorIs(t, tx.Commit(), errTxClosed)
	assert.ErrorIs(t, tx.Credit(btc, decimal.NewFromInt(1)), errTxClosed)
	assert.True(t, l.Balance(btc).Free.Equal(decimal.NewFromInt(1)))
}

func TestBalances(t *testing.T) {
	t.Parallel()
	l := New()
	l.Touch(usdt)
	l.Touch(btc)
	l.Touch(currency.Code(""))
	resp := l.Balances()
	require.Len(t, resp, 2)
	assert.Equal(t, btc, resp[0].Asset)
	assert.True(t, resp[0].IsZero())
	assert.True(t, resp[1].Total().IsZero())
}

// TestReservationConservation checks free plus locked only changes through
// credits and debits whatever sequence of operations is attempted
func TestReservationConservation(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		l := New()
		expected := decimal.Zero
		steps := rapid.IntRange(1, 50).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			amount := decimal.New(rapid.Int64Range(0, 1_000_000).Draw(t, "amount"), -4)
			switch rapid.IntRange(0, 4).Draw(t, "op") {
			case 0:
				if l.Credit(usdt, amount) == nil {
					expected = expected.Add(amount)
				}
			case 1:
				if l.DebitFree(usdt, amount) == nil {
					expected = expected.Sub(amount)
				}
			case 2:
				_ = l.Reserve(usdt, amount)
			case 3:
				_ = l.Release(usdt, amount)
			case 4:
				if l.Spend(usdt, amount) == nil {
					expected = expected.Sub(amount)
				}
			}
			b := l.Balance(usdt)
			if b.Free.LessThan(Epsilon.Neg()) || b.Locked.LessThan(Epsilon.Neg()) {
				t.Fatalf("negative balance free %s locked %s", b.Free, b.Locked)
			}
			if !b.Total().Equal(expected) {
				t.Fatalf("total %s expected %s", b.Total(), expected)
			}
		}
	})
}
