package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motorvault/internal/catalog"
	"motorvault/internal/clock"
	"motorvault/internal/model"
	"motorvault/internal/repository"
)

const testCatalog = `
accrual_interval: 10s
assets:
  - {id: tower, category: income_property, price: 5000, rate: 1000}
  - {id: villa, category: villas, price: 100}
`

type fixture struct {
	ctx    context.Context
	store  *repository.MemoryStore
	clock  *clock.Fake
	ledger *Ledger
	start  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat, err := catalog.Parse([]byte(testCatalog))
	require.NoError(t, err)

	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	f := &fixture{
		ctx:   context.Background(),
		store: repository.NewMemoryStore(),
		clock: clock.NewFake(start),
		start: start,
	}
	f.ledger = New(cat, f.clock)

	require.NoError(t, f.store.WithTx(f.ctx, func(tx repository.Tx) error {
		return tx.EnsureAccount(f.ctx, "a", "", "")
	}))
	return f
}

func (f *fixture) hold(t *testing.T, assetID string, lastCollected time.Time) {
	t.Helper()
	require.NoError(t, f.store.WithTx(f.ctx, func(tx repository.Tx) error {
		return tx.InsertHolding(f.ctx, model.PropertyHolding{
			AccountID: "a", AssetID: assetID, PurchasedAt: lastCollected, LastCollectedAt: lastCollected,
		})
	}))
}

func (f *fixture) balance(t *testing.T) int64 {
	t.Helper()
	var bal int64
	require.NoError(t, f.store.WithTx(f.ctx, func(tx repository.Tx) error {
		var err error
		bal, err = f.ledger.Balance(f.ctx, tx, "a")
		return err
	}))
	return bal
}

func (f *fixture) lastCollected(t *testing.T, assetID string) time.Time {
	t.Helper()
	var at time.Time
	require.NoError(t, f.store.WithTx(f.ctx, func(tx repository.Tx) error {
		hs, err := tx.ListHoldings(f.ctx, "a")
		for _, h := range hs {
			if h.AssetID == assetID {
				at = h.LastCollectedAt
			}
		}
		return err
	}))
	return at
}

func TestAccrue_CarriesRemainder(t *testing.T) {
	f := newFixture(t)
	f.hold(t, "tower", f.start.Add(-25*time.Second))

	assert.Equal(t, int64(2000), f.balance(t))
	assert.Equal(t, f.start.Add(-5*time.Second), f.lastCollected(t, "tower"))

	require.NoError(t, f.store.WithTx(f.ctx, func(tx repository.Tx) error {
		a, err := tx.GetAccount(f.ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, int64(2000), a.LastIncome)
		return nil
	}))
}

func TestAccrue_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.hold(t, "tower", f.start)

	f.clock.Advance(9 * time.Second)
	assert.Zero(t, f.balance(t))
	assert.Zero(t, f.balance(t))

	f.clock.Advance(time.Second)
	assert.Equal(t, int64(1000), f.balance(t))
	assert.Equal(t, int64(1000), f.balance(t))

	// Polling every 3s for a minute yields exactly k * rate.
	for range 20 {
		f.clock.Advance(3 * time.Second)
		f.balance(t)
	}
	assert.Equal(t, int64(7000), f.balance(t))
	assert.Equal(t, f.start.Add(70*time.Second), f.lastCollected(t, "tower"))
}

func TestAccrue_IgnoresNonIncomeAssets(t *testing.T) {
	f := newFixture(t)
	f.hold(t, "villa", f.start.Add(-time.Hour))

	assert.Zero(t, f.balance(t))
	assert.Equal(t, f.start.Add(-time.Hour), f.lastCollected(t, "villa"))
}

func TestDebit(t *testing.T) {
	f := newFixture(t)
	f.hold(t, "tower", f.start.Add(-30*time.Second))

	tests := []struct {
		name    string
		amount  int64
		want    int64
		wantErr error
	}{
		{"uses accrued income", 2500, 500, nil},
		{"insufficient", 501, 0, model.ErrInsufficientFunds},
		{"negative", -1, 0, model.ErrInvalidAmount},
		{"exact", 500, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got int64
			err := f.store.WithTx(f.ctx, func(tx repository.Tx) error {
				var err error
				got, err = f.ledger.Debit(f.ctx, tx, "a", tt.amount)
				return err
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDebit_FailureKeepsIncomeCollectable(t *testing.T) {
	f := newFixture(t)
	f.hold(t, "tower", f.start.Add(-10*time.Second))

	err := f.store.WithTx(f.ctx, func(tx repository.Tx) error {
		_, err := f.ledger.Debit(f.ctx, tx, "a", 5000)
		return err
	})
	assert.ErrorIs(t, err, model.ErrInsufficientFunds)

	assert.Equal(t, int64(1000), f.balance(t))
}

func TestCredit(t *testing.T) {
	f := newFixture(t)

	var got int64
	require.NoError(t, f.store.WithTx(f.ctx, func(tx repository.Tx) error {
		var err error
		got, err = f.ledger.Credit(f.ctx, tx, "a", 750)
		return err
	}))
	assert.Equal(t, int64(750), got)

	err := f.store.WithTx(f.ctx, func(tx repository.Tx) error {
		_, err := f.ledger.Credit(f.ctx, tx, "missing", 1)
		return err
	})
	assert.ErrorIs(t, err, model.ErrAccountNotFound)
}
