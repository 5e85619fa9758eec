package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motorvault/internal/catalog"
	"motorvault/internal/clock"
	"motorvault/internal/ledger"
	"motorvault/internal/model"
	"motorvault/internal/repository"
)

const testCatalog = `
items:
  - {id: 1, name: Last One, price: 100, cap: 1, pool: showcase}
  - {id: 5, name: Five, price: 100, cap: 5, pool: showcase}
  - {id: 7, name: Common, price: 100, cap: 1000, pool: drop}
`

func setup(t *testing.T, accounts map[string]int64) (*Registry, *repository.MemoryStore) {
	t.Helper()
	cat, err := catalog.Parse([]byte(testCatalog))
	require.NoError(t, err)

	clk := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	store := repository.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.WithTx(ctx, func(tx repository.Tx) error {
		for id, bal := range accounts {
			require.NoError(t, tx.EnsureAccount(ctx, id, "", ""))
			require.NoError(t, tx.SetBalance(ctx, id, bal))
		}
		return nil
	}))
	return New(cat, ledger.New(cat, clk), clk), store
}

func acquire(store repository.Store, r *Registry, accountID string, itemID int, opts AcquireOptions) (model.OwnershipRecord, error) {
	ctx := context.Background()
	var rec model.OwnershipRecord
	err := store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		rec, err = r.Acquire(ctx, tx, accountID, itemID, model.SourceShowroom, opts)
		return err
	})
	return rec, err
}

func state(t *testing.T, store repository.Store, accountID string, itemID int) (balance int64, issued int, records int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.WithTx(ctx, func(tx repository.Tx) error {
		a, err := tx.GetAccount(ctx, accountID)
		require.NoError(t, err)
		balance = a.Balance
		issued, err = tx.LockIssuance(ctx, itemID)
		require.NoError(t, err)
		recs, err := tx.ListOwnership(ctx, accountID)
		records = len(recs)
		return err
	}))
	return
}

func TestAcquire(t *testing.T) {
	r, store := setup(t, map[string]int64{"a": 250})

	rec, err := acquire(store, r, "a", 7, AcquireOptions{})
	require.NoError(t, err)
	assert.False(t, rec.Duplicate)
	assert.Equal(t, model.SourceShowroom, rec.Source)
	assert.Equal(t, model.DefaultColor, rec.Color)
	assert.NotZero(t, rec.ID)

	rec, err = acquire(store, r, "a", 7, AcquireOptions{})
	require.NoError(t, err)
	assert.True(t, rec.Duplicate)

	balance, issued, records := state(t, store, "a", 7)
	assert.Equal(t, int64(50), balance)
	assert.Equal(t, 2, issued)
	assert.Equal(t, 2, records)
}

func TestAcquire_CapReachedNoDebit(t *testing.T) {
	r, store := setup(t, map[string]int64{"a": 10_000})
	for range 5 {
		_, err := acquire(store, r, "a", 5, AcquireOptions{BypassFunds: true})
		require.NoError(t, err)
	}

	_, err := acquire(store, r, "a", 5, AcquireOptions{})
	assert.ErrorIs(t, err, model.ErrCapacityExhausted)

	balance, issued, records := state(t, store, "a", 5)
	assert.Equal(t, int64(10_000), balance)
	assert.Equal(t, 5, issued)
	assert.Equal(t, 5, records)
}

func TestAcquire_InsufficientFundsLeavesNoState(t *testing.T) {
	r, store := setup(t, map[string]int64{"a": 99})

	_, err := acquire(store, r, "a", 7, AcquireOptions{})
	assert.ErrorIs(t, err, model.ErrInsufficientFunds)

	balance, issued, records := state(t, store, "a", 7)
	assert.Equal(t, int64(99), balance)
	assert.Zero(t, issued)
	assert.Zero(t, records)
}

func TestAcquire_RejectDuplicateConsumesNothing(t *testing.T) {
	r, store := setup(t, map[string]int64{"a": 1000})
	_, err := acquire(store, r, "a", 7, AcquireOptions{})
	require.NoError(t, err)

	_, err = acquire(store, r, "a", 7, AcquireOptions{RejectDuplicate: true})
	assert.ErrorIs(t, err, model.ErrDuplicateNotAllowed)

	balance, issued, _ := state(t, store, "a", 7)
	assert.Equal(t, int64(900), balance)
	assert.Equal(t, 1, issued)
}

func TestAcquire_UnknownItemAndAccount(t *testing.T) {
	r, store := setup(t, map[string]int64{"a": 1000})

	_, err := acquire(store, r, "a", 404, AcquireOptions{})
	assert.ErrorIs(t, err, model.ErrItemNotFound)

	_, err = acquire(store, r, "ghost", 7, AcquireOptions{})
	assert.ErrorIs(t, err, model.ErrAccountNotFound)
}

func TestAcquire_ConcurrentLastUnit(t *testing.T) {
	const racers = 16
	accounts := make(map[string]int64, racers)
	for i := range racers {
		accounts[fmt.Sprintf("acc-%d", i)] = 1000
	}
	r, store := setup(t, accounts)

	var wg sync.WaitGroup
	errs := make(chan error, racers)
	for id := range accounts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := acquire(store, r, id, 1, AcquireOptions{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, model.ErrCapacityExhausted):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)

	_, issued, _ := state(t, store, "acc-0", 1)
	assert.Equal(t, 1, issued)
}
