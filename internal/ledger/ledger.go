package ledger

import (
	"context"
	"fmt"
	"time"

	"motorvault/internal/clock"
	"motorvault/internal/model"
	"motorvault/internal/repository"
)

// AssetCatalog is the part of the catalog the ledger reads.
type AssetCatalog interface {
	Asset(id string) (model.IncomeAsset, bool)
	AccrualInterval() time.Duration
}

// Ledger owns balance movements. Every read or debit first collects the
// income of the account's holdings so decisions never see a stale balance.
type Ledger struct {
	catalog AssetCatalog
	clock   clock.Clock
}

func New(catalog AssetCatalog, clk clock.Clock) *Ledger {
	return &Ledger{catalog: catalog, clock: clk}
}

// Accrue locks the account, credits every whole accrual interval elapsed on
// its income holdings and returns the account with the updated balance.
// Collection advances by whole intervals only; the remainder carries over.
func (l *Ledger) Accrue(ctx context.Context, tx repository.Tx, accountID string) (*model.Account, error) {
	acc, err := tx.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	holdings, err := tx.ListHoldings(ctx, accountID)
	if err != nil {
		return nil, err
	}

	now := l.clock.Now()
	interval := l.catalog.AccrualInterval()
	var income int64

	for _, h := range holdings {
		asset, ok := l.catalog.Asset(h.AssetID)
		if !ok || asset.RatePerInterval <= 0 {
			continue
		}
		elapsed := now.Sub(h.LastCollectedAt)
		if elapsed < interval {
			continue
		}
		intervals := int64(elapsed / interval)
		income += intervals * asset.RatePerInterval

		collected := h.LastCollectedAt.Add(time.Duration(intervals) * interval)
		if err := tx.AdvanceHolding(ctx, accountID, h.AssetID, collected); err != nil {
			return nil, err
		}
	}

	if income > 0 {
		acc.Balance += income
		acc.LastIncome = income
		if err := tx.SetBalance(ctx, accountID, acc.Balance); err != nil {
			return nil, err
		}
		if err := tx.SetLastIncome(ctx, accountID, income); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// Balance returns the accrued balance. Reading the balance is also a
// collection point and mutates stored state.
func (l *Ledger) Balance(ctx context.Context, tx repository.Tx, accountID string) (int64, error) {
	acc, err := l.Accrue(ctx, tx, accountID)
	if err != nil {
		return 0, err
	}
	return acc.Balance, nil
}

// Debit removes amount from the accrued balance and returns the new balance.
func (l *Ledger) Debit(ctx context.Context, tx repository.Tx, accountID string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("debit %d: %w", amount, model.ErrInvalidAmount)
	}
	acc, err := l.Accrue(ctx, tx, accountID)
	if err != nil {
		return 0, err
	}
	if acc.Balance < amount {
		return 0, model.ErrInsufficientFunds
	}
	balance := acc.Balance - amount
	if err := tx.SetBalance(ctx, accountID, balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// Credit adds amount to the accrued balance and returns the new balance.
func (l *Ledger) Credit(ctx context.Context, tx repository.Tx, accountID string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("credit %d: %w", amount, model.ErrInvalidAmount)
	}
	acc, err := l.Accrue(ctx, tx, accountID)
	if err != nil {
		return 0, err
	}
	balance := acc.Balance + amount
	if err := tx.SetBalance(ctx, accountID, balance); err != nil {
		return 0, err
	}
	return balance, nil
}
