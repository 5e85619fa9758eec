package service

import (
	"context"

	"go.uber.org/zap"

	"motorvault/internal/logger"
	"motorvault/internal/model"
	"motorvault/internal/registry"
	"motorvault/internal/repository"
)

func (e *Economy) AdminGrantBalance(ctx context.Context, accountID string, amount int64) (int64, error) {
	var balance int64
	err := e.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		balance, err = e.ledger.Credit(ctx, tx, accountID, amount)
		return err
	})
	if err != nil {
		return 0, err
	}

	logger.InfoCtx(ctx, "admin balance grant",
		zap.String("account_id", accountID),
		zap.Int64("amount", amount),
	)
	e.publish(ctx, model.EconomyEvent{
		Kind:      model.EventAdminGrant,
		AccountID: accountID,
		Amount:    amount,
	})
	return balance, nil
}

// AdminGrantItem issues any catalog item for free. The global cap still
// applies.
func (e *Economy) AdminGrantItem(ctx context.Context, accountID string, itemID int) (*model.OwnershipRecord, error) {
	var rec model.OwnershipRecord
	err := e.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		rec, err = e.registry.Acquire(ctx, tx, accountID, itemID, model.SourceAdmin, registry.AcquireOptions{BypassFunds: true})
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "admin item grant",
		zap.String("account_id", accountID),
		zap.Int("item_id", itemID),
	)
	e.publish(ctx, model.EconomyEvent{
		Kind:      model.EventAdminItem,
		AccountID: accountID,
		ItemID:    itemID,
		RecordID:  rec.ID,
	})
	return &rec, nil
}

// AdminWipe deletes the account with everything it owns. Issued units stay
// counted against their caps.
func (e *Economy) AdminWipe(ctx context.Context, accountID string) error {
	err := e.store.WithTx(ctx, func(tx repository.Tx) error {
		return tx.DeleteAccount(ctx, accountID)
	})
	if err != nil {
		return err
	}

	logger.WarnCtx(ctx, "account wiped", zap.String("account_id", accountID))
	e.publish(ctx, model.EconomyEvent{Kind: model.EventAdminWipe, AccountID: accountID})
	return nil
}
