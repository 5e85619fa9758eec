package service

import (
	"context"
	"errors"
	"slices"

	"motorvault/internal/model"
	"motorvault/internal/registry"
	"motorvault/internal/repository"
	"motorvault/internal/rewards"
)

// purchaseSources maps the purchasable pools to the source tag of the
// records they issue.
var purchaseSources = map[model.Pool]model.Source{
	model.PoolShowcase: model.SourceShowroom,
	model.PoolTuning:   model.SourceTuning,
}

// Purchase buys an item from the showcase or a tuning studio at its catalog
// price.
func (e *Economy) Purchase(ctx context.Context, accountID string, itemID int) (*model.OwnershipRecord, error) {
	item, ok := e.catalog.Lookup(itemID)
	if !ok {
		return nil, model.ErrItemNotFound
	}
	source, ok := purchaseSources[item.Pool]
	if !ok {
		return nil, model.ErrItemNotFound
	}

	var rec model.OwnershipRecord
	err := e.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		rec, err = e.registry.Acquire(ctx, tx, accountID, itemID, source, registry.AcquireOptions{})
		return err
	})
	if err != nil {
		return nil, err
	}

	e.publish(ctx, model.EconomyEvent{
		Kind:      model.EventPurchase,
		AccountID: accountID,
		ItemID:    itemID,
		RecordID:  rec.ID,
		Amount:    -item.Price,
	})
	return &rec, nil
}

func (e *Economy) Claim(ctx context.Context, accountID string, channel model.Channel, category string) (*rewards.Claim, error) {
	var c *rewards.Claim
	err := e.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		c, err = e.selector.Claim(ctx, tx, accountID, channel, category)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.publish(ctx, model.EconomyEvent{
		Kind:      model.EventClaim,
		AccountID: accountID,
		ItemID:    c.Item.ID,
		RecordID:  c.Record.ID,
		Amount:    c.Credited,
		Detail:    string(channel),
	})
	return c, nil
}

func (e *Economy) RedeemPromo(ctx context.Context, accountID, code string) (*rewards.PromoResult, error) {
	var res *rewards.PromoResult
	err := e.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		res, err = e.selector.RedeemPromo(ctx, tx, accountID, code)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.publish(ctx, model.EconomyEvent{
		Kind:      model.EventPromo,
		AccountID: accountID,
		Amount:    res.Promo.Reward,
		Detail:    code,
	})
	return res, nil
}

// BuyProperty buys an asset once per account. Income assets require the
// accrued balance to reach their minimum before the price is debited.
func (e *Economy) BuyProperty(ctx context.Context, accountID, assetID string) (*model.PropertyHolding, error) {
	asset, ok := e.catalog.Asset(assetID)
	if !ok {
		return nil, model.ErrAssetNotFound
	}

	var holding model.PropertyHolding
	err := e.store.WithTx(ctx, func(tx repository.Tx) error {
		acc, err := e.ledger.Accrue(ctx, tx, accountID)
		if err != nil {
			return err
		}
		held, err := tx.ListHoldings(ctx, accountID)
		if err != nil {
			return err
		}
		if slices.ContainsFunc(held, func(h model.PropertyHolding) bool { return h.AssetID == assetID }) {
			return model.ErrAlreadyOwned
		}
		if acc.Balance < asset.MinBalance {
			return model.ErrMinimumBalance
		}
		if _, err := e.ledger.Debit(ctx, tx, accountID, asset.Price); err != nil {
			return err
		}

		now := e.clock.Now()
		holding = model.PropertyHolding{
			AccountID:       accountID,
			AssetID:         assetID,
			PurchasedAt:     now,
			LastCollectedAt: now,
		}
		return tx.InsertHolding(ctx, holding)
	})
	if err != nil {
		return nil, err
	}

	e.publish(ctx, model.EconomyEvent{
		Kind:      model.EventProperty,
		AccountID: accountID,
		AssetID:   assetID,
		Amount:    -asset.Price,
	})
	return &holding, nil
}

func (e *Economy) Paint(ctx context.Context, accountID string, recordID int64, color string) (*model.OwnershipRecord, error) {
	if !e.catalog.HasColor(color) {
		return nil, model.ErrUnknownColor
	}

	var rec *model.OwnershipRecord
	err := e.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		rec, err = tx.GetOwnership(ctx, recordID)
		if errors.Is(err, model.ErrRecordNotFound) {
			return model.ErrNotOwned
		}
		if err != nil {
			return err
		}
		if rec.AccountID != accountID {
			return model.ErrNotOwned
		}
		rec.Color = color
		return tx.SetColor(ctx, recordID, color)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}
