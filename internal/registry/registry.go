package registry

import (
	"context"

	"motorvault/internal/clock"
	"motorvault/internal/ledger"
	"motorvault/internal/model"
	"motorvault/internal/repository"
)

// ItemCatalog is the part of the catalog the registry reads.
type ItemCatalog interface {
	Lookup(itemID int) (model.CatalogItem, bool)
}

// AcquireOptions tune a single acquisition.
type AcquireOptions struct {
	// BypassFunds issues the item without charging its price.
	BypassFunds bool
	// RejectDuplicate fails with ErrDuplicateNotAllowed when the account
	// already owns the item, before any capacity is consumed.
	RejectDuplicate bool
}

// Registry issues ownership records without ever exceeding an item's
// global cap.
type Registry struct {
	catalog ItemCatalog
	ledger  *ledger.Ledger
	clock   clock.Clock
}

func New(catalog ItemCatalog, l *ledger.Ledger, clk clock.Clock) *Registry {
	return &Registry{catalog: catalog, ledger: l, clock: clk}
}

// Acquire issues one record of itemID to accountID inside tx.
//
// The account row is locked before the item's issuance counter, and the
// counter lock is held until tx ends, so concurrent acquirers of the last
// unit serialize and exactly one of them succeeds. Any failure leaves no
// partial state once the caller rolls back.
func (r *Registry) Acquire(ctx context.Context, tx repository.Tx, accountID string, itemID int, source model.Source, opts AcquireOptions) (model.OwnershipRecord, error) {
	if _, err := tx.GetAccount(ctx, accountID); err != nil {
		return model.OwnershipRecord{}, err
	}
	item, ok := r.catalog.Lookup(itemID)
	if !ok {
		return model.OwnershipRecord{}, model.ErrItemNotFound
	}

	issued, err := tx.LockIssuance(ctx, itemID)
	if err != nil {
		return model.OwnershipRecord{}, err
	}
	if issued >= item.GlobalCap {
		return model.OwnershipRecord{}, model.ErrCapacityExhausted
	}

	duplicate, err := tx.OwnsItem(ctx, accountID, itemID)
	if err != nil {
		return model.OwnershipRecord{}, err
	}
	if duplicate && opts.RejectDuplicate {
		return model.OwnershipRecord{}, model.ErrDuplicateNotAllowed
	}

	if !opts.BypassFunds {
		if _, err := r.ledger.Debit(ctx, tx, accountID, item.Price); err != nil {
			return model.OwnershipRecord{}, err
		}
	}

	rec, err := tx.InsertOwnership(ctx, model.OwnershipRecord{
		AccountID:  accountID,
		ItemID:     itemID,
		Duplicate:  duplicate,
		Source:     source,
		AcquiredAt: r.clock.Now(),
		Color:      model.DefaultColor,
	})
	if err != nil {
		return model.OwnershipRecord{}, err
	}
	if err := tx.IncrementIssuance(ctx, itemID); err != nil {
		return model.OwnershipRecord{}, err
	}
	return rec, nil
}
