package repository

import (
	"context"
	"time"

	"motorvault/internal/model"
)

// Store is the transactional persistence boundary of the economy.
type Store interface {
	// WithTx runs fn in a single transaction. Any error returned by fn rolls
	// back every write made through tx.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Leaderboard returns up to limit accounts ordered by stored balance.
	Leaderboard(ctx context.Context, limit int) ([]model.Account, error)
	// SaveEvent persists an audit event. Saving the same id twice is a no-op.
	SaveEvent(ctx context.Context, event model.EconomyEvent) error
	Ping(ctx context.Context) error
	Close()
}

// Tx is the set of reads and writes available inside a transaction.
//
// Getters suffixed with a lock note hold a row lock until the transaction
// ends. Callers lock an account before any issuance counter, and ownership
// records in ascending id order.
type Tx interface {
	// EnsureAccount inserts the account if it is missing and refreshes its
	// handle and display name otherwise.
	EnsureAccount(ctx context.Context, id, handle, displayName string) error
	// GetAccount loads the account with cooldowns and redemptions. Locks.
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	// FindAccount resolves a handle (leading @ ignored) and then a display
	// name.
	FindAccount(ctx context.Context, query string) (*model.Account, error)
	SetBalance(ctx context.Context, id string, balance int64) error
	SetLastIncome(ctx context.Context, id string, income int64) error
	SetCurrency(ctx context.Context, id string, currency model.Currency) error
	SetCooldown(ctx context.Context, id string, channel model.Channel, at time.Time) error
	SetDropBypass(ctx context.Context, id string, bypass bool) error
	// AddRedemption records a one-shot reward. It reports false when the
	// reward was already redeemed.
	AddRedemption(ctx context.Context, id, rewardID string, at time.Time) (bool, error)
	// DeleteAccount removes the account with its records and holdings.
	// Issuance counters are left untouched.
	DeleteAccount(ctx context.Context, id string) error

	// LockIssuance returns the issued count of an item. Locks.
	LockIssuance(ctx context.Context, itemID int) (int, error)
	IncrementIssuance(ctx context.Context, itemID int) error

	OwnsItem(ctx context.Context, accountID string, itemID int) (bool, error)
	// InsertOwnership stores rec and returns it with its assigned id.
	InsertOwnership(ctx context.Context, rec model.OwnershipRecord) (model.OwnershipRecord, error)
	// GetOwnership loads a record. Locks.
	GetOwnership(ctx context.Context, recordID int64) (*model.OwnershipRecord, error)
	// ListOwnership returns the records of an account, oldest first.
	ListOwnership(ctx context.Context, accountID string) ([]model.OwnershipRecord, error)
	DeleteOwnership(ctx context.Context, recordID int64) error
	SetColor(ctx context.Context, recordID int64, color string) error

	ListHoldings(ctx context.Context, accountID string) ([]model.PropertyHolding, error)
	InsertHolding(ctx context.Context, h model.PropertyHolding) error
	AdvanceHolding(ctx context.Context, accountID, assetID string, lastCollected time.Time) error
}

// NormalizeHandle strips the leading @ of a chat handle.
func NormalizeHandle(s string) string {
	if len(s) > 0 && s[0] == '@' {
		return s[1:]
	}
	return s
}
