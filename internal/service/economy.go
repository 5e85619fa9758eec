package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"motorvault/internal/clock"
	"motorvault/internal/ledger"
	"motorvault/internal/logger"
	"motorvault/internal/model"
	"motorvault/internal/registry"
	"motorvault/internal/repository"
	"motorvault/internal/rewards"
	"motorvault/internal/trade"
)

// DefaultLeaderboardSize applies when a caller asks for a non-positive limit.
const DefaultLeaderboardSize = 10

// EconomyService defines the business operations of the economy.
// All transport layers (HTTP, gRPC, NATS) depend on this interface, not on
// the engines.
type EconomyService interface {
	EnsureAccount(ctx context.Context, id, handle, displayName string) error
	Balance(ctx context.Context, accountID string) (*model.Account, error)
	Holdings(ctx context.Context, accountID string) (*Holdings, error)
	SetCurrency(ctx context.Context, accountID string, currency model.Currency) error
	Leaderboard(ctx context.Context, limit int) ([]model.Account, error)
	Menu() *Menu

	Purchase(ctx context.Context, accountID string, itemID int) (*model.OwnershipRecord, error)
	Claim(ctx context.Context, accountID string, channel model.Channel, category string) (*rewards.Claim, error)
	RedeemPromo(ctx context.Context, accountID, code string) (*rewards.PromoResult, error)
	BuyProperty(ctx context.Context, accountID, assetID string) (*model.PropertyHolding, error)
	Paint(ctx context.Context, accountID string, recordID int64, color string) (*model.OwnershipRecord, error)

	TradeBegin(ctx context.Context, accountID string, recordID int64) (*model.OwnershipRecord, error)
	TradePartner(ctx context.Context, accountID, partner string) (*trade.Partner, error)
	TradePropose(ctx context.Context, accountID string, recordID int64) (*model.TradeProposal, error)
	TradeAccept(ctx context.Context, accountID, proposalID string) (*model.TradeResult, error)
	TradeReject(ctx context.Context, accountID, proposalID string) (*model.TradeProposal, error)
	TradeCancel(ctx context.Context, accountID string) error

	AdminGrantBalance(ctx context.Context, accountID string, amount int64) (int64, error)
	AdminGrantItem(ctx context.Context, accountID string, itemID int) (*model.OwnershipRecord, error)
	AdminWipe(ctx context.Context, accountID string) error

	Ping(ctx context.Context) error
}

// Catalog is the part of the catalog the service reads directly.
type Catalog interface {
	Lookup(itemID int) (model.CatalogItem, bool)
	PoolMembers(pool model.Pool, category string) []int
	Categories(pool model.Pool) []string
	Asset(id string) (model.IncomeAsset, bool)
	Assets(category string) []model.IncomeAsset
	Colors() []string
	HasColor(color string) bool
}

// Holdings is everything an account owns.
type Holdings struct {
	Account    model.Account           `json:"account"`
	Records    []model.OwnershipRecord `json:"records"`
	Properties []model.PropertyHolding `json:"properties"`
}

type Deps struct {
	Store         repository.Store
	Catalog       Catalog
	Ledger        *ledger.Ledger
	Registry      *registry.Registry
	Selector      *rewards.Selector
	Negotiator    *trade.Negotiator
	Bus           repository.MessageBus
	EventsSubject string
	Clock         clock.Clock
}

// Economy opens one transaction per operation and runs the engines inside
// it. Audit events are published after the transaction commits.
type Economy struct {
	store         repository.Store
	catalog       Catalog
	ledger        *ledger.Ledger
	registry      *registry.Registry
	selector      *rewards.Selector
	negotiator    *trade.Negotiator
	bus           repository.MessageBus
	eventsSubject string
	clock         clock.Clock
}

var _ EconomyService = (*Economy)(nil)

func NewEconomy(d Deps) *Economy {
	bus := d.Bus
	if bus == nil {
		bus = repository.NopBus{}
	}
	return &Economy{
		store:         d.Store,
		catalog:       d.Catalog,
		ledger:        d.Ledger,
		registry:      d.Registry,
		selector:      d.Selector,
		negotiator:    d.Negotiator,
		bus:           bus,
		eventsSubject: d.EventsSubject,
		clock:         d.Clock,
	}
}

func (e *Economy) EnsureAccount(ctx context.Context, id, handle, displayName string) error {
	return e.store.WithTx(ctx, func(tx repository.Tx) error {
		return tx.EnsureAccount(ctx, id, handle, displayName)
	})
}

// Balance collects pending income and returns the account.
func (e *Economy) Balance(ctx context.Context, accountID string) (*model.Account, error) {
	var acc *model.Account
	err := e.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		acc, err = e.ledger.Accrue(ctx, tx, accountID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

func (e *Economy) Holdings(ctx context.Context, accountID string) (*Holdings, error) {
	var h Holdings
	err := e.store.WithTx(ctx, func(tx repository.Tx) error {
		acc, err := e.ledger.Accrue(ctx, tx, accountID)
		if err != nil {
			return err
		}
		h.Account = *acc
		if h.Records, err = tx.ListOwnership(ctx, accountID); err != nil {
			return err
		}
		h.Properties, err = tx.ListHoldings(ctx, accountID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (e *Economy) SetCurrency(ctx context.Context, accountID string, currency model.Currency) error {
	if !currency.Valid() {
		return model.ErrUnknownCurrency
	}
	return e.store.WithTx(ctx, func(tx repository.Tx) error {
		return tx.SetCurrency(ctx, accountID, currency)
	})
}

// Leaderboard ranks accounts by stored balance. Uncollected income is not
// included.
func (e *Economy) Leaderboard(ctx context.Context, limit int) ([]model.Account, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}
	return e.store.Leaderboard(ctx, limit)
}

func (e *Economy) Ping(ctx context.Context) error {
	return e.store.Ping(ctx)
}

// publish sends committed events to the audit subject. Failures are logged
// only.
func (e *Economy) publish(ctx context.Context, events ...model.EconomyEvent) {
	now := e.clock.Now()
	for _, ev := range events {
		ev.ID = uuid.NewString()
		ev.CreatedAt = now
		data, err := json.Marshal(ev)
		if err != nil {
			logger.ErrorCtx(ctx, err, zap.String("kind", string(ev.Kind)))
			continue
		}
		if err := e.bus.Publish(e.eventsSubject, data); err != nil {
			logger.WarnCtx(ctx, "failed to publish economy event",
				zap.String("kind", string(ev.Kind)),
				zap.String("account_id", ev.AccountID),
				zap.Error(err),
			)
		}
	}
}
