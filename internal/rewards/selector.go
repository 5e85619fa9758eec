package rewards

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"motorvault/internal/clock"
	"motorvault/internal/ledger"
	"motorvault/internal/logger"
	"motorvault/internal/model"
	"motorvault/internal/registry"
	"motorvault/internal/repository"
)

type Config struct {
	DropCooldown time.Duration
	LuckCooldown time.Duration
	// MaxDraws bounds the draws of one claim when drawn items are at cap.
	MaxDraws int
}

func DefaultConfig() Config {
	return Config{
		DropCooldown: 30 * time.Minute,
		LuckCooldown: 24 * time.Hour,
		MaxDraws:     10,
	}
}

// Catalog is the part of the catalog the selector reads.
type Catalog interface {
	Lookup(itemID int) (model.CatalogItem, bool)
	PoolMembers(pool model.Pool, category string) []int
	Promo(code string) (model.Promo, bool)
}

// Rand picks a uniform index in [0, n).
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Claim is the outcome of a successful randomized acquisition.
type Claim struct {
	Channel  model.Channel         `json:"channel"`
	Record   model.OwnershipRecord `json:"record"`
	Item     model.CatalogItem     `json:"item"`
	Credited int64                 `json:"credited"`
	Balance  int64                 `json:"balance"`
}

// Selector runs the randomized acquisition channels behind their cooldown
// gates.
type Selector struct {
	cfg      Config
	catalog  Catalog
	registry *registry.Registry
	ledger   *ledger.Ledger
	clock    clock.Clock
	rand     Rand
}

type Option func(*Selector)

// WithRand replaces the process-wide random source.
func WithRand(r Rand) Option {
	return func(s *Selector) { s.rand = r }
}

func NewSelector(cfg Config, catalog Catalog, reg *registry.Registry, l *ledger.Ledger, clk clock.Clock, opts ...Option) *Selector {
	if cfg.MaxDraws < 1 {
		cfg.MaxDraws = 1
	}
	s := &Selector{
		cfg:      cfg,
		catalog:  catalog,
		registry: reg,
		ledger:   l,
		clock:    clk,
		rand:     globalRand{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Claim draws an item from the channel's pool, optionally restricted to a
// category, and issues it to the account free of charge. The item's price is
// credited to the balance. The channel gate (cooldown or one-shot
// redemption) advances only when an item was issued.
func (s *Selector) Claim(ctx context.Context, tx repository.Tx, accountID string, channel model.Channel, category string) (*Claim, error) {
	acc, err := tx.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if err := s.checkGate(acc, channel, now); err != nil {
		return nil, err
	}

	if channel != model.ChannelLuck {
		category = ""
	}
	members := s.catalog.PoolMembers(channel.Pool(), category)
	if len(members) == 0 {
		return nil, model.ErrPoolExhausted
	}

	opts := registry.AcquireOptions{
		BypassFunds:     true,
		RejectDuplicate: channel == model.ChannelLuck,
	}

	var rec model.OwnershipRecord
	issued := false
	for draw := 0; draw < s.cfg.MaxDraws; draw++ {
		itemID := members[s.rand.IntN(len(members))]
		rec, err = s.registry.Acquire(ctx, tx, accountID, itemID, channel.Source(), opts)
		if errors.Is(err, model.ErrCapacityExhausted) {
			logger.DebugCtx(ctx, "drawn item at cap, redrawing",
				zap.String("account_id", accountID),
				zap.String("channel", string(channel)),
				zap.Int("item_id", itemID),
				zap.Int("draw", draw+1),
			)
			continue
		}
		if err != nil {
			return nil, err
		}
		issued = true
		break
	}
	if !issued {
		return nil, model.ErrPoolExhausted
	}

	item, _ := s.catalog.Lookup(rec.ItemID)
	balance, err := s.ledger.Credit(ctx, tx, accountID, item.Price)
	if err != nil {
		return nil, err
	}

	if err := s.advanceGate(ctx, tx, accountID, channel, now); err != nil {
		return nil, err
	}

	return &Claim{
		Channel:  channel,
		Record:   rec,
		Item:     item,
		Credited: item.Price,
		Balance:  balance,
	}, nil
}

func (s *Selector) checkGate(acc *model.Account, channel model.Channel, now time.Time) error {
	var cooldown time.Duration
	switch channel {
	case model.ChannelDrop:
		if acc.DropCooldownBypass {
			return nil
		}
		cooldown = s.cfg.DropCooldown
	case model.ChannelLuck:
		cooldown = s.cfg.LuckCooldown
	case model.ChannelNewClient:
		if acc.HasRedeemed(model.RewardNewClient) {
			return model.ErrAlreadyRedeemed
		}
		return nil
	default:
		return fmt.Errorf("unknown channel %q", channel)
	}

	last, ok := acc.Cooldowns[channel]
	if !ok {
		return nil
	}
	if remaining := last.Add(cooldown).Sub(now); remaining > 0 {
		return &model.CooldownError{Channel: channel, Remaining: remaining}
	}
	return nil
}

func (s *Selector) advanceGate(ctx context.Context, tx repository.Tx, accountID string, channel model.Channel, now time.Time) error {
	if channel == model.ChannelNewClient {
		added, err := tx.AddRedemption(ctx, accountID, model.RewardNewClient, now)
		if err != nil {
			return err
		}
		if !added {
			return model.ErrAlreadyRedeemed
		}
		return nil
	}
	return tx.SetCooldown(ctx, accountID, channel, now)
}
