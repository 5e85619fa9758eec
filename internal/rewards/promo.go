package rewards

import (
	"context"

	"motorvault/internal/model"
	"motorvault/internal/repository"
)

type PromoResult struct {
	Promo   model.Promo `json:"promo"`
	Balance int64       `json:"balance"`
}

// RedeemPromo applies a promo code once per account. The redemption is
// recorded in the same transaction as the grant.
func (s *Selector) RedeemPromo(ctx context.Context, tx repository.Tx, accountID, code string) (*PromoResult, error) {
	promo, ok := s.catalog.Promo(code)
	if !ok {
		return nil, model.ErrUnknownPromo
	}
	acc, err := s.ledger.Accrue(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}

	added, err := tx.AddRedemption(ctx, accountID, model.PromoRewardID(code), s.clock.Now())
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, model.ErrAlreadyRedeemed
	}

	balance := acc.Balance
	if promo.DropCooldownBypass {
		if err := tx.SetDropBypass(ctx, accountID, true); err != nil {
			return nil, err
		}
	}
	if promo.Reward > 0 {
		if balance, err = s.ledger.Credit(ctx, tx, accountID, promo.Reward); err != nil {
			return nil, err
		}
	}
	return &PromoResult{Promo: promo, Balance: balance}, nil
}
