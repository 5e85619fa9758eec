package command

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"motorvault/internal/logger"
	"motorvault/internal/model"
	"motorvault/internal/service"
)

// Dispatcher routes commands to the economy service.
type Dispatcher struct {
	svc service.EconomyService
}

func NewDispatcher(svc service.EconomyService) *Dispatcher {
	return &Dispatcher{svc: svc}
}

// Dispatch validates cmd, registers the account on first contact and runs the
// operation. The result is the operation's value, ready to be encoded.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) (any, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := d.svc.EnsureAccount(ctx, cmd.AccountID, cmd.Handle, cmd.DisplayName); err != nil {
		return nil, err
	}

	res, err := d.run(ctx, cmd)
	if err != nil {
		if model.IsDomainError(err) {
			logger.DebugCtx(ctx, "command rejected",
				zap.String("kind", cmd.Kind.String()),
				zap.String("account_id", cmd.AccountID),
				zap.Error(err),
			)
		} else {
			logger.ErrorCtx(ctx, err,
				zap.String("kind", cmd.Kind.String()),
				zap.String("account_id", cmd.AccountID),
			)
		}
		return nil, err
	}
	return res, nil
}

func (d *Dispatcher) run(ctx context.Context, cmd Command) (any, error) {
	id := cmd.AccountID
	switch cmd.Kind {
	case ClaimDrop:
		return d.svc.Claim(ctx, id, model.ChannelDrop, "")
	case ClaimLuck:
		return d.svc.Claim(ctx, id, model.ChannelLuck, cmd.Category)
	case ClaimNewClient:
		return d.svc.Claim(ctx, id, model.ChannelNewClient, "")
	case Purchase:
		return d.svc.Purchase(ctx, id, cmd.ItemID)
	case BuyProperty:
		return d.svc.BuyProperty(ctx, id, cmd.AssetID)
	case RedeemPromo:
		return d.svc.RedeemPromo(ctx, id, cmd.Code)
	case Paint:
		return d.svc.Paint(ctx, id, cmd.RecordID, cmd.Color)
	case SetCurrency:
		if err := d.svc.SetCurrency(ctx, id, cmd.Currency); err != nil {
			return nil, err
		}
		return map[string]model.Currency{"currency": cmd.Currency}, nil
	case Balance:
		return d.svc.Balance(ctx, id)
	case Holdings:
		return d.svc.Holdings(ctx, id)
	case TradeBegin:
		return d.svc.TradeBegin(ctx, id, cmd.RecordID)
	case TradePartner:
		return d.svc.TradePartner(ctx, id, cmd.Partner)
	case TradePropose:
		return d.svc.TradePropose(ctx, id, cmd.RecordID)
	case TradeAccept:
		return d.svc.TradeAccept(ctx, id, cmd.ProposalID)
	case TradeReject:
		return d.svc.TradeReject(ctx, id, cmd.ProposalID)
	case TradeCancel:
		if err := d.svc.TradeCancel(ctx, id); err != nil {
			return nil, err
		}
		return map[string]string{"status": "cancelled"}, nil
	default:
		return nil, fmt.Errorf("unhandled command kind %q", cmd.Kind)
	}
}
