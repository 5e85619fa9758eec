package service

import (
	"context"

	"motorvault/internal/model"
	"motorvault/internal/trade"
)

func (e *Economy) TradeBegin(ctx context.Context, accountID string, recordID int64) (*model.OwnershipRecord, error) {
	return e.negotiator.Begin(ctx, accountID, recordID)
}

func (e *Economy) TradePartner(ctx context.Context, accountID, partner string) (*trade.Partner, error) {
	return e.negotiator.SelectPartner(ctx, accountID, partner)
}

func (e *Economy) TradePropose(ctx context.Context, accountID string, recordID int64) (*model.TradeProposal, error) {
	return e.negotiator.Propose(ctx, accountID, recordID)
}

func (e *Economy) TradeAccept(ctx context.Context, accountID, proposalID string) (*model.TradeResult, error) {
	res, err := e.negotiator.Accept(ctx, accountID, proposalID)
	if err != nil {
		return nil, err
	}
	e.publish(ctx,
		model.EconomyEvent{
			Kind:      model.EventTrade,
			AccountID: res.Proposal.InitiatorID,
			ItemID:    res.InitiatorGot.ItemID,
			RecordID:  res.InitiatorGot.ID,
			Detail:    res.Proposal.ID,
		},
		model.EconomyEvent{
			Kind:      model.EventTrade,
			AccountID: res.Proposal.CounterpartyID,
			ItemID:    res.CounterpartyGot.ItemID,
			RecordID:  res.CounterpartyGot.ID,
			Detail:    res.Proposal.ID,
		},
	)
	return res, nil
}

func (e *Economy) TradeReject(ctx context.Context, accountID, proposalID string) (*model.TradeProposal, error) {
	return e.negotiator.Reject(ctx, accountID, proposalID)
}

func (e *Economy) TradeCancel(_ context.Context, accountID string) error {
	return e.negotiator.Cancel(accountID)
}
