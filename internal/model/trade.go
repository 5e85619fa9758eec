package model

import "time"

// TradeProposal is a pending two-party exchange of one record each. It lives
// only in the proposal store and is not expected to survive a restart.
type TradeProposal struct {
	ID                string    `json:"proposal_id"`
	InitiatorID       string    `json:"initiator_id"`
	OfferedRecordID   int64     `json:"offered_record_id"`
	OfferedItemID     int       `json:"offered_item_id"`
	CounterpartyID    string    `json:"counterparty_id"`
	RequestedRecordID int64     `json:"requested_record_id"`
	RequestedItemID   int       `json:"requested_item_id"`
	CreatedAt         time.Time `json:"created_at"`
	// ExpiresAt is advisory; acceptance after it is still honoured.
	ExpiresAt time.Time `json:"expires_at"`
}

// TradeResult is the outcome of an accepted proposal.
type TradeResult struct {
	Proposal        TradeProposal   `json:"proposal"`
	InitiatorGot    OwnershipRecord `json:"initiator_got"`
	CounterpartyGot OwnershipRecord `json:"counterparty_got"`
}
