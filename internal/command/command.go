package command

import (
	"fmt"

	"motorvault/internal/model"
)

// Kind names an inbound command. The set is closed: ParseKind rejects
// anything else.
type Kind string

const (
	ClaimDrop      Kind = "claim_drop"
	ClaimLuck      Kind = "claim_luck"
	ClaimNewClient Kind = "claim_new_client"
	Purchase       Kind = "purchase"
	BuyProperty    Kind = "buy_property"
	RedeemPromo    Kind = "redeem_promo"
	Paint          Kind = "paint"
	SetCurrency    Kind = "set_currency"
	Balance        Kind = "balance"
	Holdings       Kind = "holdings"
	TradeBegin     Kind = "trade_begin"
	TradePartner   Kind = "trade_partner"
	TradePropose   Kind = "trade_propose"
	TradeAccept    Kind = "trade_accept"
	TradeReject    Kind = "trade_reject"
	TradeCancel    Kind = "trade_cancel"
)

// Kinds lists every command kind.
var Kinds = []Kind{
	ClaimDrop, ClaimLuck, ClaimNewClient,
	Purchase, BuyProperty, RedeemPromo, Paint, SetCurrency,
	Balance, Holdings,
	TradeBegin, TradePartner, TradePropose, TradeAccept, TradeReject, TradeCancel,
}

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown kind %q", model.ErrInvalidCommand, s)
}

func (k Kind) String() string {
	return string(k)
}

// Command is an inbound request on behalf of one account. Handle and
// DisplayName refresh the account directory on every command.
type Command struct {
	Kind        Kind   `json:"kind"`
	AccountID   string `json:"account_id"`
	Handle      string `json:"handle,omitempty"`
	DisplayName string `json:"display_name,omitempty"`

	Category   string         `json:"category,omitempty"`
	ItemID     int            `json:"item_id,omitempty"`
	AssetID    string         `json:"asset_id,omitempty"`
	Code       string         `json:"code,omitempty"`
	RecordID   int64          `json:"record_id,omitempty"`
	Color      string         `json:"color,omitempty"`
	Currency   model.Currency `json:"currency,omitempty"`
	Partner    string         `json:"partner,omitempty"`
	ProposalID string         `json:"proposal_id,omitempty"`
}

// Validate checks the arguments the kind requires.
func (c Command) Validate() error {
	if _, err := ParseKind(string(c.Kind)); err != nil {
		return err
	}
	if c.AccountID == "" {
		return fmt.Errorf("%w: account_id is required", model.ErrInvalidCommand)
	}

	var missing string
	switch c.Kind {
	case Purchase:
		if c.ItemID <= 0 {
			missing = "item_id"
		}
	case BuyProperty:
		if c.AssetID == "" {
			missing = "asset_id"
		}
	case RedeemPromo:
		if c.Code == "" {
			missing = "code"
		}
	case Paint:
		if c.RecordID <= 0 {
			missing = "record_id"
		} else if c.Color == "" {
			missing = "color"
		}
	case SetCurrency:
		if c.Currency == "" {
			missing = "currency"
		}
	case TradeBegin, TradePropose:
		if c.RecordID <= 0 {
			missing = "record_id"
		}
	case TradePartner:
		if c.Partner == "" {
			missing = "partner"
		}
	case TradeAccept, TradeReject:
		if c.ProposalID == "" {
			missing = "proposal_id"
		}
	}
	if missing != "" {
		return fmt.Errorf("%w: %s requires %s", model.ErrInvalidCommand, c.Kind, missing)
	}
	return nil
}
