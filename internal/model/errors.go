package model

import (
	"errors"
	"fmt"
	"time"
)

// Recoverable, user-facing failures. Each aborts its operation with no state
// change.
var (
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrCapacityExhausted   = errors.New("item global cap reached")
	ErrPoolExhausted       = errors.New("no available item in pool")
	ErrDuplicateNotAllowed = errors.New("item already owned")
	ErrNotOwned            = errors.New("item not owned")
	ErrStaleProposal       = errors.New("trade proposal is stale")
	ErrSelfTradeNotAllowed = errors.New("cannot trade with yourself")
	ErrCooldownActive      = errors.New("cooldown active")
	ErrAlreadyRedeemed     = errors.New("reward already redeemed")
	ErrPartnerNotFound     = errors.New("trade partner not found")

	ErrAccountNotFound  = errors.New("account not found")
	ErrItemNotFound     = errors.New("item not found")
	ErrAssetNotFound    = errors.New("asset not found")
	ErrRecordNotFound   = errors.New("ownership record not found")
	ErrNothingToTrade   = errors.New("partner has nothing to trade")
	ErrProposalNotFound = errors.New("trade proposal not found")
	ErrNotParticipant   = errors.New("not a participant of this proposal")
	ErrNoActiveSession  = errors.New("no trade in progress")
	ErrUnknownPromo     = errors.New("unknown promo code")
	ErrUnknownColor     = errors.New("unknown color")
	ErrUnknownCurrency  = errors.New("unknown currency")
	ErrMinimumBalance   = errors.New("balance below asset minimum")
	ErrAlreadyOwned     = errors.New("asset already owned")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrInvalidCommand   = errors.New("invalid command")
)

// CooldownError reports how long the caller has to wait.
type CooldownError struct {
	Channel   Channel
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s cooldown active for %s", e.Channel, e.Remaining.Round(time.Second))
}

func (e *CooldownError) Unwrap() error {
	return ErrCooldownActive
}

var codes = []struct {
	err  error
	code string
}{
	{ErrInsufficientFunds, "insufficient_funds"},
	{ErrCapacityExhausted, "capacity_exhausted"},
	{ErrPoolExhausted, "pool_exhausted"},
	{ErrDuplicateNotAllowed, "duplicate_not_allowed"},
	{ErrNotOwned, "not_owned"},
	{ErrStaleProposal, "stale_proposal"},
	{ErrSelfTradeNotAllowed, "self_trade_not_allowed"},
	{ErrCooldownActive, "cooldown_active"},
	{ErrAlreadyRedeemed, "already_redeemed"},
	{ErrPartnerNotFound, "partner_not_found"},
	{ErrAccountNotFound, "account_not_found"},
	{ErrItemNotFound, "item_not_found"},
	{ErrAssetNotFound, "asset_not_found"},
	{ErrRecordNotFound, "record_not_found"},
	{ErrNothingToTrade, "nothing_to_trade"},
	{ErrProposalNotFound, "proposal_not_found"},
	{ErrNotParticipant, "not_participant"},
	{ErrNoActiveSession, "no_active_session"},
	{ErrUnknownPromo, "unknown_promo"},
	{ErrUnknownColor, "unknown_color"},
	{ErrUnknownCurrency, "unknown_currency"},
	{ErrMinimumBalance, "minimum_balance"},
	{ErrAlreadyOwned, "already_owned"},
	{ErrInvalidAmount, "invalid_amount"},
	{ErrInvalidCommand, "invalid_command"},
}

// Code returns the stable wire code of a domain error, or "" for
// infrastructure failures.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ""
}

// IsDomainError reports whether err is a recoverable domain failure.
func IsDomainError(err error) bool {
	return Code(err) != ""
}

// IsNotFound reports whether err names a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrAssetNotFound) ||
		errors.Is(err, ErrRecordNotFound) ||
		errors.Is(err, ErrProposalNotFound) ||
		errors.Is(err, ErrPartnerNotFound)
}
