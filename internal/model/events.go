package model

import "time"

// EventKind classifies an audit event.
type EventKind string

const (
	EventPurchase   EventKind = "purchase"
	EventClaim      EventKind = "claim"
	EventPromo      EventKind = "promo"
	EventProperty   EventKind = "property"
	EventTrade      EventKind = "trade"
	EventAdminGrant EventKind = "admin_grant"
	EventAdminItem  EventKind = "admin_item"
	EventAdminWipe  EventKind = "admin_wipe"
)

// EconomyEvent is published after a mutation commits and persisted by the
// audit worker.
type EconomyEvent struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	AccountID string    `json:"account_id"`
	ItemID    int       `json:"item_id,omitempty"`
	AssetID   string    `json:"asset_id,omitempty"`
	RecordID  int64     `json:"record_id,omitempty"`
	Amount    int64     `json:"amount,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
