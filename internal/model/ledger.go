package model

import "time"

// Currency is the display currency an account prefers. Conversion and
// formatting happen in the presentation layer.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyRUB Currency = "RUB"
	CurrencyEUR Currency = "EUR"
)

func (c Currency) Valid() bool {
	switch c {
	case CurrencyUSD, CurrencyRUB, CurrencyEUR:
		return true
	}
	return false
}

// Account is a player of the economy. It is created on first contact.
type Account struct {
	ID          string    `json:"account_id"`
	Handle      string    `json:"handle,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	Balance     int64     `json:"balance"`
	Currency    Currency  `json:"currency"`
	LastIncome  int64     `json:"last_income"`
	CreatedAt   time.Time `json:"created_at"`

	// Cooldowns holds the time of the last successful claim per channel.
	Cooldowns map[Channel]time.Time `json:"cooldowns,omitempty"`
	// Redeemed is the set of one-shot reward identifiers already used.
	Redeemed map[string]time.Time `json:"redeemed,omitempty"`
	// DropCooldownBypass waives the general-drop cooldown.
	DropCooldownBypass bool `json:"drop_cooldown_bypass"`
}

func (a *Account) HasRedeemed(rewardID string) bool {
	_, ok := a.Redeemed[rewardID]
	return ok
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	c := *a
	c.Cooldowns = make(map[Channel]time.Time, len(a.Cooldowns))
	for k, v := range a.Cooldowns {
		c.Cooldowns[k] = v
	}
	c.Redeemed = make(map[string]time.Time, len(a.Redeemed))
	for k, v := range a.Redeemed {
		c.Redeemed[k] = v
	}
	return &c
}

// IncomeAsset is a catalog property. Assets with a zero RatePerInterval are
// held for prestige only and never accrue.
type IncomeAsset struct {
	ID              string `json:"id" yaml:"id"`
	Name            string `json:"name" yaml:"name"`
	Location        string `json:"location,omitempty" yaml:"location"`
	Category        string `json:"category" yaml:"category"`
	Price           int64  `json:"price" yaml:"price"`
	RatePerInterval int64  `json:"rate_per_interval,omitempty" yaml:"rate"`
	MinBalance      int64  `json:"min_balance,omitempty" yaml:"min_balance"`
}

// PropertyHolding records that an account holds an asset and when income was
// last collected from it.
type PropertyHolding struct {
	AccountID       string    `json:"account_id"`
	AssetID         string    `json:"asset_id"`
	PurchasedAt     time.Time `json:"purchased_at"`
	LastCollectedAt time.Time `json:"last_collected_at"`
}
