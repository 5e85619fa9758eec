package model

import "time"

// Pool is the acquisition channel group a catalog item belongs to.
type Pool string

const (
	PoolDrop      Pool = "drop"
	PoolShowcase  Pool = "showcase"
	PoolLuck      Pool = "luck"
	PoolTuning    Pool = "tuning"
	PoolNewClient Pool = "new_client"
)

func (p Pool) Valid() bool {
	switch p {
	case PoolDrop, PoolShowcase, PoolLuck, PoolTuning, PoolNewClient:
		return true
	}
	return false
}

// Source tags how an ownership record came to exist.
type Source string

const (
	SourceShowroom  Source = "showroom"
	SourceTuning    Source = "tuning"
	SourceDrop      Source = "drop"
	SourceLuck      Source = "luck"
	SourceNewClient Source = "new_client"
	SourceTrade     Source = "trade"
	SourceAdmin     Source = "admin"
)

// DefaultColor is the cosmetic attribute of a freshly issued record.
const DefaultColor = "Standard"

// CatalogItem is immutable reference data for an acquirable item.
type CatalogItem struct {
	ID        int    `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Year      int    `json:"year,omitempty" yaml:"year"`
	Price     int64  `json:"price" yaml:"price"`
	GlobalCap int    `json:"global_cap" yaml:"cap"`
	Pool      Pool   `json:"pool" yaml:"pool"`
	// Category is the luck category or the tuning brand.
	Category string `json:"category,omitempty" yaml:"category"`
}

// OwnershipRecord is one issued instance of a catalog item.
type OwnershipRecord struct {
	ID         int64     `json:"record_id"`
	AccountID  string    `json:"account_id"`
	ItemID     int       `json:"item_id"`
	Duplicate  bool      `json:"duplicate"`
	Source     Source    `json:"source"`
	AcquiredAt time.Time `json:"acquired_at"`
	Color      string    `json:"color"`
}
