package model

// Channel is a randomized acquisition channel.
type Channel string

const (
	ChannelDrop      Channel = "drop"
	ChannelLuck      Channel = "luck"
	ChannelNewClient Channel = "new_client"
)

// Pool returns the catalog pool the channel draws from.
func (c Channel) Pool() Pool {
	switch c {
	case ChannelDrop:
		return PoolDrop
	case ChannelLuck:
		return PoolLuck
	case ChannelNewClient:
		return PoolNewClient
	}
	return ""
}

// Source returns the ownership source tag for records issued by the channel.
func (c Channel) Source() Source {
	switch c {
	case ChannelDrop:
		return SourceDrop
	case ChannelLuck:
		return SourceLuck
	case ChannelNewClient:
		return SourceNewClient
	}
	return ""
}

// RewardNewClient is the one-shot redemption id of the new-account bonus.
const RewardNewClient = "new_client"

// PromoRewardID returns the one-shot redemption id of a promo code.
func PromoRewardID(code string) string {
	return "promo:" + code
}

// Promo is a promotional code from the catalog. A promo either credits a
// fixed reward or permanently waives the general-drop cooldown.
type Promo struct {
	Code               string `json:"code" yaml:"code"`
	Reward             int64  `json:"reward,omitempty" yaml:"reward"`
	DropCooldownBypass bool   `json:"drop_cooldown_bypass,omitempty" yaml:"drop_cooldown_bypass"`
}
