package models

// ChannelMode selects how a partner-channel task is verified
type ChannelMode string

const (
	ChannelModeMembership ChannelMode = "membership"  // oracle confirms the user joined
	ChannelModeClickCount ChannelMode = "clickcount"  // repeated confirmations reach a threshold
)

// PartnerChannel is an admin-managed catalog entry paying tickets for
// joining (or repeatedly confirming) a partner channel.
type PartnerChannel struct {
	ID           string      `gorm:"primaryKey;type:uuid" json:"id"`
	ChannelName  string      `gorm:"uniqueIndex;not null" json:"channel_name"` // e.g. "@ChannelName"
	TicketReward int         `gorm:"not null" json:"ticket_reward"`
	Mode         ChannelMode `gorm:"not null;default:'clickcount'" json:"mode"`

	// ClickThreshold is the confirmations needed in click-count mode;
	// zero falls back to the service default.
	ClickThreshold int `gorm:"not null;default:0" json:"click_threshold"`

	Timestamps
}
