package models

import (
	"strings"
	"time"
)

// UserLedger is the single per-user economy record. Tickets and balance
// only move through the reward engine, the round resolver, or a
// withdrawal debit; nothing else mutates them.
type UserLedger struct {
	UserID   int64  `gorm:"primaryKey" json:"user_id"` // Telegram user ID
	Username string `gorm:"index" json:"username"`

	Balance float64 `gorm:"not null;default:0" json:"balance"`
	Tickets int     `gorm:"not null;default:0" json:"tickets"`

	Wins       int `gorm:"not null;default:0" json:"wins"`
	Losses     int `gorm:"not null;default:0" json:"losses"`
	TotalGames int `gorm:"not null;default:0" json:"total_games"` // ties excluded

	ReferralCount int    `gorm:"not null;default:0" json:"referral_count"`
	ReferrerID    *int64 `gorm:"index" json:"referrer_id,omitempty"` // back-reference, never ownership

	// Comma-separated claim sets; use the Has/With helpers below.
	ClaimedPartnerTasks string `gorm:"type:text;default:''" json:"claimed_partner_tasks"`
	ClaimedMissions     string `gorm:"type:text;default:''" json:"claimed_missions"`

	Verified bool `gorm:"not null;default:false" json:"verified"` // gates all gameplay

	LastDailyBonus *time.Time `json:"last_daily_bonus,omitempty"`
	DailyStreak    int        `gorm:"not null;default:0" json:"daily_streak"`

	Timestamps
}

// HasClaimed reports whether id is present in a comma-separated claim set.
func HasClaimed(set, id string) bool {
	if set == "" || id == "" {
		return false
	}
	for _, v := range strings.Split(set, ",") {
		if v == id {
			return true
		}
	}
	return false
}

// WithClaim appends id to a comma-separated claim set.
func WithClaim(set, id string) string {
	if set == "" {
		return id
	}
	return set + "," + id
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
