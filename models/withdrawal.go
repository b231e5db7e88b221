package models

import "time"

// WithdrawalStatus is the settlement state of a withdrawal request
type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusCompleted WithdrawalStatus = "completed"
)

// Withdrawal is a payout request. The user's balance is debited when the
// record is created, not when it settles; the pending→completed transition
// happens exactly once and never reverses.
type Withdrawal struct {
	ID      string           `gorm:"primaryKey;type:uuid" json:"id"`
	UserID  int64            `gorm:"index;not null" json:"user_id"`
	Amount  float64          `gorm:"not null" json:"amount"`
	Address string           `gorm:"not null" json:"address"` // opaque wallet address
	Status  WithdrawalStatus `gorm:"not null;default:'pending';index" json:"status"`

	MaturesAt time.Time `gorm:"not null" json:"matures_at"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
