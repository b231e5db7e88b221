package models

import "time"

// Move is a rock-paper-scissors hand
type Move string

const (
	MoveRock     Move = "rock"
	MoveScissors Move = "scissors"
	MovePaper    Move = "paper"
	MoveNone     Move = "none" // timeout, no choice made
)

// Moves is the draw pool for the opponent's hand.
var Moves = []Move{MoveRock, MoveScissors, MovePaper}

// Beats reports whether a beats b under the standard cyclic dominance:
// rock beats scissors, scissors beats paper, paper beats rock.
func (a Move) Beats(b Move) bool {
	switch a {
	case MoveRock:
		return b == MoveScissors
	case MoveScissors:
		return b == MovePaper
	case MovePaper:
		return b == MoveRock
	}
	return false
}

// Valid reports whether m is a playable hand.
func (m Move) Valid() bool {
	return m == MoveRock || m == MoveScissors || m == MovePaper
}

// Outcome is the recorded result of a resolved exchange
type Outcome string

const (
	OutcomeWin         Outcome = "Win"
	OutcomeLoss        Outcome = "Loss"
	OutcomeTie         Outcome = "Tie"
	OutcomeLossTimeout Outcome = "Loss (Timeout)"
)

// GameRecord is one resolved exchange, tie or decisive. Append-only,
// immutable once written; used for history display and mission progress.
type GameRecord struct {
	ID           string  `gorm:"primaryKey;type:uuid" json:"id"`
	UserID       int64   `gorm:"index;not null" json:"user_id"`
	UserMove     Move    `gorm:"not null" json:"user_move"`
	OpponentMove Move    `gorm:"not null" json:"opponent_move"`
	Outcome      Outcome `gorm:"not null" json:"outcome"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
