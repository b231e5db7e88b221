package services

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"ticket-game-bot/models"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

const (
	// WinReward is the balance paid per won round.
	WinReward = 0.01

	// RoundTimeout closes an abandoned round as a timeout loss.
	RoundTimeout = 15 * time.Second
)

// roundSession is the ephemeral per-user state of an open round.
type roundSession struct {
	Opponent  string
	StartedAt time.Time
}

// RoundResult is one resolved exchange.
type RoundResult struct {
	Outcome      models.Outcome
	UserMove     models.Move
	OpponentMove models.Move
	Opponent     string
	Reward       float64 // balance paid, wins only
	RoundOpen    bool    // ties keep the round open for a re-prompt
}

// GameService resolves rock-paper-scissors rounds. A round costs one
// ticket once it resolves decisively; ties replay for free.
type GameService struct {
	Store    LedgerStore
	Notifier Notifier

	// GameGroup receives public win announcements; empty disables them.
	GameGroup string
	Opponents []string

	drawMove func() models.Move
	now      func() time.Time
	locks    *UserLocks

	mu       sync.Mutex
	sessions map[int64]*roundSession
}

func NewGameService(store LedgerStore, notifier Notifier, gameGroup string, opponents []string, locks *UserLocks) *GameService {
	return &GameService{
		Store:     store,
		Notifier:  notifier,
		GameGroup: gameGroup,
		Opponents: opponents,
		drawMove: func() models.Move {
			return models.Moves[rand.Intn(len(models.Moves))]
		},
		now:      time.Now,
		locks:    locks,
		sessions: make(map[int64]*roundSession),
	}
}

// StartRound opens a round against a random opponent label. No ticket is
// spent yet; the cost lands on the first decisive resolution.
func (s *GameService) StartRound(ctx context.Context, userID int64) (string, error) {
	u, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if !u.Verified {
		return "", ErrNotVerified
	}
	if u.Tickets <= 0 {
		return "", ErrInsufficientTickets
	}

	opponent := "Anonymous"
	if len(s.Opponents) > 0 {
		opponent = s.Opponents[rand.Intn(len(s.Opponents))]
	}

	s.mu.Lock()
	s.sessions[userID] = &roundSession{Opponent: opponent, StartedAt: s.now()}
	s.mu.Unlock()
	return opponent, nil
}

// ResolveChoice plays the user's move against a uniform random opponent
// move. Equal moves tie: nothing is spent, the round stays open. A
// decisive result spends exactly one ticket, updates the win/loss
// counters, and closes the round. Every resolution appends a game record.
func (s *GameService) ResolveChoice(ctx context.Context, userID int64, move models.Move) (RoundResult, error) {
	if !move.Valid() {
		return RoundResult{}, fmt.Errorf("%w: invalid move %q", ErrNotEligible, move)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	s.mu.Lock()
	sess, ok := s.sessions[userID]
	s.mu.Unlock()
	if !ok {
		return RoundResult{}, ErrNoActiveRound
	}

	u, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return RoundResult{}, err
	}

	opponentMove := s.drawMove()
	res := RoundResult{
		UserMove:     move,
		OpponentMove: opponentMove,
		Opponent:     sess.Opponent,
	}

	if move == opponentMove {
		res.Outcome = models.OutcomeTie
		res.RoundOpen = true
		s.mu.Lock()
		sess.StartedAt = s.now()
		s.mu.Unlock()
		s.appendRecord(ctx, userID, move, opponentMove, models.OutcomeTie)
		return res, nil
	}

	tickets := u.Tickets - 1
	totalGames := u.TotalGames + 1
	upd := LedgerUpdate{Tickets: &tickets, TotalGames: &totalGames}

	if move.Beats(opponentMove) {
		res.Outcome = models.OutcomeWin
		res.Reward = WinReward
		wins := u.Wins + 1
		balance := u.Balance + WinReward
		upd.Wins = &wins
		upd.Balance = &balance
	} else {
		res.Outcome = models.OutcomeLoss
		losses := u.Losses + 1
		upd.Losses = &losses
	}

	if err := s.Store.ApplyUpdate(ctx, userID, upd); err != nil {
		return RoundResult{}, err
	}
	s.appendRecord(ctx, userID, move, opponentMove, res.Outcome)

	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()

	if res.Outcome == models.OutcomeWin && s.GameGroup != "" {
		name := u.Username
		if name == "" {
			name = "Anonymous"
		}
		s.Notifier.SendToChannel(s.GameGroup, fmt.Sprintf("🏆 %s just won %.2f $TON!", name, WinReward))
	}
	return res, nil
}

// HasOpenRound reports whether the user has an unresolved round.
func (s *GameService) HasOpenRound(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[userID]
	return ok
}

// ExpireStaleRounds closes rounds abandoned past the round timeout as
// timeout losses: the opponent draws, one ticket is spent, and the loss
// is recorded.
func (s *GameService) ExpireStaleRounds(ctx context.Context) {
	cutoff := s.now().Add(-RoundTimeout)

	s.mu.Lock()
	var stale []int64
	for userID, sess := range s.sessions {
		if sess.StartedAt.Before(cutoff) {
			stale = append(stale, userID)
		}
	}
	s.mu.Unlock()

	for _, userID := range stale {
		if err := s.resolveTimeout(ctx, userID, cutoff); err != nil {
			log.Printf("[Game] failed to expire round for user %d: %v", userID, err)
		}
	}
}

func (s *GameService) resolveTimeout(ctx context.Context, userID int64, cutoff time.Time) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	s.mu.Lock()
	sess, ok := s.sessions[userID]
	if !ok || !sess.StartedAt.Before(cutoff) {
		// Resolved or refreshed while we waited for the lock.
		s.mu.Unlock()
		return nil
	}
	delete(s.sessions, userID)
	s.mu.Unlock()

	u, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	opponentMove := s.drawMove()
	tickets := u.Tickets - 1
	losses := u.Losses + 1
	totalGames := u.TotalGames + 1
	if err := s.Store.ApplyUpdate(ctx, userID, LedgerUpdate{
		Tickets:    &tickets,
		Losses:     &losses,
		TotalGames: &totalGames,
	}); err != nil {
		return err
	}
	s.appendRecord(ctx, userID, models.MoveNone, opponentMove, models.OutcomeLossTimeout)

	s.Notifier.Send(userID, fmt.Sprintf("⏰ You didn't choose! Your opponent chose %s. You lost! Try again?", opponentMove))
	return nil
}

// StartExpiryScheduler sweeps for abandoned rounds once a minute.
func (s *GameService) StartExpiryScheduler(ctx context.Context) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			s.ExpireStaleRounds(ctx)
		}),
	)
}

func (s *GameService) appendRecord(ctx context.Context, userID int64, userMove, opponentMove models.Move, outcome models.Outcome) {
	rec := &models.GameRecord{
		ID:           uuid.NewString(),
		UserID:       userID,
		UserMove:     userMove,
		OpponentMove: opponentMove,
		Outcome:      outcome,
	}
	if err := s.Store.AppendGame(ctx, rec); err != nil {
		log.Printf("[Game] failed to append game record for user %d: %v", userID, err)
	}
}
