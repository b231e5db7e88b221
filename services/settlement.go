package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"ticket-game-bot/models"

	"github.com/go-co-op/gocron/v2"
)

// MaturationDelay is the wait between a withdrawal being accepted and it
// settling to completed.
const MaturationDelay = 24 * time.Hour

// SettlementScheduler fires a one-shot job per accepted withdrawal after
// the maturation delay. The pending→completed write is conditional on the
// current status, so re-firing after a restart is a no-op; the in-memory
// timers themselves are rebuilt by RecoverPending at startup.
type SettlementScheduler struct {
	Store    LedgerStore
	Notifier Notifier
	Delay    time.Duration

	now   func() time.Time
	sched gocron.Scheduler
}

func NewSettlementScheduler(store LedgerStore, notifier Notifier) (*SettlementScheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &SettlementScheduler{
		Store:    store,
		Notifier: notifier,
		Delay:    MaturationDelay,
		now:      time.Now,
		sched:    sched,
	}, nil
}

func (s *SettlementScheduler) Start() {
	s.sched.Start()
}

func (s *SettlementScheduler) Stop() {
	if err := s.sched.Shutdown(); err != nil {
		log.Printf("[Settlement] scheduler shutdown: %v", err)
	}
}

// Schedule enqueues settlement of the withdrawal at its maturity time.
// Overdue maturities fire immediately.
func (s *SettlementScheduler) Schedule(withdrawalID string, maturesAt time.Time) {
	at := maturesAt
	if min := s.now().Add(time.Second); at.Before(min) {
		at = min
	}
	_, err := s.sched.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(at)),
		gocron.NewTask(func() {
			s.Settle(context.Background(), withdrawalID)
		}),
	)
	if err != nil {
		log.Printf("[Settlement] failed to schedule withdrawal %s: %v", withdrawalID, err)
	}
}

// Settle transitions the withdrawal pending→completed. Calling it twice
// completes it exactly once; the second call finds the status already
// moved and does nothing.
func (s *SettlementScheduler) Settle(ctx context.Context, withdrawalID string) {
	applied, err := s.Store.UpdateWithdrawalStatus(ctx, withdrawalID,
		models.WithdrawalStatusPending, models.WithdrawalStatusCompleted)
	if err != nil {
		log.Printf("[Settlement] failed to settle withdrawal %s: %v", withdrawalID, err)
		return
	}
	if !applied {
		return
	}

	w, err := s.Store.GetWithdrawal(ctx, withdrawalID)
	if err != nil {
		log.Printf("[Settlement] settled %s but could not load it: %v", withdrawalID, err)
		return
	}
	log.Printf("[Settlement] ✅ withdrawal %s completed: %.2f to %s", w.ID, w.Amount, w.Address)
	s.Notifier.Send(w.UserID, fmt.Sprintf("✅ Your withdrawal of %.2f $TON to %s has been completed!", w.Amount, w.Address))
}

// RecoverPending rebuilds settlement timers after a restart: overdue
// pending withdrawals settle immediately, the rest are re-scheduled for
// their original maturity.
func (s *SettlementScheduler) RecoverPending(ctx context.Context) error {
	pending, err := s.Store.PendingWithdrawals(ctx)
	if err != nil {
		return err
	}
	now := s.now()
	for _, w := range pending {
		if !w.MaturesAt.After(now) {
			s.Settle(ctx, w.ID)
			continue
		}
		s.Schedule(w.ID, w.MaturesAt)
	}
	if len(pending) > 0 {
		log.Printf("[Settlement] recovered %d pending withdrawal(s)", len(pending))
	}
	return nil
}
