package workers

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"ticket-game-bot/services"
)

// ActivityNotifier posts periodic activity lines to the public game
// group to keep it lively. Purely cosmetic; it never touches the ledger.
type ActivityNotifier struct {
	Notifier  services.Notifier
	GameGroup string
	Opponents []string

	MinInterval time.Duration
	MaxInterval time.Duration
}

func NewActivityNotifier(notifier services.Notifier, gameGroup string, opponents []string) *ActivityNotifier {
	return &ActivityNotifier{
		Notifier:    notifier,
		GameGroup:   gameGroup,
		Opponents:   opponents,
		MinInterval: 3 * time.Second,
		MaxInterval: 7 * time.Second,
	}
}

// Start runs the announcement loop until the context is cancelled.
func (a *ActivityNotifier) Start(ctx context.Context) {
	if a.GameGroup == "" || len(a.Opponents) == 0 {
		log.Println("[Activity] no game group or opponents configured, notifier disabled")
		return
	}
	log.Printf("[Activity] announcing to %s", a.GameGroup)

	for {
		interval := a.MinInterval + time.Duration(rand.Int63n(int64(a.MaxInterval-a.MinInterval)))
		select {
		case <-ctx.Done():
			log.Println("[Activity] notifier stopped")
			return
		case <-time.After(interval):
			a.Notifier.SendToChannel(a.GameGroup, a.randomLine())
		}
	}
}

func (a *ActivityNotifier) randomLine() string {
	name := a.Opponents[rand.Intn(len(a.Opponents))]

	// Occasional withdrawal line, roughly one in twenty.
	if rand.Float64() < 0.05 {
		amount := services.MinWithdrawal + rand.Float64()*(1.0-services.MinWithdrawal)
		return fmt.Sprintf("%s just withdrew %.2f $TON! 💸", name, amount)
	}

	lines := []string{
		fmt.Sprintf("%s just won %.2f $TON! 🏆", name, services.WinReward),
		fmt.Sprintf("%s just won %.2f $TON! 🏆", name, services.WinReward),
		fmt.Sprintf("%s just won %.2f $TON! 🏆", name, services.WinReward),
		fmt.Sprintf("%s invited a friend and earned %d tickets! 🎟", name, services.ReferralBonusTickets),
		fmt.Sprintf("%s completed a mission and got 3 tickets! 🚀", name),
		fmt.Sprintf("%s joined a partner channel for 2 tickets! 📢", name),
		fmt.Sprintf("%s claimed their daily bonus! 🎁", name),
	}
	return lines[rand.Intn(len(lines))]
}
