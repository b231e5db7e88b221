package workers

import (
	"context"
	"log"
	"time"

	"ticket-game-bot/services"
)

// RecipientSender delivers one message to one user and reports failure,
// so fan-outs can count what actually went through.
type RecipientSender interface {
	SendTo(userID int64, text string) error
}

// Broadcaster fans a message out to every known user with a rate-limit
// pause between sends. Per-recipient failures are logged and skipped;
// they never abort the batch.
type Broadcaster struct {
	Store  services.LedgerStore
	Sender RecipientSender
	Pause  time.Duration
}

func NewBroadcaster(store services.LedgerStore, sender RecipientSender) *Broadcaster {
	return &Broadcaster{
		Store:  store,
		Sender: sender,
		Pause:  50 * time.Millisecond,
	}
}

// SendToAll returns the number of users the message reached.
func (b *Broadcaster) SendToAll(ctx context.Context, text string) int {
	ids, err := b.Store.ListUserIDs(ctx)
	if err != nil {
		log.Printf("[Broadcast] failed to list users: %v", err)
		return 0
	}

	sent := 0
	for _, id := range ids {
		select {
		case <-ctx.Done():
			log.Printf("[Broadcast] cancelled after %d of %d sends", sent, len(ids))
			return sent
		default:
		}
		if err := b.Sender.SendTo(id, text); err != nil {
			log.Printf("[Broadcast] failed to send to %d: %v", id, err)
			continue
		}
		sent++
		time.Sleep(b.Pause)
	}
	return sent
}
