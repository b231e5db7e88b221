package handlers

import (
	"context"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier sends messages through the bot. Send and
// SendToChannel are fire-and-forget; SendTo surfaces the error so
// fan-out workers can count delivery.
type TelegramNotifier struct {
	Bot *tgbotapi.BotAPI
}

func NewTelegramNotifier(bot *tgbotapi.BotAPI) *TelegramNotifier {
	return &TelegramNotifier{Bot: bot}
}

func (n *TelegramNotifier) Send(userID int64, text string) {
	if err := n.SendTo(userID, text); err != nil {
		log.Printf("[Notify] failed to send to %d: %v", userID, err)
	}
}

func (n *TelegramNotifier) SendTo(userID int64, text string) error {
	_, err := n.Bot.Send(tgbotapi.NewMessage(userID, text))
	return err
}

func (n *TelegramNotifier) SendToChannel(channel, text string) {
	if _, err := n.Bot.Send(tgbotapi.NewMessageToChannel(channel, text)); err != nil {
		log.Printf("[Notify] failed to send to channel %s: %v", channel, err)
	}
}

// TelegramOracle answers membership checks via getChatMember with a
// bounded timeout. Any failure counts as not-a-member for the caller.
type TelegramOracle struct {
	Bot     *tgbotapi.BotAPI
	Timeout time.Duration
}

func NewTelegramOracle(bot *tgbotapi.BotAPI) *TelegramOracle {
	return &TelegramOracle{Bot: bot, Timeout: 10 * time.Second}
}

func (o *TelegramOracle) IsMember(ctx context.Context, channel string, userID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, o.Timeout)
	defer cancel()

	type result struct {
		member tgbotapi.ChatMember
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		member, err := o.Bot.GetChatMember(tgbotapi.GetChatMemberConfig{
			ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
				SuperGroupUsername: channel,
				UserID:             userID,
			},
		})
		ch <- result{member: member, err: err}
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return false, res.err
		}
		switch res.member.Status {
		case "member", "administrator", "creator":
			return true, nil
		}
		return false, nil
	}
}
