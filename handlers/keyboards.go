package handlers

import (
	"fmt"

	"ticket-game-bot/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func mainMenu() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("📜 Info"),
			tgbotapi.NewKeyboardButton("🎮 Play to Earn"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("💰 Balance"),
			tgbotapi.NewKeyboardButton("👥 Referrals"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("🎟 Free Tickets"),
			tgbotapi.NewKeyboardButton("📜 Game History"),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func adminMenu() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("➕ Add Partner Channel"),
			tgbotapi.NewKeyboardButton("🗑 Remove Partner Channel"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("📊 View Stats"),
			tgbotapi.NewKeyboardButton("📢 Broadcast Message"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("🏠 Main Menu"),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func freeTicketsMenu() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("🤝 Partners"),
			tgbotapi.NewKeyboardButton("📋 Missions"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("🎁 Daily Bonus"),
			tgbotapi.NewKeyboardButton("🏠 Main Menu"),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func playMenu() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("🚀 Start Game")),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("🏠 Main Menu")),
	)
	kb.ResizeKeyboard = true
	return kb
}

func playAgainMenu() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("🚀 Play Again")),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("🏠 Main Menu")),
	)
	kb.ResizeKeyboard = true
	return kb
}

func noTicketsMenu() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("👥 Referrals"),
			tgbotapi.NewKeyboardButton("🎟 Free Tickets"),
		),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("🏠 Main Menu")),
	)
	kb.ResizeKeyboard = true
	return kb
}

func balanceMenu() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("💸 Withdraw")),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("🏠 Main Menu")),
	)
	kb.ResizeKeyboard = true
	return kb
}

func verifyKeyboard(channels []string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, ch := range channels {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📢 "+ch, "https://t.me/"+trimAt(ch)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Verify Membership", "verify_membership"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func moveKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✊ Rock", "rock"),
			tgbotapi.NewInlineKeyboardButtonData("✂️ Scissors", "scissors"),
			tgbotapi.NewInlineKeyboardButtonData("📜 Paper", "paper"),
		),
	)
}

// partnersKeyboard lists unclaimed partner channels with join + confirm
// buttons.
func partnersKeyboard(channels []models.PartnerChannel, u *models.UserLedger) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, ch := range channels {
		if models.HasClaimed(u.ClaimedPartnerTasks, ch.ID) {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📢 "+ch.ChannelName, "https://t.me/"+trimAt(ch.ChannelName)),
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("✅ Confirm (+%d)", ch.TicketReward), "confirm_partner_"+ch.ID),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// missionsKeyboard lists every mission with progress and a claim button.
func missionsKeyboard(u *models.UserLedger) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, m := range models.DefaultMissions {
		progress := m.Progress(u)
		if progress > m.Threshold {
			progress = m.Threshold
		}
		if models.HasClaimed(u.ClaimedMissions, m.ID) {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(
					fmt.Sprintf("✅ %s: %d/%d (+%d tickets) - Claimed", m.Title, progress, m.Threshold, m.Reward),
					"claimed_mission_"+m.ID),
			))
			continue
		}
		claimLabel := "🔒 Locked"
		if progress >= m.Threshold {
			claimLabel = "✅ Claim"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("📋 %s: %d/%d (+%d tickets)", m.Title, progress, m.Threshold, m.Reward),
				"mission_info_"+m.ID),
			tgbotapi.NewInlineKeyboardButtonData(claimLabel, "claim_mission_"+m.ID),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔙 Back", "back_to_free_tickets"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func confirmWithdrawKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Confirm", "confirm_withdraw"),
		),
	)
}

func channelModeKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Membership Check", "membership"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👆 Click Count", "clickcount"),
		),
	)
}

func trimAt(channel string) string {
	if len(channel) > 0 && channel[0] == '@' {
		return channel[1:]
	}
	return channel
}
