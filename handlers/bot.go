package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"ticket-game-bot/models"
	"ticket-game-bot/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Handler dispatches inbound Telegram updates: flow input goes to the
// active session state machine first, everything else to the one-shot
// reward/game operations.
type Handler struct {
	Bot     *tgbotapi.BotAPI
	Store   services.LedgerStore
	Rewards *services.RewardService
	Games   *services.GameService
	Flows   *services.FlowService
	Admins  map[int64]bool

	OfficialChannels []string
}

func NewHandler(bot *tgbotapi.BotAPI, store services.LedgerStore, rewards *services.RewardService, games *services.GameService, flows *services.FlowService, admins map[int64]bool, officialChannels []string) *Handler {
	return &Handler{
		Bot:              bot,
		Store:            store,
		Rewards:          rewards,
		Games:            games,
		Flows:            flows,
		Admins:           admins,
		OfficialChannels: officialChannels,
	}
}

// Run consumes the long-poll update channel until the context ends.
// Each update is handled in its own goroutine; per-user serialization
// happens at the service layer.
func (h *Handler) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := h.Bot.GetUpdatesChan(u)

	log.Printf("✅ Bot polling started as @%s", h.Bot.Self.UserName)
	for {
		select {
		case <-ctx.Done():
			h.Bot.StopReceivingUpdates()
			log.Println("Bot polling stopped")
			return
		case update := <-updates:
			go h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		h.handleMessage(ctx, update.Message)
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			h.start(ctx, msg)
		case "admin":
			h.adminPanel(msg)
		case "game_history":
			h.gameHistory(ctx, msg)
		default:
			h.send(msg.Chat.ID, "Unknown command. Use the menu below.", mainMenu())
		}
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	// Active flows eat the input before menu routing.
	if reply, handled := h.Flows.HandleText(ctx, userID, text); handled {
		switch step, _ := h.Flows.CurrentStep(userID); step {
		case services.StepWithdrawConfirm:
			h.send(msg.Chat.ID, reply, confirmWithdrawKeyboard())
		case services.StepChannelMode:
			h.send(msg.Chat.ID, reply, channelModeKeyboard())
		default:
			h.send(msg.Chat.ID, reply, nil)
		}
		return
	}

	switch text {
	case "📜 Info":
		h.info(ctx, msg)
	case "🎮 Play to Earn":
		h.play(ctx, msg)
	case "🚀 Start Game", "🚀 Play Again":
		h.startGame(ctx, msg)
	case "💰 Balance":
		h.balance(ctx, msg)
	case "💸 Withdraw":
		h.beginWithdraw(ctx, msg)
	case "👥 Referrals":
		h.referrals(ctx, msg)
	case "🎟 Free Tickets":
		if h.requireVerified(ctx, userID, msg.Chat.ID) {
			h.send(msg.Chat.ID, "🎟 Free Tickets:\nEarn more tickets by completing tasks or claiming your daily bonus!", freeTicketsMenu())
		}
	case "🤝 Partners":
		h.partners(ctx, msg)
	case "📋 Missions":
		h.missions(ctx, msg)
	case "🎁 Daily Bonus":
		h.dailyBonus(ctx, msg)
	case "📜 Game History":
		h.gameHistory(ctx, msg)
	case "🏠 Main Menu":
		h.Flows.Cancel(userID)
		if h.Admins[userID] {
			h.send(msg.Chat.ID, "Choose an option:", adminMenu())
		} else {
			h.send(msg.Chat.ID, "Choose an option:", mainMenu())
		}
	case "🔐 Admin Panel":
		h.adminPanel(msg)
	case "➕ Add Partner Channel":
		h.beginAdminFlow(msg, h.Flows.BeginAddChannel)
	case "🗑 Remove Partner Channel":
		h.beginAdminFlow(msg, h.Flows.BeginRemoveChannel)
	case "📢 Broadcast Message":
		h.beginAdminFlow(msg, h.Flows.BeginBroadcast)
	case "📊 View Stats":
		h.stats(ctx, msg)
	}
}

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	data := cb.Data
	switch {
	case data == "verify_membership":
		h.verifyMembership(ctx, cb)
	case data == "rock" || data == "scissors" || data == "paper":
		h.gameChoice(ctx, cb, models.Move(data))
	case strings.HasPrefix(data, "confirm_partner_"):
		h.confirmPartner(ctx, cb, strings.TrimPrefix(data, "confirm_partner_"))
	case strings.HasPrefix(data, "claim_mission_"):
		h.claimMission(ctx, cb, strings.TrimPrefix(data, "claim_mission_"))
	case strings.HasPrefix(data, "mission_info_"):
		h.missionInfo(ctx, cb, strings.TrimPrefix(data, "mission_info_"))
	case strings.HasPrefix(data, "claimed_mission_"):
		h.answerAlert(cb, "✅ This mission is already claimed!")
	case data == "confirm_withdraw":
		h.confirmWithdraw(ctx, cb)
	case data == "membership" || data == "clickcount":
		h.setChannelMode(ctx, cb, models.ChannelMode(data))
	case data == "back_to_free_tickets":
		h.answer(cb, "")
		h.send(cb.Message.Chat.ID, "🎟 Free Tickets:\nEarn more tickets by completing tasks or claiming your daily bonus!", freeTicketsMenu())
	case data == "back_to_main_menu":
		h.answer(cb, "")
		h.send(cb.Message.Chat.ID, "Choose an option:", mainMenu())
	}
}

// --- One-shot actions ---

func (h *Handler) start(ctx context.Context, msg *tgbotapi.Message) {
	var referrerID *int64
	if arg := msg.CommandArguments(); arg != "" {
		var id int64
		if _, err := fmt.Sscanf(arg, "%d", &id); err == nil && id > 0 {
			referrerID = &id
		}
	}

	if err := h.Rewards.RegisterUser(ctx, msg.From.ID, msg.From.UserName, referrerID); err != nil {
		log.Printf("[Bot] failed to register user %d: %v", msg.From.ID, err)
		h.send(msg.Chat.ID, "⚠️ Something went wrong, please try /start again.", nil)
		return
	}

	h.send(msg.Chat.ID,
		fmt.Sprintf("🎉 Welcome, %s! Join Rock-Paper-Scissors and earn $TON! 🚀\nFirst, join our official channels:", msg.From.FirstName),
		verifyKeyboard(h.OfficialChannels))
}

func (h *Handler) verifyMembership(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	userID := cb.From.ID
	res, err := h.Rewards.VerifyAndBonus(ctx, userID)
	if err != nil {
		log.Printf("[Bot] verification failed for %d: %v", userID, err)
		h.answerAlert(cb, "⚠️ Verification failed, try again!")
		return
	}
	if !res.Member {
		h.answerAlert(cb, "⚠️ Please join all channels and try again!")
		return
	}

	if res.FirstVerify {
		h.answerAlert(cb, fmt.Sprintf("✅ Channels verified! +%d tickets added!", res.Bonus))
		h.send(cb.Message.Chat.ID,
			fmt.Sprintf("🔥 Hello, %s! Channels verified! +%d tickets added. You're ready to play! Choose an option:", cb.From.FirstName, res.Bonus),
			mainMenu())
		return
	}
	h.answerAlert(cb, "✅ Channels verified!")
	h.send(cb.Message.Chat.ID, "You're ready to play! Choose an option:", mainMenu())
}

func (h *Handler) info(ctx context.Context, msg *tgbotapi.Message) {
	if !h.requireVerified(ctx, msg.From.ID, msg.Chat.ID) {
		return
	}
	h.send(msg.Chat.ID,
		"📜 About the Game:\n"+
			"Play Rock-Paper-Scissors and earn $TON! 💸\n"+
			fmt.Sprintf("🔹 Each win: +%.2f $TON\n", services.WinReward)+
			"🔹 Tickets needed (referrals: +5, partners: varies, missions: varies)\n"+
			fmt.Sprintf("🔹 Minimum withdrawal: %.2f $TON\n", services.MinWithdrawal)+
			"Explore:\n"+
			"- 🎮 Play to Earn: Challenge opponents!\n"+
			"- 💰 Balance: Check your funds.\n"+
			"- 👥 Referrals: Invite friends!\n"+
			"- 🎟 Free Tickets: Earn more tickets.\n"+
			"- 📜 Game History: View your past games.",
		mainMenu())
}

func (h *Handler) play(ctx context.Context, msg *tgbotapi.Message) {
	if !h.requireVerified(ctx, msg.From.ID, msg.Chat.ID) {
		return
	}
	u, err := h.Store.GetUser(ctx, msg.From.ID)
	if err != nil {
		return
	}
	if u.Tickets <= 0 {
		h.noTickets(msg.Chat.ID, u)
		return
	}
	h.send(msg.Chat.ID,
		fmt.Sprintf("🎮 Play to Earn!\n📊 Your Stats:\n- 🏆 Wins: %d\n- 😔 Losses: %d\n- 🎟 Tickets: %d\nReady to challenge an opponent?",
			u.Wins, u.Losses, u.Tickets),
		playMenu())
}

func (h *Handler) startGame(ctx context.Context, msg *tgbotapi.Message) {
	if !h.requireVerified(ctx, msg.From.ID, msg.Chat.ID) {
		return
	}
	opponent, err := h.Games.StartRound(ctx, msg.From.ID)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientTickets) {
			if u, uerr := h.Store.GetUser(ctx, msg.From.ID); uerr == nil {
				h.noTickets(msg.Chat.ID, u)
			}
			return
		}
		log.Printf("[Bot] failed to start round for %d: %v", msg.From.ID, err)
		return
	}

	h.send(msg.Chat.ID, "🔍 Searching for an opponent... ⏳", nil)
	time.Sleep(time.Duration(3+rand.Intn(3)) * time.Second)
	h.send(msg.Chat.ID, motivationalLines[rand.Intn(len(motivationalLines))], nil)
	h.send(msg.Chat.ID,
		fmt.Sprintf("⚔️ Your opponent: %s! Game on! Choose within 15 seconds! ⏳", opponent),
		moveKeyboard())
}

var motivationalLines = []string{
	"🔥 Get ready to crush your opponent! 💥",
	"💪 Show them who's the boss! 🏆",
	"🚀 Time to win some $TON! 🌟",
	"🎯 Make your move and win big! ⚡",
}

func (h *Handler) gameChoice(ctx context.Context, cb *tgbotapi.CallbackQuery, move models.Move) {
	h.answer(cb, "")
	res, err := h.Games.ResolveChoice(ctx, cb.From.ID, move)
	if err != nil {
		if errors.Is(err, services.ErrNoActiveRound) {
			h.send(cb.Message.Chat.ID, "⚠️ Game expired! Start a new one.", mainMenu())
			return
		}
		log.Printf("[Bot] failed to resolve round for %d: %v", cb.From.ID, err)
		return
	}

	switch res.Outcome {
	case models.OutcomeTie:
		h.send(cb.Message.Chat.ID,
			fmt.Sprintf("⚔️ It's a tie! You chose: %s | Opponent: %s!\nChoose again! 😎",
				title(res.UserMove), title(res.OpponentMove)),
			moveKeyboard())
	case models.OutcomeWin:
		h.send(cb.Message.Chat.ID,
			fmt.Sprintf("🎉 You won! You chose: %s | Opponent: %s\n💰 +%.2f $TON added!",
				title(res.UserMove), title(res.OpponentMove), res.Reward),
			playAgainMenu())
	default:
		h.send(cb.Message.Chat.ID,
			fmt.Sprintf("😔 You lost... You chose: %s | Opponent: %s\nTry again!",
				title(res.UserMove), title(res.OpponentMove)),
			playAgainMenu())
	}
}

func (h *Handler) balance(ctx context.Context, msg *tgbotapi.Message) {
	if !h.requireVerified(ctx, msg.From.ID, msg.Chat.ID) {
		return
	}
	u, err := h.Store.GetUser(ctx, msg.From.ID)
	if err != nil {
		return
	}
	withdrawn, _ := h.Store.SumWithdrawals(ctx, u.UserID, models.WithdrawalStatusCompleted)
	pending, _ := h.Store.SumWithdrawals(ctx, u.UserID, models.WithdrawalStatusPending)

	h.send(msg.Chat.ID,
		fmt.Sprintf("💰 Your Balance:\n- 💸 Main Balance: %.2f $TON\n- ✅ Withdrawn: %.2f $TON\n- ⏳ Pending: %.2f $TON\nWithdraw funds:",
			u.Balance, withdrawn, pending),
		balanceMenu())
}

func (h *Handler) beginWithdraw(ctx context.Context, msg *tgbotapi.Message) {
	if !h.requireVerified(ctx, msg.From.ID, msg.Chat.ID) {
		return
	}
	prompt, err := h.Flows.BeginWithdrawal(ctx, msg.From.ID)
	if err != nil {
		if errors.Is(err, services.ErrNotEligible) {
			h.send(msg.Chat.ID,
				fmt.Sprintf("⚠️ Minimum withdrawal: %.2f $TON. Keep playing!", services.MinWithdrawal),
				mainMenu())
			return
		}
		log.Printf("[Bot] failed to begin withdrawal for %d: %v", msg.From.ID, err)
		return
	}
	h.send(msg.Chat.ID, prompt, nil)
}

func (h *Handler) confirmWithdraw(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	h.answer(cb, "")
	reply, err := h.Flows.ConfirmWithdrawal(ctx, cb.From.ID)
	if err != nil {
		if errors.Is(err, services.ErrNotEligible) {
			h.send(cb.Message.Chat.ID, "⚠️ Nothing to confirm, or your balance no longer covers the amount.", mainMenu())
			return
		}
		log.Printf("[Bot] failed to confirm withdrawal for %d: %v", cb.From.ID, err)
		h.send(cb.Message.Chat.ID, "⚠️ Something went wrong, try again later.", mainMenu())
		return
	}
	h.send(cb.Message.Chat.ID, reply, mainMenu())
}

func (h *Handler) referrals(ctx context.Context, msg *tgbotapi.Message) {
	if !h.requireVerified(ctx, msg.From.ID, msg.Chat.ID) {
		return
	}
	u, err := h.Store.GetUser(ctx, msg.From.ID)
	if err != nil {
		return
	}
	link := fmt.Sprintf("https://t.me/%s?start=%d", h.Bot.Self.UserName, u.UserID)
	h.send(msg.Chat.ID,
		fmt.Sprintf("👥 Referral System:\n📊 Your Referrals: %d\n🎟 +%d tickets per referral (after they join channels)\n📎 Your link: %s\nInvite friends and earn more tickets! 😎",
			u.ReferralCount, services.ReferralBonusTickets, link),
		mainMenu())
}

func (h *Handler) partners(ctx context.Context, msg *tgbotapi.Message) {
	if !h.requireVerified(ctx, msg.From.ID, msg.Chat.ID) {
		return
	}
	u, err := h.Store.GetUser(ctx, msg.From.ID)
	if err != nil {
		return
	}
	channels, err := h.Store.ListPartnerChannels(ctx)
	if err != nil {
		log.Printf("[Bot] failed to list partner channels: %v", err)
		return
	}
	kb := partnersKeyboard(channels, u)
	if len(kb.InlineKeyboard) == 0 {
		h.send(msg.Chat.ID, "🔥 Great! All channels completed! Choose an option:", mainMenu())
		return
	}
	reply := tgbotapi.NewMessage(msg.Chat.ID, "🤝 Partner Channels:\nJoin and earn extra tickets!\nJoin the channels below and confirm:")
	reply.ReplyMarkup = kb
	if _, err := h.Bot.Send(reply); err != nil {
		log.Printf("[Bot] failed to send partner list: %v", err)
	}
}

func (h *Handler) confirmPartner(ctx context.Context, cb *tgbotapi.CallbackQuery, taskID string) {
	ch, err := h.Rewards.ClaimPartnerTask(ctx, cb.From.ID, taskID)
	switch {
	case errors.Is(err, services.ErrAlreadyClaimed):
		h.answerAlert(cb, "⚠️ You've already claimed tickets for this channel!")
	case errors.Is(err, services.ErrNotYetEligible):
		h.answerAlert(cb, "⚠️ Keep clicking to confirm!")
	case errors.Is(err, services.ErrNotEligible):
		h.answerAlert(cb, fmt.Sprintf("⚠️ Please join %s first!", ch.ChannelName))
	case errors.Is(err, services.ErrExternalUnavailable):
		h.answerAlert(cb, "⚠️ Could not verify membership right now, try again!")
	case errors.Is(err, services.ErrNotFound):
		h.answerAlert(cb, "⚠️ Invalid channel!")
	case errors.Is(err, services.ErrNotVerified):
		h.answer(cb, "")
		h.verifyPrompt(cb.Message.Chat.ID)
	case err != nil:
		log.Printf("[Bot] partner claim failed for %d: %v", cb.From.ID, err)
		h.answerAlert(cb, "⚠️ Something went wrong, try again later.")
	default:
		h.answerAlert(cb, fmt.Sprintf("✅ Great! You've completed the task! +%d tickets added!", ch.TicketReward))
		h.refreshPartnerList(ctx, cb)
	}
}

func (h *Handler) refreshPartnerList(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	u, err := h.Store.GetUser(ctx, cb.From.ID)
	if err != nil {
		return
	}
	channels, err := h.Store.ListPartnerChannels(ctx)
	if err != nil {
		return
	}
	kb := partnersKeyboard(channels, u)
	if len(kb.InlineKeyboard) == 0 {
		h.send(cb.Message.Chat.ID, "🔥 Great! All channels completed! Choose an option:", mainMenu())
		return
	}
	edit := tgbotapi.NewEditMessageReplyMarkup(cb.Message.Chat.ID, cb.Message.MessageID, kb)
	if _, err := h.Bot.Request(edit); err != nil {
		log.Printf("[Bot] failed to refresh partner list: %v", err)
	}
}

func (h *Handler) missions(ctx context.Context, msg *tgbotapi.Message) {
	if !h.requireVerified(ctx, msg.From.ID, msg.Chat.ID) {
		return
	}
	u, err := h.Store.GetUser(ctx, msg.From.ID)
	if err != nil {
		return
	}
	text := "📋 Missions:\nComplete these tasks to earn free tickets! 🎟️"
	if allMissionsClaimed(u) {
		text = "📋 Missions:\n🎉 You've completed all missions! Stay tuned for more challenges!"
	}
	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ReplyMarkup = missionsKeyboard(u)
	if _, err := h.Bot.Send(reply); err != nil {
		log.Printf("[Bot] failed to send mission list: %v", err)
	}
}

func allMissionsClaimed(u *models.UserLedger) bool {
	for _, m := range models.DefaultMissions {
		if !models.HasClaimed(u.ClaimedMissions, m.ID) {
			return false
		}
	}
	return true
}

func (h *Handler) claimMission(ctx context.Context, cb *tgbotapi.CallbackQuery, missionID string) {
	mission, err := h.Rewards.ClaimMission(ctx, cb.From.ID, missionID)
	switch {
	case errors.Is(err, services.ErrAlreadyClaimed):
		h.answerAlert(cb, "⚠️ You've already claimed this mission!")
	case errors.Is(err, services.ErrNotEligible):
		h.answerAlert(cb, fmt.Sprintf("⚠️ Mission not yet completed! Need %s.", mission.Title))
	case errors.Is(err, services.ErrNotFound):
		h.answerAlert(cb, "⚠️ Unknown mission!")
	case err != nil:
		log.Printf("[Bot] mission claim failed for %d: %v", cb.From.ID, err)
		h.answerAlert(cb, "⚠️ Something went wrong, try again later.")
	default:
		h.answer(cb, "")
		h.send(cb.Message.Chat.ID,
			fmt.Sprintf("Congratulations! You have completed '%s' and earned +%d tickets! 🎉", mission.Title, mission.Reward),
			nil)
		h.refreshMissionList(ctx, cb)
	}
}

func (h *Handler) missionInfo(ctx context.Context, cb *tgbotapi.CallbackQuery, missionID string) {
	mission, ok := models.MissionByID(missionID)
	if !ok {
		h.answerAlert(cb, "⚠️ Unknown mission!")
		return
	}
	u, err := h.Store.GetUser(ctx, cb.From.ID)
	if err != nil {
		h.answer(cb, "")
		return
	}
	h.answerAlert(cb, fmt.Sprintf("📋 %s\nProgress: %d/%d\nReward: +%d tickets",
		mission.Title, mission.Progress(u), mission.Threshold, mission.Reward))
}

func (h *Handler) refreshMissionList(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	u, err := h.Store.GetUser(ctx, cb.From.ID)
	if err != nil {
		return
	}
	edit := tgbotapi.NewEditMessageReplyMarkup(cb.Message.Chat.ID, cb.Message.MessageID, missionsKeyboard(u))
	if _, err := h.Bot.Request(edit); err != nil {
		log.Printf("[Bot] failed to refresh mission list: %v", err)
	}
}

func (h *Handler) dailyBonus(ctx context.Context, msg *tgbotapi.Message) {
	if !h.requireVerified(ctx, msg.From.ID, msg.Chat.ID) {
		return
	}
	res, err := h.Rewards.ClaimDailyBonus(ctx, msg.From.ID)
	if err != nil {
		if errors.Is(err, services.ErrDailyAlreadyClaimed) {
			if u, uerr := h.Store.GetUser(ctx, msg.From.ID); uerr == nil {
				remaining := h.Rewards.NextDailyBonusIn(u)
				h.send(msg.Chat.ID,
					fmt.Sprintf("⏳ You've already claimed today's bonus! Next bonus in %dh %dm.",
						int(remaining.Hours()), int(remaining.Minutes())%60),
					mainMenu())
			}
			return
		}
		log.Printf("[Bot] daily bonus failed for %d: %v", msg.From.ID, err)
		return
	}

	h.send(msg.Chat.ID,
		"🎁 Daily Bonus:\n"+
			"Claim every day to increase your bonus!\n"+
			"- Day 1: +1 ticket\n- Day 2: +2 tickets\n- Day 3: +3 tickets\n- Day 4: +4 tickets\n- Day 5+: +5 tickets\n"+
			"Miss a day, and it resets to +1 ticket!\n"+
			fmt.Sprintf("✅ You claimed +%d ticket(s)! Current streak: %d day(s).", res.Tickets, res.Streak),
		mainMenu())
}

func (h *Handler) gameHistory(ctx context.Context, msg *tgbotapi.Message) {
	if !h.requireVerified(ctx, msg.From.ID, msg.Chat.ID) {
		return
	}
	games, err := h.Store.RecentGames(ctx, msg.From.ID, 10)
	if err != nil {
		log.Printf("[Bot] failed to load game history for %d: %v", msg.From.ID, err)
		return
	}
	if len(games) == 0 {
		h.send(msg.Chat.ID, "📜 No game history found.", mainMenu())
		return
	}

	var sb strings.Builder
	sb.WriteString("📜 Your Game History (Last 10):\n")
	for _, g := range games {
		you := title(g.UserMove)
		if g.UserMove == models.MoveNone {
			you = "No choice"
		}
		fmt.Fprintf(&sb, "Game ID: %.8s...\nYou: %s | Opponent: %s | Result: %s\nTime: %s\n\n",
			g.ID, you, title(g.OpponentMove), g.Outcome, g.CreatedAt.Format(time.ANSIC))
	}
	h.send(msg.Chat.ID, sb.String(), mainMenu())
}

// --- Admin surface ---

func (h *Handler) adminPanel(msg *tgbotapi.Message) {
	if !h.Admins[msg.From.ID] {
		h.send(msg.Chat.ID, "🚫 Access denied! Only for admins.", nil)
		return
	}
	h.send(msg.Chat.ID, "🔐 Admin Panel: Choose an option:", adminMenu())
}

func (h *Handler) beginAdminFlow(msg *tgbotapi.Message, begin func(int64) (string, error)) {
	prompt, err := begin(msg.From.ID)
	if err != nil {
		h.send(msg.Chat.ID, "🚫 Access denied! Only for admins.", nil)
		return
	}
	h.send(msg.Chat.ID, prompt, nil)
}

func (h *Handler) setChannelMode(ctx context.Context, cb *tgbotapi.CallbackQuery, mode models.ChannelMode) {
	h.answer(cb, "")
	reply, err := h.Flows.SetChannelMode(ctx, cb.From.ID, mode)
	if err != nil {
		log.Printf("[Bot] failed to set channel mode for %d: %v", cb.From.ID, err)
		h.send(cb.Message.Chat.ID, "⚠️ Nothing to configure, start over from the admin panel.", adminMenu())
		return
	}
	h.send(cb.Message.Chat.ID, reply, adminMenu())
}

func (h *Handler) stats(ctx context.Context, msg *tgbotapi.Message) {
	if !h.Admins[msg.From.ID] {
		h.send(msg.Chat.ID, "🚫 Access denied! Only for admins.", nil)
		return
	}
	st, err := h.Store.Stats(ctx)
	if err != nil {
		log.Printf("[Bot] failed to load stats: %v", err)
		return
	}
	h.send(msg.Chat.ID,
		fmt.Sprintf("📊 Bot Statistics:\n👥 Total Users: %d\n🎮 Total Games Played: %d\n💸 Total Withdrawn: %.2f $TON\n🎟 Total Tickets Distributed: %d",
			st.TotalUsers, st.TotalGames, st.TotalWithdrawn, st.TotalTickets),
		adminMenu())
}

// --- Helpers ---

// requireVerified gates gameplay behind official-channel verification.
func (h *Handler) requireVerified(ctx context.Context, userID, chatID int64) bool {
	u, err := h.Store.GetUser(ctx, userID)
	if err != nil || !u.Verified {
		h.verifyPrompt(chatID)
		return false
	}
	return true
}

func (h *Handler) verifyPrompt(chatID int64) {
	h.send(chatID, "⚠️ Please join the official channels and verify first!", verifyKeyboard(h.OfficialChannels))
}

func (h *Handler) noTickets(chatID int64, u *models.UserLedger) {
	link := fmt.Sprintf("https://t.me/%s?start=%d", h.Bot.Self.UserName, u.UserID)
	h.send(chatID,
		fmt.Sprintf("😕 No tickets left! Invite friends (+%d tickets), join partner channels, or complete missions!\n📎 Your referral link: %s",
			services.ReferralBonusTickets, link),
		noTicketsMenu())
}

func (h *Handler) send(chatID int64, text string, markup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := h.Bot.Send(msg); err != nil {
		log.Printf("[Bot] failed to send message to %d: %v", chatID, err)
	}
}

func (h *Handler) answer(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := h.Bot.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		log.Printf("[Bot] failed to answer callback: %v", err)
	}
}

func (h *Handler) answerAlert(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := h.Bot.Request(tgbotapi.NewCallbackWithAlert(cb.ID, text)); err != nil {
		log.Printf("[Bot] failed to answer callback: %v", err)
	}
}

func title(m models.Move) string {
	s := string(m)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
