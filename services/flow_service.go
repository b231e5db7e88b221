package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"ticket-game-bot/models"

	"github.com/google/uuid"
)

// MinWithdrawal is the smallest accepted withdrawal amount.
const MinWithdrawal = 0.35

// FlowName identifies a multi-step conversational flow.
type FlowName string

const (
	FlowWithdraw      FlowName = "withdraw"
	FlowAddChannel    FlowName = "add_channel"
	FlowRemoveChannel FlowName = "remove_channel"
	FlowBroadcast     FlowName = "broadcast"
)

// FlowStep is a named state within a flow.
type FlowStep string

const (
	StepWithdrawAmount  FlowStep = "withdraw_amount"
	StepWithdrawAddress FlowStep = "withdraw_address"
	StepWithdrawConfirm FlowStep = "withdraw_confirm"

	StepChannelName   FlowStep = "channel_name"
	StepChannelReward FlowStep = "channel_reward"
	StepChannelMode   FlowStep = "channel_mode"

	StepRemoveChannelName FlowStep = "remove_channel_name"
	StepBroadcastText     FlowStep = "broadcast_text"
)

// Flow is the state-machine value object: the current step plus the
// fields accumulated so far. Ledger mutation happens only at the
// terminal transition, so an abandoned flow leaves no side effect.
type Flow struct {
	Name   FlowName
	Step   FlowStep
	Fields map[string]string
}

// Broadcaster fans a message out to every known user, best-effort.
type Broadcaster interface {
	SendToAll(ctx context.Context, text string) int
}

// FlowService drives the multi-step conversational flows: withdrawal
// requests and the admin channel/broadcast flows. Input with no matching
// transition re-prompts the current step instead of aborting.
type FlowService struct {
	Store       LedgerStore
	Notifier    Notifier
	Settlement  *SettlementScheduler
	Broadcaster Broadcaster
	Admins      map[int64]bool

	now   func() time.Time
	locks *UserLocks

	mu    sync.Mutex
	flows map[int64]*Flow
}

func NewFlowService(store LedgerStore, notifier Notifier, settlement *SettlementScheduler, broadcaster Broadcaster, admins map[int64]bool, locks *UserLocks) *FlowService {
	return &FlowService{
		Store:       store,
		Notifier:    notifier,
		Settlement:  settlement,
		Broadcaster: broadcaster,
		Admins:      admins,
		now:         time.Now,
		locks:       locks,
		flows:       make(map[int64]*Flow),
	}
}

// CurrentStep returns the user's active flow step, if any.
func (s *FlowService) CurrentStep(userID int64) (FlowStep, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.flows[userID]; ok {
		return f.Step, true
	}
	return "", false
}

// Cancel abandons the active flow. Nothing is rolled back because
// nothing was written.
func (s *FlowService) Cancel(userID int64) {
	s.mu.Lock()
	delete(s.flows, userID)
	s.mu.Unlock()
}

func (s *FlowService) begin(userID int64, f *Flow) {
	s.mu.Lock()
	s.flows[userID] = f
	s.mu.Unlock()
}

// BeginWithdrawal starts the withdrawal flow. The balance must reach the
// withdrawal minimum before the flow opens at all.
func (s *FlowService) BeginWithdrawal(ctx context.Context, userID int64) (string, error) {
	u, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if !u.Verified {
		return "", ErrNotVerified
	}
	if u.Balance < MinWithdrawal {
		return "", fmt.Errorf("%w: minimum withdrawal is %.2f", ErrNotEligible, MinWithdrawal)
	}
	s.begin(userID, &Flow{Name: FlowWithdraw, Step: StepWithdrawAmount, Fields: map[string]string{}})
	return "💸 Enter amount (e.g., 0.35):", nil
}

// BeginAddChannel starts the admin add-partner-channel flow.
func (s *FlowService) BeginAddChannel(userID int64) (string, error) {
	if !s.Admins[userID] {
		return "", ErrNotEligible
	}
	s.begin(userID, &Flow{Name: FlowAddChannel, Step: StepChannelName, Fields: map[string]string{}})
	return "➕ Enter the partner channel name (e.g., @ChannelName):", nil
}

// BeginRemoveChannel starts the admin remove-partner-channel flow.
func (s *FlowService) BeginRemoveChannel(userID int64) (string, error) {
	if !s.Admins[userID] {
		return "", ErrNotEligible
	}
	s.begin(userID, &Flow{Name: FlowRemoveChannel, Step: StepRemoveChannelName, Fields: map[string]string{}})
	return "🗑 Enter the partner channel name to remove (e.g., @ChannelName):", nil
}

// BeginBroadcast starts the admin broadcast flow.
func (s *FlowService) BeginBroadcast(userID int64) (string, error) {
	if !s.Admins[userID] {
		return "", ErrNotEligible
	}
	s.begin(userID, &Flow{Name: FlowBroadcast, Step: StepBroadcastText, Fields: map[string]string{}})
	return "📢 Enter the message to broadcast to all users:", nil
}

// HandleText feeds a text input to the active flow. The second return is
// false when no flow is active for the user. Invalid input re-prompts
// within the same step.
//
// Transitions run under the user's lock: the dispatcher handles each
// update in its own goroutine, so two quick messages from the same user
// would otherwise mutate the same Flow concurrently.
func (s *FlowService) HandleText(ctx context.Context, userID int64, text string) (string, bool) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	s.mu.Lock()
	flow, ok := s.flows[userID]
	s.mu.Unlock()
	if !ok {
		return "", false
	}

	text = strings.TrimSpace(text)

	switch flow.Step {
	case StepWithdrawAmount:
		amount, err := strconv.ParseFloat(text, 64)
		if err != nil || amount <= 0 {
			return "🚫 Invalid amount! Enter a number (e.g., 0.35).", true
		}
		if amount < MinWithdrawal {
			return fmt.Sprintf("⚠️ Minimum withdrawal is %.2f $TON!", MinWithdrawal), true
		}
		u, err := s.Store.GetUser(ctx, userID)
		if err != nil {
			return "⚠️ Something went wrong, try again later.", true
		}
		if amount > u.Balance {
			return "🚫 Insufficient funds! Enter a smaller amount.", true
		}
		flow.Fields["amount"] = text
		flow.Step = StepWithdrawAddress
		return "📤 Enter your TON wallet address:", true

	case StepWithdrawAddress:
		if text == "" {
			return "🚫 Address cannot be empty. Enter your TON wallet address:", true
		}
		flow.Fields["address"] = text
		flow.Step = StepWithdrawConfirm
		amount, _ := strconv.ParseFloat(flow.Fields["amount"], 64)
		return fmt.Sprintf("📤 Withdrawal: %.2f $TON\nWallet: %s\nConfirm:", amount, text), true

	case StepWithdrawConfirm:
		// Confirmation is a button press, not text.
		return "⬆️ Use the Confirm button above to finish your withdrawal.", true

	case StepChannelName:
		if !strings.HasPrefix(text, "@") {
			return "🚫 Invalid channel name. It must start with @ (e.g., @ChannelName).", true
		}
		flow.Fields["channel"] = text
		flow.Step = StepChannelReward
		return "🎟 Enter the ticket reward for this channel (e.g., 2):", true

	case StepChannelReward:
		reward, err := strconv.Atoi(text)
		if err != nil {
			return "🚫 Invalid number. Please enter a valid ticket reward.", true
		}
		if reward <= 0 {
			return "🚫 Ticket reward must be a positive number.", true
		}
		flow.Fields["reward"] = text
		flow.Step = StepChannelMode
		return "📋 Which method do you choose for this channel? Membership check or Click Count?", true

	case StepChannelMode:
		return "⬆️ Use the buttons above to pick a verification method.", true

	case StepRemoveChannelName:
		if !strings.HasPrefix(text, "@") {
			return "🚫 Invalid channel name. It must start with @ (e.g., @ChannelName).", true
		}
		s.Cancel(userID)
		removed, err := s.Store.RemovePartnerChannel(ctx, text)
		if err != nil {
			log.Printf("[Flows] failed to remove channel %s: %v", text, err)
			return "⚠️ Something went wrong, try again later.", true
		}
		if !removed {
			return fmt.Sprintf("⚠️ %s not found. Please enter a valid name.", text), true
		}
		return fmt.Sprintf("✅ %s partner channel removed!", text), true

	case StepBroadcastText:
		if text == "" {
			return "🚫 Message cannot be empty.", true
		}
		s.Cancel(userID)
		sent := s.Broadcaster.SendToAll(ctx, text)
		return fmt.Sprintf("✅ Broadcast sent to %d users!", sent), true
	}

	return "", false
}

// ConfirmWithdrawal is the terminal transition of the withdrawal flow:
// it debits the balance, inserts the pending record, and schedules
// settlement — the ledger's one and only mutation in the whole flow.
func (s *FlowService) ConfirmWithdrawal(ctx context.Context, userID int64) (string, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	s.mu.Lock()
	flow, ok := s.flows[userID]
	if !ok || flow.Step != StepWithdrawConfirm {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: no withdrawal awaiting confirmation", ErrNotEligible)
	}
	delete(s.flows, userID)
	s.mu.Unlock()

	amount, err := strconv.ParseFloat(flow.Fields["amount"], 64)
	if err != nil || amount <= 0 {
		return "", fmt.Errorf("%w: bad amount", ErrNotEligible)
	}
	address := flow.Fields["address"]

	w := &models.Withdrawal{
		ID:        uuid.NewString(),
		UserID:    userID,
		Amount:    amount,
		Address:   address,
		Status:    models.WithdrawalStatusPending,
		MaturesAt: s.now().Add(s.Settlement.Delay),
	}
	if err := s.Store.DebitAndAppendWithdrawal(ctx, userID, w); err != nil {
		return "", err
	}
	s.Settlement.Schedule(w.ID, w.MaturesAt)

	return fmt.Sprintf("✅ Request accepted! %.2f $TON will be sent to %s within 24 hours.", amount, address), nil
}

// SetChannelMode is the terminal transition of the add-channel flow: it
// inserts the catalog row and fans the announcement out to all users.
func (s *FlowService) SetChannelMode(ctx context.Context, userID int64, mode models.ChannelMode) (string, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	s.mu.Lock()
	flow, ok := s.flows[userID]
	if !ok || flow.Step != StepChannelMode {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: no channel awaiting a mode", ErrNotEligible)
	}
	delete(s.flows, userID)
	s.mu.Unlock()

	reward, _ := strconv.Atoi(flow.Fields["reward"])
	ch := &models.PartnerChannel{
		ID:           uuid.NewString(),
		ChannelName:  flow.Fields["channel"],
		TicketReward: reward,
		Mode:         mode,
	}
	if err := s.Store.AddPartnerChannel(ctx, ch); err != nil {
		return "", err
	}

	sent := s.Broadcaster.SendToAll(ctx,
		fmt.Sprintf("📢 New Partner Channel! Join %s and earn %d tickets! 🚀", ch.ChannelName, ch.TicketReward))

	return fmt.Sprintf("✅ Partner channel %s added with %d ticket reward! Notified %d users.",
		ch.ChannelName, ch.TicketReward, sent), nil
}
