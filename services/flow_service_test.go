package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"ticket-game-bot/models"
)

func newTestFlows(t *testing.T, store *fakeStore, notifier *fakeNotifier, admins map[int64]bool) (*FlowService, *fakeBroadcaster) {
	t.Helper()
	settlement, err := NewSettlementScheduler(store, notifier)
	if err != nil {
		t.Fatalf("new settlement scheduler: %v", err)
	}
	t.Cleanup(settlement.Stop)
	broadcaster := &fakeBroadcaster{audience: 3}
	return NewFlowService(store, notifier, settlement, broadcaster, admins, NewUserLocks()), broadcaster
}

func TestWithdrawalFlowHappyPath(t *testing.T) {
	store := newFakeStore()
	store.addUser(models.UserLedger{UserID: 1, Verified: true, Balance: 1.0})
	flows, _ := newTestFlows(t, store, newFakeNotifier(), nil)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	flows.now = func() time.Time { return base }

	if _, err := flows.BeginWithdrawal(context.Background(), 1); err != nil {
		t.Fatalf("begin: %v", err)
	}

	reply, handled := flows.HandleText(context.Background(), 1, "0.5")
	if !handled || !strings.Contains(reply, "address") {
		t.Fatalf("expected address prompt, got %q handled=%v", reply, handled)
	}
	reply, handled = flows.HandleText(context.Background(), 1, "EQWalletAddress")
	if !handled || !strings.Contains(reply, "Confirm") {
		t.Fatalf("expected confirmation prompt, got %q handled=%v", reply, handled)
	}
	if step, ok := flows.CurrentStep(1); !ok || step != StepWithdrawConfirm {
		t.Fatalf("expected StepWithdrawConfirm, got %v ok=%v", step, ok)
	}

	if _, err := flows.ConfirmWithdrawal(context.Background(), 1); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	u := store.user(1)
	if math.Abs(u.Balance-0.5) > 1e-9 {
		t.Fatalf("expected balance 0.5 after debit, got %v", u.Balance)
	}
	pending, err := store.PendingWithdrawals(context.Background())
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected exactly one pending withdrawal, got %d", len(pending))
	}
	w := pending[0]
	if w.UserID != 1 || w.Amount != 0.5 || w.Address != "EQWalletAddress" {
		t.Fatalf("unexpected withdrawal record: %+v", w)
	}
	if !w.MaturesAt.Equal(base.Add(MaturationDelay)) {
		t.Fatalf("expected maturity %v, got %v", base.Add(MaturationDelay), w.MaturesAt)
	}
	if _, ok := flows.CurrentStep(1); ok {
		t.Fatal("flow must end after confirmation")
	}
}

func TestWithdrawalFlowRepromptsOnBadInput(t *testing.T) {
	store := newFakeStore()
	store.addUser(models.UserLedger{UserID: 1, Verified: true, Balance: 1.0})
	flows, _ := newTestFlows(t, store, newFakeNotifier(), nil)

	if _, err := flows.BeginWithdrawal(context.Background(), 1); err != nil {
		t.Fatalf("begin: %v", err)
	}

	for _, input := range []string{"abc", "-1", "0.1", "5"} {
		if _, handled := flows.HandleText(context.Background(), 1, input); !handled {
			t.Fatalf("input %q must be handled by the flow", input)
		}
		if step, _ := flows.CurrentStep(1); step != StepWithdrawAmount {
			t.Fatalf("input %q must re-prompt the amount step, got %v", input, step)
		}
	}
	if u := store.user(1); u.Balance != 1.0 {
		t.Fatal("invalid input must never touch the balance")
	}
}

func TestWithdrawalFlowGates(t *testing.T) {
	store := newFakeStore()
	store.addUser(models.UserLedger{UserID: 1, Verified: true, Balance: 0.2})
	store.addUser(models.UserLedger{UserID: 2, Balance: 5})
	flows, _ := newTestFlows(t, store, newFakeNotifier(), nil)

	if _, err := flows.BeginWithdrawal(context.Background(), 1); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible below the minimum, got %v", err)
	}
	if _, err := flows.BeginWithdrawal(context.Background(), 2); !errors.Is(err, ErrNotVerified) {
		t.Fatalf("expected ErrNotVerified, got %v", err)
	}
	if _, err := flows.ConfirmWithdrawal(context.Background(), 1); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible without an active flow, got %v", err)
	}
}

func TestWithdrawalFlowAbandonment(t *testing.T) {
	store := newFakeStore()
	store.addUser(models.UserLedger{UserID: 1, Verified: true, Balance: 1.0})
	flows, _ := newTestFlows(t, store, newFakeNotifier(), nil)

	if _, err := flows.BeginWithdrawal(context.Background(), 1); err != nil {
		t.Fatalf("begin: %v", err)
	}
	flows.HandleText(context.Background(), 1, "0.5")
	flows.Cancel(1)

	if _, handled := flows.HandleText(context.Background(), 1, "EQWalletAddress"); handled {
		t.Fatal("cancelled flow must not consume input")
	}
	if u := store.user(1); u.Balance != 1.0 {
		t.Fatal("abandonment must leave the ledger untouched")
	}
	if pending, _ := store.PendingWithdrawals(context.Background()); len(pending) != 0 {
		t.Fatal("abandonment must not create a withdrawal")
	}
}

func TestWithdrawalFlowConcurrentInput(t *testing.T) {
	store := newFakeStore()
	store.addUser(models.UserLedger{UserID: 1, Verified: true, Balance: 1.0})
	flows, _ := newTestFlows(t, store, newFakeNotifier(), nil)

	if _, err := flows.BeginWithdrawal(context.Background(), 1); err != nil {
		t.Fatalf("begin: %v", err)
	}

	// The dispatcher handles each update in its own goroutine; a burst of
	// messages from one user must serialize instead of corrupting the flow.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, handled := flows.HandleText(context.Background(), 1, "0.5"); !handled {
				t.Error("active flow must consume the input")
			}
		}()
	}
	wg.Wait()

	// Serialized, the burst lands on the confirm step: the first input is
	// the amount, the second becomes the address, the rest re-prompt.
	step, ok := flows.CurrentStep(1)
	if !ok || step != StepWithdrawConfirm {
		t.Fatalf("expected StepWithdrawConfirm after the burst, got %v ok=%v", step, ok)
	}
	if u := store.user(1); u.Balance != 1.0 {
		t.Fatalf("no input may touch the balance before confirmation, got %v", u.Balance)
	}

	if _, err := flows.ConfirmWithdrawal(context.Background(), 1); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	pending, _ := store.PendingWithdrawals(context.Background())
	if len(pending) != 1 || pending[0].Amount != 0.5 {
		t.Fatalf("expected one 0.5 withdrawal, got %+v", pending)
	}
}

func TestAddChannelFlow(t *testing.T) {
	store := newFakeStore()
	store.addUser(models.UserLedger{UserID: 7})
	notifier := newFakeNotifier()
	flows, broadcaster := newTestFlows(t, store, notifier, map[int64]bool{7: true})

	if _, err := flows.BeginAddChannel(1); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible for non-admin, got %v", err)
	}
	if _, err := flows.BeginAddChannel(7); err != nil {
		t.Fatalf("begin: %v", err)
	}

	if reply, _ := flows.HandleText(context.Background(), 7, "NoAtSign"); !strings.Contains(reply, "Invalid") {
		t.Fatalf("expected a name re-prompt, got %q", reply)
	}
	flows.HandleText(context.Background(), 7, "@NewPartner")
	if reply, _ := flows.HandleText(context.Background(), 7, "zero"); !strings.Contains(reply, "Invalid") {
		t.Fatalf("expected a reward re-prompt, got %q", reply)
	}
	flows.HandleText(context.Background(), 7, "2")
	if step, _ := flows.CurrentStep(7); step != StepChannelMode {
		t.Fatalf("expected StepChannelMode, got %v", step)
	}

	reply, err := flows.SetChannelMode(context.Background(), 7, models.ChannelModeClickCount)
	if err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if !strings.Contains(reply, "@NewPartner") {
		t.Fatalf("unexpected reply: %q", reply)
	}

	channels, _ := store.ListPartnerChannels(context.Background())
	if len(channels) != 1 {
		t.Fatalf("expected one channel, got %d", len(channels))
	}
	ch := channels[0]
	if ch.ChannelName != "@NewPartner" || ch.TicketReward != 2 || ch.Mode != models.ChannelModeClickCount {
		t.Fatalf("unexpected channel: %+v", ch)
	}
	if len(broadcaster.messages) != 1 {
		t.Fatalf("expected one announcement broadcast, got %d", len(broadcaster.messages))
	}
	if _, err := flows.SetChannelMode(context.Background(), 7, models.ChannelModeClickCount); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible after the flow ended, got %v", err)
	}
}

func TestRemoveChannelFlow(t *testing.T) {
	store := newFakeStore()
	store.channels["task-1"] = &models.PartnerChannel{ID: "task-1", ChannelName: "@OldPartner", TicketReward: 1}
	flows, _ := newTestFlows(t, store, newFakeNotifier(), map[int64]bool{7: true})

	if _, err := flows.BeginRemoveChannel(7); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if reply, _ := flows.HandleText(context.Background(), 7, "@Missing"); !strings.Contains(reply, "not found") {
		t.Fatalf("expected not-found reply, got %q", reply)
	}

	if _, err := flows.BeginRemoveChannel(7); err != nil {
		t.Fatalf("re-begin: %v", err)
	}
	if reply, _ := flows.HandleText(context.Background(), 7, "@OldPartner"); !strings.Contains(reply, "removed") {
		t.Fatalf("expected removal reply, got %q", reply)
	}
	if channels, _ := store.ListPartnerChannels(context.Background()); len(channels) != 0 {
		t.Fatal("channel must be gone")
	}
}

func TestBroadcastFlow(t *testing.T) {
	store := newFakeStore()
	flows, broadcaster := newTestFlows(t, store, newFakeNotifier(), map[int64]bool{7: true})

	if _, err := flows.BeginBroadcast(7); err != nil {
		t.Fatalf("begin: %v", err)
	}
	reply, handled := flows.HandleText(context.Background(), 7, "Big update coming!")
	if !handled || !strings.Contains(reply, "3 users") {
		t.Fatalf("expected a sent-count reply, got %q handled=%v", reply, handled)
	}
	if len(broadcaster.messages) != 1 || broadcaster.messages[0] != "Big update coming!" {
		t.Fatalf("unexpected broadcast: %+v", broadcaster.messages)
	}
	if _, ok := flows.CurrentStep(7); ok {
		t.Fatal("broadcast flow must end after sending")
	}
}
