package services

import (
	"context"
	"fmt"
	"sync"

	"ticket-game-bot/models"
)

// fakeStore is an in-memory LedgerStore mirroring the conditional-write
// semantics of the real one.
type fakeStore struct {
	mu          sync.Mutex
	users       map[int64]*models.UserLedger
	games       []models.GameRecord
	withdrawals map[string]*models.Withdrawal
	channels    map[string]*models.PartnerChannel
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       make(map[int64]*models.UserLedger),
		withdrawals: make(map[string]*models.Withdrawal),
		channels:    make(map[string]*models.PartnerChannel),
	}
}

func (s *fakeStore) addUser(u models.UserLedger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.UserID] = &u
}

func (s *fakeStore) user(userID int64) models.UserLedger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.users[userID]
}

func (s *fakeStore) GetUser(ctx context.Context, userID int64) (*models.UserLedger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	copy := *u
	return &copy, nil
}

func (s *fakeStore) CreateUser(ctx context.Context, u *models.UserLedger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.UserID]; ok {
		return nil
	}
	copy := *u
	s.users[u.UserID] = &copy
	return nil
}

func (s *fakeStore) ApplyUpdate(ctx context.Context, userID int64, upd LedgerUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.Balance != nil {
		u.Balance = *upd.Balance
	}
	if upd.Tickets != nil {
		u.Tickets = *upd.Tickets
	}
	if upd.Wins != nil {
		u.Wins = *upd.Wins
	}
	if upd.Losses != nil {
		u.Losses = *upd.Losses
	}
	if upd.TotalGames != nil {
		u.TotalGames = *upd.TotalGames
	}
	if upd.ReferralCount != nil {
		u.ReferralCount = *upd.ReferralCount
	}
	if upd.ClaimedPartnerTasks != nil {
		u.ClaimedPartnerTasks = *upd.ClaimedPartnerTasks
	}
	if upd.ClaimedMissions != nil {
		u.ClaimedMissions = *upd.ClaimedMissions
	}
	if upd.Verified != nil {
		u.Verified = *upd.Verified
	}
	if upd.LastDailyBonus != nil {
		t := *upd.LastDailyBonus
		u.LastDailyBonus = &t
	}
	if upd.DailyStreak != nil {
		u.DailyStreak = *upd.DailyStreak
	}
	return nil
}

func (s *fakeStore) ListUserIDs(ctx context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *fakeStore) AppendGame(ctx context.Context, rec *models.GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games = append(s.games, *rec)
	return nil
}

func (s *fakeStore) RecentGames(ctx context.Context, userID int64, limit int) ([]models.GameRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.GameRecord
	for i := len(s.games) - 1; i >= 0 && len(out) < limit; i-- {
		if s.games[i].UserID == userID {
			out = append(out, s.games[i])
		}
	}
	return out, nil
}

func (s *fakeStore) AppendWithdrawal(ctx context.Context, w *models.Withdrawal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy := *w
	s.withdrawals[w.ID] = &copy
	return nil
}

func (s *fakeStore) DebitAndAppendWithdrawal(ctx context.Context, userID int64, w *models.Withdrawal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	if w.Amount <= 0 || w.Amount > u.Balance {
		return fmt.Errorf("%w: balance no longer covers withdrawal", ErrNotEligible)
	}
	u.Balance -= w.Amount
	copy := *w
	s.withdrawals[w.ID] = &copy
	return nil
}

func (s *fakeStore) GetWithdrawal(ctx context.Context, id string) (*models.Withdrawal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.withdrawals[id]
	if !ok {
		return nil, ErrNotFound
	}
	copy := *w
	return &copy, nil
}

func (s *fakeStore) UpdateWithdrawalStatus(ctx context.Context, id string, from, to models.WithdrawalStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.withdrawals[id]
	if !ok || w.Status != from {
		return false, nil
	}
	w.Status = to
	return true, nil
}

func (s *fakeStore) PendingWithdrawals(ctx context.Context) ([]models.Withdrawal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Withdrawal
	for _, w := range s.withdrawals {
		if w.Status == models.WithdrawalStatusPending {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (s *fakeStore) SumWithdrawals(ctx context.Context, userID int64, status models.WithdrawalStatus) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum float64
	for _, w := range s.withdrawals {
		if w.UserID == userID && w.Status == status {
			sum += w.Amount
		}
	}
	return sum, nil
}

func (s *fakeStore) ListPartnerChannels(ctx context.Context) ([]models.PartnerChannel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PartnerChannel
	for _, ch := range s.channels {
		out = append(out, *ch)
	}
	return out, nil
}

func (s *fakeStore) GetPartnerChannel(ctx context.Context, id string) (*models.PartnerChannel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.channels[id]
	if !ok {
		return nil, ErrNotFound
	}
	copy := *ch
	return &copy, nil
}

func (s *fakeStore) AddPartnerChannel(ctx context.Context, ch *models.PartnerChannel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy := *ch
	s.channels[ch.ID] = &copy
	return nil
}

func (s *fakeStore) RemovePartnerChannel(ctx context.Context, channelName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.channels {
		if ch.ChannelName == channelName {
			delete(s.channels, id)
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var st Stats
	st.TotalUsers = int64(len(s.users))
	for _, u := range s.users {
		st.TotalGames += int64(u.TotalGames)
		st.TotalTickets += int64(u.Tickets)
	}
	for _, w := range s.withdrawals {
		if w.Status == models.WithdrawalStatusCompleted {
			st.TotalWithdrawn += w.Amount
		}
	}
	return st, nil
}

// fakeOracle answers membership checks from a fixed map; missing entries
// are not members. A non-nil err fails every check.
type fakeOracle struct {
	members map[string]bool // "channel:userID"
	err     error
}

func (o *fakeOracle) IsMember(ctx context.Context, channel string, userID int64) (bool, error) {
	if o.err != nil {
		return false, o.err
	}
	return o.members[fmt.Sprintf("%s:%d", channel, userID)], nil
}

func (o *fakeOracle) admit(channel string, userID int64) {
	if o.members == nil {
		o.members = make(map[string]bool)
	}
	o.members[fmt.Sprintf("%s:%d", channel, userID)] = true
}

// fakeNotifier records every outbound message.
type fakeNotifier struct {
	mu       sync.Mutex
	direct   map[int64][]string
	channels map[string][]string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		direct:   make(map[int64][]string),
		channels: make(map[string][]string),
	}
}

func (n *fakeNotifier) Send(userID int64, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.direct[userID] = append(n.direct[userID], text)
}

func (n *fakeNotifier) SendToChannel(channel, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.channels[channel] = append(n.channels[channel], text)
}

func (n *fakeNotifier) sentTo(userID int64) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.direct[userID]
}

// fakeBroadcaster counts fan-outs instead of sending them.
type fakeBroadcaster struct {
	mu       sync.Mutex
	messages []string
	audience int
}

func (b *fakeBroadcaster) SendToAll(ctx context.Context, text string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, text)
	return b.audience
}
