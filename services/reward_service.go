package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"ticket-game-bot/models"
)

// Reward amounts and windows.
const (
	SignupBonusTickets   = 5
	ReferralBonusTickets = 5

	DailyBonusWindow = 24 * time.Hour
	StreakBreakAfter = 48 * time.Hour
	MaxDailyBonus    = 5

	// Click-count tasks default to this many confirmations when the
	// catalog entry does not set its own threshold.
	DefaultClickThreshold = 3
)

// VerifyResult reports the outcome of an official-channel verification.
type VerifyResult struct {
	Member      bool
	FirstVerify bool
	Bonus       int
}

// DailyBonusResult reports a granted daily bonus.
type DailyBonusResult struct {
	Tickets int
	Streak  int
}

// RewardService grants tickets for referrals, partner-channel tasks,
// missions, and the daily bonus. Every grant is idempotent at the ledger
// level: retrying never double-pays.
type RewardService struct {
	Store    LedgerStore
	Oracle   MembershipOracle
	Notifier Notifier

	// OfficialChannels is the fixed channel set gating gameplay.
	OfficialChannels []string

	now    func() time.Time
	locks  *UserLocks
	clicks sync.Map // "userID:taskID" → click count, transient
}

func NewRewardService(store LedgerStore, oracle MembershipOracle, notifier Notifier, officialChannels []string, locks *UserLocks) *RewardService {
	return &RewardService{
		Store:            store,
		Oracle:           oracle,
		Notifier:         notifier,
		OfficialChannels: officialChannels,
		now:              time.Now,
		locks:            locks,
	}
}

// RegisterUser creates the ledger on first contact, optionally linked to
// a referrer. Re-registration and self-referral are no-ops.
func (s *RewardService) RegisterUser(ctx context.Context, userID int64, username string, referrerID *int64) error {
	if referrerID != nil && *referrerID == userID {
		referrerID = nil
	}
	return s.Store.CreateUser(ctx, &models.UserLedger{
		UserID:     userID,
		Username:   username,
		ReferrerID: referrerID,
	})
}

// VerifyAndBonus checks membership of every official channel. The first
// successful verification flips the verified flag and pays the signup
// bonus; if the user was referred, the referrer is paid once as well.
// Later calls re-check membership but grant nothing.
func (s *RewardService) VerifyAndBonus(ctx context.Context, userID int64) (VerifyResult, error) {
	unlock := s.locks.Lock(userID)
	u, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		unlock()
		return VerifyResult{}, err
	}

	for _, ch := range s.OfficialChannels {
		ok, err := s.Oracle.IsMember(ctx, ch, userID)
		if err != nil {
			log.Printf("[Rewards] membership check failed for %s user %d: %v", ch, userID, err)
			ok = false
		}
		if !ok {
			unlock()
			return VerifyResult{Member: false}, nil
		}
	}

	if u.Verified {
		unlock()
		return VerifyResult{Member: true}, nil
	}

	tickets := u.Tickets + SignupBonusTickets
	verified := true
	if err := s.Store.ApplyUpdate(ctx, userID, LedgerUpdate{
		Tickets:  &tickets,
		Verified: &verified,
	}); err != nil {
		unlock()
		return VerifyResult{}, err
	}
	referrerID := u.ReferrerID
	unlock()

	// The verified flag transition above is the single-fire trigger for
	// the referral bonus; the referrer is paid in its own lock scope.
	if referrerID != nil {
		s.grantReferralBonus(ctx, *referrerID)
	}

	return VerifyResult{Member: true, FirstVerify: true, Bonus: SignupBonusTickets}, nil
}

func (s *RewardService) grantReferralBonus(ctx context.Context, referrerID int64) {
	unlock := s.locks.Lock(referrerID)
	defer unlock()

	ref, err := s.Store.GetUser(ctx, referrerID)
	if err != nil {
		log.Printf("[Rewards] referrer %d not found: %v", referrerID, err)
		return
	}
	tickets := ref.Tickets + ReferralBonusTickets
	count := ref.ReferralCount + 1
	if err := s.Store.ApplyUpdate(ctx, referrerID, LedgerUpdate{
		Tickets:       &tickets,
		ReferralCount: &count,
	}); err != nil {
		log.Printf("[Rewards] failed to pay referral bonus to %d: %v", referrerID, err)
		return
	}
	s.Notifier.Send(referrerID, fmt.Sprintf("🎉 New referral joined! +%d tickets added! 🎟", ReferralBonusTickets))
}

// ClaimPartnerTask grants the task's ticket reward once per user. In
// membership mode the oracle must confirm the join; in click-count mode
// each call increments a transient counter until the task's threshold.
// Grant and claimed-set update land in one atomic write.
func (s *RewardService) ClaimPartnerTask(ctx context.Context, userID int64, taskID string) (*models.PartnerChannel, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	u, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.Verified {
		return nil, ErrNotVerified
	}
	ch, err := s.Store.GetPartnerChannel(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if models.HasClaimed(u.ClaimedPartnerTasks, taskID) {
		return ch, ErrAlreadyClaimed
	}

	switch ch.Mode {
	case models.ChannelModeMembership:
		ok, err := s.Oracle.IsMember(ctx, ch.ChannelName, userID)
		if err != nil {
			log.Printf("[Rewards] membership check failed for %s user %d: %v", ch.ChannelName, userID, err)
			return ch, ErrExternalUnavailable
		}
		if !ok {
			return ch, ErrNotEligible
		}
	default: // click count
		threshold := ch.ClickThreshold
		if threshold <= 0 {
			threshold = DefaultClickThreshold
		}
		key := fmt.Sprintf("%d:%s", userID, taskID)
		n, _ := s.clicks.Load(key)
		count, _ := n.(int)
		count++
		if count < threshold {
			s.clicks.Store(key, count)
			return ch, ErrNotYetEligible
		}
		s.clicks.Delete(key)
	}

	tickets := u.Tickets + ch.TicketReward
	claimed := models.WithClaim(u.ClaimedPartnerTasks, taskID)
	if err := s.Store.ApplyUpdate(ctx, userID, LedgerUpdate{
		Tickets:             &tickets,
		ClaimedPartnerTasks: &claimed,
	}); err != nil {
		return ch, err
	}
	return ch, nil
}

// ClaimMission grants a mission reward once the metric threshold is met.
func (s *RewardService) ClaimMission(ctx context.Context, userID int64, missionID string) (models.Mission, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	mission, ok := models.MissionByID(missionID)
	if !ok {
		return models.Mission{}, ErrNotFound
	}
	u, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return mission, err
	}
	if models.HasClaimed(u.ClaimedMissions, missionID) {
		return mission, ErrAlreadyClaimed
	}
	if mission.Progress(u) < mission.Threshold {
		return mission, ErrNotEligible
	}

	tickets := u.Tickets + mission.Reward
	claimed := models.WithClaim(u.ClaimedMissions, missionID)
	if err := s.Store.ApplyUpdate(ctx, userID, LedgerUpdate{
		Tickets:         &tickets,
		ClaimedMissions: &claimed,
	}); err != nil {
		return mission, err
	}
	return mission, nil
}

// ClaimDailyBonus grants the streak bonus once per 24h window. A gap of
// 48h or more resets the streak to zero before it increments; the grant
// is min(max(streak,1),5) tickets.
func (s *RewardService) ClaimDailyBonus(ctx context.Context, userID int64) (DailyBonusResult, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	u, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return DailyBonusResult{}, err
	}
	now := s.now()

	if u.LastDailyBonus != nil && now.Sub(*u.LastDailyBonus) < DailyBonusWindow {
		return DailyBonusResult{Streak: u.DailyStreak}, ErrDailyAlreadyClaimed
	}

	streak := u.DailyStreak
	if u.LastDailyBonus == nil || now.Sub(*u.LastDailyBonus) >= StreakBreakAfter {
		streak = 0
	}
	streak++

	bonus := streak
	if bonus > MaxDailyBonus {
		bonus = MaxDailyBonus
	}

	tickets := u.Tickets + bonus
	if err := s.Store.ApplyUpdate(ctx, userID, LedgerUpdate{
		Tickets:        &tickets,
		LastDailyBonus: &now,
		DailyStreak:    &streak,
	}); err != nil {
		return DailyBonusResult{}, err
	}
	return DailyBonusResult{Tickets: bonus, Streak: streak}, nil
}

// NextDailyBonusIn reports how long until the user may claim again.
func (s *RewardService) NextDailyBonusIn(u *models.UserLedger) time.Duration {
	if u.LastDailyBonus == nil {
		return 0
	}
	remaining := DailyBonusWindow - s.now().Sub(*u.LastDailyBonus)
	if remaining < 0 {
		return 0
	}
	return remaining
}
