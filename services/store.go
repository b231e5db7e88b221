package services

import (
	"context"
	"errors"
	"time"

	"ticket-game-bot/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerUpdate is a typed partial update of a user ledger: only non-nil
// fields are written, in a single atomic statement. Operations set the
// fields they may legally change and nothing else.
type LedgerUpdate struct {
	Username            *string
	Balance             *float64
	Tickets             *int
	Wins                *int
	Losses              *int
	TotalGames          *int
	ReferralCount       *int
	ClaimedPartnerTasks *string
	ClaimedMissions     *string
	Verified            *bool
	LastDailyBonus      *time.Time
	DailyStreak         *int
}

// Stats is the admin-facing aggregate snapshot.
type Stats struct {
	TotalUsers     int64   `json:"total_users"`
	TotalGames     int64   `json:"total_games"`
	TotalWithdrawn float64 `json:"total_withdrawn"`
	TotalTickets   int64   `json:"total_tickets"`
}

// LedgerStore is the persistence contract for the economy. It carries no
// business rules; reward/round/flow logic decides, the store writes.
type LedgerStore interface {
	GetUser(ctx context.Context, userID int64) (*models.UserLedger, error)
	CreateUser(ctx context.Context, u *models.UserLedger) error // no-op if the user exists
	ApplyUpdate(ctx context.Context, userID int64, upd LedgerUpdate) error
	ListUserIDs(ctx context.Context) ([]int64, error)

	AppendGame(ctx context.Context, rec *models.GameRecord) error
	RecentGames(ctx context.Context, userID int64, limit int) ([]models.GameRecord, error)

	AppendWithdrawal(ctx context.Context, w *models.Withdrawal) error
	// DebitAndAppendWithdrawal debits the user's balance and inserts the
	// pending withdrawal as one atomic unit, re-checking the balance
	// inside the transaction. Returns ErrNotEligible when the balance no
	// longer covers the amount.
	DebitAndAppendWithdrawal(ctx context.Context, userID int64, w *models.Withdrawal) error
	GetWithdrawal(ctx context.Context, id string) (*models.Withdrawal, error)
	// UpdateWithdrawalStatus transitions id from→to and reports whether the
	// write applied. A false return with nil error means the record was not
	// in the from status; retries are therefore safe without locks.
	UpdateWithdrawalStatus(ctx context.Context, id string, from, to models.WithdrawalStatus) (bool, error)
	PendingWithdrawals(ctx context.Context) ([]models.Withdrawal, error)
	SumWithdrawals(ctx context.Context, userID int64, status models.WithdrawalStatus) (float64, error)

	ListPartnerChannels(ctx context.Context) ([]models.PartnerChannel, error)
	GetPartnerChannel(ctx context.Context, id string) (*models.PartnerChannel, error)
	AddPartnerChannel(ctx context.Context, ch *models.PartnerChannel) error
	RemovePartnerChannel(ctx context.Context, channelName string) (bool, error)

	Stats(ctx context.Context) (Stats, error)
}

// GormStore implements LedgerStore on a gorm handle.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) GetUser(ctx context.Context, userID int64) (*models.UserLedger, error) {
	var u models.UserLedger
	if err := s.DB.WithContext(ctx).First(&u, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *GormStore) CreateUser(ctx context.Context, u *models.UserLedger) error {
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(u).Error
}

func (s *GormStore) ApplyUpdate(ctx context.Context, userID int64, upd LedgerUpdate) error {
	fields := map[string]interface{}{}
	if upd.Username != nil {
		fields["username"] = *upd.Username
	}
	if upd.Balance != nil {
		fields["balance"] = *upd.Balance
	}
	if upd.Tickets != nil {
		fields["tickets"] = *upd.Tickets
	}
	if upd.Wins != nil {
		fields["wins"] = *upd.Wins
	}
	if upd.Losses != nil {
		fields["losses"] = *upd.Losses
	}
	if upd.TotalGames != nil {
		fields["total_games"] = *upd.TotalGames
	}
	if upd.ReferralCount != nil {
		fields["referral_count"] = *upd.ReferralCount
	}
	if upd.ClaimedPartnerTasks != nil {
		fields["claimed_partner_tasks"] = *upd.ClaimedPartnerTasks
	}
	if upd.ClaimedMissions != nil {
		fields["claimed_missions"] = *upd.ClaimedMissions
	}
	if upd.Verified != nil {
		fields["verified"] = *upd.Verified
	}
	if upd.LastDailyBonus != nil {
		fields["last_daily_bonus"] = *upd.LastDailyBonus
	}
	if upd.DailyStreak != nil {
		fields["daily_streak"] = *upd.DailyStreak
	}
	if len(fields) == 0 {
		return nil
	}

	res := s.DB.WithContext(ctx).
		Model(&models.UserLedger{}).
		Where("user_id = ?", userID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ListUserIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.DB.WithContext(ctx).
		Model(&models.UserLedger{}).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (s *GormStore) AppendGame(ctx context.Context, rec *models.GameRecord) error {
	return s.DB.WithContext(ctx).Create(rec).Error
}

func (s *GormStore) RecentGames(ctx context.Context, userID int64, limit int) ([]models.GameRecord, error) {
	var games []models.GameRecord
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&games).Error
	return games, err
}

func (s *GormStore) AppendWithdrawal(ctx context.Context, w *models.Withdrawal) error {
	return s.DB.WithContext(ctx).Create(w).Error
}

func (s *GormStore) DebitAndAppendWithdrawal(ctx context.Context, userID int64, w *models.Withdrawal) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.UserLedger
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&u, "user_id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if w.Amount <= 0 || w.Amount > u.Balance {
			return ErrNotEligible
		}
		if err := tx.Model(&models.UserLedger{}).
			Where("user_id = ?", userID).
			Update("balance", u.Balance-w.Amount).Error; err != nil {
			return err
		}
		return tx.Create(w).Error
	})
}

func (s *GormStore) GetWithdrawal(ctx context.Context, id string) (*models.Withdrawal, error) {
	var w models.Withdrawal
	if err := s.DB.WithContext(ctx).First(&w, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (s *GormStore) UpdateWithdrawalStatus(ctx context.Context, id string, from, to models.WithdrawalStatus) (bool, error) {
	res := s.DB.WithContext(ctx).
		Model(&models.Withdrawal{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) PendingWithdrawals(ctx context.Context) ([]models.Withdrawal, error) {
	var ws []models.Withdrawal
	err := s.DB.WithContext(ctx).
		Where("status = ?", models.WithdrawalStatusPending).
		Find(&ws).Error
	return ws, err
}

func (s *GormStore) SumWithdrawals(ctx context.Context, userID int64, status models.WithdrawalStatus) (float64, error) {
	var sum float64
	err := s.DB.WithContext(ctx).
		Model(&models.Withdrawal{}).
		Where("user_id = ? AND status = ?", userID, status).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return sum, err
}

func (s *GormStore) ListPartnerChannels(ctx context.Context) ([]models.PartnerChannel, error) {
	var chs []models.PartnerChannel
	err := s.DB.WithContext(ctx).
		Order("created_at ASC").
		Find(&chs).Error
	return chs, err
}

func (s *GormStore) GetPartnerChannel(ctx context.Context, id string) (*models.PartnerChannel, error) {
	var ch models.PartnerChannel
	if err := s.DB.WithContext(ctx).First(&ch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ch, nil
}

func (s *GormStore) AddPartnerChannel(ctx context.Context, ch *models.PartnerChannel) error {
	return s.DB.WithContext(ctx).Create(ch).Error
}

func (s *GormStore) RemovePartnerChannel(ctx context.Context, channelName string) (bool, error) {
	res := s.DB.WithContext(ctx).
		Where("channel_name = ?", channelName).
		Delete(&models.PartnerChannel{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	db := s.DB.WithContext(ctx)

	if err := db.Model(&models.UserLedger{}).Count(&st.TotalUsers).Error; err != nil {
		return st, err
	}
	if err := db.Model(&models.UserLedger{}).
		Select("COALESCE(SUM(total_games), 0)").
		Scan(&st.TotalGames).Error; err != nil {
		return st, err
	}
	if err := db.Model(&models.UserLedger{}).
		Select("COALESCE(SUM(tickets), 0)").
		Scan(&st.TotalTickets).Error; err != nil {
		return st, err
	}
	if err := db.Model(&models.Withdrawal{}).
		Where("status = ?", models.WithdrawalStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&st.TotalWithdrawn).Error; err != nil {
		return st, err
	}
	return st, nil
}
