package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invest_platform/internal/domain"
	"invest_platform/internal/metrics"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReferredUser is the public view of a direct referral
type ReferredUser struct {
	ID            uint      `json:"id"`
	Username      string    `json:"username"`
	Status        string    `json:"status"`
	TotalDeposits float64   `json:"totalDeposits"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ReferralSummary backs the referral page
type ReferralSummary struct {
	Referral  *domain.Referral `json:"referral"`
	Referrals []ReferredUser   `json:"referrals"`
}

// ReferralService keeps Referral rows in line with the User fields they mirror
type ReferralService struct {
	db       *gorm.DB
	settings *SettingsProvider
	metrics  *metrics.Metrics
}

func NewReferralService(db *gorm.DB, settings *SettingsProvider, m *metrics.Metrics) *ReferralService {
	return &ReferralService{db: db, settings: settings, metrics: m}
}

func (s *ReferralService) counts(db *gorm.DB, userID uint) (total, active int64, err error) {
	if err = db.Model(&domain.User{}).Where("referred_by_id = ?", userID).Count(&total).Error; err != nil {
		return
	}
	err = db.Model(&domain.User{}).
		Where("referred_by_id = ? AND status = ? AND total_deposits > 0", userID, domain.UserStatusApproved).
		Count(&active).Error
	return
}

func (s *ReferralService) find(db *gorm.DB, userID uint) (*domain.Referral, error) {
	var ref domain.Referral
	err := db.Where("user_id = ?", userID).First(&ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

func sameUintPtr(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// EnsureSynced makes sure the referral row exists and mirrors the user's fields.
// Nothing is written when the row already matches. Users without a referral code have no row.
func (s *ReferralService) EnsureSynced(ctx context.Context, userID uint) (*domain.Referral, error) {
	db := s.db.WithContext(ctx)
	user, err := loadUser(db, userID)
	if err != nil {
		return nil, err
	}
	ref, err := s.find(db, userID)
	if err != nil {
		return nil, err
	}

	code := user.ReferralCodeValue()
	if ref == nil {
		if code == "" {
			return nil, nil
		}
		total, active, err := s.counts(db, userID)
		if err != nil {
			return nil, err
		}
		settings := s.settings.Get()
		now := time.Now().UTC()
		row := domain.Referral{
			UserID:           userID,
			ReferralCode:     code,
			ReferredByID:     user.ReferredByID,
			ReferralsCount:   total,
			ActiveReferrals:  active,
			TotalCommission:  user.TotalCommission,
			ReferralEarnings: user.ReferralEarnings,
			Level1Rate:       settings.ReferralCommissionPercent,
			Level2Rate:       settings.ReferralLevel2Percent,
			LastSyncedAt:     &now,
		}
		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			// another reader created it first
			ref, err = s.find(db, userID)
			if err != nil {
				return nil, err
			}
			if ref == nil {
				return nil, fmt.Errorf("referral for user %d: insert conflicted but row not found", userID)
			}
			return ref, nil
		}
		s.metrics.ObserveReferralRepair("created")
		return &row, nil
	}

	updates := map[string]any{}
	if code != "" && ref.ReferralCode != code {
		updates["referral_code"] = code
	}
	if ref.TotalCommission != user.TotalCommission {
		updates["total_commission"] = user.TotalCommission
	}
	if ref.ReferralEarnings != user.ReferralEarnings {
		updates["referral_earnings"] = user.ReferralEarnings
	}
	if !sameUintPtr(ref.ReferredByID, user.ReferredByID) {
		updates["referred_by_id"] = user.ReferredByID
	}
	if len(updates) == 0 {
		return ref, nil
	}

	updates["last_synced_at"] = time.Now().UTC()
	if err := db.Model(ref).Updates(updates).Error; err != nil {
		return nil, err
	}
	s.metrics.ObserveReferralRepair("drift")
	logrus.WithFields(logrus.Fields{"user_id": userID, "fields": len(updates) - 1}).Info("Referral drift repaired")
	return s.find(db, userID)
}

// Rebuild recomputes the whole referral row from the user table, counters included
func (s *ReferralService) Rebuild(ctx context.Context, userID uint) (*domain.Referral, error) {
	db := s.db.WithContext(ctx)
	user, err := loadUser(db, userID)
	if err != nil {
		return nil, err
	}
	code := user.ReferralCodeValue()
	if code == "" {
		return nil, nil
	}
	total, active, err := s.counts(db, userID)
	if err != nil {
		return nil, err
	}
	settings := s.settings.Get()
	now := time.Now().UTC()
	row := domain.Referral{
		UserID:           userID,
		ReferralCode:     code,
		ReferredByID:     user.ReferredByID,
		ReferralsCount:   total,
		ActiveReferrals:  active,
		TotalCommission:  user.TotalCommission,
		ReferralEarnings: user.ReferralEarnings,
		Level1Rate:       settings.ReferralCommissionPercent,
		Level2Rate:       settings.ReferralLevel2Percent,
		LastSyncedAt:     &now,
	}
	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"referral_code", "referred_by_id", "referrals_count", "active_referrals",
			"total_commission", "referral_earnings", "level1_rate", "level2_rate",
			"last_synced_at", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}
	return s.find(db, userID)
}

// RebuildAll rebuilds every user holding a referral code and returns how many were processed
func (s *ReferralService) RebuildAll(ctx context.Context) (int, error) {
	var ids []uint
	if err := s.db.WithContext(ctx).Model(&domain.User{}).
		Where("referral_code IS NOT NULL").Order("id").Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	done := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if _, err := s.Rebuild(ctx, id); err != nil {
			logrus.WithField("user_id", id).WithError(err).Warn("Referral rebuild failed")
			continue
		}
		done++
	}
	return done, nil
}

// RebuildQuietly rebuilds the rows of ids after a committed write, logging failures
func (s *ReferralService) RebuildQuietly(ctx context.Context, ids ...uint) {
	for _, id := range ids {
		if _, err := s.Rebuild(ctx, id); err != nil {
			logrus.WithField("user_id", id).WithError(err).Warn("Referral rebuild after write failed")
		}
	}
}

// Summary returns the synced referral row and the user's direct referrals
func (s *ReferralService) Summary(ctx context.Context, userID uint) (*ReferralSummary, error) {
	ref, err := s.EnsureSynced(ctx, userID)
	if err != nil {
		return nil, err
	}
	var users []domain.User
	if err := s.db.WithContext(ctx).Where("referred_by_id = ?", userID).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	out := &ReferralSummary{Referral: ref, Referrals: make([]ReferredUser, 0, len(users))}
	for _, u := range users {
		out.Referrals = append(out.Referrals, ReferredUser{
			ID:            u.ID,
			Username:      u.Username,
			Status:        u.Status,
			TotalDeposits: u.TotalDeposits,
			CreatedAt:     u.CreatedAt,
		})
	}
	return out, nil
}
