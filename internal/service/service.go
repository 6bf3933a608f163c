// Package service holds the platform's business operations. Every operation that
// moves money runs inside one database transaction, guarded by conditional updates.
package service

import (
	"context"
	"errors"
	"fmt"

	"invest_platform/internal/domain"
	apperrors "invest_platform/internal/domain/errors"
	"invest_platform/internal/utils"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Notifier receives lifecycle events; implementations must not block
type Notifier interface {
	SendDepositPending(d domain.Deposit)
	SendDepositApproved(d domain.Deposit)
	SendWithdrawalRequested(w domain.Withdrawal)
	SendWithdrawalApproved(w domain.Withdrawal)
	SendWithdrawalRejected(w domain.Withdrawal)
	SendWithdrawalCompleted(w domain.Withdrawal)
	SendAdminDepositNotification(d domain.Deposit)
	SendAdminWithdrawalNotification(w domain.Withdrawal)
}

type noopNotifier struct{}

func (noopNotifier) SendDepositPending(domain.Deposit)                 {}
func (noopNotifier) SendDepositApproved(domain.Deposit)                {}
func (noopNotifier) SendWithdrawalRequested(domain.Withdrawal)         {}
func (noopNotifier) SendWithdrawalApproved(domain.Withdrawal)          {}
func (noopNotifier) SendWithdrawalRejected(domain.Withdrawal)          {}
func (noopNotifier) SendWithdrawalCompleted(domain.Withdrawal)         {}
func (noopNotifier) SendAdminDepositNotification(domain.Deposit)       {}
func (noopNotifier) SendAdminWithdrawalNotification(domain.Withdrawal) {}

func notifierOrNoop(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

// loadUser reads a user inside tx, mapping a missing row to NotFound
func loadUser(tx *gorm.DB, id uint) (*domain.User, error) {
	var user domain.User
	if err := tx.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, err
	}
	return &user, nil
}

// transition moves a row from one of the from statuses, reporting whether it won
func transition(tx *gorm.DB, model any, id uint, from []string, updates map[string]any) (bool, error) {
	res := tx.Model(model).Where("id = ? AND status IN ?", id, from).Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func insufficientBalance(available, requested float64) error {
	return apperrors.Validation(fmt.Sprintf("Insufficient balance. Available: $%s, requested: $%s",
		utils.FormatAmount(available), utils.FormatAmount(requested)))
}

// debitBalance subtracts amount from the account balance unless it would go negative
func debitBalance(tx *gorm.DB, userID uint, amount float64, extra map[string]any) error {
	updates := map[string]any{"account_balance": gorm.Expr("account_balance - ?", amount)}
	for k, v := range extra {
		updates[k] = v
	}
	res := tx.Model(&domain.User{}).Where("id = ? AND account_balance >= ?", userID, amount).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		user, err := loadUser(tx, userID)
		if err != nil {
			return err
		}
		return insufficientBalance(user.AccountBalance, amount)
	}
	return nil
}

// increment adds each delta to its column for userID
func increment(tx *gorm.DB, userID uint, deltas map[string]float64) error {
	updates := make(map[string]any, len(deltas))
	for col, delta := range deltas {
		updates[col] = gorm.Expr(col+" + ?", delta)
	}
	res := tx.Model(&domain.User{}).Where("id = ?", userID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("User not found")
	}
	return nil
}

func inStatus(status string, allowed ...string) bool {
	for _, s := range allowed {
		if s == status {
			return true
		}
	}
	return false
}

// cachedPage serves a listing page from redis, running load and storing its result on a miss.
// Recorder.Invalidate drops these pages.
func cachedPage[T any](ctx context.Context, rdb *redis.Client, key string, load func() (utils.PageResult[T], error)) (utils.PageResult[T], error) {
	var cached utils.PageResult[T]
	if found, err := utils.GetCache(ctx, rdb, key, &cached); err == nil && found {
		return cached, nil
	}
	result, err := load()
	if err != nil {
		return result, err
	}
	if err := utils.SetCache(ctx, rdb, key, result, listCacheTTL); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Failed to cache listing")
	}
	return result, nil
}
