package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"invest_platform/internal/domain"
	apperrors "invest_platform/internal/domain/errors"
	"invest_platform/internal/metrics"
	"invest_platform/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// WithdrawalRequest is a user's payout request
type WithdrawalRequest struct {
	Amount        float64 `json:"amount" binding:"required"`
	Currency      string  `json:"currency" binding:"required"`
	WalletAddress string  `json:"walletAddress"`
}

// WithdrawalFilter narrows withdrawal listings
type WithdrawalFilter struct {
	UserID uint
	Status string
}

// WithdrawalService runs the withdrawal lifecycle:
//
//	pending -click-> pending(1) -click-> confirmed -approve-> approved [-process-> processing] -complete-> completed
//	pending|confirmed -reject-> rejected
type WithdrawalService struct {
	db       *gorm.DB
	settings *SettingsProvider
	recorder *Recorder
	notifier Notifier
	metrics  *metrics.Metrics
}

func NewWithdrawalService(db *gorm.DB, settings *SettingsProvider, recorder *Recorder, notifier Notifier, m *metrics.Metrics) *WithdrawalService {
	return &WithdrawalService{
		db:       db,
		settings: settings,
		recorder: recorder,
		notifier: notifierOrNoop(notifier),
		metrics:  m,
	}
}

func (s *WithdrawalService) load(tx *gorm.DB, id uint) (*domain.Withdrawal, error) {
	var w domain.Withdrawal
	if err := tx.First(&w, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Withdrawal not found")
		}
		return nil, err
	}
	return &w, nil
}

// Request validates and stores a withdrawal. The full amount must be covered by the balance.
func (s *WithdrawalService) Request(ctx context.Context, userID uint, req WithdrawalRequest) (*domain.Withdrawal, error) {
	w, err := s.request(ctx, userID, req)
	s.metrics.ObserveWithdrawal("request", err)
	return w, err
}

func (s *WithdrawalService) request(ctx context.Context, userID uint, req WithdrawalRequest) (*domain.Withdrawal, error) {
	if req.Amount <= 0 {
		return nil, apperrors.Validation("Withdrawal amount must be greater than zero")
	}
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if !domain.ValidCurrency(currency) {
		return nil, apperrors.Validation("Invalid currency")
	}
	wallet := strings.TrimSpace(req.WalletAddress)
	if wallet == "" {
		return nil, apperrors.Validation("Wallet address is required")
	}
	settings := s.settings.Get()
	if req.Amount < settings.MinWithdrawal || req.Amount > settings.MaxWithdrawal {
		return nil, apperrors.Validation(fmt.Sprintf("Withdrawal amount must be between $%s and $%s",
			utils.FormatAmount(settings.MinWithdrawal), utils.FormatAmount(settings.MaxWithdrawal)))
	}

	user, err := loadUser(s.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}
	if user.AccountBalance < req.Amount {
		return nil, insufficientBalance(user.AccountBalance, req.Amount)
	}

	fee, net := utils.SplitFee(req.Amount, settings.WithdrawalFeePercent)
	now := time.Now().UTC()
	w := domain.Withdrawal{
		UserID:        user.ID,
		Username:      user.Username,
		Amount:        req.Amount,
		Currency:      currency,
		WalletAddress: wallet,
		Status:        domain.WithdrawalPending,
		Fee:           fee,
		NetAmount:     net,
		RequestedDate: now,
	}

	if settings.AutoApproveWithdrawals {
		w.Status = domain.WithdrawalApproved
		w.ProcessedDate = &now
		w.AdminNotes = "Auto-approved"
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&w).Error; err != nil {
				return err
			}
			return s.debit(tx, &w)
		})
	} else {
		err = s.db.WithContext(ctx).Create(&w).Error
	}
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"withdrawal_id": w.ID,
		"user_id":       user.ID,
		"amount":        w.Amount,
		"fee":           w.Fee,
		"status":        w.Status,
	}).Info("Withdrawal requested")

	s.recorder.Invalidate(ctx, user.ID)
	if w.Status == domain.WithdrawalApproved {
		s.notifier.SendWithdrawalApproved(w)
	} else {
		s.notifier.SendWithdrawalRequested(w)
	}
	s.notifier.SendAdminWithdrawalNotification(w)
	return &w, nil
}

// debit takes the gross amount off the balance and records it
func (s *WithdrawalService) debit(tx *gorm.DB, w *domain.Withdrawal) error {
	if err := debitBalance(tx, w.UserID, w.Amount, map[string]any{
		"total_withdraw": gorm.Expr("total_withdraw + ?", w.Amount),
	}); err != nil {
		return err
	}
	wid := w.ID
	_, err := s.recorder.Record(tx, Entry{
		UserID:       w.UserID,
		Type:         domain.TxTypeWithdrawal,
		Amount:       w.Amount,
		Currency:     w.Currency,
		Status:       domain.TxStatusCompleted,
		Description:  fmt.Sprintf("Withdrawal #%d to %s (fee $%s)", w.ID, w.WalletAddress, utils.FormatAmount(w.Fee)),
		WithdrawalID: &wid,
	})
	return err
}

// Confirm registers one user confirmation click. The second click moves the
// withdrawal to confirmed; any click outside pending is a no-op.
// advanced reports whether this click changed the record.
func (s *WithdrawalService) Confirm(ctx context.Context, id, userID uint) (w *domain.Withdrawal, advanced bool, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row domain.Withdrawal
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Withdrawal not found")
			}
			return err
		}
		w = &row
		if row.Status != domain.WithdrawalPending || row.ConfirmationClicks >= domain.RequiredConfirmationClicks {
			return nil
		}

		now := time.Now().UTC()
		clicks := row.ConfirmationClicks + 1
		updates := map[string]any{"confirmation_clicks": clicks, "last_click_date": now}
		if clicks == domain.RequiredConfirmationClicks {
			updates["status"] = domain.WithdrawalConfirmed
			updates["confirmed_at"] = now
		}
		res := tx.Model(&domain.Withdrawal{}).
			Where("id = ? AND status = ? AND confirmation_clicks = ?", id, domain.WithdrawalPending, row.ConfirmationClicks).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		advanced = res.RowsAffected == 1
		w, err = s.load(tx, id)
		return err
	})
	s.metrics.ObserveWithdrawal("confirm", err)
	if err != nil {
		return nil, false, err
	}
	if advanced {
		logrus.WithFields(logrus.Fields{
			"withdrawal_id": id,
			"clicks":        w.ConfirmationClicks,
			"status":        w.Status,
		}).Info("Withdrawal confirmation click")
		s.recorder.Invalidate(ctx, w.UserID)
	}
	return w, advanced, nil
}

// Approve debits the gross amount of a confirmed withdrawal
func (s *WithdrawalService) Approve(ctx context.Context, id, adminID uint, notes string) (*domain.Withdrawal, error) {
	var w *domain.Withdrawal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if w, err = s.load(tx, id); err != nil {
			return err
		}
		switch w.Status {
		case domain.WithdrawalConfirmed:
		case domain.WithdrawalPending:
			return apperrors.InvalidState("Withdrawal must be confirmed by the user before approval")
		default:
			return apperrors.InvalidState(fmt.Sprintf("Withdrawal is already %s", w.Status))
		}
		won, err := transition(tx, &domain.Withdrawal{}, id, []string{domain.WithdrawalConfirmed}, map[string]any{
			"status":         domain.WithdrawalApproved,
			"processed_by":   adminID,
			"processed_date": time.Now().UTC(),
			"admin_notes":    strings.TrimSpace(notes),
		})
		if err != nil {
			return err
		}
		if !won {
			return apperrors.InvalidState("Withdrawal was already processed")
		}
		if err := s.debit(tx, w); err != nil {
			return err
		}
		w, err = s.load(tx, id)
		return err
	})
	s.metrics.ObserveWithdrawal("approve", err)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"withdrawal_id": id,
		"user_id":       w.UserID,
		"debited":       w.Amount,
		"admin_id":      adminID,
	}).Info("Withdrawal approved")
	s.recorder.Invalidate(ctx, w.UserID)
	s.notifier.SendWithdrawalApproved(*w)
	return w, nil
}

// Reject closes a pending or confirmed withdrawal without touching balances
func (s *WithdrawalService) Reject(ctx context.Context, id, adminID uint, reason string) (*domain.Withdrawal, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "Rejected by admin"
	}
	w, err := s.move(ctx, id, []string{domain.WithdrawalPending, domain.WithdrawalConfirmed}, map[string]any{
		"status":           domain.WithdrawalRejected,
		"processed_by":     adminID,
		"processed_date":   time.Now().UTC(),
		"rejection_reason": reason,
	})
	s.metrics.ObserveWithdrawal("reject", err)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"withdrawal_id": id, "admin_id": adminID, "reason": reason}).Info("Withdrawal rejected")
	s.notifier.SendWithdrawalRejected(*w)
	return w, nil
}

// MarkProcessing flags an approved withdrawal as being paid out
func (s *WithdrawalService) MarkProcessing(ctx context.Context, id, adminID uint) (*domain.Withdrawal, error) {
	w, err := s.move(ctx, id, []string{domain.WithdrawalApproved}, map[string]any{
		"status":         domain.WithdrawalProcessing,
		"processed_by":   adminID,
		"processed_date": time.Now().UTC(),
	})
	s.metrics.ObserveWithdrawal("process", err)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"withdrawal_id": id, "admin_id": adminID}).Info("Withdrawal processing")
	return w, nil
}

// Complete stores the payout transaction hash
func (s *WithdrawalService) Complete(ctx context.Context, id, adminID uint, txHash string) (*domain.Withdrawal, error) {
	txHash = strings.TrimSpace(txHash)
	if txHash == "" {
		err := apperrors.Validation("Transaction hash is required")
		s.metrics.ObserveWithdrawal("complete", err)
		return nil, err
	}
	w, err := s.move(ctx, id, []string{domain.WithdrawalApproved, domain.WithdrawalProcessing}, map[string]any{
		"status":           domain.WithdrawalCompleted,
		"processed_by":     adminID,
		"processed_date":   time.Now().UTC(),
		"transaction_hash": txHash,
	})
	s.metrics.ObserveWithdrawal("complete", err)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"withdrawal_id": id, "admin_id": adminID, "tx_hash": txHash}).Info("Withdrawal completed")
	s.notifier.SendWithdrawalCompleted(*w)
	return w, nil
}

// move applies a status change with no balance effect
func (s *WithdrawalService) move(ctx context.Context, id uint, from []string, updates map[string]any) (*domain.Withdrawal, error) {
	var w *domain.Withdrawal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if w, err = s.load(tx, id); err != nil {
			return err
		}
		if !inStatus(w.Status, from...) {
			return apperrors.InvalidState(fmt.Sprintf("Cannot change a %s withdrawal to %s", w.Status, updates["status"]))
		}
		won, err := transition(tx, &domain.Withdrawal{}, id, from, updates)
		if err != nil {
			return err
		}
		if !won {
			return apperrors.InvalidState("Withdrawal was already processed")
		}
		w, err = s.load(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.recorder.Invalidate(ctx, w.UserID)
	return w, nil
}

// List returns withdrawals newest first, cached per page and filter
func (s *WithdrawalService) List(ctx context.Context, f WithdrawalFilter, p utils.Page) (utils.PageResult[domain.Withdrawal], error) {
	key := utils.PageKey(utils.CacheKeyAdminWithdrawals, p, fmt.Sprintf("user=%d", f.UserID), "status="+f.Status)
	return cachedPage(ctx, s.recorder.rdb, key, func() (utils.PageResult[domain.Withdrawal], error) {
		q := s.db.WithContext(ctx).Model(&domain.Withdrawal{})
		if f.UserID != 0 {
			q = q.Where("user_id = ?", f.UserID)
		}
		if f.Status != "" {
			q = q.Where("status = ?", f.Status)
		}
		var total int64
		if err := q.Count(&total).Error; err != nil {
			return utils.PageResult[domain.Withdrawal]{}, err
		}
		var rows []domain.Withdrawal
		if err := q.Order("created_at DESC, id DESC").Offset(p.Offset()).Limit(p.PageSize).Find(&rows).Error; err != nil {
			return utils.PageResult[domain.Withdrawal]{}, err
		}
		return utils.NewPageResult(rows, p, total), nil
	})
}
