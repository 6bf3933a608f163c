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

// DepositRequest is a user's deposit intent
type DepositRequest struct {
	Amount           float64 `json:"amount" binding:"required"`
	Currency         string  `json:"currency" binding:"required"`
	Plan             string  `json:"plan" binding:"required"`
	ProfitPercentage float64 `json:"profitPercentage"`
}

// DepositFilter narrows deposit listings
type DepositFilter struct {
	UserID uint
	Status string
}

// DepositService runs the deposit lifecycle
type DepositService struct {
	db        *gorm.DB
	settings  *SettingsProvider
	recorder  *Recorder
	referrals *ReferralService
	notifier  Notifier
	metrics   *metrics.Metrics
}

func NewDepositService(db *gorm.DB, settings *SettingsProvider, recorder *Recorder, referrals *ReferralService, notifier Notifier, m *metrics.Metrics) *DepositService {
	return &DepositService{
		db:        db,
		settings:  settings,
		recorder:  recorder,
		referrals: referrals,
		notifier:  notifierOrNoop(notifier),
		metrics:   m,
	}
}

// Create validates and stores a pending deposit, approving it at once under auto-approve
func (s *DepositService) Create(ctx context.Context, userID uint, req DepositRequest) (*domain.Deposit, error) {
	dep, err := s.create(ctx, userID, req)
	s.metrics.ObserveDeposit("create", err)
	return dep, err
}

func (s *DepositService) create(ctx context.Context, userID uint, req DepositRequest) (*domain.Deposit, error) {
	settings := s.settings.Get()
	if req.Amount < settings.MinDeposit || req.Amount > settings.MaxDeposit {
		return nil, apperrors.Validation(fmt.Sprintf("Deposit amount must be between $%s and $%s",
			utils.FormatAmount(settings.MinDeposit), utils.FormatAmount(settings.MaxDeposit)))
	}
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if !domain.ValidCurrency(currency) {
		return nil, apperrors.Validation("Invalid currency")
	}
	plan, ok := domain.FindPlan(strings.ToUpper(strings.TrimSpace(req.Plan)))
	if !ok {
		return nil, apperrors.Validation("Invalid investment plan")
	}
	if !plan.Contains(req.Amount) {
		return nil, apperrors.Validation(fmt.Sprintf("%s requires an amount between $%s and $%s",
			plan.Name, utils.FormatAmount(plan.MinAmount), utils.FormatAmount(plan.MaxAmount)))
	}
	profit := req.ProfitPercentage
	if profit <= 0 {
		profit = plan.ProfitPercentage
	}

	db := s.db.WithContext(ctx)
	user, err := loadUser(db, userID)
	if err != nil {
		return nil, err
	}

	fee, net := utils.SplitFee(req.Amount, settings.DepositFeePercent)
	dep := domain.Deposit{
		UserID:           user.ID,
		Username:         user.Username,
		Amount:           req.Amount,
		Currency:         currency,
		Plan:             plan.Name,
		ProfitPercentage: profit,
		ExpectedProfit:   utils.Percent(req.Amount, profit),
		Status:           domain.DepositPending,
		Fee:              fee,
		NetAmount:        net,
	}
	if err := db.Create(&dep).Error; err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"deposit_id": dep.ID,
		"user_id":    user.ID,
		"amount":     dep.Amount,
		"fee":        dep.Fee,
		"plan":       dep.Plan,
	}).Info("Deposit created")

	s.notifier.SendDepositPending(dep)
	s.notifier.SendAdminDepositNotification(dep)
	s.recorder.Invalidate(ctx)

	if settings.AutoApproveDeposits {
		approved, err := s.approve(ctx, dep.ID, nil, "Auto-approved")
		s.metrics.ObserveDeposit("approve", err)
		if err != nil {
			return nil, err
		}
		return approved, nil
	}
	return &dep, nil
}

func (s *DepositService) load(tx *gorm.DB, id uint) (*domain.Deposit, error) {
	var dep domain.Deposit
	if err := tx.First(&dep, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Deposit not found")
		}
		return nil, err
	}
	return &dep, nil
}

var reviewableDeposit = []string{domain.DepositPending, domain.DepositProcessing}

// Approve credits the deposit's net amount and pays referral commissions
func (s *DepositService) Approve(ctx context.Context, id, adminID uint, notes string) (*domain.Deposit, error) {
	dep, err := s.approve(ctx, id, &adminID, notes)
	s.metrics.ObserveDeposit("approve", err)
	return dep, err
}

func (s *DepositService) approve(ctx context.Context, id uint, adminID *uint, notes string) (*domain.Deposit, error) {
	settings := s.settings.Get()
	var dep *domain.Deposit
	var uplines []uint

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if dep, err = s.load(tx, id); err != nil {
			return err
		}
		if !inStatus(dep.Status, reviewableDeposit...) {
			return apperrors.InvalidState(fmt.Sprintf("Deposit is already %s", dep.Status))
		}

		now := time.Now().UTC()
		won, err := transition(tx, &domain.Deposit{}, id, reviewableDeposit, map[string]any{
			"status":        domain.DepositApproved,
			"approved_by":   adminID,
			"approval_date": now,
			"admin_notes":   strings.TrimSpace(notes),
		})
		if err != nil {
			return err
		}
		if !won {
			return apperrors.InvalidState("Deposit was already reviewed")
		}

		if err := increment(tx, dep.UserID, map[string]float64{
			"total_deposits":  dep.Amount,
			"active_deposit":  dep.Amount,
			"account_balance": dep.NetAmount,
		}); err != nil {
			return err
		}
		depID := dep.ID
		if _, err := s.recorder.Record(tx, Entry{
			UserID:      dep.UserID,
			Type:        domain.TxTypeDeposit,
			Amount:      dep.NetAmount,
			Currency:    dep.Currency,
			Status:      domain.TxStatusCompleted,
			Description: fmt.Sprintf("Deposit #%d approved (%s)", dep.ID, dep.Plan),
			DepositID:   &depID,
		}); err != nil {
			return err
		}

		uplines, err = s.payCommissions(tx, dep, settings)
		if err != nil {
			return err
		}

		dep, err = s.load(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	fields := logrus.Fields{"deposit_id": dep.ID, "user_id": dep.UserID, "credited": dep.NetAmount}
	if adminID != nil {
		fields["admin_id"] = *adminID
	}
	logrus.WithFields(fields).Info("Deposit approved")

	s.referrals.RebuildQuietly(ctx, uplines...)
	s.recorder.Invalidate(ctx, append(uplines, dep.UserID)...)
	s.notifier.SendDepositApproved(*dep)
	return dep, nil
}

// payCommissions credits the depositor's referrer and that referrer's referrer.
// It returns every upline user visited, paid or not.
func (s *DepositService) payCommissions(tx *gorm.DB, dep *domain.Deposit, settings domain.Settings) ([]uint, error) {
	depositor, err := loadUser(tx, dep.UserID)
	if err != nil {
		return nil, err
	}
	rates := []float64{settings.ReferralCommissionPercent, settings.ReferralLevel2Percent}
	source := depositor.ID
	depID := dep.ID

	var uplines []uint
	next := depositor.ReferredByID
	for level, rate := range rates {
		if next == nil || *next == depositor.ID {
			break
		}
		referrer, err := loadUser(tx, *next)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				break
			}
			return nil, err
		}
		uplines = append(uplines, referrer.ID)
		commission := utils.Percent(dep.Amount, rate)
		if commission > 0 {
			if err := increment(tx, referrer.ID, map[string]float64{
				"account_balance":   commission,
				"total_commission":  commission,
				"referral_earnings": commission,
			}); err != nil {
				return nil, err
			}
			if _, err := s.recorder.Record(tx, Entry{
				UserID:       referrer.ID,
				Type:         domain.TxTypeCommission,
				Amount:       commission,
				Currency:     dep.Currency,
				Status:       domain.TxStatusCompleted,
				Description:  fmt.Sprintf("Level %d referral commission from %s", level+1, depositor.Username),
				DepositID:    &depID,
				SourceUserID: &source,
			}); err != nil {
				return nil, err
			}
		}
		next = referrer.ReferredByID
	}
	return uplines, nil
}

// Reject closes a pending deposit without touching balances
func (s *DepositService) Reject(ctx context.Context, id, adminID uint, reason, notes string) (*domain.Deposit, error) {
	var dep *domain.Deposit
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if dep, err = s.load(tx, id); err != nil {
			return err
		}
		if !inStatus(dep.Status, reviewableDeposit...) {
			return apperrors.InvalidState(fmt.Sprintf("Deposit is already %s", dep.Status))
		}
		reason = strings.TrimSpace(reason)
		if reason == "" {
			reason = "Rejected by admin"
		}
		won, err := transition(tx, &domain.Deposit{}, id, reviewableDeposit, map[string]any{
			"status":           domain.DepositRejected,
			"approved_by":      adminID,
			"approval_date":    time.Now().UTC(),
			"rejection_reason": reason,
			"admin_notes":      strings.TrimSpace(notes),
		})
		if err != nil {
			return err
		}
		if !won {
			return apperrors.InvalidState("Deposit was already reviewed")
		}
		dep, err = s.load(tx, id)
		return err
	})
	s.metrics.ObserveDeposit("reject", err)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"deposit_id": id, "admin_id": adminID, "reason": dep.RejectionReason}).Info("Deposit rejected")
	s.recorder.Invalidate(ctx, dep.UserID)
	return dep, nil
}

// List returns deposits newest first, cached per page and filter
func (s *DepositService) List(ctx context.Context, f DepositFilter, p utils.Page) (utils.PageResult[domain.Deposit], error) {
	key := utils.PageKey(utils.CacheKeyAdminDeposits, p, fmt.Sprintf("user=%d", f.UserID), "status="+f.Status)
	return cachedPage(ctx, s.recorder.rdb, key, func() (utils.PageResult[domain.Deposit], error) {
		q := s.db.WithContext(ctx).Model(&domain.Deposit{})
		if f.UserID != 0 {
			q = q.Where("user_id = ?", f.UserID)
		}
		if f.Status != "" {
			q = q.Where("status = ?", f.Status)
		}
		var total int64
		if err := q.Count(&total).Error; err != nil {
			return utils.PageResult[domain.Deposit]{}, err
		}
		var rows []domain.Deposit
		if err := q.Order("created_at DESC, id DESC").Offset(p.Offset()).Limit(p.PageSize).Find(&rows).Error; err != nil {
			return utils.PageResult[domain.Deposit]{}, err
		}
		return utils.NewPageResult(rows, p, total), nil
	})
}
