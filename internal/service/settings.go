package service

import (
	"context"
	"fmt"
	"sync"

	"invest_platform/internal/domain"
	apperrors "invest_platform/internal/domain/errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Bands are the amount limits used when the stored settings leave one unset
type Bands struct {
	MinDeposit    float64
	MaxDeposit    float64
	MinWithdrawal float64
	MaxWithdrawal float64
}

// SettingsPatch carries the fields an admin wants to change
type SettingsPatch struct {
	MinDeposit                *float64 `json:"minDeposit"`
	MaxDeposit                *float64 `json:"maxDeposit"`
	MinWithdrawal             *float64 `json:"minWithdrawal"`
	MaxWithdrawal             *float64 `json:"maxWithdrawal"`
	DepositFeePercent         *float64 `json:"depositFeePercent"`
	WithdrawalFeePercent      *float64 `json:"withdrawalFeePercent"`
	ReferralCommissionPercent *float64 `json:"referralCommissionPercent"`
	ReferralLevel2Percent     *float64 `json:"referralLevel2Percent"`
	AutoApproveDeposits       *bool    `json:"autoApproveDeposits"`
	AutoApproveWithdrawals    *bool    `json:"autoApproveWithdrawals"`
	MaintenanceMode           *bool    `json:"maintenanceMode"`
	RegistrationEnabled       *bool    `json:"registrationEnabled"`
	EmailVerificationRequired *bool    `json:"emailVerificationRequired"`
}

// SettingsProvider owns the in-memory copy of the settings row.
// Load it once at startup; Refresh after out-of-band changes.
type SettingsProvider struct {
	db       *gorm.DB
	fallback Bands

	mu      sync.RWMutex
	current domain.Settings
	loaded  bool
}

func NewSettingsProvider(db *gorm.DB, fallback Bands) *SettingsProvider {
	return &SettingsProvider{db: db, fallback: fallback}
}

func (p *SettingsProvider) defaults() domain.Settings {
	return domain.Settings{
		ID:                        domain.SettingsID,
		MinDeposit:                p.fallback.MinDeposit,
		MaxDeposit:                p.fallback.MaxDeposit,
		MinWithdrawal:             p.fallback.MinWithdrawal,
		MaxWithdrawal:             p.fallback.MaxWithdrawal,
		ReferralCommissionPercent: domain.DefaultLevel1Rate,
		ReferralLevel2Percent:     domain.DefaultLevel2Rate,
		RegistrationEnabled:       true,
	}
}

// Load reads the settings row, creating it with defaults on first start
func (p *SettingsProvider) Load(ctx context.Context) error {
	row := p.defaults()
	if err := p.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("create settings: %w", err)
	}
	return p.Refresh(ctx)
}

// Refresh re-reads the settings row
func (p *SettingsProvider) Refresh(ctx context.Context) error {
	var row domain.Settings
	if err := p.db.WithContext(ctx).First(&row, domain.SettingsID).Error; err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	p.mu.Lock()
	p.current = row
	p.loaded = true
	p.mu.Unlock()
	return nil
}

// Get returns a snapshot with unset bands replaced by the fallbacks
func (p *SettingsProvider) Get() domain.Settings {
	p.mu.RLock()
	s, loaded := p.current, p.loaded
	p.mu.RUnlock()
	if !loaded {
		s = p.defaults()
	}
	if s.MinDeposit <= 0 {
		s.MinDeposit = p.fallback.MinDeposit
	}
	if s.MaxDeposit <= 0 {
		s.MaxDeposit = p.fallback.MaxDeposit
	}
	if s.MinWithdrawal <= 0 {
		s.MinWithdrawal = p.fallback.MinWithdrawal
	}
	if s.MaxWithdrawal <= 0 {
		s.MaxWithdrawal = p.fallback.MaxWithdrawal
	}
	return s
}

// Update validates and persists patch, then refreshes the snapshot
func (p *SettingsProvider) Update(ctx context.Context, patch SettingsPatch) (domain.Settings, error) {
	next := p.Get()
	updates := map[string]any{}
	setFloat := func(col string, v *float64, dst *float64) {
		if v != nil {
			*dst = *v
			updates[col] = *v
		}
	}
	setBool := func(col string, v *bool, dst *bool) {
		if v != nil {
			*dst = *v
			updates[col] = *v
		}
	}
	setFloat("min_deposit", patch.MinDeposit, &next.MinDeposit)
	setFloat("max_deposit", patch.MaxDeposit, &next.MaxDeposit)
	setFloat("min_withdrawal", patch.MinWithdrawal, &next.MinWithdrawal)
	setFloat("max_withdrawal", patch.MaxWithdrawal, &next.MaxWithdrawal)
	setFloat("deposit_fee_percent", patch.DepositFeePercent, &next.DepositFeePercent)
	setFloat("withdrawal_fee_percent", patch.WithdrawalFeePercent, &next.WithdrawalFeePercent)
	setFloat("referral_commission_percent", patch.ReferralCommissionPercent, &next.ReferralCommissionPercent)
	setFloat("referral_level2_percent", patch.ReferralLevel2Percent, &next.ReferralLevel2Percent)
	setBool("auto_approve_deposits", patch.AutoApproveDeposits, &next.AutoApproveDeposits)
	setBool("auto_approve_withdrawals", patch.AutoApproveWithdrawals, &next.AutoApproveWithdrawals)
	setBool("maintenance_mode", patch.MaintenanceMode, &next.MaintenanceMode)
	setBool("registration_enabled", patch.RegistrationEnabled, &next.RegistrationEnabled)
	setBool("email_verification_required", patch.EmailVerificationRequired, &next.EmailVerificationRequired)

	if len(updates) == 0 {
		return next, apperrors.Validation("No settings to update")
	}
	if err := validateSettings(next); err != nil {
		return next, err
	}
	if err := p.db.WithContext(ctx).Model(&domain.Settings{}).Where("id = ?", domain.SettingsID).Updates(updates).Error; err != nil {
		return next, err
	}
	if err := p.Refresh(ctx); err != nil {
		return next, err
	}
	logrus.WithField("fields", len(updates)).Info("Platform settings updated")
	return p.Get(), nil
}

func validateSettings(s domain.Settings) error {
	if s.MinDeposit <= 0 || s.MaxDeposit < s.MinDeposit {
		return apperrors.Validation("Deposit limits must be positive with min not above max")
	}
	if s.MinWithdrawal <= 0 || s.MaxWithdrawal < s.MinWithdrawal {
		return apperrors.Validation("Withdrawal limits must be positive with min not above max")
	}
	for _, pct := range []float64{s.DepositFeePercent, s.WithdrawalFeePercent, s.ReferralCommissionPercent, s.ReferralLevel2Percent} {
		if pct < 0 || pct >= 100 {
			return apperrors.Validation("Percentages must be between 0 and 100")
		}
	}
	return nil
}
