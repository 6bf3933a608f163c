package domain

import "time"

// SettingsID is the primary key of the singleton settings row
const SettingsID = 1

// Settings Model, a single row holding platform-wide configuration
type Settings struct {
	ID                        uint      `gorm:"primaryKey" json:"-"`
	MinDeposit                float64   `gorm:"not null" json:"minDeposit"`
	MaxDeposit                float64   `gorm:"not null" json:"maxDeposit"`
	MinWithdrawal             float64   `gorm:"not null" json:"minWithdrawal"`
	MaxWithdrawal             float64   `gorm:"not null" json:"maxWithdrawal"`
	DepositFeePercent         float64   `gorm:"not null" json:"depositFeePercent"`
	WithdrawalFeePercent      float64   `gorm:"not null" json:"withdrawalFeePercent"`
	ReferralCommissionPercent float64   `gorm:"not null" json:"referralCommissionPercent"` // Level 1
	ReferralLevel2Percent     float64   `gorm:"not null" json:"referralLevel2Percent"`
	AutoApproveDeposits       bool      `gorm:"not null" json:"autoApproveDeposits"`
	AutoApproveWithdrawals    bool      `gorm:"not null" json:"autoApproveWithdrawals"`
	MaintenanceMode           bool      `gorm:"not null" json:"maintenanceMode"`
	RegistrationEnabled       bool      `gorm:"not null" json:"registrationEnabled"`
	EmailVerificationRequired bool      `gorm:"not null" json:"emailVerificationRequired"`
	UpdatedAt                 time.Time `json:"updatedAt"`
}
