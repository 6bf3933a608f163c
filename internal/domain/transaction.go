package domain

import "time"

// Transaction types
const (
	TxTypeDeposit    = "deposit"
	TxTypeWithdrawal = "withdrawal"
	TxTypeEarning    = "earning"
	TxTypeCommission = "commission"
	TxTypeBonus      = "bonus"
	TxTypeAdjustment = "adjustment"
)

// Transaction statuses
const (
	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
	TxStatusFailed    = "failed"
	TxStatusCancelled = "cancelled"
)

// Transaction Model, append-only audit log of balance events
type Transaction struct {
	ID           uint      `gorm:"primaryKey" json:"id"`                  // Primary key
	UserID       uint      `gorm:"not null;index" json:"userId"`          // Account the entry belongs to
	Type         string    `gorm:"size:20;not null;index" json:"type"`    // deposit, withdrawal, earning, commission, bonus, adjustment
	Amount       float64   `gorm:"not null" json:"amount"`                // Amount of the transaction
	Currency     string    `gorm:"size:20" json:"currency"`               // Channel, empty for internal credits
	DepositID    *uint     `gorm:"index" json:"depositId,omitempty"`      // Backreference to a deposit
	WithdrawalID *uint     `gorm:"index" json:"withdrawalId,omitempty"`   // Backreference to a withdrawal
	SourceUserID *uint     `json:"sourceUserId,omitempty"`                // Referred user behind a commission
	Status       string    `gorm:"size:20;not null" json:"status"`        // pending, completed, failed, cancelled
	Description  string    `gorm:"size:255" json:"description"`           // Human readable summary
	Date         time.Time `gorm:"index" json:"date"`                     // Event time
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ValidTxType reports whether t is a known transaction type
func ValidTxType(t string) bool {
	switch t {
	case TxTypeDeposit, TxTypeWithdrawal, TxTypeEarning, TxTypeCommission, TxTypeBonus, TxTypeAdjustment:
		return true
	}
	return false
}

// ValidTxStatus reports whether s is a known transaction status
func ValidTxStatus(s string) bool {
	switch s {
	case TxStatusPending, TxStatusCompleted, TxStatusFailed, TxStatusCancelled:
		return true
	}
	return false
}
