package domain

import "time"

// Withdrawal statuses
const (
	WithdrawalPending    = "pending"
	WithdrawalConfirmed  = "confirmed"
	WithdrawalProcessing = "processing"
	WithdrawalApproved   = "approved"
	WithdrawalRejected   = "rejected"
	WithdrawalCompleted  = "completed"
	WithdrawalFailed     = "failed"
)

// RequiredConfirmationClicks is the number of user confirmations before admin review
const RequiredConfirmationClicks = 2

// Withdrawal Model
type Withdrawal struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`                    // Primary key
	UserID             uint       `gorm:"not null;index" json:"userId"`            // Owner
	Username           string     `gorm:"size:64;not null" json:"username"`        // Cached owner username
	Amount             float64    `gorm:"not null" json:"amount"`                  // Gross amount, debited in full
	Currency           string     `gorm:"size:20;not null" json:"currency"`        // Channel
	WalletAddress      string     `gorm:"size:255;not null" json:"walletAddress"`  // Payout destination
	Status             string     `gorm:"size:20;not null;index" json:"status"`    // Lifecycle status
	Fee                float64    `gorm:"not null" json:"fee"`                     // Withdrawal fee
	NetAmount          float64    `gorm:"not null" json:"netAmount"`               // Amount paid out
	ConfirmationClicks int        `gorm:"not null" json:"confirmationClicks"`      // 0..2
	LastClickDate      *time.Time `json:"lastClickDate,omitempty"`                 // Last user confirmation
	ConfirmedAt        *time.Time `json:"confirmedAt,omitempty"`                   // Second confirmation
	RequestedDate      time.Time  `json:"requestedDate"`                           // Request time
	ProcessedBy        *uint      `json:"processedBy,omitempty"`                   // Admin who acted last
	ProcessedDate      *time.Time `json:"processedDate,omitempty"`                 // Admin action time
	TransactionHash    string     `gorm:"size:128" json:"transactionHash,omitempty"`
	RejectionReason    string     `gorm:"size:255" json:"rejectionReason,omitempty"`
	AdminNotes         string     `gorm:"size:512" json:"adminNotes,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}
