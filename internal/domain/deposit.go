package domain

import "time"

// Deposit statuses
const (
	DepositPending    = "pending"
	DepositApproved   = "approved"
	DepositRejected   = "rejected"
	DepositProcessing = "processing"
	DepositCompleted  = "completed"
)

// Deposit Model
type Deposit struct {
	ID               uint       `gorm:"primaryKey" json:"id"`                  // Primary key
	UserID           uint       `gorm:"not null;index" json:"userId"`          // Owner
	Username         string     `gorm:"size:64;not null" json:"username"`      // Cached owner username
	Amount           float64    `gorm:"not null" json:"amount"`                // Gross amount
	Currency         string     `gorm:"size:20;not null" json:"currency"`      // Channel
	Plan             string     `gorm:"size:32;not null" json:"plan"`          // Plan name
	ProfitPercentage float64    `gorm:"not null" json:"profitPercentage"`      // Applied profit rate
	ExpectedProfit   float64    `gorm:"not null" json:"expectedProfit"`        // Derived from gross amount
	ActualProfit     float64    `gorm:"not null" json:"actualProfit"`          // Accrued profit
	Status           string     `gorm:"size:20;not null;index" json:"status"`  // Lifecycle status
	Fee              float64    `gorm:"not null" json:"fee"`                   // Deposit fee
	NetAmount        float64    `gorm:"not null" json:"netAmount"`             // Amount credited to balance
	ApprovedBy       *uint      `json:"approvedBy,omitempty"`                  // Admin who approved/rejected
	ApprovalDate     *time.Time `json:"approvalDate,omitempty"`                // Review time
	RejectionReason  string     `gorm:"size:255" json:"rejectionReason,omitempty"`
	AdminNotes       string     `gorm:"size:512" json:"adminNotes,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}
