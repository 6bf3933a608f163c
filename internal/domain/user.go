package domain

import "time"

// User statuses
const (
	UserStatusPending   = "pending"   // Awaiting admin review
	UserStatusApproved  = "approved"  // Active account
	UserStatusRejected  = "rejected"  // Registration rejected
	UserStatusSuspended = "suspended" // Temporarily blocked
)

// User roles
const (
	RoleUser  = "user"  // Regular investor
	RoleAdmin = "admin" // Platform administrator
)

// User Model
type User struct {
	ID               uint      `gorm:"primaryKey" json:"id"`                                // Primary key
	Username         string    `gorm:"uniqueIndex;size:64;not null" json:"username"`        // Unique username
	Email            string    `gorm:"uniqueIndex;size:255;not null" json:"email"`          // Unique email
	Password         string    `gorm:"not null" json:"-"`                                   // Hashed password, never serialised
	FullName         string    `gorm:"size:128" json:"fullName"`                            // Display name
	Status           string    `gorm:"size:20;not null;index" json:"status"`                // pending, approved, rejected, suspended
	Role             string    `gorm:"size:20;not null" json:"role"`                        // user or admin
	AccountBalance   float64   `gorm:"not null" json:"accountBalance"`                      // Withdrawable balance
	EarnedTotal      float64   `gorm:"not null" json:"earnedTotal"`                         // Lifetime earnings
	TotalDeposits    float64   `gorm:"not null" json:"totalDeposits"`                       // Sum of approved deposits
	ActiveDeposit    float64   `gorm:"not null" json:"activeDeposit"`                       // Currently invested amount
	TotalWithdraw    float64   `gorm:"not null" json:"totalWithdraw"`                       // Sum of approved withdrawals
	BitcoinBalance   float64   `gorm:"not null" json:"bitcoinBalance"`                      // Per-channel balance
	EthereumBalance  float64   `gorm:"not null" json:"ethereumBalance"`                     // Per-channel balance
	UsdtBalance      float64   `gorm:"not null" json:"usdtBalance"`                         // Per-channel balance
	BnbBalance       float64   `gorm:"not null" json:"bnbBalance"`                          // Per-channel balance
	ReferralCode     *string   `gorm:"uniqueIndex;size:20" json:"referralCode,omitempty"`   // Unique, nullable
	ReferredByID     *uint     `gorm:"index" json:"referredBy,omitempty"`                   // Self-reference to the referrer
	TotalCommission  float64   `gorm:"not null" json:"totalCommission"`                     // Lifetime commission (all levels)
	ReferralEarnings float64   `gorm:"not null" json:"referralEarnings"`                    // Commission credited to balance
	CreatedAt        time.Time `json:"createdAt"`                                           // Registration time
	UpdatedAt        time.Time `json:"updatedAt"`                                           // Last update
}

// IsAdmin reports whether the user carries the admin role
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// ReferralCodeValue returns the referral code or an empty string
func (u *User) ReferralCodeValue() string {
	if u.ReferralCode == nil {
		return ""
	}
	return *u.ReferralCode
}

// ValidUserStatus reports whether s is a known user status
func ValidUserStatus(s string) bool {
	switch s {
	case UserStatusPending, UserStatusApproved, UserStatusRejected, UserStatusSuspended:
		return true
	}
	return false
}
