package domain

import "time"

// Default commission rates in percent
const (
	DefaultLevel1Rate = 7.0
	DefaultLevel2Rate = 3.0
)

// Referral is a materialised view of a user's referral counters.
// User.ReferralCode, User.TotalCommission and User.ReferralEarnings are the source of truth.
type Referral struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"uniqueIndex;not null" json:"userId"`
	ReferralCode     string     `gorm:"uniqueIndex;size:20;not null" json:"referralCode"`
	ReferredByID     *uint      `json:"referredBy,omitempty"`
	ReferralsCount   int64      `gorm:"not null" json:"referralsCount"`
	ActiveReferrals  int64      `gorm:"not null" json:"activeReferrals"`
	TotalCommission  float64    `gorm:"not null" json:"totalCommission"`
	ReferralEarnings float64    `gorm:"not null" json:"referralEarnings"`
	Level1Rate       float64    `gorm:"not null" json:"level1Rate"`
	Level2Rate       float64    `gorm:"not null" json:"level2Rate"`
	LastSyncedAt     *time.Time `json:"lastSyncedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}
