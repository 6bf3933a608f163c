package db

import (
	"errors"
	"strings"

	"invest_platform/internal/domain"
	"invest_platform/internal/utils"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Models lists every table owned by the platform
var Models = []any{
	&domain.User{},
	&domain.Deposit{},
	&domain.Withdrawal{},
	&domain.Transaction{},
	&domain.Referral{},
	&domain.Settings{},
}

// Migrate creates or updates the schema
func Migrate(db *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := db.AutoMigrate(Models...); err != nil {
		return err
	}
	logrus.Info("Migration completed.")
	return nil
}

// SeedAdmin creates an approved admin account when none exists for email
func SeedAdmin(db *gorm.DB, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errors.New("admin email and password are required")
	}

	var existing domain.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	code := utils.NewReferralCode()
	admin := domain.User{
		Username:     strings.SplitN(email, "@", 2)[0],
		Email:        email,
		Password:     string(hash),
		FullName:     "Administrator",
		Status:       domain.UserStatusApproved,
		Role:         domain.RoleAdmin,
		ReferralCode: &code,
	}
	if err := db.Create(&admin).Error; err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"user_id": admin.ID, "email": email}).Info("Admin account seeded")
	return &admin, nil
}
