package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"invest_platform/internal/domain"
	apperrors "invest_platform/internal/domain/errors"
	"invest_platform/internal/utils"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RegisterInput carries a sign-up request
type RegisterInput struct {
	Username     string
	Email        string
	Password     string
	FullName     string
	ReferralCode string
}

// Dashboard aggregates what the user home page shows
type Dashboard struct {
	User               *domain.User         `json:"user"`
	Referral           *domain.Referral     `json:"referral"`
	PendingDeposits    int64                `json:"pendingDeposits"`
	PendingWithdrawals int64                `json:"pendingWithdrawals"`
	RecentTransactions []domain.Transaction `json:"recentTransactions"`
}

// UserService covers accounts: sign-up, login, profile and admin account management
type UserService struct {
	db        *gorm.DB
	rdb       *redis.Client
	settings  *SettingsProvider
	referrals *ReferralService
	recorder  *Recorder
	jwtSecret string
	jwtTTL    time.Duration
}

func NewUserService(db *gorm.DB, rdb *redis.Client, settings *SettingsProvider, referrals *ReferralService, recorder *Recorder, jwtSecret string, jwtTTL time.Duration) *UserService {
	if jwtTTL <= 0 {
		jwtTTL = 24 * time.Hour
	}
	return &UserService{
		db:        db,
		rdb:       rdb,
		settings:  settings,
		referrals: referrals,
		recorder:  recorder,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
	}
}

// Register creates a pending account with its own referral code
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if !s.settings.Get().RegistrationEnabled {
		return nil, apperrors.Forbidden("Registration is currently disabled")
	}
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))
	db := s.db.WithContext(ctx)

	var taken int64
	if err := db.Model(&domain.User{}).Where("username = ? OR email = ?", username, email).Count(&taken).Error; err != nil {
		return nil, err
	}
	if taken > 0 {
		return nil, apperrors.Conflict("Username or email already exists")
	}

	var referrer *domain.User
	if code := strings.ToUpper(strings.TrimSpace(in.ReferralCode)); code != "" {
		var r domain.User
		if err := db.Where("referral_code = ?", code).First(&r).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.Validation("Invalid referral code")
			}
			return nil, err
		}
		referrer = &r
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	code := utils.NewReferralCode()
	user := domain.User{
		Username:     username,
		Email:        email,
		Password:     string(hash),
		FullName:     strings.TrimSpace(in.FullName),
		Status:       domain.UserStatusPending,
		Role:         domain.RoleUser,
		ReferralCode: &code,
	}
	if referrer != nil {
		user.ReferredByID = &referrer.ID
	}
	if err := db.Create(&user).Error; err != nil {
		// a concurrent sign-up took the name between the check and the insert
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("Username or email already exists")
		}
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("User registered")

	if referrer != nil {
		s.referrals.RebuildQuietly(ctx, referrer.ID)
	}
	s.recorder.Invalidate(ctx)
	return &user, nil
}

// Login checks credentials and issues a token. Suspended and rejected accounts are refused.
func (s *UserService) Login(ctx context.Context, identifier, password string) (string, *domain.User, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	var user domain.User
	if err := s.db.WithContext(ctx).Where("username = ? OR email = ?", identifier, identifier).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, apperrors.Unauthorized("Invalid credentials")
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, apperrors.Unauthorized("Invalid credentials")
	}
	switch user.Status {
	case domain.UserStatusSuspended:
		return "", nil, apperrors.Forbidden("Account is suspended")
	case domain.UserStatusRejected:
		return "", nil, apperrors.Forbidden("Account registration was rejected")
	}
	token, err := utils.GenerateJWT(user.ID, user.Role, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return "", nil, err
	}
	return token, &user, nil
}

// Get loads a user by id
func (s *UserService) Get(ctx context.Context, id uint) (*domain.User, error) {
	return loadUser(s.db.WithContext(ctx), id)
}

// Profile returns the user and their synced referral row
func (s *UserService) Profile(ctx context.Context, id uint) (*domain.User, *domain.Referral, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	ref, err := s.referrals.EnsureSynced(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return user, ref, nil
}

// Dashboard collects balances, open requests and recent history
func (s *UserService) Dashboard(ctx context.Context, id uint) (*Dashboard, error) {
	user, ref, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	out := &Dashboard{User: user, Referral: ref}
	if err := db.Model(&domain.Deposit{}).Where("user_id = ? AND status = ?", id, domain.DepositPending).Count(&out.PendingDeposits).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&domain.Withdrawal{}).
		Where("user_id = ? AND status IN ?", id, []string{domain.WithdrawalPending, domain.WithdrawalConfirmed}).
		Count(&out.PendingWithdrawals).Error; err != nil {
		return nil, err
	}
	recent, err := s.recorder.List(ctx, TransactionFilter{UserID: id}, utils.Page{Page: 1, PageSize: 5})
	if err != nil {
		return nil, err
	}
	out.RecentTransactions = recent.Items
	return out, nil
}

// List returns users for the admin panel, cached per page and filter
func (s *UserService) List(ctx context.Context, status string, p utils.Page) (utils.PageResult[domain.User], error) {
	key := utils.PageKey(utils.CacheKeyAdminUsers, p, "status="+status)
	return cachedPage(ctx, s.rdb, key, func() (utils.PageResult[domain.User], error) {
		q := s.db.WithContext(ctx).Model(&domain.User{})
		if status != "" {
			q = q.Where("status = ?", status)
		}
		var total int64
		if err := q.Count(&total).Error; err != nil {
			return utils.PageResult[domain.User]{}, err
		}
		var users []domain.User
		if err := q.Order("id DESC").Offset(p.Offset()).Limit(p.PageSize).Find(&users).Error; err != nil {
			return utils.PageResult[domain.User]{}, err
		}
		return utils.NewPageResult(users, p, total), nil
	})
}

// UpdateStatus moves an account between pending, approved, rejected and suspended
func (s *UserService) UpdateStatus(ctx context.Context, id uint, status string) (*domain.User, error) {
	if !domain.ValidUserStatus(status) {
		return nil, apperrors.Validation("Invalid user status")
	}
	db := s.db.WithContext(ctx)
	user, err := loadUser(db, id)
	if err != nil {
		return nil, err
	}
	if err := db.Model(user).Update("status", status).Error; err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"user_id": id, "status": status}).Info("User status updated")

	// activity of this user counts towards the referrer's active referrals
	if user.ReferredByID != nil {
		s.referrals.RebuildQuietly(ctx, *user.ReferredByID)
	}
	s.recorder.Invalidate(ctx, id)
	return loadUser(db, id)
}

// AdjustBalance credits (amount > 0) or debits (amount < 0) an account and records an adjustment
func (s *UserService) AdjustBalance(ctx context.Context, adminID, userID uint, amount float64, description string) (*domain.User, error) {
	if amount == 0 {
		return nil, apperrors.Validation("Adjustment amount must not be zero")
	}
	description = strings.TrimSpace(description)
	if description == "" {
		description = fmt.Sprintf("Balance adjustment by admin #%d", adminID)
	}
	var user *domain.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if amount > 0 {
			err = increment(tx, userID, map[string]float64{"account_balance": amount})
		} else {
			if _, err = loadUser(tx, userID); err != nil {
				return err
			}
			err = debitBalance(tx, userID, -amount, nil)
		}
		if err != nil {
			return err
		}
		if _, err := s.recorder.Record(tx, Entry{
			UserID:      userID,
			Type:        domain.TxTypeAdjustment,
			Amount:      amount,
			Status:      domain.TxStatusCompleted,
			Description: description,
		}); err != nil {
			return err
		}
		user, err = loadUser(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"user_id": userID, "admin_id": adminID, "amount": amount}).Info("Balance adjusted")
	s.recorder.Invalidate(ctx, userID)
	return user, nil
}
