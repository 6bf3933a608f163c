package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"invest_platform/internal/domain"
	apperrors "invest_platform/internal/domain/errors"
	"invest_platform/internal/utils"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const listCacheTTL = 2 * time.Minute

// Entry describes one balance event to append to the ledger
type Entry struct {
	UserID       uint
	Type         string
	Amount       float64
	Currency     string
	Status       string
	Description  string
	DepositID    *uint
	WithdrawalID *uint
	SourceUserID *uint
}

// TransactionFilter narrows transaction listings
type TransactionFilter struct {
	UserID uint
	Type   string
	Status string
}

// TransactionUpdate is an admin correction of a ledger row
type TransactionUpdate struct {
	Status      *string `json:"status"`
	Description *string `json:"description"`
}

// Recorder appends ledger rows and serves cached history pages
type Recorder struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewRecorder(db *gorm.DB, rdb *redis.Client) *Recorder {
	return &Recorder{db: db, rdb: rdb}
}

// Record appends e using tx, which must be the transaction that moved the money
func (r *Recorder) Record(tx *gorm.DB, e Entry) (*domain.Transaction, error) {
	if e.UserID == 0 {
		return nil, apperrors.Validation("Transaction owner is required")
	}
	if !domain.ValidTxType(e.Type) {
		return nil, apperrors.Validation("Invalid transaction type")
	}
	if e.Status == "" {
		e.Status = domain.TxStatusCompleted
	}
	if !domain.ValidTxStatus(e.Status) {
		return nil, apperrors.Validation("Invalid transaction status")
	}
	row := domain.Transaction{
		UserID:       e.UserID,
		Type:         e.Type,
		Amount:       e.Amount,
		Currency:     e.Currency,
		DepositID:    e.DepositID,
		WithdrawalID: e.WithdrawalID,
		SourceUserID: e.SourceUserID,
		Status:       e.Status,
		Description:  e.Description,
		Date:         time.Now().UTC(),
	}
	if err := tx.Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// AdminUpdate edits status or description of an existing row
func (r *Recorder) AdminUpdate(ctx context.Context, id uint, upd TransactionUpdate) (*domain.Transaction, error) {
	updates := map[string]any{}
	if upd.Status != nil {
		if !domain.ValidTxStatus(*upd.Status) {
			return nil, apperrors.Validation("Invalid transaction status")
		}
		updates["status"] = *upd.Status
	}
	if upd.Description != nil {
		updates["description"] = strings.TrimSpace(*upd.Description)
	}
	if len(updates) == 0 {
		return nil, apperrors.Validation("Nothing to update")
	}

	var row domain.Transaction
	db := r.db.WithContext(ctx)
	if err := db.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Transaction not found")
		}
		return nil, err
	}
	if err := db.Model(&row).Updates(updates).Error; err != nil {
		return nil, err
	}
	if err := db.First(&row, id).Error; err != nil {
		return nil, err
	}
	r.Invalidate(ctx, row.UserID)
	logrus.WithFields(logrus.Fields{"transaction_id": id, "user_id": row.UserID}).Info("Transaction edited by admin")
	return &row, nil
}

// List returns a page of transactions, newest first, served from cache when possible
func (r *Recorder) List(ctx context.Context, f TransactionFilter, p utils.Page) (utils.PageResult[domain.Transaction], error) {
	prefix := utils.CacheKeyAdminTxs
	if f.UserID != 0 {
		prefix = utils.UserTransactionsPrefix(f.UserID)
	}
	key := utils.PageKey(prefix, p, "type="+f.Type, "status="+f.Status)

	var cached utils.PageResult[domain.Transaction]
	if found, err := utils.GetCache(ctx, r.rdb, key, &cached); err == nil && found {
		return cached, nil
	}

	q := r.db.WithContext(ctx).Model(&domain.Transaction{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return utils.PageResult[domain.Transaction]{}, err
	}
	var rows []domain.Transaction
	if err := q.Order("date DESC, id DESC").Offset(p.Offset()).Limit(p.PageSize).Find(&rows).Error; err != nil {
		return utils.PageResult[domain.Transaction]{}, err
	}
	result := utils.NewPageResult(rows, p, total)
	if err := utils.SetCache(ctx, r.rdb, key, result, listCacheTTL); err != nil {
		logrus.WithError(err).Warn("Failed to cache transactions")
	}
	return result, nil
}

// Invalidate drops cached history for the users and the admin listings
func (r *Recorder) Invalidate(ctx context.Context, userIDs ...uint) {
	prefixes := []string{utils.CacheKeyAdminTxs, utils.CacheKeyAdminUsers, utils.CacheKeyAdminDeposits, utils.CacheKeyAdminWithdrawals}
	for _, id := range userIDs {
		prefixes = append(prefixes, utils.UserTransactionsPrefix(id))
	}
	if err := utils.DeleteCache(ctx, r.rdb, prefixes...); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate cache")
	}
}
