package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"invest_platform/internal/db"
	"invest_platform/internal/domain"
	"invest_platform/internal/metrics"
	"invest_platform/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testBands = Bands{MinDeposit: 50, MaxDeposit: 100000, MinWithdrawal: 10, MaxWithdrawal: 50000}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) add(kind string, id uint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, fmt.Sprintf("%s:%d", kind, id))
}

func (n *recordingNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

func (n *recordingNotifier) SendDepositPending(d domain.Deposit)  { n.add("deposit_pending", d.ID) }
func (n *recordingNotifier) SendDepositApproved(d domain.Deposit) { n.add("deposit_approved", d.ID) }
func (n *recordingNotifier) SendWithdrawalRequested(w domain.Withdrawal) {
	n.add("withdrawal_requested", w.ID)
}
func (n *recordingNotifier) SendWithdrawalApproved(w domain.Withdrawal) {
	n.add("withdrawal_approved", w.ID)
}
func (n *recordingNotifier) SendWithdrawalRejected(w domain.Withdrawal) {
	n.add("withdrawal_rejected", w.ID)
}
func (n *recordingNotifier) SendWithdrawalCompleted(w domain.Withdrawal) {
	n.add("withdrawal_completed", w.ID)
}
func (n *recordingNotifier) SendAdminDepositNotification(d domain.Deposit) {
	n.add("admin_deposit", d.ID)
}
func (n *recordingNotifier) SendAdminWithdrawalNotification(w domain.Withdrawal) {
	n.add("admin_withdrawal", w.ID)
}

type fixture struct {
	ctx         context.Context
	db          *gorm.DB
	rdb         *redis.Client
	mr          *miniredis.Miniredis
	settings    *SettingsProvider
	recorder    *Recorder
	referrals   *ReferralService
	deposits    *DepositService
	withdrawals *WithdrawalService
	users       *UserService
	notifier    *recordingNotifier
	writes      atomic.Int64
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true})
	require.NoError(t, err, "open sqlite")
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{ctx: context.Background(), db: newTestDB(t), notifier: &recordingNotifier{}}
	f.mr = miniredis.RunT(t)
	f.rdb = redis.NewClient(&redis.Options{Addr: f.mr.Addr()})

	m := metrics.New(prometheus.NewRegistry())
	f.settings = NewSettingsProvider(f.db, testBands)
	require.NoError(t, f.settings.Load(f.ctx))
	f.recorder = NewRecorder(f.db, f.rdb)
	f.referrals = NewReferralService(f.db, f.settings, m)
	f.deposits = NewDepositService(f.db, f.settings, f.recorder, f.referrals, f.notifier, m)
	f.withdrawals = NewWithdrawalService(f.db, f.settings, f.recorder, f.notifier, m)
	f.users = NewUserService(f.db, f.rdb, f.settings, f.referrals, f.recorder, "test-secret", time.Hour)

	count := func(*gorm.DB) { f.writes.Add(1) }
	require.NoError(t, f.db.Callback().Create().After("gorm:create").Register("test:count_create", count))
	require.NoError(t, f.db.Callback().Update().After("gorm:update").Register("test:count_update", count))
	return f
}

func (f *fixture) configure(t *testing.T, patch SettingsPatch) {
	t.Helper()
	_, err := f.settings.Update(f.ctx, patch)
	require.NoError(t, err)
}

func (f *fixture) createUser(t *testing.T, name string, balance float64, referredBy *domain.User) *domain.User {
	t.Helper()
	code := utils.NewReferralCode()
	u := domain.User{
		Username:       name,
		Email:          name + "@example.com",
		Password:       "x",
		Status:         domain.UserStatusApproved,
		Role:           domain.RoleUser,
		AccountBalance: balance,
		ReferralCode:   &code,
	}
	if referredBy != nil {
		u.ReferredByID = &referredBy.ID
	}
	require.NoError(t, f.db.Create(&u).Error)
	return &u
}

func (f *fixture) reload(t *testing.T, id uint) *domain.User {
	t.Helper()
	var u domain.User
	require.NoError(t, f.db.First(&u, id).Error)
	return &u
}

func (f *fixture) countTx(t *testing.T, userID uint, txType string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&domain.Transaction{}).Where("user_id = ? AND type = ?", userID, txType).Count(&n).Error)
	return n
}

func ptr[T any](v T) *T { return &v }

func pageOf(page, size int) utils.Page { return utils.Page{Page: page, PageSize: size} }
