package service

import (
	"sync"
	"testing"

	"invest_platform/internal/domain"
	apperrors "invest_platform/internal/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSyncedCreatesRowWithCounters(t *testing.T) {
	f := newFixture(t)
	parent := f.createUser(t, "parent", 0, nil)
	active := f.createUser(t, "active", 0, parent)
	f.createUser(t, "idle", 0, parent)
	require.NoError(t, f.db.Model(active).Update("total_deposits", 100).Error)
	pending := f.createUser(t, "pending", 0, parent)
	require.NoError(t, f.db.Model(pending).Updates(map[string]any{"status": domain.UserStatusPending, "total_deposits": 50}).Error)

	ref, err := f.referrals.EnsureSynced(f.ctx, parent.ID)
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, parent.ReferralCodeValue(), ref.ReferralCode)
	assert.Equal(t, int64(3), ref.ReferralsCount)
	assert.Equal(t, int64(1), ref.ActiveReferrals)
	assert.Equal(t, domain.DefaultLevel1Rate, ref.Level1Rate)
	assert.Equal(t, domain.DefaultLevel2Rate, ref.Level2Rate)
	assert.Nil(t, ref.ReferredByID)
}

func TestEnsureSyncedWithoutReferralCode(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, "nocode", 0, nil)
	require.NoError(t, f.db.Model(user).Update("referral_code", nil).Error)

	ref, err := f.referrals.EnsureSynced(f.ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, ref)

	var n int64
	f.db.Model(&domain.Referral{}).Count(&n)
	assert.Zero(t, n)

	_, err = f.referrals.EnsureSynced(f.ctx, 999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestEnsureSyncedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	parent := f.createUser(t, "parent", 0, nil)
	f.createUser(t, "child", 0, parent)

	first, err := f.referrals.EnsureSynced(f.ctx, parent.ID)
	require.NoError(t, err)

	before := f.writes.Load()
	second, err := f.referrals.EnsureSynced(f.ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, before, f.writes.Load(), "no writes when nothing drifted")
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.UpdatedAt.Unix(), second.UpdatedAt.Unix())
}

func TestEnsureSyncedRepairsDriftWithoutTouchingUser(t *testing.T) {
	f := newFixture(t)
	grand := f.createUser(t, "grand", 0, nil)
	user := f.createUser(t, "user", 0, grand)
	require.NoError(t, f.db.Model(user).Updates(map[string]any{"total_commission": 42.5, "referral_earnings": 40}).Error)

	_, err := f.referrals.EnsureSynced(f.ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&domain.Referral{}).Where("user_id = ?", user.ID).Updates(map[string]any{
		"referral_code":     "STALE000",
		"total_commission":  1,
		"referral_earnings": 2,
		"referred_by_id":    nil,
	}).Error)
	userBefore := f.reload(t, user.ID)

	ref, err := f.referrals.EnsureSynced(f.ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ReferralCodeValue(), ref.ReferralCode)
	assert.Equal(t, 42.5, ref.TotalCommission)
	assert.Equal(t, 40.0, ref.ReferralEarnings)
	require.NotNil(t, ref.ReferredByID)
	assert.Equal(t, grand.ID, *ref.ReferredByID)

	userAfter := f.reload(t, user.ID)
	assert.Equal(t, userBefore.UpdatedAt, userAfter.UpdatedAt)
	assert.Equal(t, userBefore.TotalCommission, userAfter.TotalCommission)

	// repaired row is stable again
	before := f.writes.Load()
	_, err = f.referrals.EnsureSynced(f.ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, before, f.writes.Load())
}

func TestEnsureSyncedConcurrentReadersCreateOneRow(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, "user", 0, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ref, err := f.referrals.EnsureSynced(f.ctx, user.ID)
			assert.NoError(t, err)
			assert.NotNil(t, ref)
		}()
	}
	wg.Wait()

	var n int64
	f.db.Model(&domain.Referral{}).Where("user_id = ?", user.ID).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestRebuildRefreshesCounters(t *testing.T) {
	f := newFixture(t)
	parent := f.createUser(t, "parent", 0, nil)
	_, err := f.referrals.EnsureSynced(f.ctx, parent.ID)
	require.NoError(t, err)

	child := f.createUser(t, "child", 0, parent)
	require.NoError(t, f.db.Model(child).Update("total_deposits", 10).Error)

	// counters are not part of read repair
	ref, err := f.referrals.EnsureSynced(f.ctx, parent.ID)
	require.NoError(t, err)
	assert.Zero(t, ref.ReferralsCount)

	ref, err = f.referrals.Rebuild(f.ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ref.ReferralsCount)
	assert.Equal(t, int64(1), ref.ActiveReferrals)

	var n int64
	f.db.Model(&domain.Referral{}).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestRebuildAll(t *testing.T) {
	f := newFixture(t)
	a := f.createUser(t, "a", 0, nil)
	f.createUser(t, "b", 0, a)
	c := f.createUser(t, "c", 0, nil)
	require.NoError(t, f.db.Model(c).Update("referral_code", nil).Error)

	done, err := f.referrals.RebuildAll(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, done)

	var n int64
	f.db.Model(&domain.Referral{}).Count(&n)
	assert.Equal(t, int64(2), n)
}

func TestReferralSummary(t *testing.T) {
	f := newFixture(t)
	parent := f.createUser(t, "parent", 0, nil)
	f.createUser(t, "one", 0, parent)
	f.createUser(t, "two", 0, parent)
	f.createUser(t, "stranger", 0, nil)

	summary, err := f.referrals.Summary(f.ctx, parent.ID)
	require.NoError(t, err)
	require.NotNil(t, summary.Referral)
	assert.Len(t, summary.Referrals, 2)
	assert.Equal(t, int64(2), summary.Referral.ReferralsCount)
}
