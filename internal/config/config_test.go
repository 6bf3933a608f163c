package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"APP_PORT", "DB_DRIVER", "MIN_DEPOSIT", "MAX_WITHDRAWAL", "JWT_TTL", "REDIS_DB", "IS_PROD"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 50.0, cfg.MinDeposit)
	assert.Equal(t, 50000.0, cfg.MaxWithdrawal)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.False(t, cfg.IsProd)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("MIN_DEPOSIT", "75.5")
	t.Setenv("REFERRAL_SYNC_INTERVAL", "30s")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("IS_PROD", "true")
	t.Setenv("TELEGRAM_ADMIN_CHAT_ID", "12345")

	cfg := LoadConfig()
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 75.5, cfg.MinDeposit)
	assert.Equal(t, 30*time.Second, cfg.ReferralSyncInterval)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.IsProd)
	assert.Equal(t, int64(12345), cfg.TelegramAdminChatID)
}

func TestLoadConfigIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("MAX_DEPOSIT", "lots")
	t.Setenv("NOTIFY_TIMEOUT", "soon")
	cfg := LoadConfig()
	assert.Equal(t, 100000.0, cfg.MaxDeposit)
	assert.Equal(t, 10*time.Second, cfg.NotifyTimeout)
}
