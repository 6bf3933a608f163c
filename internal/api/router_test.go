package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"invest_platform/internal/db"
	"invest_platform/internal/metrics"
	"invest_platform/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-password"
)

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))
	_, err = db.SeedAdmin(gdb, adminEmail, adminPassword)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	ctx := context.Background()
	m := metrics.New(prometheus.NewRegistry())
	settings := service.NewSettingsProvider(gdb, service.Bands{MinDeposit: 50, MaxDeposit: 100000, MinWithdrawal: 10, MaxWithdrawal: 50000})
	require.NoError(t, settings.Load(ctx))
	recorder := service.NewRecorder(gdb, rdb)
	referrals := service.NewReferralService(gdb, settings, m)

	quiet := logrus.New()
	quiet.SetLevel(logrus.PanicLevel)

	router := NewRouter(Deps{
		DB:          gdb,
		JWTSecret:   "test-secret",
		Logger:      quiet,
		Metrics:     m,
		Settings:    settings,
		Users:       service.NewUserService(gdb, rdb, settings, referrals, recorder, "test-secret", time.Hour),
		Deposits:    service.NewDepositService(gdb, settings, recorder, referrals, nil, m),
		Withdrawals: service.NewWithdrawalService(gdb, settings, recorder, nil, m),
		Referrals:   referrals,
		Recorder:    recorder,
	})
	return &testServer{t: t, router: router}
}

func (s *testServer) do(method, path, token string, body any) (int, map[string]any) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func (s *testServer) register(username, referralCode string) map[string]any {
	s.t.Helper()
	code, body := s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"username":     username,
		"email":        username + "@example.com",
		"password":     "password123",
		"referralCode": referralCode,
	})
	require.Equal(s.t, http.StatusCreated, code, body)
	return body["user"].(map[string]any)
}

func (s *testServer) login(identifier, password string) string {
	s.t.Helper()
	code, body := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": identifier, "password": password})
	require.Equal(s.t, http.StatusOK, code, body)
	return body["token"].(string)
}

func (s *testServer) profile(token string) map[string]any {
	s.t.Helper()
	code, body := s.do(http.MethodGet, "/api/users/profile", token, nil)
	require.Equal(s.t, http.StatusOK, code, body)
	return body["user"].(map[string]any)
}

func nested(body map[string]any, keys ...string) any {
	var cur any = body
	for _, k := range keys {
		cur = cur.(map[string]any)[k]
	}
	return cur
}

func TestDepositAndWithdrawalFlow(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice", "")
	s.register("bob", alice["referralCode"].(string))

	aliceToken := s.login("alice", "password123")
	bobToken := s.login("bob@example.com", "password123")
	adminToken := s.login(adminEmail, adminPassword)

	// deposit
	code, body := s.do(http.MethodPost, "/api/deposits/create", bobToken, gin.H{
		"amount": 1000, "currency": "USDT", "plan": "silver plan",
	})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, "pending", nested(body, "deposit", "status"))
	assert.Equal(t, float64(0), body["feeApplied"])
	depositPath := fmt.Sprintf("/api/deposits/approve/%v", nested(body, "deposit", "id"))

	code, _ = s.do(http.MethodPut, depositPath, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = s.do(http.MethodPut, depositPath, adminToken, gin.H{"adminNotes": "ok"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "approved", nested(body, "deposit", "status"))

	code, body = s.do(http.MethodPut, depositPath, adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Deposit is already approved", body["message"])
	assert.Equal(t, false, body["success"])

	assert.Equal(t, float64(1000), s.profile(bobToken)["accountBalance"])
	assert.Equal(t, float64(70), s.profile(aliceToken)["accountBalance"])

	// withdrawal
	code, body = s.do(http.MethodPost, "/api/withdrawals/request", bobToken, gin.H{
		"amount": 100, "currency": "usdt", "walletAddress": "TXYZ123",
	})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, float64(100), body["netAmount"])
	id := nested(body, "withdrawal", "id")

	code, body = s.do(http.MethodPut, fmt.Sprintf("/api/withdrawals/approve/%v", id), adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Withdrawal must be confirmed by the user before approval", body["message"])

	code, _ = s.do(http.MethodPut, fmt.Sprintf("/api/withdrawals/confirm/%v", id), aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, code)

	confirmPath := fmt.Sprintf("/api/withdrawals/confirm/%v", id)
	code, body = s.do(http.MethodPut, confirmPath, bobToken, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Confirmation 1 of 2 recorded. Please confirm once more.", body["message"])

	code, body = s.do(http.MethodPut, confirmPath, bobToken, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Withdrawal confirmed and submitted for admin approval", body["message"])
	assert.Equal(t, "confirmed", nested(body, "withdrawal", "status"))

	code, body = s.do(http.MethodPut, confirmPath, bobToken, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Withdrawal is confirmed, nothing to confirm", body["message"])
	assert.Equal(t, float64(2), nested(body, "withdrawal", "confirmationClicks"))

	code, body = s.do(http.MethodPut, fmt.Sprintf("/api/withdrawals/approve/%v", id), adminToken, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, float64(900), s.profile(bobToken)["accountBalance"])

	completePath := fmt.Sprintf("/api/withdrawals/complete/%v", id)
	code, body = s.do(http.MethodPut, completePath, adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Transaction hash is required", body["message"])

	code, body = s.do(http.MethodPut, completePath, adminToken, gin.H{"transactionHash": "0xabc"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "completed", nested(body, "withdrawal", "status"))
	assert.Equal(t, "0xabc", nested(body, "withdrawal", "transactionHash"))

	// history
	code, body = s.do(http.MethodGet, "/api/transactions", bobToken, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, float64(2), nested(body, "transactions", "total"))

	code, body = s.do(http.MethodGet, "/api/admin/transactions?type=commission", adminToken, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, float64(1), nested(body, "transactions", "total"))

	code, body = s.do(http.MethodGet, "/api/referrals", aliceToken, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Len(t, body["referrals"], 1)
	assert.Equal(t, float64(70), nested(body, "referral", "totalCommission"))
}

func TestAuthValidation(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(http.MethodPost, "/api/auth/register", "", gin.H{"username": "1bad", "email": "x@example.com", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["message"], "Username")

	code, _ = s.do(http.MethodPost, "/api/auth/register", "", gin.H{"username": "carol", "email": "nope", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodPost, "/api/auth/register", "", gin.H{"username": "carol", "email": "c@example.com", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = s.do(http.MethodPost, "/api/auth/register", "", gin.H{"username": "carol", "email": "c@example.com", "password": "password123", "referralCode": "NOPE0000"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid referral code", body["message"])

	s.register("carol", "")
	code, _ = s.do(http.MethodPost, "/api/auth/register", "", gin.H{"username": "carol", "email": "c2@example.com", "password": "password123"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": "carol", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(http.MethodGet, "/api/users/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAdminUserManagement(t *testing.T) {
	s := newTestServer(t)
	dave := s.register("dave", "")
	adminToken := s.login(adminEmail, adminPassword)
	daveToken := s.login("dave", "password123")

	code, _ := s.do(http.MethodGet, "/api/admin/users", daveToken, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body := s.do(http.MethodGet, "/api/admin/users?status=pending", adminToken, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, float64(1), nested(body, "users", "total"))

	statusPath := fmt.Sprintf("/api/admin/users/%v/status", dave["id"])
	code, body = s.do(http.MethodPut, statusPath, adminToken, gin.H{"status": "approved"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "approved", nested(body, "user", "status"))

	code, _ = s.do(http.MethodPut, statusPath, adminToken, gin.H{"status": "banished"})
	assert.Equal(t, http.StatusBadRequest, code)

	balancePath := fmt.Sprintf("/api/admin/users/%v/balance", dave["id"])
	code, body = s.do(http.MethodPut, balancePath, adminToken, gin.H{"amount": 250, "description": "bonus"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, float64(250), nested(body, "user", "accountBalance"))

	code, body = s.do(http.MethodPut, balancePath, adminToken, gin.H{"amount": -1000})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["message"], "Insufficient balance")

	code, body = s.do(http.MethodGet, "/api/admin/transactions?type=adjustment", adminToken, nil)
	require.Equal(t, http.StatusOK, code, body)
	items := nested(body, "transactions", "items").([]any)
	require.Len(t, items, 1)
	txID := items[0].(map[string]any)["id"]

	code, body = s.do(http.MethodPut, fmt.Sprintf("/api/admin/transactions/%v", txID), adminToken, gin.H{"description": "welcome bonus"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "welcome bonus", nested(body, "transaction", "description"))

	code, _ = s.do(http.MethodPut, "/api/admin/users/abc/status", adminToken, gin.H{"status": "approved"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSuspendedUserLosesAccessWithLiveToken(t *testing.T) {
	s := newTestServer(t)
	gina := s.register("gina", "")
	adminToken := s.login(adminEmail, adminPassword)
	ginaToken := s.login("gina", "password123")

	balancePath := fmt.Sprintf("/api/admin/users/%v/balance", gina["id"])
	code, body := s.do(http.MethodPut, balancePath, adminToken, gin.H{"amount": 500})
	require.Equal(t, http.StatusOK, code, body)
	code, body = s.do(http.MethodPost, "/api/withdrawals/request", ginaToken, gin.H{
		"amount": 100, "currency": "usdt", "walletAddress": "TXYZ123",
	})
	require.Equal(t, http.StatusCreated, code, body)
	confirmPath := fmt.Sprintf("/api/withdrawals/confirm/%v", nested(body, "withdrawal", "id"))

	statusPath := fmt.Sprintf("/api/admin/users/%v/status", gina["id"])
	code, body = s.do(http.MethodPut, statusPath, adminToken, gin.H{"status": "suspended"})
	require.Equal(t, http.StatusOK, code, body)

	code, body = s.do(http.MethodPost, "/api/withdrawals/request", ginaToken, gin.H{
		"amount": 100, "currency": "usdt", "walletAddress": "TXYZ123",
	})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Account is suspended", body["message"])

	code, _ = s.do(http.MethodPut, confirmPath, ginaToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(http.MethodPost, "/api/deposits/create", ginaToken, gin.H{
		"amount": 100, "currency": "usdt", "plan": "basic plan",
	})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodPut, statusPath, adminToken, gin.H{"status": "approved"})
	require.Equal(t, http.StatusOK, code)
	code, body = s.do(http.MethodPut, confirmPath, ginaToken, nil)
	assert.Equal(t, http.StatusOK, code, body)
}

func TestSettingsAndMaintenance(t *testing.T) {
	s := newTestServer(t)
	s.register("erin", "")
	erinToken := s.login("erin", "password123")
	adminToken := s.login(adminEmail, adminPassword)

	code, body := s.do(http.MethodPut, "/api/admin/settings", adminToken, gin.H{"minDeposit": 500, "maxDeposit": 100})
	assert.Equal(t, http.StatusBadRequest, code, body)

	code, body = s.do(http.MethodPut, "/api/admin/settings", adminToken, gin.H{"maintenanceMode": true})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, nested(body, "settings", "maintenanceMode"))

	code, body = s.do(http.MethodGet, "/api/users/profile", erinToken, nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, false, body["success"])

	code, _ = s.do(http.MethodPost, "/api/auth/register", "", gin.H{"username": "frank", "email": "f@example.com", "password": "password123"})
	assert.Equal(t, http.StatusServiceUnavailable, code)

	code, _ = s.do(http.MethodGet, "/api/users/profile", adminToken, nil)
	assert.Equal(t, http.StatusOK, code)

	code, body = s.do(http.MethodGet, "/api/admin/settings", adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(50), nested(body, "settings", "minDeposit"))

	code, _ = s.do(http.MethodPut, "/api/admin/settings", adminToken, gin.H{"maintenanceMode": false})
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodGet, "/api/users/profile", erinToken, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestOperationalEndpoints(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	code, body = s.do(http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Route not found", body["message"])

	token := s.login(adminEmail, adminPassword)
	code, body = s.do(http.MethodGet, "/api/deposits/plans", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["plans"], 5)
}
