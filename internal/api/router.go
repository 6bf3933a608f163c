package api

import (
	"net/http"
	"time"

	"invest_platform/internal/api/response"
	apperrors "invest_platform/internal/domain/errors"
	"invest_platform/internal/metrics"
	"invest_platform/internal/middleware"
	"invest_platform/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Deps is everything the HTTP layer needs
type Deps struct {
	DB          *gorm.DB
	JWTSecret   string
	Logger      *logrus.Logger
	Metrics     *metrics.Metrics
	Settings    *service.SettingsProvider
	Users       *service.UserService
	Deposits    *service.DepositService
	Withdrawals *service.WithdrawalService
	Referrals   *service.ReferralService
	Recorder    *service.Recorder
}

// NewRouter wires middleware and routes onto a fresh gin engine
func NewRouter(d Deps) *gin.Engine {
	logger := d.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(logger))

	r.GET("/health", HealthHandler(d.DB))
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	jwtAuth := middleware.JWTAuthMiddleware(d.JWTSecret)
	maintenance := middleware.Maintenance(d.Settings)

	api := r.Group("/api")

	// Auth routes; login stays open during maintenance so admins can get in
	auth := api.Group("/auth")
	auth.POST("/register", maintenance, RegisterHandler(d.Users))
	auth.POST("/login", LoginHandler(d.Users))

	// User routes (protected by JWT)
	user := api.Group("", jwtAuth, middleware.ActiveAccount(d.DB), maintenance)
	user.GET("/users/profile", ProfileHandler(d.Users))
	user.GET("/users/dashboard", DashboardHandler(d.Users))
	user.GET("/referrals", ReferralsHandler(d.Referrals))
	user.GET("/transactions", MyTransactionsHandler(d.Recorder))
	user.GET("/deposits", ListMyDepositsHandler(d.Deposits))
	user.GET("/deposits/plans", PlansHandler())
	user.POST("/deposits/create", CreateDepositHandler(d.Deposits))
	user.GET("/withdrawals", ListMyWithdrawalsHandler(d.Withdrawals))
	user.POST("/withdrawals/request", RequestWithdrawalHandler(d.Withdrawals))
	user.PUT("/withdrawals/confirm/:id", ConfirmWithdrawalHandler(d.Withdrawals))

	// Admin routes (protected, admin only)
	admin := api.Group("", jwtAuth, middleware.AdminOnlyMiddleware(d.DB))
	admin.PUT("/deposits/approve/:id", ApproveDepositHandler(d.Deposits))
	admin.PUT("/deposits/reject/:id", RejectDepositHandler(d.Deposits))
	admin.PUT("/withdrawals/approve/:id", ApproveWithdrawalHandler(d.Withdrawals))
	admin.PUT("/withdrawals/reject/:id", RejectWithdrawalHandler(d.Withdrawals))
	admin.PUT("/withdrawals/process/:id", ProcessWithdrawalHandler(d.Withdrawals))
	admin.PUT("/withdrawals/complete/:id", CompleteWithdrawalHandler(d.Withdrawals))

	panel := admin.Group("/admin")
	panel.GET("/users", ListUsersHandler(d.Users))
	panel.PUT("/users/:id/status", UpdateUserStatusHandler(d.Users))
	panel.PUT("/users/:id/balance", AdjustBalanceHandler(d.Users))
	panel.GET("/deposits", AdminListDepositsHandler(d.Deposits))
	panel.GET("/withdrawals", AdminListWithdrawalsHandler(d.Withdrawals))
	panel.GET("/transactions", ListTransactionsHandler(d.Recorder))
	panel.PUT("/transactions/:id", UpdateTransactionHandler(d.Recorder))
	panel.GET("/settings", GetSettingsHandler(d.Settings))
	panel.PUT("/settings", UpdateSettingsHandler(d.Settings))

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, apperrors.NotFound("Route not found"))
	})
	return r
}

// HealthHandler reports process liveness and database reachability
func HealthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "status": "unavailable", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok", "time": time.Now().UTC()})
	}
}
