package api

import (
	"net/http"

	"invest_platform/internal/api/response"
	"invest_platform/internal/middleware"
	"invest_platform/internal/service"
	"invest_platform/internal/utils"

	"github.com/gin-gonic/gin"
)

// ProfileHandler returns the caller's account with its synchronized referral row
func ProfileHandler(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ref, err := users.Profile(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, "", gin.H{"user": user, "referral": ref})
	}
}

// DashboardHandler returns balances, pending counts and recent ledger rows
func DashboardHandler(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		dash, err := users.Dashboard(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, "", gin.H{"dashboard": dash})
	}
}

// ReferralsHandler returns the caller's referral record and direct referrals
func ReferralsHandler(referrals *service.ReferralService) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := referrals.Summary(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, "", gin.H{
			"referral":  summary.Referral,
			"referrals": summary.Referrals,
		})
	}
}

// MyTransactionsHandler returns the caller's transaction history (cached)
func MyTransactionsHandler(recorder *service.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := service.TransactionFilter{
			UserID: middleware.UserID(c),
			Type:   c.Query("type"),
			Status: c.Query("status"),
		}
		page, err := recorder.List(c.Request.Context(), f, utils.ParsePage(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, "", gin.H{"transactions": page})
	}
}
