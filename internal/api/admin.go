package api

import (
	"net/http" // HTTP status codes

	"invest_platform/internal/api/response"
	apperrors "invest_platform/internal/domain/errors"
	"invest_platform/internal/middleware"
	"invest_platform/internal/service"
	"invest_platform/internal/utils"

	"github.com/gin-gonic/gin" // Gin web framework
)

// StatusRequest changes an account status
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// BalanceRequest credits (positive) or debits (negative) an account
type BalanceRequest struct {
	Amount      float64 `json:"amount" binding:"required"`
	Description string  `json:"description"`
}

// ListUsersHandler returns all users, optionally filtered by status
func ListUsersHandler(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := users.List(c.Request.Context(), c.Query("status"), utils.ParsePage(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, "", gin.H{"users": page})
	}
}

// UpdateUserStatusHandler approves, rejects or suspends an account
func UpdateUserStatusHandler(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			response.Error(c, err)
			return
		}
		var req StatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, apperrors.Validation("Status is required"))
			return
		}
		user, err := users.UpdateStatus(c.Request.Context(), id, req.Status)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, "User status updated", gin.H{"user": user})
	}
}

// AdjustBalanceHandler applies a manual balance correction
func AdjustBalanceHandler(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			response.Error(c, err)
			return
		}
		var req BalanceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, apperrors.Validation("A non-zero amount is required"))
			return
		}
		user, err := users.AdjustBalance(c.Request.Context(), middleware.UserID(c), id, req.Amount, req.Description)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, "Balance adjusted", gin.H{"user": user})
	}
}

// ListTransactionsHandler returns all transactions, with optional filtering by user, type or status
func ListTransactionsHandler(recorder *service.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := queryUint(c, "user_id")
		if err != nil {
			response.Error(c, err)
			return
		}
		f := service.TransactionFilter{UserID: userID, Type: c.Query("type"), Status: c.Query("status")}
		page, err := recorder.List(c.Request.Context(), f, utils.ParsePage(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, "", gin.H{"transactions": page})
	}
}

// UpdateTransactionHandler edits the status or description of a ledger row
func UpdateTransactionHandler(recorder *service.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			response.Error(c, err)
			return
		}
		var req service.TransactionUpdate
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, apperrors.Validation("Invalid request"))
			return
		}
		tx, err := recorder.AdminUpdate(c.Request.Context(), id, req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, "Transaction updated", gin.H{"transaction": tx})
	}
}

// GetSettingsHandler returns the effective platform settings
func GetSettingsHandler(settings *service.SettingsProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, http.StatusOK, "", gin.H{"settings": settings.Get()})
	}
}

// UpdateSettingsHandler applies a partial settings update
func UpdateSettingsHandler(settings *service.SettingsProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch service.SettingsPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			response.Error(c, apperrors.Validation("Invalid request"))
			return
		}
		updated, err := settings.Update(c.Request.Context(), patch)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, "Settings updated", gin.H{"settings": updated})
	}
}
