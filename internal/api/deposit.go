package api

import (
	"net/http"

	"invest_platform/internal/api/response"
	"invest_platform/internal/domain"
	apperrors "invest_platform/internal/domain/errors"
	"invest_platform/internal/middleware"
	"invest_platform/internal/service"
	"invest_platform/internal/utils"

	"github.com/gin-gonic/gin"
)

// ReviewRequest is the optional body of admin approve/reject calls
type ReviewRequest struct {
	Reason     string `json:"reason"`
	AdminNotes string `json:"adminNotes"`
}

// CreateDepositHandler stores a deposit for the authenticated user
func CreateDepositHandler(deposits *service.DepositService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.DepositRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, apperrors.Validation("Amount, currency and plan are required"))
			return
		}
		dep, err := deposits.Create(c.Request.Context(), middleware.UserID(c), req)
		if err != nil {
			response.Error(c, err)
			return
		}
		message := "Deposit submitted and awaiting approval"
		if dep.Status == domain.DepositApproved {
			message = "Deposit approved"
		}
		response.Success(c, http.StatusCreated, message, gin.H{"deposit": dep, "feeApplied": dep.Fee})
	}
}

// ApproveDepositHandler credits a pending deposit
func ApproveDepositHandler(deposits *service.DepositService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			response.Error(c, err)
			return
		}
		var req ReviewRequest
		if err := bindOptionalJSON(c, &req); err != nil {
			response.Error(c, err)
			return
		}
		dep, err := deposits.Approve(c.Request.Context(), id, middleware.UserID(c), req.AdminNotes)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, "Deposit approved successfully", gin.H{"deposit": dep})
	}
}

// RejectDepositHandler rejects a pending deposit without touching balances
func RejectDepositHandler(deposits *service.DepositService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			response.Error(c, err)
			return
		}
		var req ReviewRequest
		if err := bindOptionalJSON(c, &req); err != nil {
			response.Error(c, err)
			return
		}
		dep, err := deposits.Reject(c.Request.Context(), id, middleware.UserID(c), req.Reason, req.AdminNotes)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, "Deposit rejected", gin.H{"deposit": dep})
	}
}

// ListMyDepositsHandler pages through the caller's deposits
func ListMyDepositsHandler(deposits *service.DepositService) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := service.DepositFilter{UserID: middleware.UserID(c), Status: c.Query("status")}
		page, err := deposits.List(c.Request.Context(), f, utils.ParsePage(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, "", gin.H{"deposits": page})
	}
}

// AdminListDepositsHandler pages through all deposits, optionally by user and status
func AdminListDepositsHandler(deposits *service.DepositService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := queryUint(c, "user_id")
		if err != nil {
			response.Error(c, err)
			return
		}
		f := service.DepositFilter{UserID: userID, Status: c.Query("status")}
		page, err := deposits.List(c.Request.Context(), f, utils.ParsePage(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, "", gin.H{"deposits": page})
	}
}

// PlansHandler lists the investment tiers
func PlansHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, http.StatusOK, "", gin.H{"plans": domain.Plans})
	}
}
