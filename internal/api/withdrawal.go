package api

import (
	"fmt"
	"net/http"

	"invest_platform/internal/api/response"
	"invest_platform/internal/domain"
	apperrors "invest_platform/internal/domain/errors"
	"invest_platform/internal/middleware"
	"invest_platform/internal/service"
	"invest_platform/internal/utils"

	"github.com/gin-gonic/gin"
)

// CompleteRequest carries the on-chain payout reference
type CompleteRequest struct {
	TransactionHash string `json:"transactionHash"`
}

// RequestWithdrawalHandler stores a payout request for the authenticated user
func RequestWithdrawalHandler(withdrawals *service.WithdrawalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.WithdrawalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, apperrors.Validation("Amount and currency are required"))
			return
		}
		w, err := withdrawals.Request(c.Request.Context(), middleware.UserID(c), req)
		if err != nil {
			response.Error(c, err)
			return
		}
		message := "Withdrawal requested. Please confirm it twice to submit for review."
		if w.Status == domain.WithdrawalApproved {
			message = "Withdrawal approved"
		}
		response.Success(c, http.StatusCreated, message, gin.H{
			"withdrawal": w,
			"feeApplied": w.Fee,
			"netAmount":  w.NetAmount,
		})
	}
}

// confirmMessage describes where the withdrawal stands after a click
func confirmMessage(w *domain.Withdrawal, advanced bool) string {
	switch {
	case !advanced:
		return fmt.Sprintf("Withdrawal is %s, nothing to confirm", w.Status)
	case w.Status == domain.WithdrawalConfirmed:
		return "Withdrawal confirmed and submitted for admin approval"
	default:
		return fmt.Sprintf("Confirmation %d of %d recorded. Please confirm once more.",
			w.ConfirmationClicks, domain.RequiredConfirmationClicks)
	}
}

// ConfirmWithdrawalHandler records one of the owner's confirmation clicks
func ConfirmWithdrawalHandler(withdrawals *service.WithdrawalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			response.Error(c, err)
			return
		}
		w, advanced, err := withdrawals.Confirm(c.Request.Context(), id, middleware.UserID(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, confirmMessage(w, advanced), gin.H{"withdrawal": w})
	}
}

// ApproveWithdrawalHandler debits a confirmed withdrawal
func ApproveWithdrawalHandler(withdrawals *service.WithdrawalService) gin.HandlerFunc {
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
		w, err := withdrawals.Approve(c.Request.Context(), id, middleware.UserID(c), req.AdminNotes)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, "Withdrawal approved successfully", gin.H{"withdrawal": w})
	}
}

// RejectWithdrawalHandler rejects a withdrawal that has not been approved yet
func RejectWithdrawalHandler(withdrawals *service.WithdrawalService) gin.HandlerFunc {
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
		w, err := withdrawals.Reject(c.Request.Context(), id, middleware.UserID(c), req.Reason)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, "Withdrawal rejected", gin.H{"withdrawal": w})
	}
}

// ProcessWithdrawalHandler marks an approved withdrawal as being paid out
func ProcessWithdrawalHandler(withdrawals *service.WithdrawalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			response.Error(c, err)
			return
		}
		w, err := withdrawals.MarkProcessing(c.Request.Context(), id, middleware.UserID(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, "Withdrawal is being processed", gin.H{"withdrawal": w})
	}
}

// CompleteWithdrawalHandler closes a paid-out withdrawal with its transaction hash
func CompleteWithdrawalHandler(withdrawals *service.WithdrawalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			response.Error(c, err)
			return
		}
		var req CompleteRequest
		if err := bindOptionalJSON(c, &req); err != nil {
			response.Error(c, err)
			return
		}
		w, err := withdrawals.Complete(c.Request.Context(), id, middleware.UserID(c), req.TransactionHash)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, "Withdrawal completed", gin.H{"withdrawal": w})
	}
}

// ListMyWithdrawalsHandler pages through the caller's withdrawals
func ListMyWithdrawalsHandler(withdrawals *service.WithdrawalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := service.WithdrawalFilter{UserID: middleware.UserID(c), Status: c.Query("status")}
		page, err := withdrawals.List(c.Request.Context(), f, utils.ParsePage(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, "", gin.H{"withdrawals": page})
	}
}

// AdminListWithdrawalsHandler pages through all withdrawals
func AdminListWithdrawalsHandler(withdrawals *service.WithdrawalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := queryUint(c, "user_id")
		if err != nil {
			response.Error(c, err)
			return
		}
		f := service.WithdrawalFilter{UserID: userID, Status: c.Query("status")}
		page, err := withdrawals.List(c.Request.Context(), f, utils.ParsePage(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, "", gin.H{"withdrawals": page})
	}
}
