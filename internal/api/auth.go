package api

import (
	"net/http" // HTTP status codes
	"regexp"   // Regular expressions
	"strings"  // String manipulation

	"invest_platform/internal/api/response"
	apperrors "invest_platform/internal/domain/errors"
	"invest_platform/internal/service"

	"github.com/gin-gonic/gin" // Gin web framework
)

// RegisterRequest is the sign-up body
type RegisterRequest struct {
	Username     string `json:"username" binding:"required"` // Username must be provided
	Email        string `json:"email" binding:"required"`    // Email must be provided
	Password     string `json:"password" binding:"required"` // Password must be provided
	FullName     string `json:"fullName"`
	ReferralCode string `json:"referralCode"` // Optional referrer code
}

// LoginRequest accepts a username or an email as identifier
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{2,31}$`)
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// isValidUsername checks the username starts with a letter and holds 3-32 word characters
func isValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

func isValidEmail(email string) bool {
	return len(email) <= 255 && emailPattern.MatchString(email)
}

// isValidPassword checks if the password length is between 8 and 72 characters (bcrypt limit)
func isValidPassword(password string) bool {
	return len(password) >= 8 && len(password) <= 72
}

// RegisterHandler creates a pending account
func RegisterHandler(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, apperrors.Validation("Invalid request"))
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		req.Email = strings.TrimSpace(req.Email)
		if !isValidUsername(req.Username) {
			response.Error(c, apperrors.Validation("Username must be 3-32 letters, digits or underscores and start with a letter"))
			return
		}
		if !isValidEmail(req.Email) {
			response.Error(c, apperrors.Validation("Invalid email address"))
			return
		}
		if !isValidPassword(req.Password) {
			response.Error(c, apperrors.Validation("Password must be 8-72 characters"))
			return
		}
		user, err := users.Register(c.Request.Context(), service.RegisterInput{
			Username:     req.Username,
			Email:        req.Email,
			Password:     req.Password,
			FullName:     strings.TrimSpace(req.FullName),
			ReferralCode: strings.TrimSpace(req.ReferralCode),
		})
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusCreated, "Registration successful. Your account is awaiting approval.", gin.H{"user": user})
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, apperrors.Validation("Invalid request"))
			return
		}
		token, user, err := users.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, "Login successful", gin.H{"token": token, "user": user})
	}
}
