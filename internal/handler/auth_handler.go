package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/middleware"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/service"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/utils"
)

// AuthHandler serves registration, login and session endpoints.
type AuthHandler struct {
	authService *service.AuthService
	limiter     *middleware.InvalidAuthRateLimiter
}

// NewAuthHandler creates a new AuthHandler. Failed logins are counted
// against the caller's IP in limiter.
func NewAuthHandler(authService *service.AuthService, limiter *middleware.InvalidAuthRateLimiter) *AuthHandler {
	return &AuthHandler{authService: authService, limiter: limiter}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		utils.RespondError(c, err, "Failed to register.")
		return
	}
	utils.Success(c, http.StatusCreated, "Registration successful", res)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidCredentials) {
			h.limiter.Fail(c.ClientIP())
		}
		utils.RespondError(c, err, "Failed to log in.")
		return
	}

	h.limiter.Reset(c.ClientIP())
	utils.Success(c, http.StatusOK, "Login successful", res)
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), middleware.Claims(c)); err != nil {
		utils.RespondError(c, err, "Failed to log out.")
		return
	}
	utils.Success(c, http.StatusOK, "Logout successful", nil)
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authService.Me(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		utils.RespondError(c, err, "Failed to load user.")
		return
	}
	utils.Success(c, http.StatusOK, "User retrieved successfully.", user)
}
