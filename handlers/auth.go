package handlers

import (
	"net/http"

	"meramarket/middleware"
	"meramarket/models"
	"meramarket/services/auth"
	"meramarket/services/billing"
	"meramarket/services/integrations"
	"meramarket/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler serves sign-in, sign-up and phone verification through the
// active auth provider.
type AuthHandler struct {
	registry *integrations.Registry
	billing  *billing.Service
}

func NewAuthHandler(registry *integrations.Registry, bill *billing.Service) *AuthHandler {
	return &AuthHandler{registry: registry, billing: bill}
}

func (h *AuthHandler) service(c *gin.Context) (auth.Service, bool) {
	svc, err := integrations.Resolve[auth.Service](c.Request.Context(), h.registry, integrations.CategoryAuth)
	if err != nil {
		getLogger(c).Error("Auth provider unavailable", zap.Error(err))
		utils.JSONError(c, http.StatusServiceUnavailable, "Authentication is unavailable", err.Error())
		return nil, false
	}
	return svc, true
}

// LoginHandler signs in with email and password.
func (h *AuthHandler) LoginHandler(c *gin.Context) {
	var req models.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	svc, ok := h.service(c)
	if !ok {
		return
	}
	res, err := svc.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, "Login failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// TokenLoginHandler signs in with an identity token from a client SDK.
func (h *AuthHandler) TokenLoginHandler(c *gin.Context) {
	var req struct {
		IDToken string `json:"idToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	svc, ok := h.service(c)
	if !ok {
		return
	}
	res, err := svc.LoginWithToken(c.Request.Context(), req.IDToken)
	if err != nil {
		respondError(c, "Login failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) SignupHandler(c *gin.Context) {
	var req models.SignupData
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	svc, ok := h.service(c)
	if !ok {
		return
	}
	res, err := svc.Signup(c.Request.Context(), req)
	if err != nil {
		respondError(c, "Signup failed", err)
		return
	}
	getLogger(c).Info("User signed up", zap.String("userId", res.User.ID))
	c.JSON(http.StatusCreated, res)
}

func (h *AuthHandler) SendOTPHandler(c *gin.Context) {
	var req struct {
		Phone string `json:"phone" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	svc, ok := h.service(c)
	if !ok {
		return
	}
	status, err := svc.SendOTP(c.Request.Context(), middleware.CurrentUser(c), req.Phone)
	if err != nil {
		respondError(c, "Failed to send OTP", err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *AuthHandler) VerifyOTPHandler(c *gin.Context) {
	var req models.OTPVerification
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	svc, ok := h.service(c)
	if !ok {
		return
	}
	res, err := svc.VerifyOTP(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		respondError(c, "OTP verification failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) LogoutHandler(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}
	if err := svc.Logout(c.Request.Context(), middleware.CurrentUser(c)); err != nil {
		respondError(c, "Logout failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// MeHandler returns the signed-in user with a summary of their entitlements.
func (h *AuthHandler) MeHandler(c *gin.Context) {
	user := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"user":         user,
		"entitlements": h.billing.Status(user),
	})
}

func (h *AuthHandler) RefreshTokenHandler(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}
	token, err := svc.RefreshToken(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, "Token refresh failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}
