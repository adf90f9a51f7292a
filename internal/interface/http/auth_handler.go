package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-manager/internal/application"
	"github.com/oksasatya/go-task-manager/internal/interface/middleware"
	"github.com/oksasatya/go-task-manager/pkg/response"
)

type AuthHandler struct {
	Svc    *application.AuthService
	Logger *logrus.Logger
}

func NewAuthHandler(svc *application.AuthService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Username string `json:"username" binding:"omitempty,max=64"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register POST /api/auth/register {email, password, username?}
// 201 with user and session, or 200 with requiresConfirmation when the
// address must be confirmed first.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, h.Logger, err)
		return
	}
	res, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	if res.RequiresConfirmation {
		response.JSON(c, http.StatusOK, AuthPayload{RequiresConfirmation: true},
			"Registration successful! Please check your email to confirm your account.", nil)
		return
	}
	response.JSON(c, http.StatusCreated, AuthPayload{
		User:    toUserDTO(res.User),
		Session: toSessionDTO(res.Session, time.Now()),
	}, "User registered successfully", nil)
}

// Login POST /api/auth/login {email, password}
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, h.Logger, err)
		return
	}
	res, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusOK, AuthPayload{
		User:    toUserDTO(res.User),
		Session: toSessionDTO(res.Session, time.Now()),
	}, "Login successful", nil)
}

// Logout POST /api/auth/logout
// Always succeeds. A bearer token, when sent, is revoked.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := middleware.BearerToken(c)
	h.Svc.Logout(c.Request.Context(), token)
	response.JSON[any](c, http.StatusOK, nil, "Logged out successfully", nil)
}

// Refresh POST /api/auth/refresh {refresh_token}
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, h.Logger, err)
		return
	}
	res, err := h.Svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusOK, AuthPayload{
		User:    toUserDTO(res.User),
		Session: toSessionDTO(res.Session, time.Now()),
	}, "Token refreshed", nil)
}

// Confirm POST /api/auth/confirm {token}
func (h *AuthHandler) Confirm(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, h.Logger, err)
		return
	}
	u, err := h.Svc.Confirm(c.Request.Context(), req.Token)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusOK, AuthPayload{User: toUserDTO(u)}, "Email confirmed", nil)
}

// ResendConfirmation POST /api/auth/confirm/resend {email}
// The answer is the same whether or not the address is registered.
func (h *AuthHandler) ResendConfirmation(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, h.Logger, err)
		return
	}
	if err := h.Svc.ResendConfirmation(c.Request.Context(), req.Email); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.JSON[any](c, http.StatusOK, nil, "If the account exists and is unconfirmed, a confirmation email has been sent", nil)
}

// Me GET /api/auth/me (auth required)
func (h *AuthHandler) Me(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, "Not authorized, no token provided", nil)
		return
	}
	response.JSON(c, http.StatusOK, identityDTO(id), "Current user", nil)
}
