package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/docvault/internal/auth"
	"github.com/geocoder89/docvault/internal/credentials"
	"github.com/geocoder89/docvault/internal/domain/user"
	"github.com/geocoder89/docvault/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type CredentialService interface {
	Register(ctx context.Context, in credentials.RegisterInput) (int64, error)
	Verify(ctx context.Context, email, password string) (user.User, error)
	ResetPassword(ctx context.Context, email, newPassword string) error
}

type TokenIssuer interface {
	IssueAccessToken(userID int64, role user.Role) (string, error)
	IssueRefreshToken(userID int64, role user.Role) (string, error)
}

type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// AuthObserver counts auth outcomes; *observability.Prom satisfies it.
type AuthObserver interface {
	ObserveAuth(action, outcome string)
}

type AuthHandler struct {
	creds     CredentialService
	tokens    TokenIssuer
	refresher TokenRefresher
	obs       AuthObserver
}

func NewAuthHandler(creds CredentialService, tokens TokenIssuer, refresher TokenRefresher, obs AuthObserver) *AuthHandler {
	return &AuthHandler{
		creds:     creds,
		tokens:    tokens,
		refresher: refresher,
		obs:       obs,
	}
}

// Request bodies only check presence. Normalization and format checks
// happen in credentials.Service.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

func (h *AuthHandler) observe(action, outcome string) {
	if h.obs != nil {
		h.obs.ObserveAuth(action, outcome)
	}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	_, err := h.creds.Register(cctx, credentials.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			h.observe("register", "duplicate")
			RespondConflict(ctx, "email_taken", "Email already registered")
		case errors.Is(err, user.ErrInvalidInput):
			h.observe("register", "invalid")
			RespondBadRequest(ctx, "Invalid registration data", gin.H{"reason": err.Error()})
		default:
			h.observe("register", "error")
			RespondInternal(ctx, "Could not register user", err)
		}
		return
	}

	h.observe("register", "ok")
	ctx.JSON(http.StatusCreated, gin.H{"msg": "User registered successfully."})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	u, err := h.creds.Verify(cctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrInvalidCredentials):
			h.observe("login", "invalid_credentials")
			RespondUnauthorized(ctx, "Invalid credentials")
		case errors.Is(err, user.ErrInvalidInput):
			RespondBadRequest(ctx, "Email and password required", nil)
		default:
			h.observe("login", "error")
			RespondInternal(ctx, "Could not log in", err)
		}
		return
	}

	accessToken, err := h.tokens.IssueAccessToken(u.ID, u.Role)
	if err != nil {
		RespondInternal(ctx, "Could not generate access token", err)
		return
	}

	refreshToken, err := h.tokens.IssueRefreshToken(u.ID, u.Role)
	if err != nil {
		RespondInternal(ctx, "Could not generate refresh token", err)
		return
	}

	h.observe("login", "ok")
	ctx.JSON(http.StatusOK, gin.H{
		"msg":           "Login successful.",
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"role":          u.Role,
	})
}

// Refresh takes the refresh token from the Authorization header.
func (h *AuthHandler) Refresh(ctx *gin.Context) {
	raw, ok := middlewares.BearerToken(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Missing refresh token")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	accessToken, err := h.refresher.Refresh(cctx, raw)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidToken):
			h.observe("refresh", "invalid_token")
			RespondUnauthorized(ctx, "Invalid or expired refresh token")
		case errors.Is(err, user.ErrNotFound):
			h.observe("refresh", "user_gone")
			RespondNotFound(ctx, "User not found")
		default:
			h.observe("refresh", "error")
			RespondInternal(ctx, "Could not refresh token", err)
		}
		return
	}

	h.observe("refresh", "ok")
	ctx.JSON(http.StatusOK, gin.H{"access_token": accessToken})
}

// ResetPassword sets a new password for any known email without asking for
// the old one.
func (h *AuthHandler) ResetPassword(ctx *gin.Context) {
	var req ResetPasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	err := h.creds.ResetPassword(cctx, req.Email, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			h.observe("reset", "unknown_email")
			RespondNotFound(ctx, "User not found")
		case errors.Is(err, user.ErrInvalidInput):
			RespondBadRequest(ctx, "Email and new_password required", nil)
		default:
			h.observe("reset", "error")
			RespondInternal(ctx, "Could not reset password", err)
		}
		return
	}

	h.observe("reset", "ok")
	ctx.JSON(http.StatusOK, gin.H{"msg": "Password updated successfully."})
}
