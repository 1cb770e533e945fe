package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/parikshasetu/exam-platform/internal/models"
	appErrors "github.com/parikshasetu/exam-platform/pkg/errors"
	"github.com/parikshasetu/exam-platform/pkg/response"
)

type authService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Refresh(ctx context.Context, req models.RefreshTokenRequest) (*models.AuthResponse, error)
	ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error
}

// AuthHandler manages authentication endpoints.
type AuthHandler struct {
	service authService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Register godoc
// @Summary Register
// @Description Students are approved immediately, teachers wait for an admin. Admin accounts cannot self-register.
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Account"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	if req.Role == models.RoleAdmin {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "admin accounts cannot self-register"))
		return
	}
	res, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Login godoc
// @Summary Login
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// Refresh godoc
// @Summary Refresh tokens
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshTokenRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.service.Refresh(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// ChangePassword godoc
// @Summary Change own password
// @Tags Auth
// @Accept json
// @Param payload body models.ChangePasswordRequest true "Passwords"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /auth/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.ChangePasswordRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), claims.UserID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
