package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/parikshasetu/exam-platform/internal/models"
	appErrors "github.com/parikshasetu/exam-platform/pkg/errors"
	"github.com/parikshasetu/exam-platform/pkg/response"
)

type userService interface {
	List(ctx context.Context) ([]models.User, error)
	ListStudents(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ApproveUser(ctx context.Context, id string) (*models.User, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*models.UserStats, error)
	BulkRegisterStudents(ctx context.Context, r io.Reader) (*models.BulkRegisterSummary, error)
	StudentTemplate() ([]byte, error)
}

// UserHandler handles user management endpoints.
type UserHandler struct {
	service userService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// List godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users)
}

// Students godoc
// @Summary List students
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /users/students [get]
func (h *UserHandler) Students(c *gin.Context) {
	users, err := h.service.ListStudents(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users)
}

// Get godoc
// @Summary Get user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user)
}

// Profile godoc
// @Summary Current user
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /users/profile [get]
func (h *UserHandler) Profile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	user, err := h.service.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user)
}

// SearchByEmail godoc
// @Summary Find a user by email
// @Description Identity lookup used by the course service. 404 when absent.
// @Tags Users
// @Produce json
// @Param email query string true "Email"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/search/email [get]
func (h *UserHandler) SearchByEmail(c *gin.Context) {
	user, err := h.service.FindByEmail(c.Request.Context(), c.Query("email"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user)
}

// Approve godoc
// @Summary Approve a pending account
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{id}/approve [put]
func (h *UserHandler) Approve(c *gin.Context) {
	user, err := h.service.ApproveUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user)
}

// Delete godoc
// @Summary Delete user
// @Tags Users
// @Param id path string true "User ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Stats godoc
// @Summary Approved account counts
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /users/stats [get]
func (h *UserHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}

// UploadStudents godoc
// @Summary Bulk register students from a spreadsheet
// @Tags Users
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "xlsx with Full Name, Email, Password columns"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /users/students/upload [post]
func (h *UserHandler) UploadStudents(c *gin.Context) {
	file, err := openUpload(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	summary, err := h.service.BulkRegisterStudents(c.Request.Context(), file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary)
}

// StudentTemplate godoc
// @Summary Download the student registration template
// @Tags Users
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Router /users/students/template [get]
func (h *UserHandler) StudentTemplate(c *gin.Context) {
	data, err := h.service.StudentTemplate()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, "students_template.xlsx", response.XLSXContentType, data)
}
