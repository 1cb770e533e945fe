package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/parikshasetu/exam-platform/internal/models"
	"github.com/parikshasetu/exam-platform/internal/service"
	appErrors "github.com/parikshasetu/exam-platform/pkg/errors"
	"github.com/parikshasetu/exam-platform/pkg/response"
)

type resultService interface {
	Generate(ctx context.Context, req models.GenerateResultRequest) (*models.Result, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Result, error)
	ListAll(ctx context.Context) ([]models.Result, error)
	ListByExam(ctx context.Context, examID string) ([]models.Result, error)
	ListByExams(ctx context.Context, examIDs []string) ([]models.Result, error)
	Export(ctx context.Context, examID, format string) (*service.ExportFile, error)
}

// ResultHandler serves grading and result listings.
type ResultHandler struct {
	service resultService
}

// NewResultHandler constructs ResultHandler.
func NewResultHandler(svc resultService) *ResultHandler {
	return &ResultHandler{service: svc}
}

// Generate godoc
// @Summary Grade a submission
// @Tags Results
// @Accept json
// @Produce json
// @Param payload body models.GenerateResultRequest true "Score"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /results/generate [post]
func (h *ResultHandler) Generate(c *gin.Context) {
	var req models.GenerateResultRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleStudent && req.StudentID != claims.UserID {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "students may only submit their own results"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// ByStudent godoc
// @Summary List a student's results
// @Tags Results
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /results/student/{studentId} [get]
func (h *ResultHandler) ByStudent(c *gin.Context) {
	results, err := h.service.ListByStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results)
}

// List godoc
// @Summary List all results
// @Tags Results
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /results [get]
func (h *ResultHandler) List(c *gin.Context) {
	results, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results)
}

// ByExam godoc
// @Summary List an exam's results
// @Tags Results
// @Produce json
// @Param examId path string true "Exam ID"
// @Success 200 {object} response.Envelope
// @Router /results/exam/{examId} [get]
func (h *ResultHandler) ByExam(c *gin.Context) {
	results, err := h.service.ListByExam(c.Request.Context(), c.Param("examId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results)
}

// ByExams godoc
// @Summary List results of several exams
// @Tags Results
// @Accept json
// @Produce json
// @Param payload body []string true "Exam IDs"
// @Success 200 {object} response.Envelope
// @Router /results/by-exams [post]
func (h *ResultHandler) ByExams(c *gin.Context) {
	ids, err := bindIDs(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	results, err := h.service.ListByExams(c.Request.Context(), ids)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results)
}

// Export godoc
// @Summary Export an exam's results
// @Tags Results
// @Produce text/csv
// @Produce application/pdf
// @Param examId path string true "Exam ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /results/exam/{examId}/export [get]
func (h *ResultHandler) Export(c *gin.Context) {
	file, err := h.service.Export(c.Request.Context(), c.Param("examId"), c.DefaultQuery("format", service.FormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
