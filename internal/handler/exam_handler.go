package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/parikshasetu/exam-platform/internal/models"
	"github.com/parikshasetu/exam-platform/pkg/response"
)

type examService interface {
	Create(ctx context.Context, req models.CreateExamRequest) (*models.Exam, error)
	AddQuestion(ctx context.Context, examID string, in models.QuestionInput) (*models.Question, error)
	Get(ctx context.Context, examID string) (*models.Exam, error)
	PresentForAttempt(ctx context.Context, examID string) (*models.Exam, error)
	ListActive(ctx context.Context) ([]models.Exam, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Exam, error)
	EnrollStudent(ctx context.Context, examID, studentID string) error
	Delete(ctx context.Context, examID string) error
	ParseQuestions(r io.Reader) ([]models.QuestionInput, error)
	QuestionTemplate() ([]byte, error)
}

type eligibilityService interface {
	ExamsForStudent(ctx context.Context, studentID string) (*models.Eligibility, error)
	ExamsForCourses(ctx context.Context, courseIDs []string) ([]models.Exam, error)
}

// ExamHandler serves exam authoring, delivery and eligibility.
type ExamHandler struct {
	exams       examService
	eligibility eligibilityService
}

// NewExamHandler constructs ExamHandler.
func NewExamHandler(exams examService, eligibility eligibilityService) *ExamHandler {
	return &ExamHandler{exams: exams, eligibility: eligibility}
}

// Create godoc
// @Summary Create exam with questions
// @Tags Exams
// @Accept json
// @Produce json
// @Param payload body models.CreateExamRequest true "Exam"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /exams [post]
func (h *ExamHandler) Create(c *gin.Context) {
	var req models.CreateExamRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleTeacher {
		req.TeacherID = claims.UserID
	}
	exam, err := h.exams.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, exam)
}

// List godoc
// @Summary List active exams
// @Tags Exams
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /exams [get]
func (h *ExamHandler) List(c *gin.Context) {
	exams, err := h.exams.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exams)
}

// Get godoc
// @Summary Get exam
// @Description Students receive questions in a fresh random order on every call.
// @Tags Exams
// @Produce json
// @Param id path string true "Exam ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exams/{id} [get]
func (h *ExamHandler) Get(c *gin.Context) {
	var (
		exam *models.Exam
		err  error
	)
	if isStudent(c) {
		exam, err = h.exams.PresentForAttempt(c.Request.Context(), c.Param("id"))
	} else {
		exam, err = h.exams.Get(c.Request.Context(), c.Param("id"))
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exam)
}

// AddQuestion godoc
// @Summary Add a question to an exam
// @Tags Exams
// @Accept json
// @Produce json
// @Param payload body models.QuestionInput true "Question with exam_id"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exams/questions [post]
func (h *ExamHandler) AddQuestion(c *gin.Context) {
	var in models.QuestionInput
	if err := bindJSON(c, &in); err != nil {
		response.Error(c, err)
		return
	}
	question, err := h.exams.AddQuestion(c.Request.Context(), in.ExamID, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, question)
}

// ListByTeacher godoc
// @Summary List a teacher's exams
// @Tags Exams
// @Produce json
// @Param teacherId path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /exams/teacher/{teacherId} [get]
func (h *ExamHandler) ListByTeacher(c *gin.Context) {
	exams, err := h.exams.ListByTeacher(c.Request.Context(), c.Param("teacherId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exams)
}

// EnrollStudent godoc
// @Summary Grant a student direct access to an exam
// @Tags Exams
// @Param id path string true "Exam ID"
// @Param studentId path string true "Student ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /exams/{id}/enroll/{studentId} [post]
func (h *ExamHandler) EnrollStudent(c *gin.Context) {
	if err := h.exams.EnrollStudent(c.Request.Context(), c.Param("id"), c.Param("studentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// StudentExams godoc
// @Summary List exams a student may attempt
// @Description Union of direct grants and exams of approved courses. meta.degraded is true when course enrollments could not be fetched.
// @Tags Exams
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /exams/student/{studentId} [get]
func (h *ExamHandler) StudentExams(c *gin.Context) {
	result, err := h.eligibility.ExamsForStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Degraded {
		response.JSON(c, http.StatusOK, result.Exams, map[string]interface{}{"degraded": true})
		return
	}
	response.JSON(c, http.StatusOK, result.Exams)
}

// ByCourses godoc
// @Summary List exams attached to courses
// @Tags Exams
// @Accept json
// @Produce json
// @Param payload body []string true "Course IDs"
// @Success 200 {object} response.Envelope
// @Router /exams/by-courses [post]
func (h *ExamHandler) ByCourses(c *gin.Context) {
	ids, err := bindIDs(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	exams, err := h.eligibility.ExamsForCourses(c.Request.Context(), ids)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exams)
}

// Delete godoc
// @Summary Delete exam
// @Tags Exams
// @Param id path string true "Exam ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /exams/{id} [delete]
func (h *ExamHandler) Delete(c *gin.Context) {
	if err := h.exams.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ParseQuestions godoc
// @Summary Parse questions from a spreadsheet
// @Description Returns the parsed questions without storing them.
// @Tags Exams
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "xlsx question sheet"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /exams/parse-questions [post]
func (h *ExamHandler) ParseQuestions(c *gin.Context) {
	file, err := openUpload(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	questions, err := h.exams.ParseQuestions(file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, questions)
}

// Template godoc
// @Summary Download the question import template
// @Tags Exams
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Router /exams/template [get]
func (h *ExamHandler) Template(c *gin.Context) {
	data, err := h.exams.QuestionTemplate()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, "questions_template.xlsx", response.XLSXContentType, data)
}
