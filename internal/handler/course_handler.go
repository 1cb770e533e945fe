package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/parikshasetu/exam-platform/internal/models"
	"github.com/parikshasetu/exam-platform/pkg/response"
)

type courseService interface {
	CreateCourse(ctx context.Context, req models.CreateCourseRequest) (*models.Course, error)
	ListCourses(ctx context.Context) ([]models.Course, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Course, error)
	GetCourse(ctx context.Context, id string) (*models.Course, error)
	DeleteCourse(ctx context.Context, id string) error
	RequestEnrollment(ctx context.Context, courseID, studentID string) error
	Approve(ctx context.Context, enrollmentID string) (*models.Enrollment, error)
	Reject(ctx context.Context, enrollmentID string) (*models.Enrollment, error)
	ListPending(ctx context.Context, courseID string) ([]models.Enrollment, error)
	ListApproved(ctx context.Context, courseID string) ([]models.Enrollment, error)
	MyEnrollments(ctx context.Context, studentID string) ([]models.Enrollment, error)
	RemoveStudent(ctx context.Context, courseID, studentID string) error
	BulkEnrollWorkbook(ctx context.Context, courseID string, r io.Reader) (*models.BulkEnrollSummary, error)
	StudentTemplate() ([]byte, error)
}

// CourseHandler serves courses and their enrollment workflow.
type CourseHandler struct {
	service courseService
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(svc courseService) *CourseHandler {
	return &CourseHandler{service: svc}
}

// Create godoc
// @Summary Create course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body models.CreateCourseRequest true "Course"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req models.CreateCourseRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleTeacher {
		req.TeacherID = claims.UserID
	}
	course, err := h.service.CreateCourse(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.service.ListCourses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses)
}

// ListByTeacher godoc
// @Summary List a teacher's courses
// @Tags Courses
// @Produce json
// @Param teacherId path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /courses/teacher/{teacherId} [get]
func (h *CourseHandler) ListByTeacher(c *gin.Context) {
	courses, err := h.service.ListByTeacher(c.Request.Context(), c.Param("teacherId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses)
}

// Get godoc
// @Summary Get course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.service.GetCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course)
}

// Delete godoc
// @Summary Delete course
// @Tags Courses
// @Param id path string true "Course ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.service.DeleteCourse(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RequestEnrollment godoc
// @Summary Request enrollment in a course
// @Description Creates a PENDING enrollment. Repeating the request is a no-op.
// @Tags Enrollments
// @Produce json
// @Param id path string true "Course ID"
// @Param studentId path string true "Student ID"
// @Success 202 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/enroll/{studentId} [post]
func (h *CourseHandler) RequestEnrollment(c *gin.Context) {
	if err := h.service.RequestEnrollment(c.Request.Context(), c.Param("id"), c.Param("studentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"message": "Enrollment requested"})
}

// MyEnrollments godoc
// @Summary List a student's course enrollments
// @Tags Enrollments
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /courses/my/{studentId} [get]
func (h *CourseHandler) MyEnrollments(c *gin.Context) {
	enrollments, err := h.service.MyEnrollments(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments)
}

// Pending godoc
// @Summary List pending enrollments of a course
// @Tags Enrollments
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/pending [get]
func (h *CourseHandler) Pending(c *gin.Context) {
	enrollments, err := h.service.ListPending(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments)
}

// Students godoc
// @Summary List approved students of a course
// @Tags Enrollments
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/students [get]
func (h *CourseHandler) Students(c *gin.Context) {
	enrollments, err := h.service.ListApproved(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments)
}

// RemoveStudent godoc
// @Summary Remove a student from a course
// @Tags Enrollments
// @Param id path string true "Course ID"
// @Param studentId path string true "Student ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/students/{studentId} [delete]
func (h *CourseHandler) RemoveStudent(c *gin.Context) {
	if err := h.service.RemoveStudent(c.Request.Context(), c.Param("id"), c.Param("studentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Approve godoc
// @Summary Approve an enrollment
// @Tags Enrollments
// @Produce json
// @Param enrollmentId path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/enrollments/{enrollmentId}/approve [put]
func (h *CourseHandler) Approve(c *gin.Context) {
	enrollment, err := h.service.Approve(c.Request.Context(), c.Param("enrollmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment)
}

// Reject godoc
// @Summary Reject an enrollment
// @Tags Enrollments
// @Produce json
// @Param enrollmentId path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/enrollments/{enrollmentId}/reject [put]
func (h *CourseHandler) Reject(c *gin.Context) {
	enrollment, err := h.service.Reject(c.Request.Context(), c.Param("enrollmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment)
}

// UploadStudents godoc
// @Summary Bulk enroll students from a spreadsheet
// @Tags Enrollments
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Course ID"
// @Param file formData file true "xlsx with Full Name, Email columns"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses/{id}/students/upload [post]
func (h *CourseHandler) UploadStudents(c *gin.Context) {
	file, err := openUpload(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	summary, err := h.service.BulkEnrollWorkbook(c.Request.Context(), c.Param("id"), file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary)
}

// StudentTemplate godoc
// @Summary Download the student import template
// @Tags Enrollments
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Router /courses/template/students [get]
func (h *CourseHandler) StudentTemplate(c *gin.Context) {
	data, err := h.service.StudentTemplate()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, "students_template.xlsx", response.XLSXContentType, data)
}
