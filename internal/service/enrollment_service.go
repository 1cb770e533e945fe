package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/parikshasetu/exam-platform/internal/models"
	"github.com/parikshasetu/exam-platform/internal/spreadsheet"
	appErrors "github.com/parikshasetu/exam-platform/pkg/errors"
)

const defaultCourseTitle = "Course"

type enrollmentRepository interface {
	CreateIfAbsent(ctx context.Context, enrollment *models.Enrollment) (bool, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
	ListByCourseAndStatus(ctx context.Context, courseID string, status models.EnrollmentStatus) ([]models.Enrollment, error)
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, approved bool) error
	Delete(ctx context.Context, id string) error
}

type courseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	FindByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context) ([]models.Course, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Course, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type identityResolver interface {
	ResolveOrCreate(ctx context.Context, email, fullName string) (string, error)
}

type notifier interface {
	Dispatch(ctx context.Context, userID, message string)
}

// EnrollmentService owns courses and the admission workflow of students into them.
type EnrollmentService struct {
	repo      enrollmentRepository
	courses   courseRepository
	identity  identityResolver
	notifier  notifier
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, courses courseRepository, identity identityResolver, notify notifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, courses: courses, identity: identity, notifier: notify, metrics: metrics, validator: validate, logger: logger}
}

// RequestEnrollment records a PENDING enrollment. An existing row of any
// status is left untouched.
func (s *EnrollmentService) RequestEnrollment(ctx context.Context, courseID, studentID string) error {
	courseID = strings.TrimSpace(courseID)
	studentID = strings.TrimSpace(studentID)
	if courseID == "" || studentID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "course id and student id are required")
	}
	if _, err := s.loadCourse(ctx, courseID); err != nil {
		return err
	}

	created, err := s.repo.CreateIfAbsent(ctx, &models.Enrollment{
		StudentID: studentID,
		CourseID:  courseID,
		Status:    models.EnrollmentStatusPending,
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to request enrollment")
	}
	if created {
		s.logger.Info("enrollment requested", zap.String("course_id", courseID), zap.String("student_id", studentID))
	}
	return nil
}

// Approve admits the student and notifies them.
func (s *EnrollmentService) Approve(ctx context.Context, enrollmentID string) (*models.Enrollment, error) {
	enrollment, err := s.setStatus(ctx, enrollmentID, models.EnrollmentStatusApproved, true)
	if err != nil {
		return nil, err
	}

	title := defaultCourseTitle
	if course, err := s.courses.FindByID(ctx, enrollment.CourseID); err == nil && strings.TrimSpace(course.Title) != "" {
		title = course.Title
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn("course lookup for notification failed", zap.String("course_id", enrollment.CourseID), zap.Error(err))
	}
	if s.notifier != nil {
		s.notifier.Dispatch(ctx, enrollment.StudentID, "Enrollment approved for course: "+title)
	}
	return enrollment, nil
}

// Reject declines the enrollment.
func (s *EnrollmentService) Reject(ctx context.Context, enrollmentID string) (*models.Enrollment, error) {
	return s.setStatus(ctx, enrollmentID, models.EnrollmentStatusRejected, false)
}

func (s *EnrollmentService) setStatus(ctx context.Context, id string, status models.EnrollmentStatus, approved bool) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if err := s.repo.UpdateStatus(ctx, id, status, approved); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}
	enrollment.Status = status
	enrollment.Approved = approved
	s.logger.Info("enrollment status changed", zap.String("enrollment_id", id), zap.String("status", string(status)))
	return enrollment, nil
}

// ListPending returns the course's pending enrollments.
func (s *EnrollmentService) ListPending(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	return s.listByStatus(ctx, courseID, models.EnrollmentStatusPending)
}

// ListApproved returns the course's approved enrollments.
func (s *EnrollmentService) ListApproved(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	return s.listByStatus(ctx, courseID, models.EnrollmentStatusApproved)
}

func (s *EnrollmentService) listByStatus(ctx context.Context, courseID string, status models.EnrollmentStatus) ([]models.Enrollment, error) {
	if strings.TrimSpace(courseID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course id is required")
	}
	enrollments, err := s.repo.ListByCourseAndStatus(ctx, courseID, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

// MyEnrollments returns every enrollment of a student, whatever its status.
func (s *EnrollmentService) MyEnrollments(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	if strings.TrimSpace(studentID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	enrollments, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student enrollments")
	}
	return enrollments, nil
}

// RemoveStudent deletes the student's enrollment in the course.
func (s *EnrollmentService) RemoveStudent(ctx context.Context, courseID, studentID string) error {
	enrollment, err := s.repo.FindByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if err := s.repo.Delete(ctx, enrollment.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove student")
	}
	return nil
}

// BulkEnroll admits every row directly as APPROVED, creating student accounts
// as needed. Rows are processed in order and a failing row never aborts the batch.
func (s *EnrollmentService) BulkEnroll(ctx context.Context, courseID string, rows []models.StudentRow) (*models.BulkEnrollSummary, error) {
	if strings.TrimSpace(courseID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course id is required")
	}
	if _, err := s.loadCourse(ctx, courseID); err != nil {
		return nil, err
	}

	summary := &models.BulkEnrollSummary{}
	for _, row := range rows {
		summary.Processed++
		email := strings.TrimSpace(row.Email)
		if email == "" {
			summary.Skipped++
			s.metrics.RecordBulkRow("enroll", "skipped")
			continue
		}

		studentID, err := s.identity.ResolveOrCreate(ctx, email, row.FullName)
		if err != nil {
			summary.Failed = append(summary.Failed, email)
			s.metrics.RecordBulkRow("enroll", "failed")
			s.logger.Warn("bulk enroll row skipped", zap.Int("row", row.Row), zap.String("email", email), zap.Error(err))
			continue
		}

		created, err := s.repo.CreateIfAbsent(ctx, &models.Enrollment{
			StudentID: studentID,
			CourseID:  courseID,
			Status:    models.EnrollmentStatusApproved,
			Approved:  true,
		})
		if err != nil {
			summary.Failed = append(summary.Failed, email)
			s.metrics.RecordBulkRow("enroll", "failed")
			s.logger.Warn("bulk enroll insert failed", zap.Int("row", row.Row), zap.String("email", email), zap.Error(err))
			continue
		}
		if created {
			summary.Enrolled++
			s.metrics.RecordBulkRow("enroll", "enrolled")
		} else {
			summary.Existing++
			s.metrics.RecordBulkRow("enroll", "existing")
		}
	}

	s.logger.Info("bulk enrollment finished",
		zap.String("course_id", courseID),
		zap.Int("processed", summary.Processed),
		zap.Int("enrolled", summary.Enrolled),
		zap.Int("failed", len(summary.Failed)),
	)
	return summary, nil
}

// BulkEnrollWorkbook reads student rows from an xlsx upload and enrolls them.
func (s *EnrollmentService) BulkEnrollWorkbook(ctx context.Context, courseID string, r io.Reader) (*models.BulkEnrollSummary, error) {
	rows, err := spreadsheet.ReadStudents(r, spreadsheet.DefaultStudentLayout)
	if err != nil {
		return nil, err
	}
	return s.BulkEnroll(ctx, courseID, rows)
}

// CreateCourse stores a new course.
func (s *EnrollmentService) CreateCourse(ctx context.Context, req models.CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course := &models.Course{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		TeacherID:   req.TeacherID,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// ListCourses returns all courses.
func (s *EnrollmentService) ListCourses(ctx context.Context) ([]models.Course, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// ListByTeacher returns the teacher's courses.
func (s *EnrollmentService) ListByTeacher(ctx context.Context, teacherID string) ([]models.Course, error) {
	courses, err := s.courses.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// GetCourse returns a course by id.
func (s *EnrollmentService) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	return s.loadCourse(ctx, id)
}

// DeleteCourse removes a course and its enrollments.
func (s *EnrollmentService) DeleteCourse(ctx context.Context, id string) error {
	deleted, err := s.courses.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	return nil
}

// StudentTemplate returns the bulk enrollment workbook.
func (s *EnrollmentService) StudentTemplate() ([]byte, error) {
	data, err := spreadsheet.StudentTemplate(false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build template")
	}
	return data, nil
}

func (s *EnrollmentService) loadCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}
