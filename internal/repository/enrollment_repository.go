package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/parikshasetu/exam-platform/internal/models"
)

const enrollmentColumns = `id, student_id, course_id, status, approved, created_at, updated_at`

// EnrollmentRepository handles persistence of course enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// CreateIfAbsent inserts the enrollment unless a row already exists for the
// (student, course) pair. The check and the insert are a single statement
// backed by the unique constraint, so concurrent callers cannot both insert.
func (r *EnrollmentRepository) CreateIfAbsent(ctx context.Context, enrollment *models.Enrollment) (bool, error) {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = now
	}
	enrollment.UpdatedAt = now
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusPending
	}
	const query = `INSERT INTO course_enrollments (id, student_id, course_id, status, approved, created_at, updated_at)
        VALUES (:id, :student_id, :course_id, :status, :approved, :created_at, :updated_at)
        ON CONFLICT (student_id, course_id) DO NOTHING`
	res, err := r.db.NamedExecContext(ctx, query, enrollment)
	if err != nil {
		return false, fmt.Errorf("create enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create enrollment rows affected: %w", err)
	}
	return affected == 1, nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if !isUUID(id) {
		return nil, sql.ErrNoRows
	}
	query := `SELECT ` + enrollmentColumns + ` FROM course_enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindByStudentAndCourse returns the enrollment for a pair.
func (r *EnrollmentRepository) FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	if !isUUID(courseID) {
		return nil, sql.ErrNoRows
	}
	query := `SELECT ` + enrollmentColumns + ` FROM course_enrollments WHERE student_id = $1 AND course_id = $2`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, courseID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ListByStudent returns every enrollment of a student regardless of status.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM course_enrollments WHERE student_id = $1`
	enrollments := []models.Enrollment{}
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return enrollments, nil
}

// ListByCourseAndStatus returns a course's enrollments in one status.
func (r *EnrollmentRepository) ListByCourseAndStatus(ctx context.Context, courseID string, status models.EnrollmentStatus) ([]models.Enrollment, error) {
	if !isUUID(courseID) {
		return []models.Enrollment{}, nil
	}
	query := `SELECT ` + enrollmentColumns + ` FROM course_enrollments WHERE course_id = $1 AND status = $2`
	enrollments := []models.Enrollment{}
	if err := r.db.SelectContext(ctx, &enrollments, query, courseID, status); err != nil {
		return nil, fmt.Errorf("list course enrollments: %w", err)
	}
	return enrollments, nil
}

// UpdateStatus sets the admission decision and keeps the approved flag in step.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, approved bool) error {
	const query = `UPDATE course_enrollments SET status = $2, approved = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, approved, time.Now().UTC()); err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	return nil
}

// Delete removes an enrollment row.
func (r *EnrollmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM course_enrollments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	return nil
}
