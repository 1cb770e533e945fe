package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/parikshasetu/exam-platform/internal/models"
)

// ExamEnrollmentRepository stores direct exam grants.
type ExamEnrollmentRepository struct {
	db *sqlx.DB
}

// NewExamEnrollmentRepository constructs the repository.
func NewExamEnrollmentRepository(db *sqlx.DB) *ExamEnrollmentRepository {
	return &ExamEnrollmentRepository{db: db}
}

// CreateIfAbsent grants a student direct access to an exam once.
func (r *ExamEnrollmentRepository) CreateIfAbsent(ctx context.Context, enrollment *models.ExamEnrollment) (bool, error) {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO exam_enrollments (id, student_id, exam_id, created_at)
        VALUES (:id, :student_id, :exam_id, :created_at)
        ON CONFLICT (student_id, exam_id) DO NOTHING`
	res, err := r.db.NamedExecContext(ctx, query, enrollment)
	if err != nil {
		return false, fmt.Errorf("create exam enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create exam enrollment rows affected: %w", err)
	}
	return affected == 1, nil
}

// ListExamIDsByStudent returns the exam IDs a student was granted directly.
func (r *ExamEnrollmentRepository) ListExamIDsByStudent(ctx context.Context, studentID string) ([]string, error) {
	const query = `SELECT exam_id FROM exam_enrollments WHERE student_id = $1 ORDER BY created_at`
	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, query, studentID); err != nil {
		return nil, fmt.Errorf("list student exam enrollments: %w", err)
	}
	return ids, nil
}
