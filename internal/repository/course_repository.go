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

// CourseRepository handles persistence of courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Create persists a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO courses (id, title, description, teacher_id, created_at)
        VALUES (:id, :title, :description, :teacher_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// FindByID returns a course by ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if !isUUID(id) {
		return nil, sql.ErrNoRows
	}
	const query = `SELECT id, title, description, teacher_id, created_at FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// List returns all courses, newest first.
func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	const query = `SELECT id, title, description, teacher_id, created_at FROM courses ORDER BY created_at DESC`
	courses := []models.Course{}
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// ListByTeacher returns courses owned by a teacher.
func (r *CourseRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Course, error) {
	const query = `SELECT id, title, description, teacher_id, created_at FROM courses WHERE teacher_id = $1 ORDER BY created_at DESC`
	courses := []models.Course{}
	if err := r.db.SelectContext(ctx, &courses, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher courses: %w", err)
	}
	return courses, nil
}

// Delete removes a course; its enrollments cascade.
func (r *CourseRepository) Delete(ctx context.Context, id string) (bool, error) {
	if !isUUID(id) {
		return false, nil
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete course: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete course rows affected: %w", err)
	}
	return affected > 0, nil
}
