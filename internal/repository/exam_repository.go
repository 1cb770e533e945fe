package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/parikshasetu/exam-platform/internal/models"
)

const examColumns = `id, title, description, duration_minutes, total_marks, teacher_id, course_id, active,
        scheduled_time, start_time, end_time, created_at`

const questionColumns = `id, exam_id, text, option_a, option_b, option_c, option_d, correct_option, marks, position`

// ExamRepository handles persistence of exams and the questions they own.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs the repository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

// Create persists an exam together with its questions in one transaction.
func (r *ExamRepository) Create(ctx context.Context, exam *models.Exam) error {
	if exam.ID == "" {
		exam.ID = uuid.NewString()
	}
	if exam.CreatedAt.IsZero() {
		exam.CreatedAt = time.Now().UTC()
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin exam tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO exams (id, title, description, duration_minutes, total_marks, teacher_id, course_id, active,
        scheduled_time, start_time, end_time, created_at)
        VALUES (:id, :title, :description, :duration_minutes, :total_marks, :teacher_id, :course_id, :active,
        :scheduled_time, :start_time, :end_time, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, exam); err != nil {
		return fmt.Errorf("create exam: %w", err)
	}
	for i := range exam.Questions {
		q := &exam.Questions[i]
		q.ExamID = exam.ID
		q.Position = i
		if err := insertQuestion(ctx, tx, q); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit exam tx: %w", err)
	}
	return nil
}

// AddQuestion appends a question to an existing exam.
func (r *ExamRepository) AddQuestion(ctx context.Context, question *models.Question) error {
	const next = `SELECT COALESCE(MAX(position) + 1, 0) FROM questions WHERE exam_id = $1`
	if err := r.db.GetContext(ctx, &question.Position, next, question.ExamID); err != nil {
		return fmt.Errorf("next question position: %w", err)
	}
	return insertQuestion(ctx, r.db, question)
}

func insertQuestion(ctx context.Context, exec sqlx.ExtContext, question *models.Question) error {
	if question.ID == "" {
		question.ID = uuid.NewString()
	}
	const query = `INSERT INTO questions (id, exam_id, text, option_a, option_b, option_c, option_d, correct_option, marks, position)
        VALUES (:id, :exam_id, :text, :option_a, :option_b, :option_c, :option_d, :correct_option, :marks, :position)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, question); err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	return nil
}

// FindByID returns an exam without its questions.
func (r *ExamRepository) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	if !isUUID(id) {
		return nil, sql.ErrNoRows
	}
	query := `SELECT ` + examColumns + ` FROM exams WHERE id = $1`
	var exam models.Exam
	if err := r.db.GetContext(ctx, &exam, query, id); err != nil {
		return nil, err
	}
	return &exam, nil
}

// ListQuestions returns an exam's questions in authoring order.
func (r *ExamRepository) ListQuestions(ctx context.Context, examID string) ([]models.Question, error) {
	if !isUUID(examID) {
		return []models.Question{}, nil
	}
	query := `SELECT ` + questionColumns + ` FROM questions WHERE exam_id = $1 ORDER BY position`
	questions := []models.Question{}
	if err := r.db.SelectContext(ctx, &questions, query, examID); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}

// ListActive returns active exams.
func (r *ExamRepository) ListActive(ctx context.Context) ([]models.Exam, error) {
	query := `SELECT ` + examColumns + ` FROM exams WHERE active = TRUE ORDER BY created_at DESC`
	exams := []models.Exam{}
	if err := r.db.SelectContext(ctx, &exams, query); err != nil {
		return nil, fmt.Errorf("list active exams: %w", err)
	}
	return exams, nil
}

// ListByTeacher returns exams authored by a teacher.
func (r *ExamRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Exam, error) {
	query := `SELECT ` + examColumns + ` FROM exams WHERE teacher_id = $1 ORDER BY created_at DESC`
	exams := []models.Exam{}
	if err := r.db.SelectContext(ctx, &exams, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher exams: %w", err)
	}
	return exams, nil
}

// ListByIDs returns the exams with the given IDs. Unknown IDs are ignored.
func (r *ExamRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Exam, error) {
	ids = onlyUUIDs(ids)
	if len(ids) == 0 {
		return []models.Exam{}, nil
	}
	query := `SELECT ` + examColumns + ` FROM exams WHERE id = ANY($1::uuid[])`
	exams := []models.Exam{}
	if err := r.db.SelectContext(ctx, &exams, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list exams by id: %w", err)
	}
	return exams, nil
}

// ListByCourseIDs returns exams attached to any of the given courses.
func (r *ExamRepository) ListByCourseIDs(ctx context.Context, courseIDs []string) ([]models.Exam, error) {
	if len(courseIDs) == 0 {
		return []models.Exam{}, nil
	}
	query := `SELECT ` + examColumns + ` FROM exams WHERE course_id = ANY($1)`
	exams := []models.Exam{}
	if err := r.db.SelectContext(ctx, &exams, query, pq.Array(courseIDs)); err != nil {
		return nil, fmt.Errorf("list exams by course: %w", err)
	}
	return exams, nil
}

// Delete removes an exam; questions and direct enrollments cascade.
func (r *ExamRepository) Delete(ctx context.Context, id string) (bool, error) {
	if !isUUID(id) {
		return false, nil
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM exams WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete exam: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete exam rows affected: %w", err)
	}
	return affected > 0, nil
}
