package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/parikshasetu/exam-platform/internal/models"
)

const resultColumns = `id, student_id, exam_id, score, total_marks, grade, generated_at`

// ResultRepository persists graded results. Results are insert-only.
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository constructs the repository.
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// Create inserts a result.
func (r *ResultRepository) Create(ctx context.Context, result *models.Result) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.GeneratedAt.IsZero() {
		result.GeneratedAt = time.Now().UTC()
	}
	const query = `INSERT INTO results (id, student_id, exam_id, score, total_marks, grade, generated_at)
        VALUES (:id, :student_id, :exam_id, :score, :total_marks, :grade, :generated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("create result: %w", err)
	}
	return nil
}

// ListByStudent returns a student's results, newest first.
func (r *ResultRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Result, error) {
	query := `SELECT ` + resultColumns + ` FROM results WHERE student_id = $1 ORDER BY generated_at DESC`
	return r.selectResults(ctx, "list student results", query, studentID)
}

// ListAll returns every result, newest first.
func (r *ResultRepository) ListAll(ctx context.Context) ([]models.Result, error) {
	query := `SELECT ` + resultColumns + ` FROM results ORDER BY generated_at DESC`
	return r.selectResults(ctx, "list results", query)
}

// ListByExam returns an exam's results ranked by score.
func (r *ResultRepository) ListByExam(ctx context.Context, examID string) ([]models.Result, error) {
	query := `SELECT ` + resultColumns + ` FROM results WHERE exam_id = $1 ORDER BY score DESC, generated_at`
	return r.selectResults(ctx, "list exam results", query, examID)
}

// ListByExamIDs returns results of several exams.
func (r *ResultRepository) ListByExamIDs(ctx context.Context, examIDs []string) ([]models.Result, error) {
	if len(examIDs) == 0 {
		return []models.Result{}, nil
	}
	query := `SELECT ` + resultColumns + ` FROM results WHERE exam_id = ANY($1) ORDER BY exam_id, score DESC`
	return r.selectResults(ctx, "list results by exams", query, pq.Array(examIDs))
}

func (r *ResultRepository) selectResults(ctx context.Context, op, query string, args ...interface{}) ([]models.Result, error) {
	results := []models.Result{}
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return results, nil
}
