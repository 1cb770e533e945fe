package models

import "time"

// Result is an immutable graded attempt.
type Result struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	ExamID      string    `db:"exam_id" json:"exam_id"`
	Score       int       `db:"score" json:"score"`
	TotalMarks  int       `db:"total_marks" json:"total_marks"`
	Grade       string    `db:"grade" json:"grade"`
	GeneratedAt time.Time `db:"generated_at" json:"generated_at"`
}

// GenerateResultRequest submits a score for grading.
type GenerateResultRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	ExamID     string `json:"exam_id" validate:"required"`
	Score      int    `json:"score" validate:"gte=0"`
	TotalMarks int    `json:"total_marks" validate:"gt=0"`
}
