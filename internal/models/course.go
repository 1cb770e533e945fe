package models

import "time"

// Course groups exams and gates them behind enrollment.
type Course struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// CreateCourseRequest describes a new course.
type CreateCourseRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	TeacherID   string `json:"teacher_id" validate:"required"`
}
