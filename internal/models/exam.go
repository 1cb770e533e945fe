package models

import "time"

// Option letters accepted as a correct answer.
const (
	OptionA = "A"
	OptionB = "B"
	OptionC = "C"
	OptionD = "D"
)

// ValidOption reports whether opt is one of A-D.
func ValidOption(opt string) bool {
	switch opt {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

// Exam is owned by a teacher and optionally attached to a course.
type Exam struct {
	ID              string     `db:"id" json:"id"`
	Title           string     `db:"title" json:"title"`
	Description     string     `db:"description" json:"description"`
	DurationMinutes int        `db:"duration_minutes" json:"duration_minutes"`
	TotalMarks      int        `db:"total_marks" json:"total_marks"`
	TeacherID       string     `db:"teacher_id" json:"teacher_id"`
	CourseID        *string    `db:"course_id" json:"course_id,omitempty"`
	Active          bool       `db:"active" json:"active"`
	ScheduledTime   *time.Time `db:"scheduled_time" json:"scheduled_time,omitempty"`
	StartTime       *time.Time `db:"start_time" json:"start_time,omitempty"`
	EndTime         *time.Time `db:"end_time" json:"end_time,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	Questions       []Question `db:"-" json:"questions,omitempty"`
}

// Question belongs to exactly one exam. Marks is nil when unset.
type Question struct {
	ID            string `db:"id" json:"id"`
	ExamID        string `db:"exam_id" json:"exam_id"`
	Text          string `db:"text" json:"text"`
	OptionA       string `db:"option_a" json:"option_a"`
	OptionB       string `db:"option_b" json:"option_b"`
	OptionC       string `db:"option_c" json:"option_c"`
	OptionD       string `db:"option_d" json:"option_d"`
	CorrectOption string `db:"correct_option" json:"correct_option"`
	Marks         *int   `db:"marks" json:"marks,omitempty"`
	Position      int    `db:"position" json:"-"`
}

// ExamEnrollment is a direct, course-independent grant of exam access.
type ExamEnrollment struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	ExamID    string    `db:"exam_id" json:"exam_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// QuestionInput is a question as submitted by a teacher or parsed from a sheet.
type QuestionInput struct {
	ExamID        string `json:"exam_id,omitempty"`
	Text          string `json:"text" validate:"required"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectOption string `json:"correct_option" validate:"required,oneof=A B C D"`
	Marks         *int   `json:"marks,omitempty" validate:"omitempty,gt=0"`
}

// CreateExamRequest describes a new exam with its questions.
type CreateExamRequest struct {
	Title           string          `json:"title" validate:"required,max=200"`
	Description     string          `json:"description"`
	DurationMinutes int             `json:"duration_minutes" validate:"gte=0"`
	TotalMarks      int             `json:"total_marks" validate:"gte=0"`
	TeacherID       string          `json:"teacher_id" validate:"required"`
	CourseID        *string         `json:"course_id,omitempty"`
	ScheduledTime   *time.Time      `json:"scheduled_time,omitempty"`
	StartTime       *time.Time      `json:"start_time,omitempty"`
	EndTime         *time.Time      `json:"end_time,omitempty"`
	Questions       []QuestionInput `json:"questions" validate:"dive"`
}

// Eligibility is the set of exams a student may attempt. Degraded is set when
// course-derived eligibility could not be fetched and only direct grants are
// included.
type Eligibility struct {
	Exams    []Exam `json:"exams"`
	Degraded bool   `json:"-"`
}
