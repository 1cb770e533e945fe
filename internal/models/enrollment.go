package models

import "time"

// EnrollmentStatus represents the admission state of a course enrollment.
type EnrollmentStatus string

// PENDING moves to APPROVED or REJECTED.
const (
	EnrollmentStatusPending  EnrollmentStatus = "PENDING"
	EnrollmentStatusApproved EnrollmentStatus = "APPROVED"
	EnrollmentStatusRejected EnrollmentStatus = "REJECTED"
)

// Enrollment captures a student's admission to a course. At most one row
// exists per (student, course).
type Enrollment struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"student_id"`
	CourseID  string           `db:"course_id" json:"course_id"`
	Status    EnrollmentStatus `db:"status" json:"status"`
	Approved  bool             `db:"approved" json:"approved"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// StudentRow is one line of a student import sheet.
type StudentRow struct {
	Row      int    `json:"row"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"-"`
}

// BulkEnrollSummary reports how a bulk enrollment batch went. Rows are
// isolated, so a batch with failures still succeeds.
type BulkEnrollSummary struct {
	Processed int      `json:"processed"`
	Enrolled  int      `json:"enrolled"`
	Existing  int      `json:"existing"`
	Skipped   int      `json:"skipped"`
	Failed    []string `json:"failed,omitempty"`
}

// BulkRegisterSummary reports a bulk student registration.
type BulkRegisterSummary struct {
	Processed int      `json:"processed"`
	Created   int      `json:"created"`
	Skipped   int      `json:"skipped"`
	Failed    []string `json:"failed,omitempty"`
}
