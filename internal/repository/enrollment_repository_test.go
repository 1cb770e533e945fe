package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parikshasetu/exam-platform/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEnrollmentRepositoryCreateIfAbsentInserts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("(?s)" + regexp.QuoteMeta("INSERT INTO course_enrollments") + ".*" + regexp.QuoteMeta("ON CONFLICT (student_id, course_id) DO NOTHING")).
		WithArgs(sqlmock.AnyArg(), "stu-1", "course-1", models.EnrollmentStatusPending, false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	enrollment := &models.Enrollment{StudentID: "stu-1", CourseID: "course-1"}
	created, err := repo.CreateIfAbsent(context.Background(), enrollment)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, enrollment.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreateIfAbsentConflict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO course_enrollments")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	created, err := repo.CreateIfAbsent(context.Background(), &models.Enrollment{
		StudentID: "stu-1", CourseID: "course-1", Status: models.EnrollmentStatusApproved, Approved: true,
	})
	require.NoError(t, err)
	assert.False(t, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListByCourseAndStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "course_id", "status", "approved", "created_at", "updated_at"}).
		AddRow("enr-1", "stu-1", "0d8e5c1a-7b2f-4e9d-a3c6-5f1b8e2d4a70", models.EnrollmentStatusPending, false, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM course_enrollments WHERE course_id = $1 AND status = $2")).
		WithArgs("0d8e5c1a-7b2f-4e9d-a3c6-5f1b8e2d4a70", models.EnrollmentStatusPending).
		WillReturnRows(rows)

	enrollments, err := repo.ListByCourseAndStatus(context.Background(), "0d8e5c1a-7b2f-4e9d-a3c6-5f1b8e2d4a70", models.EnrollmentStatusPending)
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, "stu-1", enrollments[0].StudentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM course_enrollments WHERE id = $1")).
		WithArgs("9a4f3d2c-1b0e-4f8a-b7c6-d5e4f3a2b1c0").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "9a4f3d2c-1b0e-4f8a-b7c6-d5e4f3a2b1c0")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE course_enrollments SET status = $2, approved = $3")).
		WithArgs("enr-1", models.EnrollmentStatusRejected, false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "enr-1", models.EnrollmentStatusRejected, false))
	require.NoError(t, mock.ExpectationsWereMet())
}
