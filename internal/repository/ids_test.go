package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parikshasetu/exam-platform/internal/models"
)

func TestMalformedIDsMatchNoRowWithoutQuerying(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	ctx := context.Background()

	courses := NewCourseRepository(db)
	_, err := courses.FindByID(ctx, "abc")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	deleted, err := courses.Delete(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, deleted)

	enrollments := NewEnrollmentRepository(db)
	_, err = enrollments.FindByID(ctx, "abc")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = enrollments.FindByStudentAndCourse(ctx, "stu-1", "abc")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	pending, err := enrollments.ListByCourseAndStatus(ctx, "abc", models.EnrollmentStatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending)

	exams := NewExamRepository(db)
	_, err = exams.FindByID(ctx, "abc")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	questions, err := exams.ListQuestions(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, questions)
	byID, err := exams.ListByIDs(ctx, []string{"abc", "exam-1"})
	require.NoError(t, err)
	assert.Empty(t, byID)
	deleted, err = exams.Delete(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, deleted)

	users := NewUserRepository(db)
	_, err = users.FindByID(ctx, "abc")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	deleted, err = users.Delete(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, deleted)

	require.NoError(t, mock.ExpectationsWereMet())
}
