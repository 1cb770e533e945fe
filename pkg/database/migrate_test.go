package database

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaDeclaresUniquenessConstraints(t *testing.T) {
	course, err := Schema(ServiceCourse)
	require.NoError(t, err)
	assert.Contains(t, course, "UNIQUE (student_id, course_id)")

	exam, err := Schema(ServiceExam)
	require.NoError(t, err)
	assert.Contains(t, exam, "UNIQUE (student_id, exam_id)")
	assert.Contains(t, exam, "ON DELETE CASCADE")

	_, err = Schema("billing")
	assert.Error(t, err)
}

func TestMigrateExecutesSchema(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer raw.Close()
	db := sqlx.NewDb(raw, "sqlmock")

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS results")).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Migrate(context.Background(), db, ServiceResult))
	require.NoError(t, mock.ExpectationsWereMet())
}
