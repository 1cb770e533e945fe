package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/parikshasetu/exam-platform/internal/models"
	appErrors "github.com/parikshasetu/exam-platform/pkg/errors"
)

type mockExamRepo struct {
	exams     map[string]*models.Exam
	questions map[string][]models.Question
	listErr   error
	courseErr error
	seq       int
}

func newMockExamRepo() *mockExamRepo {
	return &mockExamRepo{exams: map[string]*models.Exam{}, questions: map[string][]models.Question{}}
}

func (m *mockExamRepo) add(exam models.Exam) {
	copied := exam
	m.exams[exam.ID] = &copied
}

func (m *mockExamRepo) Create(ctx context.Context, exam *models.Exam) error {
	m.seq++
	exam.ID = fmt.Sprintf("exam-%d", m.seq)
	for i := range exam.Questions {
		exam.Questions[i].ExamID = exam.ID
		exam.Questions[i].Position = i
	}
	m.questions[exam.ID] = append([]models.Question(nil), exam.Questions...)
	copied := *exam
	copied.Questions = nil
	m.exams[exam.ID] = &copied
	return nil
}

func (m *mockExamRepo) AddQuestion(ctx context.Context, q *models.Question) error {
	q.Position = len(m.questions[q.ExamID])
	m.questions[q.ExamID] = append(m.questions[q.ExamID], *q)
	return nil
}

func (m *mockExamRepo) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	if e, ok := m.exams[id]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockExamRepo) ListQuestions(ctx context.Context, examID string) ([]models.Question, error) {
	return append([]models.Question{}, m.questions[examID]...), nil
}

func (m *mockExamRepo) ListActive(ctx context.Context) ([]models.Exam, error) {
	var out []models.Exam
	for _, e := range m.exams {
		if e.Active {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockExamRepo) ListByTeacher(ctx context.Context, teacherID string) ([]models.Exam, error) {
	var out []models.Exam
	for _, e := range m.exams {
		if e.TeacherID == teacherID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockExamRepo) ListByIDs(ctx context.Context, ids []string) ([]models.Exam, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.Exam
	// reverse order to mimic an unordered database answer
	for i := len(ids) - 1; i >= 0; i-- {
		if e, ok := m.exams[ids[i]]; ok {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockExamRepo) ListByCourseIDs(ctx context.Context, courseIDs []string) ([]models.Exam, error) {
	if m.courseErr != nil {
		return nil, m.courseErr
	}
	want := map[string]bool{}
	for _, id := range courseIDs {
		want[id] = true
	}
	var out []models.Exam
	for _, id := range sortedKeys(m.exams) {
		e := m.exams[id]
		if e.CourseID != nil && want[*e.CourseID] {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockExamRepo) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := m.exams[id]; !ok {
		return false, nil
	}
	delete(m.exams, id)
	delete(m.questions, id)
	return true, nil
}

func sortedKeys(m map[string]*models.Exam) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type mockGrantRepo struct {
	grants  map[string][]string
	listErr error
}

func (m *mockGrantRepo) CreateIfAbsent(ctx context.Context, e *models.ExamEnrollment) (bool, error) {
	if m.grants == nil {
		m.grants = map[string][]string{}
	}
	for _, id := range m.grants[e.StudentID] {
		if id == e.ExamID {
			return false, nil
		}
	}
	m.grants[e.StudentID] = append(m.grants[e.StudentID], e.ExamID)
	return true, nil
}

func (m *mockGrantRepo) ListExamIDsByStudent(ctx context.Context, studentID string) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.grants[studentID], nil
}

func intPtr(v int) *int { return &v }

func sampleExamRequest(n int) models.CreateExamRequest {
	req := models.CreateExamRequest{Title: "Quiz", TeacherID: "t-1", DurationMinutes: 30, TotalMarks: 10}
	for i := 0; i < n; i++ {
		req.Questions = append(req.Questions, models.QuestionInput{
			Text: fmt.Sprintf("Q%d", i), OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectOption: "A", Marks: intPtr(1),
		})
	}
	return req
}

func TestExamServiceCreateAndGet(t *testing.T) {
	repo := newMockExamRepo()
	svc := NewExamService(repo, &mockGrantRepo{}, nil, nil)
	ctx := context.Background()

	blank := " "
	req := sampleExamRequest(3)
	req.CourseID = &blank
	exam, err := svc.Create(ctx, req)
	require.NoError(t, err)
	assert.True(t, exam.Active)
	assert.Nil(t, exam.CourseID)

	loaded, err := svc.Get(ctx, exam.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Questions, 3)
	assert.Equal(t, "Q0", loaded.Questions[0].Text)
}

func TestExamServiceCreateValidation(t *testing.T) {
	svc := NewExamService(newMockExamRepo(), &mockGrantRepo{}, nil, nil)
	_, err := svc.Create(context.Background(), models.CreateExamRequest{TeacherID: "t-1"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req := sampleExamRequest(1)
	req.Questions[0].CorrectOption = "E"
	_, err = svc.Create(context.Background(), req)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExamServiceAddQuestion(t *testing.T) {
	repo := newMockExamRepo()
	svc := NewExamService(repo, &mockGrantRepo{}, nil, nil)
	ctx := context.Background()
	exam, err := svc.Create(ctx, sampleExamRequest(1))
	require.NoError(t, err)

	q, err := svc.AddQuestion(ctx, exam.ID, models.QuestionInput{Text: "extra", CorrectOption: "C"})
	require.NoError(t, err)
	assert.Equal(t, 1, q.Position)
	assert.Equal(t, exam.ID, q.ExamID)

	_, err = svc.AddQuestion(ctx, "missing", models.QuestionInput{Text: "x", CorrectOption: "A"})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPresentForAttemptShufflesWithoutPersisting(t *testing.T) {
	repo := newMockExamRepo()
	svc := NewExamService(repo, &mockGrantRepo{}, nil, nil)
	svc.shuffle = func(n int, swap func(i, j int)) {
		for i := 0; i < n/2; i++ {
			swap(i, n-1-i)
		}
	}
	ctx := context.Background()
	exam, err := svc.Create(ctx, sampleExamRequest(4))
	require.NoError(t, err)

	presented, err := svc.PresentForAttempt(ctx, exam.ID)
	require.NoError(t, err)
	texts := make([]string, 0, len(presented.Questions))
	for _, q := range presented.Questions {
		texts = append(texts, q.Text)
	}
	assert.Equal(t, []string{"Q3", "Q2", "Q1", "Q0"}, texts)

	stored, err := repo.ListQuestions(ctx, exam.ID)
	require.NoError(t, err)
	assert.Equal(t, "Q0", stored[0].Text)
}

func TestPresentForAttemptKeepsQuestionSet(t *testing.T) {
	svc := NewExamService(newMockExamRepo(), &mockGrantRepo{}, nil, nil)
	ctx := context.Background()
	exam, err := svc.Create(ctx, sampleExamRequest(10))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		presented, err := svc.PresentForAttempt(ctx, exam.ID)
		require.NoError(t, err)
		seen := map[string]bool{}
		for _, q := range presented.Questions {
			seen[q.Text] = true
		}
		assert.Len(t, seen, 10)
	}
}

func TestPresentForAttemptUnknownExam(t *testing.T) {
	svc := NewExamService(newMockExamRepo(), &mockGrantRepo{}, nil, nil)
	_, err := svc.PresentForAttempt(context.Background(), "nope")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExamServiceEnrollStudentIdempotent(t *testing.T) {
	repo := newMockExamRepo()
	grants := &mockGrantRepo{}
	svc := NewExamService(repo, grants, nil, nil)
	ctx := context.Background()
	exam, err := svc.Create(ctx, sampleExamRequest(1))
	require.NoError(t, err)

	require.NoError(t, svc.EnrollStudent(ctx, exam.ID, "stu-1"))
	require.NoError(t, svc.EnrollStudent(ctx, exam.ID, "stu-1"))
	assert.Equal(t, []string{exam.ID}, grants.grants["stu-1"])

	err = svc.EnrollStudent(ctx, "missing", "stu-1")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExamServiceDeleteRemovesQuestions(t *testing.T) {
	repo := newMockExamRepo()
	svc := NewExamService(repo, &mockGrantRepo{}, nil, nil)
	ctx := context.Background()
	exam, err := svc.Create(ctx, sampleExamRequest(2))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, exam.ID))
	questions, _ := repo.ListQuestions(ctx, exam.ID)
	assert.Empty(t, questions)

	err = svc.Delete(ctx, exam.ID)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExamServiceParseQuestions(t *testing.T) {
	file := excelize.NewFile()
	defer file.Close()
	rows := [][]interface{}{
		{"Question Text", "A", "B", "C", "D", "Correct", "Marks"},
		{"Capital?", "Paris", "Rome", "Oslo", "Bern", "e", "5.0"},
		{"", "skip", "", "", "", "B", ""},
	}
	for i, row := range rows {
		ref, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		require.NoError(t, file.SetSheetRow("Sheet1", ref, &r))
	}
	buf, err := file.WriteToBuffer()
	require.NoError(t, err)

	svc := NewExamService(newMockExamRepo(), &mockGrantRepo{}, nil, nil)
	questions, err := svc.ParseQuestions(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "A", questions[0].CorrectOption)
	require.NotNil(t, questions[0].Marks)
	assert.Equal(t, 5, *questions[0].Marks)

	template, err := svc.QuestionTemplate()
	require.NoError(t, err)
	assert.NotEmpty(t, template)
}
