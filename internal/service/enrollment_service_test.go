package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parikshasetu/exam-platform/internal/models"
	appErrors "github.com/parikshasetu/exam-platform/pkg/errors"
)

// mockEnrollmentRepo emulates the unique (student, course) constraint.
type mockEnrollmentRepo struct {
	mu          sync.Mutex
	enrollments map[string]*models.Enrollment
	seq         int
	createErr   error
}

func newMockEnrollmentRepo() *mockEnrollmentRepo {
	return &mockEnrollmentRepo{enrollments: make(map[string]*models.Enrollment)}
}

func (m *mockEnrollmentRepo) CreateIfAbsent(ctx context.Context, enrollment *models.Enrollment) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return false, m.createErr
	}
	for _, e := range m.enrollments {
		if e.StudentID == enrollment.StudentID && e.CourseID == enrollment.CourseID {
			return false, nil
		}
	}
	m.seq++
	enrollment.ID = fmt.Sprintf("enr-%d", m.seq)
	copied := *enrollment
	m.enrollments[enrollment.ID] = &copied
	return true, nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.enrollments[id]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID {
			copied := *e
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Enrollment
	for _, e := range m.enrollments {
		if e.StudentID == studentID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockEnrollmentRepo) ListByCourseAndStatus(ctx context.Context, courseID string, status models.EnrollmentStatus) ([]models.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Enrollment
	for _, e := range m.enrollments {
		if e.CourseID == courseID && e.Status == status {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockEnrollmentRepo) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, approved bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.enrollments[id]; ok {
		e.Status = status
		e.Approved = approved
	}
	return nil
}

func (m *mockEnrollmentRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.enrollments, id)
	return nil
}

func (m *mockEnrollmentRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.enrollments)
}

type mockCourseRepo struct {
	courses map[string]models.Course
	findErr error
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if m.courses == nil {
		m.courses = make(map[string]models.Course)
	}
	if course.ID == "" {
		course.ID = "course-new"
	}
	m.courses[course.ID] = *course
	return nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) List(ctx context.Context) ([]models.Course, error) {
	out := make([]models.Course, 0, len(m.courses))
	for _, c := range m.courses {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCourseRepo) ListByTeacher(ctx context.Context, teacherID string) ([]models.Course, error) {
	var out []models.Course
	for _, c := range m.courses {
		if c.TeacherID == teacherID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockCourseRepo) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := m.courses[id]; !ok {
		return false, nil
	}
	delete(m.courses, id)
	return true, nil
}

type mockIdentity struct {
	ids   map[string]string
	fails map[string]bool
	calls []string
}

func (m *mockIdentity) ResolveOrCreate(ctx context.Context, email, fullName string) (string, error) {
	m.calls = append(m.calls, email)
	if m.fails[email] {
		return "", appErrors.Clone(appErrors.ErrResolutionFailed, "boom")
	}
	if id, ok := m.ids[email]; ok {
		return id, nil
	}
	return "id-" + email, nil
}

type sentMessage struct {
	userID  string
	message string
}

type mockNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (m *mockNotifier) Dispatch(ctx context.Context, userID, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{userID: userID, message: message})
}

func newEnrollmentFixture() (*EnrollmentService, *mockEnrollmentRepo, *mockCourseRepo, *mockIdentity, *mockNotifier) {
	repo := newMockEnrollmentRepo()
	courses := &mockCourseRepo{courses: map[string]models.Course{
		"c-1": {ID: "c-1", Title: "Physics", TeacherID: "t-1"},
		"c-2": {ID: "c-2", Title: "  ", TeacherID: "t-1"},
	}}
	identity := &mockIdentity{ids: map[string]string{}, fails: map[string]bool{}}
	notify := &mockNotifier{}
	svc := NewEnrollmentService(repo, courses, identity, notify, nil, nil, zap.NewNop())
	return svc, repo, courses, identity, notify
}

func TestRequestEnrollmentRequiresIDs(t *testing.T) {
	svc, _, _, _, _ := newEnrollmentFixture()
	err := svc.RequestEnrollment(context.Background(), "", "stu-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	err = svc.RequestEnrollment(context.Background(), "c-1", " ")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRequestEnrollmentUnknownCourse(t *testing.T) {
	svc, _, _, _, _ := newEnrollmentFixture()
	err := svc.RequestEnrollment(context.Background(), "missing", "stu-1")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRequestEnrollmentTwiceKeepsOneRow(t *testing.T) {
	svc, repo, _, _, _ := newEnrollmentFixture()
	ctx := context.Background()
	require.NoError(t, svc.RequestEnrollment(ctx, "c-1", "stu-1"))
	require.NoError(t, svc.RequestEnrollment(ctx, "c-1", "stu-1"))
	assert.Equal(t, 1, repo.count())

	pending, err := svc.ListPending(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.False(t, pending[0].Approved)
}

func TestRequestEnrollmentConcurrentKeepsOneRow(t *testing.T) {
	svc, repo, _, _, _ := newEnrollmentFixture()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.RequestEnrollment(context.Background(), "c-1", "stu-1"))
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, repo.count())
}

func TestRequestEnrollmentDoesNotReopenRejected(t *testing.T) {
	svc, repo, _, _, _ := newEnrollmentFixture()
	ctx := context.Background()
	require.NoError(t, svc.RequestEnrollment(ctx, "c-1", "stu-1"))
	existing, err := repo.FindByStudentAndCourse(ctx, "stu-1", "c-1")
	require.NoError(t, err)
	_, err = svc.Reject(ctx, existing.ID)
	require.NoError(t, err)

	require.NoError(t, svc.RequestEnrollment(ctx, "c-1", "stu-1"))
	after, err := repo.FindByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusRejected, after.Status)
	assert.Equal(t, 1, repo.count())
}

func TestApproveNotifiesWithCourseTitle(t *testing.T) {
	svc, repo, _, _, notify := newEnrollmentFixture()
	ctx := context.Background()
	require.NoError(t, svc.RequestEnrollment(ctx, "c-1", "stu-1"))
	existing, _ := repo.FindByStudentAndCourse(ctx, "stu-1", "c-1")

	enrollment, err := svc.Approve(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusApproved, enrollment.Status)
	assert.True(t, enrollment.Approved)

	require.Len(t, notify.sent, 1)
	assert.Equal(t, "stu-1", notify.sent[0].userID)
	assert.Equal(t, "Enrollment approved for course: Physics", notify.sent[0].message)

	approved, err := svc.ListApproved(ctx, "c-1")
	require.NoError(t, err)
	assert.Len(t, approved, 1)
}

func TestApproveFallsBackToGenericTitle(t *testing.T) {
	svc, repo, courses, _, notify := newEnrollmentFixture()
	ctx := context.Background()
	require.NoError(t, svc.RequestEnrollment(ctx, "c-2", "stu-1"))
	existing, _ := repo.FindByStudentAndCourse(ctx, "stu-1", "c-2")

	_, err := svc.Approve(ctx, existing.ID)
	require.NoError(t, err)
	require.Len(t, notify.sent, 1)
	assert.Equal(t, "Enrollment approved for course: Course", notify.sent[0].message)

	courses.findErr = errors.New("db down")
	_, err = svc.Approve(ctx, existing.ID)
	require.NoError(t, err)
	require.Len(t, notify.sent, 2)
	assert.Equal(t, "Enrollment approved for course: Course", notify.sent[1].message)
}

func TestApproveThenRejectLastCallWins(t *testing.T) {
	svc, repo, _, _, _ := newEnrollmentFixture()
	ctx := context.Background()
	require.NoError(t, svc.RequestEnrollment(ctx, "c-1", "stu-1"))
	existing, _ := repo.FindByStudentAndCourse(ctx, "stu-1", "c-1")

	_, err := svc.Approve(ctx, existing.ID)
	require.NoError(t, err)
	_, err = svc.Reject(ctx, existing.ID)
	require.NoError(t, err)

	stored, _ := repo.FindByID(ctx, existing.ID)
	assert.Equal(t, models.EnrollmentStatusRejected, stored.Status)
	assert.False(t, stored.Approved)

	_, err = svc.Approve(ctx, existing.ID)
	require.NoError(t, err)
	stored, _ = repo.FindByID(ctx, existing.ID)
	assert.Equal(t, models.EnrollmentStatusApproved, stored.Status)
	assert.True(t, stored.Approved)
}

func TestApproveUnknownEnrollment(t *testing.T) {
	svc, _, _, _, notify := newEnrollmentFixture()
	_, err := svc.Approve(context.Background(), "nope")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	_, err = svc.Reject(context.Background(), "nope")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, notify.sent)
}

func TestBulkEnrollIsolatesRowsAndAutoApproves(t *testing.T) {
	svc, repo, _, identity, _ := newEnrollmentFixture()
	identity.ids["known@example.com"] = "stu-known"
	identity.fails["broken@example.com"] = true
	ctx := context.Background()

	require.NoError(t, svc.RequestEnrollment(ctx, "c-1", "stu-known"))

	rows := []models.StudentRow{
		{Row: 2, FullName: "Known", Email: "known@example.com"},
		{Row: 3, FullName: "Broken", Email: "broken@example.com"},
		{Row: 4, FullName: "No Email", Email: ""},
		{Row: 5, FullName: "New", Email: "new@example.com"},
		{Row: 6, FullName: "New Again", Email: "new@example.com"},
	}
	summary, err := svc.BulkEnroll(ctx, "c-1", rows)
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Processed)
	assert.Equal(t, 1, summary.Enrolled)
	assert.Equal(t, 2, summary.Existing)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, []string{"broken@example.com"}, summary.Failed)
	assert.Equal(t, []string{"known@example.com", "broken@example.com", "new@example.com", "new@example.com"}, identity.calls)

	created, err := repo.FindByStudentAndCourse(ctx, "id-new@example.com", "c-1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusApproved, created.Status)
	assert.True(t, created.Approved)

	existing, err := repo.FindByStudentAndCourse(ctx, "stu-known", "c-1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusPending, existing.Status)
	assert.Equal(t, 2, repo.count())
}

func TestBulkEnrollContinuesAfterInsertFailure(t *testing.T) {
	svc, repo, _, _, _ := newEnrollmentFixture()
	repo.createErr = errors.New("insert failed")
	summary, err := svc.BulkEnroll(context.Background(), "c-1", []models.StudentRow{
		{Email: "a@example.com"}, {Email: "b@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Len(t, summary.Failed, 2)
}

func TestMyEnrollmentsAndRemoveStudent(t *testing.T) {
	svc, _, _, _, _ := newEnrollmentFixture()
	ctx := context.Background()
	require.NoError(t, svc.RequestEnrollment(ctx, "c-1", "stu-1"))
	require.NoError(t, svc.RequestEnrollment(ctx, "c-2", "stu-1"))

	mine, err := svc.MyEnrollments(ctx, "stu-1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	require.NoError(t, svc.RemoveStudent(ctx, "c-1", "stu-1"))
	mine, err = svc.MyEnrollments(ctx, "stu-1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	err = svc.RemoveStudent(ctx, "c-1", "stu-1")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCourseLifecycle(t *testing.T) {
	svc, _, _, _, _ := newEnrollmentFixture()
	ctx := context.Background()

	_, err := svc.CreateCourse(ctx, models.CreateCourseRequest{})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	course, err := svc.CreateCourse(ctx, models.CreateCourseRequest{Title: " Chemistry ", TeacherID: "t-2"})
	require.NoError(t, err)
	assert.Equal(t, "Chemistry", course.Title)

	mine, err := svc.ListByTeacher(ctx, "t-2")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	require.NoError(t, svc.DeleteCourse(ctx, course.ID))
	err = svc.DeleteCourse(ctx, course.ID)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentStudentTemplate(t *testing.T) {
	svc, _, _, _, _ := newEnrollmentFixture()
	data, err := svc.StudentTemplate()
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
