package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/parikshasetu/exam-platform/internal/models"
	appErrors "github.com/parikshasetu/exam-platform/pkg/errors"
)

type examGrantRepository interface {
	CreateIfAbsent(ctx context.Context, enrollment *models.ExamEnrollment) (bool, error)
	ListExamIDsByStudent(ctx context.Context, studentID string) ([]string, error)
}

type examLookup interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.Exam, error)
	ListByCourseIDs(ctx context.Context, courseIDs []string) ([]models.Exam, error)
}

type courseEnrollmentSource interface {
	StudentEnrollments(ctx context.Context, studentID string) ([]models.Enrollment, error)
}

// EligibilityService answers which exams a student may take: direct exam
// grants plus exams of courses the student is approved in.
type EligibilityService struct {
	exams    examLookup
	grants   examGrantRepository
	courses  courseEnrollmentSource
	cache    *CacheService
	cacheTTL time.Duration
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewEligibilityService constructs the service. cache may be nil.
func NewEligibilityService(exams examLookup, grants examGrantRepository, courses courseEnrollmentSource, cache *CacheService, cacheTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *EligibilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityService{exams: exams, grants: grants, courses: courses, cache: cache, cacheTTL: cacheTTL, metrics: metrics, logger: logger}
}

// ExamsForStudent returns the de-duplicated union of directly granted and
// course-derived exams. Failures fetching course-derived exams degrade the
// answer instead of failing it.
func (s *EligibilityService) ExamsForStudent(ctx context.Context, studentID string) (*models.Eligibility, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}

	ids, err := s.grants.ListExamIDsByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam enrollments")
	}
	direct, err := s.exams.ListByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrolled exams")
	}
	direct = orderByIDs(direct, ids)

	result := &models.Eligibility{}
	courseExams, err := s.courseDerivedExams(ctx, studentID)
	if err != nil {
		result.Degraded = true
		s.metrics.RecordEligibilityDegraded()
		s.logger.Warn("course-derived eligibility unavailable",
			zap.String("student_id", studentID),
			zap.Error(err),
		)
	}

	result.Exams = mergeExams(direct, courseExams)
	return result, nil
}

// ExamsForCourses returns exams attached to the given courses.
func (s *EligibilityService) ExamsForCourses(ctx context.Context, courseIDs []string) ([]models.Exam, error) {
	if len(courseIDs) == 0 {
		return []models.Exam{}, nil
	}
	exams, err := s.exams.ListByCourseIDs(ctx, courseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course exams")
	}
	return exams, nil
}

func (s *EligibilityService) courseDerivedExams(ctx context.Context, studentID string) ([]models.Exam, error) {
	enrollments, err := s.studentEnrollments(ctx, studentID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(enrollments))
	courseIDs := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		if !e.Approved || e.CourseID == "" {
			continue
		}
		if _, ok := seen[e.CourseID]; ok {
			continue
		}
		seen[e.CourseID] = struct{}{}
		courseIDs = append(courseIDs, e.CourseID)
	}
	if len(courseIDs) == 0 {
		return nil, nil
	}
	return s.exams.ListByCourseIDs(ctx, courseIDs)
}

func (s *EligibilityService) studentEnrollments(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	key := "eligibility:enrollments:" + studentID
	var cached []models.Enrollment
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	enrollments, err := s.courses.StudentEnrollments(ctx, studentID)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, key, enrollments, s.cacheTTL)
	return enrollments, nil
}

func orderByIDs(exams []models.Exam, ids []string) []models.Exam {
	byID := make(map[string]models.Exam, len(exams))
	for _, e := range exams {
		byID[e.ID] = e
	}
	ordered := make([]models.Exam, 0, len(exams))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			ordered = append(ordered, e)
			delete(byID, id)
		}
	}
	return ordered
}

// mergeExams concatenates the lists dropping repeated ids; the first
// occurrence wins.
func mergeExams(lists ...[]models.Exam) []models.Exam {
	seen := make(map[string]struct{})
	merged := []models.Exam{}
	for _, list := range lists {
		for _, exam := range list {
			if _, ok := seen[exam.ID]; ok {
				continue
			}
			seen[exam.ID] = struct{}{}
			merged = append(merged, exam)
		}
	}
	return merged
}
