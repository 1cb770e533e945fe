package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"math/rand/v2"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/parikshasetu/exam-platform/internal/models"
	"github.com/parikshasetu/exam-platform/internal/spreadsheet"
	appErrors "github.com/parikshasetu/exam-platform/pkg/errors"
)

type examRepository interface {
	Create(ctx context.Context, exam *models.Exam) error
	AddQuestion(ctx context.Context, question *models.Question) error
	FindByID(ctx context.Context, id string) (*models.Exam, error)
	ListQuestions(ctx context.Context, examID string) ([]models.Question, error)
	ListActive(ctx context.Context) ([]models.Exam, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Exam, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ExamService manages exams, their questions and direct student grants.
type ExamService struct {
	repo      examRepository
	grants    examGrantRepository
	validator *validator.Validate
	logger    *zap.Logger
	shuffle   func(n int, swap func(i, j int))
}

// NewExamService constructs ExamService.
func NewExamService(repo examRepository, grants examGrantRepository, validate *validator.Validate, logger *zap.Logger) *ExamService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamService{repo: repo, grants: grants, validator: validate, logger: logger, shuffle: rand.Shuffle}
}

// Create stores an exam together with its questions.
func (s *ExamService) Create(ctx context.Context, req models.CreateExamRequest) (*models.Exam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
	}
	if req.StartTime != nil && req.EndTime != nil && req.EndTime.Before(*req.StartTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end time must not be before start time")
	}

	exam := &models.Exam{
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		TotalMarks:      req.TotalMarks,
		TeacherID:       req.TeacherID,
		CourseID:        normalizeOptionalID(req.CourseID),
		Active:          true,
		ScheduledTime:   req.ScheduledTime,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Questions:       make([]models.Question, 0, len(req.Questions)),
	}
	for _, in := range req.Questions {
		exam.Questions = append(exam.Questions, questionFromInput(in))
	}

	if err := s.repo.Create(ctx, exam); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exam")
	}
	s.logger.Info("exam created", zap.String("exam_id", exam.ID), zap.Int("questions", len(exam.Questions)))
	return exam, nil
}

// AddQuestion appends one question to an exam.
func (s *ExamService) AddQuestion(ctx context.Context, examID string, in models.QuestionInput) (*models.Question, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid question payload")
	}
	if _, err := s.loadExam(ctx, examID); err != nil {
		return nil, err
	}
	q := questionFromInput(in)
	q.ExamID = examID
	if err := s.repo.AddQuestion(ctx, &q); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add question")
	}
	return &q, nil
}

// Get returns an exam with its questions in authoring order.
func (s *ExamService) Get(ctx context.Context, examID string) (*models.Exam, error) {
	exam, err := s.loadExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	questions, err := s.repo.ListQuestions(ctx, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load questions")
	}
	exam.Questions = questions
	return exam, nil
}

// PresentForAttempt returns the exam with its questions in a fresh random
// order. The order is never stored.
func (s *ExamService) PresentForAttempt(ctx context.Context, examID string) (*models.Exam, error) {
	exam, err := s.Get(ctx, examID)
	if err != nil {
		return nil, err
	}
	qs := exam.Questions
	s.shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
	return exam, nil
}

// ListActive returns active exams.
func (s *ExamService) ListActive(ctx context.Context) ([]models.Exam, error) {
	exams, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exams")
	}
	return exams, nil
}

// ListByTeacher returns exams authored by the teacher.
func (s *ExamService) ListByTeacher(ctx context.Context, teacherID string) ([]models.Exam, error) {
	exams, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exams")
	}
	return exams, nil
}

// EnrollStudent grants a student direct access to an exam. Repeated grants are no-ops.
func (s *ExamService) EnrollStudent(ctx context.Context, examID, studentID string) error {
	if strings.TrimSpace(examID) == "" || strings.TrimSpace(studentID) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "exam id and student id are required")
	}
	if _, err := s.loadExam(ctx, examID); err != nil {
		return err
	}
	if _, err := s.grants.CreateIfAbsent(ctx, &models.ExamEnrollment{StudentID: studentID, ExamID: examID}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
	}
	return nil
}

// Delete removes an exam and its questions.
func (s *ExamService) Delete(ctx context.Context, examID string) error {
	deleted, err := s.repo.Delete(ctx, examID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete exam")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "exam not found")
	}
	return nil
}

// ParseQuestions reads questions from an xlsx upload without storing them.
func (s *ExamService) ParseQuestions(r io.Reader) ([]models.QuestionInput, error) {
	return spreadsheet.ParseQuestions(r, spreadsheet.DefaultQuestionLayout)
}

// QuestionTemplate returns the question import workbook.
func (s *ExamService) QuestionTemplate() ([]byte, error) {
	data, err := spreadsheet.QuestionTemplate()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build template")
	}
	return data, nil
}

func (s *ExamService) loadExam(ctx context.Context, id string) (*models.Exam, error) {
	exam, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	return exam, nil
}

func questionFromInput(in models.QuestionInput) models.Question {
	return models.Question{
		Text:          strings.TrimSpace(in.Text),
		OptionA:       in.OptionA,
		OptionB:       in.OptionB,
		OptionC:       in.OptionC,
		OptionD:       in.OptionD,
		CorrectOption: spreadsheet.NormalizeOption(in.CorrectOption),
		Marks:         in.Marks,
	}
}

func normalizeOptionalID(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
