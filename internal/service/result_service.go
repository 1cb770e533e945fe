package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/parikshasetu/exam-platform/internal/models"
	appErrors "github.com/parikshasetu/exam-platform/pkg/errors"
	"github.com/parikshasetu/exam-platform/pkg/export"
)

// Grade bands a score by percentage of totalMarks: 90 and above is A, 75 B,
// 50 C, anything lower F.
func Grade(score, totalMarks int) (string, error) {
	if totalMarks <= 0 {
		return "", appErrors.Clone(appErrors.ErrValidation, "total marks must be positive")
	}
	percentage := float64(score) / float64(totalMarks) * 100
	switch {
	case percentage >= 90:
		return "A", nil
	case percentage >= 75:
		return "B", nil
	case percentage >= 50:
		return "C", nil
	default:
		return "F", nil
	}
}

type resultRepository interface {
	Create(ctx context.Context, result *models.Result) error
	ListByStudent(ctx context.Context, studentID string) ([]models.Result, error)
	ListAll(ctx context.Context) ([]models.Result, error)
	ListByExam(ctx context.Context, examID string) ([]models.Result, error)
	ListByExamIDs(ctx context.Context, examIDs []string) ([]models.Result, error)
}

// Export formats accepted by ResultService.Export.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// ExportFile is a rendered export ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ResultService grades attempts and serves result listings and exports.
type ResultService struct {
	repo      resultRepository
	renderers map[string]datasetRenderer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewResultService constructs ResultService.
func NewResultService(repo resultRepository, validate *validator.Validate, logger *zap.Logger) *ResultService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultService{
		repo: repo,
		renderers: map[string]datasetRenderer{
			FormatCSV: export.NewCSVExporter(),
			FormatPDF: export.NewPDFExporter(),
		},
		validator: validate,
		logger:    logger,
	}
}

// Generate grades a submission and stores the result.
func (s *ResultService) Generate(ctx context.Context, req models.GenerateResultRequest) (*models.Result, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid result payload")
	}
	grade, err := Grade(req.Score, req.TotalMarks)
	if err != nil {
		return nil, err
	}
	result := &models.Result{
		StudentID:   req.StudentID,
		ExamID:      req.ExamID,
		Score:       req.Score,
		TotalMarks:  req.TotalMarks,
		Grade:       grade,
		GeneratedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, result); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store result")
	}
	s.logger.Info("result generated", zap.String("exam_id", result.ExamID), zap.String("student_id", result.StudentID), zap.String("grade", grade))
	return result, nil
}

// ListByStudent returns the student's results, newest first.
func (s *ResultService) ListByStudent(ctx context.Context, studentID string) ([]models.Result, error) {
	return s.wrapList(s.repo.ListByStudent(ctx, studentID))
}

// ListAll returns every result.
func (s *ResultService) ListAll(ctx context.Context) ([]models.Result, error) {
	return s.wrapList(s.repo.ListAll(ctx))
}

// ListByExam returns an exam's results ranked by score.
func (s *ResultService) ListByExam(ctx context.Context, examID string) ([]models.Result, error) {
	return s.wrapList(s.repo.ListByExam(ctx, examID))
}

// ListByExams returns results for several exams, e.g. all exams of a teacher.
func (s *ResultService) ListByExams(ctx context.Context, examIDs []string) ([]models.Result, error) {
	return s.wrapList(s.repo.ListByExamIDs(ctx, examIDs))
}

func (s *ResultService) wrapList(results []models.Result, err error) ([]models.Result, error) {
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list results")
	}
	return results, nil
}

// Export renders an exam's results as csv or pdf.
func (s *ResultService) Export(ctx context.Context, examID, format string) (*ExportFile, error) {
	renderer, ok := s.renderers[strings.ToLower(strings.TrimSpace(format))]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	results, err := s.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	data, err := renderer.Render(resultsDataset(examID, results))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("results-%s.%s", examID, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Data:        data,
	}, nil
}

func resultsDataset(examID string, results []models.Result) export.Dataset {
	rows := make([][]string, 0, len(results))
	for i, r := range results {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			r.StudentID,
			strconv.Itoa(r.Score),
			strconv.Itoa(r.TotalMarks),
			r.Grade,
			r.GeneratedAt.UTC().Format(time.RFC3339),
		})
	}
	return export.Dataset{
		Title:   "Results for exam " + examID,
		Headers: []string{"Rank", "Student", "Score", "Total", "Grade", "Generated At"},
		Rows:    rows,
	}
}
