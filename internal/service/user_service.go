package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/parikshasetu/exam-platform/internal/models"
	"github.com/parikshasetu/exam-platform/internal/repository"
	"github.com/parikshasetu/exam-platform/internal/spreadsheet"
	appErrors "github.com/parikshasetu/exam-platform/pkg/errors"
)

// ApprovalMessage is sent to a user once an admin approves the account.
const ApprovalMessage = "Your account has been approved by the Admin!"

type userRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, role *models.UserRole) ([]models.User, error)
	UpdateStatus(ctx context.Context, id string, status models.UserStatus, verified bool) error
	Delete(ctx context.Context, id string) (bool, error)
	CountApprovedByRole(ctx context.Context) (map[models.UserRole]int, error)
}

// UserService manages accounts on behalf of admins and sibling services.
type UserService struct {
	repo            userRepository
	notify          notifier
	metrics         *MetricsService
	defaultPassword string
	logger          *zap.Logger
}

// NewUserService constructs UserService. defaultPassword is used for
// imported rows that leave the password column empty.
func NewUserService(repo userRepository, notify notifier, metrics *MetricsService, defaultPassword string, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, notify: notify, metrics: metrics, defaultPassword: defaultPassword, logger: logger}
}

// List returns every user.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.List(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, nil
}

// ListStudents returns users with the STUDENT role.
func (s *UserService) ListStudents(ctx context.Context) ([]models.User, error) {
	role := models.RoleStudent
	users, err := s.repo.List(ctx, &role)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return users, nil
}

// GetByID returns a single user.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "user not found", "failed to load user")
	}
	return user, nil
}

// FindByEmail backs the identity lookup used by the course service.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "email is required")
	}
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, notFoundOrInternal(err, "user not found", "failed to load user")
	}
	return user, nil
}

// ApproveUser marks an account APPROVED and notifies the user.
func (s *UserService) ApproveUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, models.UserStatusApproved, true); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve user")
	}
	user.Status = models.UserStatusApproved
	user.Verified = true
	s.logger.Info("user approved", zap.String("user_id", id))

	if s.notify != nil {
		s.notify.Dispatch(ctx, id, ApprovalMessage)
	}
	return user, nil
}

// Delete removes a user.
func (s *UserService) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	return nil
}

// Stats counts approved accounts per role.
func (s *UserService) Stats(ctx context.Context) (*models.UserStats, error) {
	counts, err := s.repo.CountApprovedByRole(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count users")
	}
	stats := &models.UserStats{
		Students: counts[models.RoleStudent],
		Teachers: counts[models.RoleTeacher],
		Admins:   counts[models.RoleAdmin],
	}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}

// BulkRegisterStudents creates approved student accounts from an xlsx upload.
// Rows with no email or an already registered email are skipped.
func (s *UserService) BulkRegisterStudents(ctx context.Context, r io.Reader) (*models.BulkRegisterSummary, error) {
	rows, err := spreadsheet.ReadStudents(r, spreadsheet.DefaultStudentLayout)
	if err != nil {
		return nil, err
	}

	summary := &models.BulkRegisterSummary{}
	for _, row := range rows {
		summary.Processed++
		email := strings.TrimSpace(row.Email)
		if email == "" {
			summary.Skipped++
			s.metrics.RecordBulkRow("register", "skipped")
			continue
		}
		exists, err := s.repo.ExistsByEmail(ctx, email)
		if err != nil {
			summary.Failed = append(summary.Failed, email)
			s.metrics.RecordBulkRow("register", "failed")
			s.logger.Warn("bulk register lookup failed", zap.Int("row", row.Row), zap.String("email", email), zap.Error(err))
			continue
		}
		if exists {
			summary.Skipped++
			s.metrics.RecordBulkRow("register", "skipped")
			continue
		}

		if err := s.createStudent(ctx, row, email); err != nil {
			if errors.Is(err, repository.ErrDuplicateEmail) {
				summary.Skipped++
				s.metrics.RecordBulkRow("register", "skipped")
				continue
			}
			summary.Failed = append(summary.Failed, email)
			s.metrics.RecordBulkRow("register", "failed")
			s.logger.Warn("bulk register row failed", zap.Int("row", row.Row), zap.String("email", email), zap.Error(err))
			continue
		}
		summary.Created++
		s.metrics.RecordBulkRow("register", "created")
	}

	s.logger.Info("bulk registration finished",
		zap.Int("processed", summary.Processed),
		zap.Int("created", summary.Created),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", len(summary.Failed)),
	)
	return summary, nil
}

func (s *UserService) createStudent(ctx context.Context, row models.StudentRow, email string) error {
	password := strings.TrimSpace(row.Password)
	if password == "" {
		password = s.defaultPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(row.FullName),
		Role:         models.RoleStudent,
		Status:       models.UserStatusApproved,
		Verified:     true,
		CreatedAt:    time.Now().UTC(),
	})
}

// StudentTemplate returns the blank student import workbook.
func (s *UserService) StudentTemplate() ([]byte, error) {
	data, err := spreadsheet.StudentTemplate(true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build template")
	}
	return data, nil
}

func notFoundOrInternal(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internal)
}
