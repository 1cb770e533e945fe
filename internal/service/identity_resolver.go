package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/parikshasetu/exam-platform/internal/client"
	"github.com/parikshasetu/exam-platform/internal/models"
	appErrors "github.com/parikshasetu/exam-platform/pkg/errors"
)

const defaultStudentName = "Student"

type userDirectory interface {
	FindByEmail(ctx context.Context, email string) (client.UserLookup, error)
	Register(ctx context.Context, req models.RegisterRequest) (string, error)
}

// IdentityResolver maps an email to a user id, registering a student account
// when none exists. Existing accounts are never modified.
type IdentityResolver struct {
	users           userDirectory
	defaultPassword string
	logger          *zap.Logger
}

// NewIdentityResolver constructs the resolver.
func NewIdentityResolver(users userDirectory, defaultPassword string, logger *zap.Logger) *IdentityResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityResolver{users: users, defaultPassword: defaultPassword, logger: logger}
}

// ResolveOrCreate returns the id of the user with email.
func (r *IdentityResolver) ResolveOrCreate(ctx context.Context, email, fullName string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "email is required")
	}

	lookup, err := r.users.FindByEmail(ctx, email)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrResolutionFailed.Code, appErrors.ErrResolutionFailed.Status, "user lookup failed")
	}
	switch lookup.Outcome {
	case client.LookupFound:
		return lookup.ID, nil
	case client.LookupNotFound:
	default:
		return "", appErrors.Clone(appErrors.ErrResolutionFailed, "user lookup returned no outcome")
	}

	name := strings.TrimSpace(fullName)
	if name == "" {
		name = defaultStudentName
	}
	id, err := r.users.Register(ctx, models.RegisterRequest{
		FullName: name,
		Email:    email,
		Password: r.defaultPassword,
		Role:     models.RoleStudent,
	})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrResolutionFailed.Code, appErrors.ErrResolutionFailed.Status, "student registration failed")
	}
	r.logger.Info("registered student during import", zap.String("user_id", id))
	return id, nil
}
