package service

import (
	"context"
	"database/sql"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/parikshasetu/exam-platform/internal/models"
	"github.com/parikshasetu/exam-platform/internal/repository"
	appErrors "github.com/parikshasetu/exam-platform/pkg/errors"
)

type mockUserRepo struct {
	users     map[string]*models.User
	existsErr error
	createErr error
	nextID    int
}

func newMockUserRepo(users ...*models.User) *mockUserRepo {
	repo := &mockUserRepo{users: map[string]*models.User{}}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	m.nextID++
	user.ID = "u-" + strconv.Itoa(m.nextID)
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, err := m.FindByEmail(ctx, email)
	return err == nil, nil
}

func (m *mockUserRepo) List(ctx context.Context, role *models.UserRole) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		if role == nil || u.Role == *role {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) UpdateStatus(ctx context.Context, id string, status models.UserStatus, verified bool) error {
	if u, ok := m.users[id]; ok {
		u.Status = status
		u.Verified = verified
	}
	return nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if u, ok := m.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := m.users[id]; !ok {
		return false, nil
	}
	delete(m.users, id)
	return true, nil
}

func (m *mockUserRepo) CountApprovedByRole(ctx context.Context) (map[models.UserRole]int, error) {
	counts := map[models.UserRole]int{}
	for _, u := range m.users {
		if u.Status == models.UserStatusApproved {
			counts[u.Role]++
		}
	}
	return counts, nil
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newTestTokens() *TokenService {
	return NewTokenService(TokenConfig{Secret: "secret", AccessExpiry: time.Hour, RefreshExpiry: 24 * time.Hour, Issuer: "test"})
}

func TestAuthServiceRegisterApprovesStudents(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, newTestTokens(), nil, nil)

	res, err := svc.Register(context.Background(), models.RegisterRequest{FullName: "Asha", Email: "asha@example.com", Password: "secret1", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.NotEmpty(t, res.ID)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)

	stored := repo.users[res.ID]
	assert.Equal(t, models.UserStatusApproved, stored.Status)
	assert.True(t, stored.Verified)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
}

func TestAuthServiceRegisterTeacherPending(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, newTestTokens(), nil, nil)

	res, err := svc.Register(context.Background(), models.RegisterRequest{FullName: "Ravi", Email: "ravi@example.com", Password: "secret1", Role: models.RoleTeacher})
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusPending, repo.users[res.ID].Status)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "ravi@example.com", Password: "secret1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAccountPending.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: "u-0", Email: "asha@example.com"})
	svc := NewAuthService(repo, newTestTokens(), nil, nil)

	_, err := svc.Register(context.Background(), models.RegisterRequest{FullName: "Asha", Email: "asha@example.com", Password: "secret1", Role: models.RoleStudent})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterValidation(t *testing.T) {
	svc := NewAuthService(newMockUserRepo(), newTestTokens(), nil, nil)

	_, err := svc.Register(context.Background(), models.RegisterRequest{FullName: "X", Email: "not-an-email", Password: "secret1", Role: models.RoleStudent})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Register(context.Background(), models.RegisterRequest{FullName: "X", Email: "x@example.com", Password: "secret1", Role: models.RoleService})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: "u1", Email: "user@example.com", PasswordHash: hashPassword(t, "password"), Status: models.UserStatusApproved, Role: models.RoleAdmin})
	tokens := newTestTokens()
	svc := NewAuthService(repo, tokens, nil, nil)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password"})
	require.NoError(t, err)
	assert.Equal(t, "u1", res.User.ID)
	assert.Equal(t, int64(3600), res.ExpiresIn)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: "u1", Email: "user@example.com", PasswordHash: hashPassword(t, "password"), Status: models.UserStatusApproved})
	svc := NewAuthService(repo, newTestTokens(), nil, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "nope"})
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.com", Password: "nope"})
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefresh(t *testing.T) {
	user := &models.User{ID: "u1", Email: "user@example.com", Status: models.UserStatusApproved, Role: models.RoleStudent}
	repo := newMockUserRepo(user)
	tokens := newTestTokens()
	svc := NewAuthService(repo, tokens, nil, nil)

	refresh, err := tokens.IssueRefresh(user)
	require.NoError(t, err)

	res, err := svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: refresh})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)

	access, err := tokens.IssueAccess(user)
	require.NoError(t, err)
	_, err = svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: access})
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceChangePassword(t *testing.T) {
	oldHash := hashPassword(t, "old")
	repo := newMockUserRepo(&models.User{ID: "u1", PasswordHash: oldHash, Status: models.UserStatusApproved})
	svc := NewAuthService(repo, newTestTokens(), nil, nil)

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newpassword"})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	err = svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{OldPassword: "old", NewPassword: "newpassword"})
	require.NoError(t, err)
	assert.NotEqual(t, oldHash, repo.users["u1"].PasswordHash)

	err = svc.ChangePassword(context.Background(), "missing", models.ChangePasswordRequest{OldPassword: "old", NewPassword: "newpassword"})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTokenServiceRejectsExpiredAndForeign(t *testing.T) {
	tokens := newTestTokens()
	user := &models.User{ID: "u1", Role: models.RoleStudent}

	tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, err := tokens.IssueAccess(user)
	require.NoError(t, err)
	tokens.now = time.Now
	_, err = tokens.ValidateToken(stale)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	other := NewTokenService(TokenConfig{Secret: "other"})
	foreign, err := other.IssueAccess(user)
	require.NoError(t, err)
	_, err = tokens.ValidateToken(foreign)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
