package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parikshasetu/exam-platform/internal/client"
	"github.com/parikshasetu/exam-platform/internal/models"
	appErrors "github.com/parikshasetu/exam-platform/pkg/errors"
)

type mockUserDirectory struct {
	lookup      client.UserLookup
	lookupErr   error
	registerID  string
	registerErr error
	registered  []models.RegisterRequest
}

func (m *mockUserDirectory) FindByEmail(ctx context.Context, email string) (client.UserLookup, error) {
	return m.lookup, m.lookupErr
}

func (m *mockUserDirectory) Register(ctx context.Context, req models.RegisterRequest) (string, error) {
	m.registered = append(m.registered, req)
	return m.registerID, m.registerErr
}

func TestResolveOrCreateFound(t *testing.T) {
	users := &mockUserDirectory{lookup: client.UserLookup{Outcome: client.LookupFound, ID: "u-1"}}
	resolver := NewIdentityResolver(users, "123456", nil)

	id, err := resolver.ResolveOrCreate(context.Background(), "a@example.com", "Asha")
	require.NoError(t, err)
	assert.Equal(t, "u-1", id)
	assert.Empty(t, users.registered)
}

func TestResolveOrCreateRegistersMissingStudent(t *testing.T) {
	users := &mockUserDirectory{lookup: client.UserLookup{Outcome: client.LookupNotFound}, registerID: "u-new"}
	resolver := NewIdentityResolver(users, "123456", nil)

	id, err := resolver.ResolveOrCreate(context.Background(), " b@example.com ", "")
	require.NoError(t, err)
	assert.Equal(t, "u-new", id)
	require.Len(t, users.registered, 1)
	assert.Equal(t, models.RegisterRequest{FullName: "Student", Email: "b@example.com", Password: "123456", Role: models.RoleStudent}, users.registered[0])
}

func TestResolveOrCreateLookupFailure(t *testing.T) {
	users := &mockUserDirectory{lookupErr: errors.New("timeout")}
	resolver := NewIdentityResolver(users, "123456", nil)

	_, err := resolver.ResolveOrCreate(context.Background(), "c@example.com", "C")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrResolutionFailed.Code, appErrors.FromError(err).Code)
	assert.Empty(t, users.registered)
}

func TestResolveOrCreateRegisterFailure(t *testing.T) {
	users := &mockUserDirectory{lookup: client.UserLookup{Outcome: client.LookupNotFound}, registerErr: errors.New("502")}
	resolver := NewIdentityResolver(users, "123456", nil)

	_, err := resolver.ResolveOrCreate(context.Background(), "d@example.com", "D")
	assert.Equal(t, appErrors.ErrResolutionFailed.Code, appErrors.FromError(err).Code)
}

func TestResolveOrCreateRequiresEmail(t *testing.T) {
	resolver := NewIdentityResolver(&mockUserDirectory{}, "123456", nil)
	_, err := resolver.ResolveOrCreate(context.Background(), "  ", "X")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestResolveOrCreateUnsetOutcomeDoesNotRegister(t *testing.T) {
	users := &mockUserDirectory{lookup: client.UserLookup{}, registerID: "u-new"}
	resolver := NewIdentityResolver(users, "123456", nil)

	_, err := resolver.ResolveOrCreate(context.Background(), "e@example.com", "E")
	assert.Equal(t, appErrors.ErrResolutionFailed.Code, appErrors.FromError(err).Code)
	assert.Empty(t, users.registered)
}
