package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/pinboard/internal/domain"
	"github.com/spec-kit/pinboard/internal/events"
	"github.com/spec-kit/pinboard/internal/repository"
	apperrors "github.com/spec-kit/pinboard/pkg/util"
)

func TestRegisterCreatesUserAndSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user, token, exp, err := f.svc.Register(ctx, RegisterInput{
		Username: " alice ",
		Email:    "Alice@Example.com",
		FullName: "Alice A",
		Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "secret", user.PasswordHash)
	assert.False(t, exp.IsZero())

	claims, err := f.svc.TokenManager().ParseSessionToken(token)
	require.NoError(t, err)
	sess, err := f.sessions.Get(ctx, claims.SessionID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, sess.UserID)

	assert.Equal(t, []events.EventType{events.EventUserRegistered}, f.events.types)
}

func TestRegisterValidation(t *testing.T) {
	f := newAuthFixture(t)

	_, _, _, err := f.svc.Register(context.Background(), RegisterInput{Username: "", Email: "nope", Password: ""})
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	assert.Contains(t, de.Details, "username")
	assert.Contains(t, de.Details, "email")
	assert.Contains(t, de.Details, "password")
}

func TestRegisterDuplicateUsername(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "alice")

	_, _, _, err := f.svc.Register(context.Background(), RegisterInput{
		Username: "alice", Email: "second@example.com", Password: "pw",
	})
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)
	registered := f.register(t, "bob")

	user, token, _, err := f.svc.Login(context.Background(), "bob", "pw-bob")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, token)
	assert.Contains(t, f.events.types, events.EventUserLoggedIn)
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "bob")

	cases := map[string][2]string{
		"wrong password": {"bob", "nope"},
		"unknown user":   {"nobody", "pw"},
		"empty":          {"", ""},
	}
	for name, creds := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, _, err := f.svc.Login(context.Background(), creds[0], creds[1])
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

type failingUsers struct {
	repository.UserRepository
}

func (failingUsers) GetByUsername(context.Context, string) (*domain.User, error) {
	return nil, errors.New("connection reset")
}

func TestLoginPropagatesStoreErrors(t *testing.T) {
	f := newAuthFixture(t)
	f.svc.users = failingUsers{UserRepository: f.mem.Users()}

	_, _, _, err := f.svc.Login(context.Background(), "bob", "pw")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginFailsWhenSessionStoreDown(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "bob")
	f.mr.SetError("down")

	_, _, _, err := f.svc.Login(context.Background(), "bob", "pw-bob")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutDestroysSession(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "carol")
	ctx := context.Background()

	_, token, _, err := f.svc.Login(ctx, "carol", "pw-carol")
	require.NoError(t, err)
	claims, err := f.svc.TokenManager().ParseSessionToken(token)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, token))

	_, err = f.sessions.Get(ctx, claims.SessionID)
	assert.Error(t, err)
	assert.Contains(t, f.events.types, events.EventUserLoggedOut)
}

func TestLogoutWithoutValidTokenIsNoop(t *testing.T) {
	f := newAuthFixture(t)
	assert.NoError(t, f.svc.Logout(context.Background(), ""))
	assert.NoError(t, f.svc.Logout(context.Background(), "garbage"))
	assert.NotContains(t, f.events.types, events.EventUserLoggedOut)
}

func TestLogoutSurfacesStoreFailure(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "dave")
	ctx := context.Background()

	_, token, _, err := f.svc.Login(ctx, "dave", "pw-dave")
	require.NoError(t, err)

	f.mr.SetError("down")
	assert.Error(t, f.svc.Logout(ctx, token))
	assert.NotContains(t, f.events.types, events.EventUserLoggedOut)
}

func TestRegisterRejectsOverlongPassword(t *testing.T) {
	f := newAuthFixture(t)

	_, _, _, err := f.svc.Register(context.Background(), RegisterInput{
		Username: "long", Email: "long@example.com", Password: strings.Repeat("x", 80),
	})
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	assert.Equal(t, "at most 72 bytes", de.Details["password"])

	_, _, _, err = f.svc.Register(context.Background(), RegisterInput{
		Username: "edge", Email: "edge@example.com", Password: strings.Repeat("x", 72),
	})
	assert.NoError(t, err)
}
