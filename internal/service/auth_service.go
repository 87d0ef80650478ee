package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/pinboard/internal/auth"
	"github.com/spec-kit/pinboard/internal/config"
	"github.com/spec-kit/pinboard/internal/domain"
	"github.com/spec-kit/pinboard/internal/events"
	"github.com/spec-kit/pinboard/internal/repository"
	apperrors "github.com/spec-kit/pinboard/pkg/util"
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// ErrInvalidCredentials is returned for an unknown username or a wrong password.
var ErrInvalidCredentials = errors.New("password or username is incorrect")

// SessionStore creates and destroys server-side sessions.
type SessionStore interface {
	Create(ctx context.Context, userID string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

// AuthService verifies credentials and manages the session lifecycle at the
// login, registration and logout boundaries.
type AuthService struct {
	users      repository.UserRepository
	sessions   SessionStore
	dispatcher events.Dispatcher
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Sessions   SessionStore
	Dispatcher events.Dispatcher
}

// RegisterInput carries the registration form.
type RegisterInput struct {
	Username string
	Email    string
	FullName string
	Password string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		sessions:   deps.Sessions,
		dispatcher: deps.Dispatcher,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.SessionSecret),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Register creates an account and logs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, string, time.Time, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	if err := validateRegistration(in); err != nil {
		return nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user := &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		var dup *repository.DuplicateError
		if errors.As(err, &dup) {
			return nil, "", time.Time{}, apperrors.NewConflict(dup.Error(), map[string]any{"field": dup.Field})
		}
		return nil, "", time.Time{}, err
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventUserRegistered,
		UserID:  user.ID,
		Payload: events.UserRegisteredPayload{Username: user.Username},
	})

	token, exp, err := s.startSession(ctx, user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// Login verifies credentials and opens a session.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, string, time.Time, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, "", time.Time{}, ErrInvalidCredentials
		}
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.startSession(ctx, user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	s.publishEvent(ctx, events.Event{Type: events.EventUserLoggedIn, UserID: user.ID})
	return user, token, exp, nil
}

// Logout destroys the session referenced by token. A token that does not verify
// references no session, so there is nothing to destroy.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.tokenMgr.ParseSessionToken(token)
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, claims.SessionID); err != nil {
		return err
	}
	s.publishEvent(ctx, events.Event{Type: events.EventUserLoggedOut, UserID: claims.Subject})
	return nil
}

// TokenManager exposes the underlying token manager for the session gate.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) startSession(ctx context.Context, user *domain.User) (string, time.Time, error) {
	sess, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return "", time.Time{}, err
	}
	token, err := s.tokenMgr.IssueSessionToken(sess)
	if err != nil {
		_ = s.sessions.Delete(ctx, sess.ID)
		return "", time.Time{}, err
	}
	return token, sess.ExpiresAt, nil
}

func (s *AuthService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func validateRegistration(in RegisterInput) error {
	details := map[string]any{}
	if in.Username == "" {
		details["username"] = "required"
	} else if strings.ContainsAny(in.Username, " \t/") {
		details["username"] = "must not contain spaces or slashes"
	}
	if in.Email == "" {
		details["email"] = "required"
	} else if _, err := mail.ParseAddress(in.Email); err != nil {
		details["email"] = "invalid"
	}
	if in.Password == "" {
		details["password"] = "required"
	} else if len(in.Password) > maxPasswordBytes {
		details["password"] = "at most 72 bytes"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid registration", details)
	}
	return nil
}
