package auth

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/pinboard/internal/domain"
	"github.com/spec-kit/pinboard/internal/repository"
	"github.com/spec-kit/pinboard/internal/session"
	apperrors "github.com/spec-kit/pinboard/pkg/util"
)

// LoginPath is where unauthenticated requests are sent.
const LoginPath = "/login"

// SessionReader is the read side of the session store used by the gate.
type SessionReader interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
}

// SessionGate admits requests that carry a live session and redirects the rest to LoginPath.
// Nothing is cached between requests: every call re-reads the cookie, the session and the user.
type SessionGate struct {
	tokens   *TokenManager
	sessions SessionReader
	users    repository.UserRepository
	cookie   CookieConfig
	logger   *zap.Logger
}

// NewSessionGate constructs the gate.
func NewSessionGate(tokens *TokenManager, sessions SessionReader, users repository.UserRepository, cookie CookieConfig, logger *zap.Logger) *SessionGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionGate{tokens: tokens, sessions: sessions, users: users, cookie: cookie, logger: logger}
}

// Handle enforces authentication for protected routes.
func (g *SessionGate) Handle(c *fiber.Ctx) error {
	principal, err := g.Authenticate(c.UserContext(), g.cookie.SessionToken(c))
	if err != nil {
		return err
	}
	if principal == nil {
		return c.Redirect(LoginPath, fiber.StatusFound)
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// Authenticate resolves token to a principal. A nil principal with a nil error means
// the request is simply unauthenticated; a non-nil error is a server fault.
func (g *SessionGate) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, nil
	}

	claims, err := g.tokens.ParseSessionToken(token)
	if err != nil {
		g.logger.Debug("rejected session token", zap.Error(err))
		return nil, nil
	}

	sess, err := g.sessions.Get(ctx, claims.SessionID)
	if errors.Is(err, session.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if sess.UserID != claims.Subject {
		g.logger.Warn("session subject mismatch", zap.String("session_user", sess.UserID))
		return nil, nil
	}

	user, err := g.users.GetByID(ctx, sess.UserID)
	if err != nil {
		// A live session whose user cannot be loaded is a fault, not a logged-out visitor.
		return nil, apperrors.NewInternalError(err)
	}

	return &Principal{SessionID: sess.ID, User: user}, nil
}
