package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/pinboard/internal/domain"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller for the lifetime of one request.
type Principal struct {
	SessionID string
	User      *domain.User
}

// UserID returns the authenticated user's id.
func (p *Principal) UserID() string {
	if p == nil || p.User == nil {
		return ""
	}
	return p.User.ID
}

// PrincipalFromContext retrieves the authenticated entity attached by the gate.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal != nil && principal.User != nil
}
