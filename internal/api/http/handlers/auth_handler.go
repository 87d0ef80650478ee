package handlers

import (
	"errors"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/pinboard/internal/api/dto"
	"github.com/spec-kit/pinboard/internal/auth"
	"github.com/spec-kit/pinboard/internal/service"
	apperrors "github.com/spec-kit/pinboard/pkg/util"
)

const (
	landingPath = "/feed"
	profilePath = "/profile"
)

// AuthHandler serves registration, login and logout.
type AuthHandler struct {
	auth   *service.AuthService
	cookie auth.CookieConfig
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, cookie auth.CookieConfig) *AuthHandler {
	return &AuthHandler{auth: authService, cookie: cookie}
}

// Index GET /.
func (h *AuthHandler) Index(c *fiber.Ctx) error {
	return c.Render("index", fiber.Map{"Title": "Sign up", "Error": takeFlash(c)})
}

// Register POST /register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var form dto.RegisterForm
	if err := c.BodyParser(&form); err != nil {
		setFlash(c, "invalid registration form")
		return c.Redirect("/", fiber.StatusFound)
	}

	_, token, exp, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Username: form.Username,
		Email:    form.Email,
		FullName: form.FullName,
		Password: form.Password,
	})
	if apperrors.IsCode(err, "VALIDATION_FAILED") || apperrors.IsCode(err, "CONFLICT") {
		setFlash(c, registrationMessage(err))
		return c.Redirect("/", fiber.StatusFound)
	}
	if err != nil {
		return err
	}

	h.cookie.SetSessionCookie(c, token, exp)
	return c.Redirect(profilePath, fiber.StatusFound)
}

// LoginPage GET /login.
func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	return c.Render("login", fiber.Map{"Title": "Log in", "Error": takeFlash(c)})
}

// Login POST /login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var form dto.LoginForm
	if err := c.BodyParser(&form); err != nil {
		setFlash(c, service.ErrInvalidCredentials.Error())
		return c.Redirect(auth.LoginPath, fiber.StatusFound)
	}

	_, token, exp, err := h.auth.Login(c.UserContext(), form.Username, form.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		setFlash(c, err.Error())
		return c.Redirect(auth.LoginPath, fiber.StatusFound)
	}
	if err != nil {
		return err
	}

	h.cookie.SetSessionCookie(c, token, exp)
	return c.Redirect(landingPath, fiber.StatusFound)
}

// Logout GET /logout. A failure to destroy the session is returned to the caller
// and the cookie is left in place.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.auth.Logout(c.UserContext(), h.cookie.SessionToken(c)); err != nil {
		return apperrors.NewInternalError(err)
	}
	h.cookie.ClearSessionCookie(c)
	return c.Redirect(auth.LoginPath, fiber.StatusFound)
}

func registrationMessage(err error) string {
	de := apperrors.ToDomainError(err)
	if field, ok := de.Details["field"].(string); ok && de.Code == "CONFLICT" {
		return field + " is already taken"
	}
	if len(de.Details) == 0 {
		return de.Message
	}
	fields := make([]string, 0, len(de.Details))
	for field := range de.Details {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+" "+toString(de.Details[field]))
	}
	return strings.Join(parts, ", ")
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return "invalid"
}
