package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/pinboard/internal/auth"
	"github.com/spec-kit/pinboard/internal/repository"
	"github.com/spec-kit/pinboard/internal/service"
	apperrors "github.com/spec-kit/pinboard/pkg/util"
)

// PagesHandler renders the gated pages.
type PagesHandler struct {
	posts   *service.PostService
	uploads string
}

// NewPagesHandler constructs handler. uploadsPath is the public URL prefix of stored images.
func NewPagesHandler(postService *service.PostService, uploadsPath string) *PagesHandler {
	return &PagesHandler{posts: postService, uploads: uploadsPath}
}

// EditProfile GET /editprofile.
func (h *PagesHandler) EditProfile(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	return c.Render("editprofile", fiber.Map{"Title": "Edit profile", "User": principal.User, "Uploads": h.uploads})
}

// Feed GET /feed.
func (h *PagesHandler) Feed(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	filter, err := parseFeedQuery(c)
	if err != nil {
		return err
	}
	posts, err := h.posts.Feed(c.UserContext(), filter)
	if err != nil {
		return err
	}
	data := fiber.Map{"Title": "Feed", "User": principal.User, "Posts": posts, "Uploads": h.uploads}
	if filter.Limit > 0 && len(posts) == filter.Limit {
		data["NextOffset"] = filter.Offset + filter.Limit
		data["Limit"] = filter.Limit
	}
	return c.Render("feed", data)
}

// Profile GET /profile.
func (h *PagesHandler) Profile(c *fiber.Ctx) error {
	return h.renderWithPosts(c, "profile", "Profile")
}

// ShowPosts GET /show/posts.
func (h *PagesHandler) ShowPosts(c *fiber.Ctx) error {
	return h.renderWithPosts(c, "show", "Posts")
}

// Add GET /add.
func (h *PagesHandler) Add(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	return c.Render("add", fiber.Map{"Title": "New post", "User": principal.User})
}

func (h *PagesHandler) renderWithPosts(c *fiber.Ctx, view, title string) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	user, err := h.posts.WithPosts(c.UserContext(), principal.User)
	if err != nil {
		return err
	}
	return c.Render(view, fiber.Map{"Title": title, "User": user, "Uploads": h.uploads})
}

const maxFeedLimit = 100

// parseFeedQuery reads ?limit= and ?offset=. Absent values mean the whole feed.
func parseFeedQuery(c *fiber.Ctx) (repository.FeedFilter, error) {
	var filter repository.FeedFilter
	for _, q := range []struct {
		key string
		dst *int
	}{{"limit", &filter.Limit}, {"offset", &filter.Offset}} {
		raw := c.Query(q.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, apperrors.NewValidationError("invalid "+q.key, map[string]any{q.key: raw})
		}
		*q.dst = n
	}
	if filter.Limit > maxFeedLimit {
		filter.Limit = maxFeedLimit
	}
	return filter, nil
}
