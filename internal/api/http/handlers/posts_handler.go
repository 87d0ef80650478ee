package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/pinboard/internal/api/dto"
	"github.com/spec-kit/pinboard/internal/auth"
	"github.com/spec-kit/pinboard/internal/service"
	"github.com/spec-kit/pinboard/internal/upload"
	apperrors "github.com/spec-kit/pinboard/pkg/util"
)

// PostsHandler handles post creation, deletion and avatar uploads.
type PostsHandler struct {
	posts   *service.PostService
	uploads *upload.Store
	logger  *zap.Logger
}

// NewPostsHandler constructs handler.
func NewPostsHandler(postService *service.PostService, uploads *upload.Store, logger *zap.Logger) *PostsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostsHandler{posts: postService, uploads: uploads, logger: logger}
}

// CreatePost POST /createpost.
func (h *PostsHandler) CreatePost(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var form dto.CreatePostForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	name, err := h.saveFile(c, "postimage")
	if err != nil {
		return err
	}
	_, err = h.posts.CreatePost(c.UserContext(), principal.User, service.CreatePostInput{
		Title:       form.Title,
		Description: form.Description,
		Image:       name,
	})
	if err != nil {
		h.discard(name)
		return err
	}
	return c.Redirect(profilePath, fiber.StatusFound)
}

// FileUpload POST /fileupload replaces the caller's avatar.
func (h *PostsHandler) FileUpload(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}

	name, err := h.saveFile(c, "image")
	if err != nil {
		return err
	}
	if err := h.posts.UpdateAvatar(c.UserContext(), principal.User, name); err != nil {
		h.discard(name)
		return err
	}
	return c.Redirect(profilePath, fiber.StatusFound)
}

// DeletePost DELETE /deletepost/:postId.
func (h *PostsHandler) DeletePost(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	postID := c.Params("postId")
	if postID == "" {
		return apperrors.NewValidationError("post id required", nil)
	}
	if err := h.posts.DeletePost(c.UserContext(), principal.UserID(), postID); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"data": fiber.Map{"id": postID, "deleted": true}})
}

func (h *PostsHandler) saveFile(c *fiber.Ctx, field string) (string, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return "", apperrors.NewValidationError(field+" file required", map[string]any{"field": field})
	}
	return h.uploads.Save(header)
}

func (h *PostsHandler) discard(name string) {
	if err := h.uploads.Remove(name); err != nil {
		h.logger.Warn("failed to remove orphaned upload", zap.String("file", name), zap.Error(err))
	}
}
