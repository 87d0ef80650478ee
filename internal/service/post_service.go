package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/pinboard/internal/domain"
	"github.com/spec-kit/pinboard/internal/events"
	"github.com/spec-kit/pinboard/internal/repository"
	apperrors "github.com/spec-kit/pinboard/pkg/util"
)

// PostService coordinates feed, profile and post workflows.
type PostService struct {
	posts      repository.PostRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// PostDependencies bundles repositories for the post service.
type PostDependencies struct {
	PostRepo   repository.PostRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
}

// CreatePostInput describes a new post. Image is the stored upload's file name.
type CreatePostInput struct {
	Title       string
	Description string
	Image       string
}

// NewPostService constructs the service.
func NewPostService(deps PostDependencies) *PostService {
	return &PostService{
		posts:      deps.PostRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// Feed lists every post, newest first, with its author.
func (s *PostService) Feed(ctx context.Context, filter repository.FeedFilter) ([]domain.Post, error) {
	return s.posts.ListFeed(ctx, filter)
}

// WithPosts returns a copy of user with its own posts attached.
func (s *PostService) WithPosts(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	posts, err := s.posts.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	withPosts := *user
	withPosts.Posts = posts
	return &withPosts, nil
}

// CreatePost stores a post for author, snapshotting the author's name and avatar.
func (s *PostService) CreatePost(ctx context.Context, author *domain.User, in CreatePostInput) (*domain.Post, error) {
	if author == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	if in.Image == "" {
		return nil, apperrors.NewValidationError("image required", nil)
	}

	post := &domain.Post{
		UserID:           author.ID,
		Title:            strings.TrimSpace(in.Title),
		Description:      strings.TrimSpace(in.Description),
		Image:            in.Image,
		UserProfileImage: author.ProfileImage,
		UserFullName:     author.FullName,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventPostCreated,
		UserID:  author.ID,
		Payload: events.PostCreatedPayload{PostID: post.ID, Title: post.Title, Image: post.Image},
	})
	return post, nil
}

// DeletePost removes a post owned by userID.
func (s *PostService) DeletePost(ctx context.Context, userID, postID string) error {
	post, err := s.posts.GetByID(ctx, postID)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("post", map[string]any{"id": postID})
	}
	if err != nil {
		return err
	}
	if !post.OwnedBy(userID) {
		return apperrors.NewForbidden("post belongs to another user")
	}

	if err := s.posts.Delete(ctx, postID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("post", map[string]any{"id": postID})
		}
		return err
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventPostDeleted,
		UserID:  userID,
		Payload: events.PostDeletedPayload{PostID: post.ID, Image: post.Image, AuthorImage: post.UserProfileImage},
	})
	return nil
}

// UpdateAvatar points the user's profile image at a stored upload.
func (s *PostService) UpdateAvatar(ctx context.Context, user *domain.User, image string) error {
	if user == nil {
		return apperrors.NewUnauthorized("user required")
	}
	if image == "" {
		return apperrors.NewValidationError("image required", nil)
	}
	if err := s.users.UpdateProfileImage(ctx, user.ID, image); err != nil {
		return err
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventAvatarUpdated,
		UserID:  user.ID,
		Payload: events.AvatarUpdatedPayload{OldImage: user.ProfileImage, NewImage: image},
	})
	return nil
}

func (s *PostService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
