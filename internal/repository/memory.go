package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/pinboard/internal/domain"
)

// Memory keeps users and posts in process memory. It backs the service when no
// POSTGRES_DSN is configured and mirrors the Postgres repositories' error contract.
type Memory struct {
	mu    sync.RWMutex
	users map[string]domain.User
	posts map[string]domain.Post
	now   func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users: make(map[string]domain.User),
		posts: make(map[string]domain.Post),
		now:   time.Now,
	}
}

// Users exposes the store as a UserRepository.
func (m *Memory) Users() UserRepository { return memoryUsers{m} }

// Posts exposes the store as a PostRepository.
func (m *Memory) Posts() PostRepository { return memoryPosts{m} }

type memoryUsers struct{ m *Memory }

func (r memoryUsers) Create(_ context.Context, user *domain.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.users {
		if existing.Username == user.Username {
			return &DuplicateError{Field: "username"}
		}
		if existing.Email == user.Email {
			return &DuplicateError{Field: "email"}
		}
	}
	now := r.m.now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	stored.Posts = nil
	r.m.users[user.ID] = stored
	return nil
}

func (r memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	user, ok := r.m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r memoryUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, user := range r.m.users {
		if user.Username == username {
			found := user
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memoryUsers) UpdateProfileImage(_ context.Context, id, image string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	user, ok := r.m.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.ProfileImage = image
	user.UpdatedAt = r.m.now()
	r.m.users[id] = user
	return nil
}

type memoryPosts struct{ m *Memory }

func (r memoryPosts) Create(_ context.Context, post *domain.Post) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[post.UserID]; !ok {
		return pgx.ErrNoRows
	}
	post.ID = uuid.NewString()
	post.CreatedAt = r.m.now()
	stored := *post
	stored.Author = nil
	r.m.posts[post.ID] = stored
	return nil
}

func (r memoryPosts) GetByID(_ context.Context, id string) (*domain.Post, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	post, ok := r.m.posts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &post, nil
}

func (r memoryPosts) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.posts[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.m.posts, id)
	return nil
}

func (r memoryPosts) ListByUser(ctx context.Context, userID string) ([]domain.Post, error) {
	posts, err := r.ListFeed(ctx, FeedFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].Author = nil
	}
	return posts, nil
}

func (r memoryPosts) CountAvatarReferences(_ context.Context, image string) (int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	n := 0
	for _, user := range r.m.users {
		if user.ProfileImage == image {
			n++
		}
	}
	for _, post := range r.m.posts {
		if post.UserProfileImage == image {
			n++
		}
	}
	return n, nil
}

func (r memoryPosts) ListFeed(_ context.Context, filter FeedFilter) ([]domain.Post, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	result := []domain.Post{}
	for _, post := range r.m.posts {
		if filter.UserID != "" && post.UserID != filter.UserID {
			continue
		}
		if author, ok := r.m.users[post.UserID]; ok {
			a := author
			a.PasswordHash = ""
			post.Author = &a
		}
		result = append(result, post)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []domain.Post{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}
