package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/pinboard/internal/domain"
)

var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// FeedFilter narrows the feed listing. Zero Limit means no limit.
type FeedFilter struct {
	UserID string
	Limit  int
	Offset int
}

// PostRepository persists posts.
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id string) (*domain.Post, error)
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string) ([]domain.Post, error)
	ListFeed(ctx context.Context, filter FeedFilter) ([]domain.Post, error)
	CountAvatarReferences(ctx context.Context, image string) (int, error)
}

type postRepository struct {
	pool *pgxpool.Pool
}

// NewPostRepository constructs repository.
func NewPostRepository(pool *pgxpool.Pool) PostRepository {
	return &postRepository{pool: pool}
}

var postColumns = []string{
	"p.id", "p.user_id", "p.title", "p.description", "p.image",
	"p.user_profile_image", "p.user_full_name", "p.created_at",
}

var authorColumns = []string{
	"u.id", "u.username", "u.email", "u.full_name", "u.profile_image", "u.created_at", "u.updated_at",
}

func (r *postRepository) Create(ctx context.Context, post *domain.Post) error {
	const query = `
        INSERT INTO posts (user_id, title, description, image, user_profile_image, user_full_name)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		post.UserID,
		post.Title,
		post.Description,
		post.Image,
		post.UserProfileImage,
		post.UserFullName,
	).Scan(&post.ID, &post.CreatedAt)
	return translatePgError(err)
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	query, args, err := psq.Select(postColumns...).From("posts p").Where(sq.Eq{"p.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	var post domain.Post
	if err := r.pool.QueryRow(ctx, query, args...).Scan(postScanTargets(&post)...); err != nil {
		return nil, translatePgError(err)
	}
	return &post, nil
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id=$1`, id)
	if err != nil {
		return translatePgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *postRepository) ListByUser(ctx context.Context, userID string) ([]domain.Post, error) {
	qb := psq.Select(postColumns...).
		From("posts p").
		Where(sq.Eq{"p.user_id": userID}).
		OrderBy("p.created_at DESC", "p.id")
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translatePgError(err)
	}
	defer rows.Close()

	result := []domain.Post{}
	for rows.Next() {
		var post domain.Post
		if err := rows.Scan(postScanTargets(&post)...); err != nil {
			return nil, err
		}
		result = append(result, post)
	}
	return result, translatePgError(rows.Err())
}

func (r *postRepository) ListFeed(ctx context.Context, filter FeedFilter) ([]domain.Post, error) {
	columns := append(append([]string{}, postColumns...), authorColumns...)
	qb := psq.Select(columns...).
		From("posts p").
		Join("users u ON u.id = p.user_id").
		OrderBy("p.created_at DESC", "p.id")
	if filter.UserID != "" {
		qb = qb.Where(sq.Eq{"p.user_id": filter.UserID})
	}
	if filter.Limit > 0 {
		qb = qb.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		qb = qb.Offset(uint64(filter.Offset))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translatePgError(err)
	}
	defer rows.Close()

	result := []domain.Post{}
	for rows.Next() {
		var post domain.Post
		author := &domain.User{}
		targets := append(postScanTargets(&post),
			&author.ID,
			&author.Username,
			&author.Email,
			&author.FullName,
			&author.ProfileImage,
			&author.CreatedAt,
			&author.UpdatedAt,
		)
		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}
		post.Author = author
		result = append(result, post)
	}
	return result, translatePgError(rows.Err())
}

// CountAvatarReferences counts users whose current avatar is image plus posts
// that still carry it as their author snapshot.
func (r *postRepository) CountAvatarReferences(ctx context.Context, image string) (int, error) {
	const query = `
        SELECT (SELECT count(*) FROM users WHERE profile_image = $1)
             + (SELECT count(*) FROM posts WHERE user_profile_image = $1)`
	var n int
	if err := r.pool.QueryRow(ctx, query, image).Scan(&n); err != nil {
		return 0, translatePgError(err)
	}
	return n, nil
}

func postScanTargets(post *domain.Post) []any {
	return []any{
		&post.ID,
		&post.UserID,
		&post.Title,
		&post.Description,
		&post.Image,
		&post.UserProfileImage,
		&post.UserFullName,
		&post.CreatedAt,
	}
}
