package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/maheshrc27/velvetqueue/internal/models"
)

var ErrNotFound = errors.New("record not found")

// ErrStaleStatus means the row's status changed between the read and the write.
var ErrStaleStatus = errors.New("post status changed concurrently")

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	List(ctx context.Context, status models.PostStatus) ([]*models.Post, error)
	ListDue(ctx context.Context, statuses []models.PostStatus, now time.Time) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post, expected models.PostStatus) error
	ClaimForPublishing(ctx context.Context, id int64, from []models.PostStatus, at time.Time) (bool, error)
	MarkPublished(ctx context.Context, id int64, settings models.PlatformSettings, at time.Time) error
	MarkFailed(ctx context.Context, id int64, message string, at time.Time) (bool, error)
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, caption, media_assets, channels, status, scheduled_time, platform_settings,
	approved_at, approved_by, rejected_at, rejected_by, rejection_reason,
	last_publish_attempt_at, last_error, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var post models.Post
	err := row.Scan(
		&post.ID,
		&post.Caption,
		pq.Array(&post.MediaAssets),
		pq.Array(&post.Channels),
		&post.Status,
		&post.ScheduledTime,
		&post.PlatformSettings,
		&post.ApprovedAt,
		&post.ApprovedBy,
		&post.RejectedAt,
		&post.RejectedBy,
		&post.RejectionReason,
		&post.LastPublishAttemptAt,
		&post.LastError,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (caption, media_assets, channels, status, scheduled_time, platform_settings)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		post.Caption,
		pq.Array(post.MediaAssets),
		pq.Array(post.Channels),
		post.Status,
		utcPtr(post.ScheduledTime),
		post.PlatformSettings,
	).Scan(&id)
	if err != nil {
		slog.Error("failed to create post", "err", err)
		return 0, err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Error("failed to get post", "post_id", id, "err", err)
		return nil, err
	}

	return post, nil
}

func (r *postRepository) List(ctx context.Context, status models.PostStatus) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts`
	args := []any{}

	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY scheduled_time ASC NULLS LAST, created_at DESC`

	return r.query(ctx, query, args...)
}

// ListDue returns posts in one of statuses whose scheduled_time is set and not after now.
func (r *postRepository) ListDue(ctx context.Context, statuses []models.PostStatus, now time.Time) ([]*models.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE status = ANY($1)
			AND scheduled_time IS NOT NULL
			AND scheduled_time <= $2
		ORDER BY scheduled_time ASC, id ASC
	`
	return r.query(ctx, query, pq.Array(models.StatusStrings(statuses)), now.UTC())
}

func (r *postRepository) query(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Error("failed to query posts", "err", err)
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Error("failed to scan post", "err", err)
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate posts", "err", err)
		return nil, err
	}
	return posts, nil
}

// Update writes every column of post, but only while the row still has the
// expected status.
func (r *postRepository) Update(ctx context.Context, post *models.Post, expected models.PostStatus) error {
	query := `
		UPDATE posts
		SET caption = $2,
			media_assets = $3,
			channels = $4,
			status = $5,
			scheduled_time = $6,
			platform_settings = $7,
			approved_at = $8,
			approved_by = $9,
			rejected_at = $10,
			rejected_by = $11,
			rejection_reason = $12,
			last_publish_attempt_at = $13,
			last_error = $14,
			updated_at = now()
		WHERE id = $1 AND status = $15
	`
	result, err := r.db.ExecContext(ctx, query,
		post.ID,
		post.Caption,
		pq.Array(post.MediaAssets),
		pq.Array(post.Channels),
		post.Status,
		utcPtr(post.ScheduledTime),
		post.PlatformSettings,
		post.ApprovedAt,
		post.ApprovedBy,
		post.RejectedAt,
		post.RejectedBy,
		post.RejectionReason,
		post.LastPublishAttemptAt,
		post.LastError,
		expected,
	)
	if err != nil {
		slog.Error("failed to update post", "post_id", post.ID, "err", err)
		return err
	}

	ok, err := affected(result)
	if err != nil || ok {
		return err
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, post.ID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStaleStatus
}

// ClaimForPublishing flips the post to publishing only while it is still in one
// of from. The boolean is false when another caller got there first.
func (r *postRepository) ClaimForPublishing(ctx context.Context, id int64, from []models.PostStatus, at time.Time) (bool, error) {
	query := `
		UPDATE posts
		SET status = $3,
			last_publish_attempt_at = $4,
			last_error = '',
			updated_at = now()
		WHERE id = $1 AND status = ANY($2)
	`
	result, err := r.db.ExecContext(ctx, query, id, pq.Array(models.StatusStrings(from)), models.PostStatusPublishing, at.UTC())
	if err != nil {
		slog.Error("failed to claim post", "post_id", id, "err", err)
		return false, err
	}
	return affected(result)
}

// MarkPublished merges settings into the stored platform_settings so keys
// written by other paths survive.
func (r *postRepository) MarkPublished(ctx context.Context, id int64, settings models.PlatformSettings, at time.Time) error {
	query := `
		UPDATE posts
		SET status = $2,
			platform_settings = platform_settings || $3::jsonb,
			last_publish_attempt_at = $4,
			last_error = '',
			updated_at = now()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, models.PostStatusPublished, settings, at.UTC())
	if err != nil {
		slog.Error("failed to mark post published", "post_id", id, "err", err)
		return err
	}
	return expectOne(result)
}

// MarkFailed records a failed attempt unless the post is already published.
func (r *postRepository) MarkFailed(ctx context.Context, id int64, message string, at time.Time) (bool, error) {
	query := `
		UPDATE posts
		SET status = $2,
			last_error = $3,
			last_publish_attempt_at = $4,
			updated_at = now()
		WHERE id = $1 AND status <> $5
	`
	result, err := r.db.ExecContext(ctx, query, id, models.PostStatusFailed, message, at.UTC(), models.PostStatusPublished)
	if err != nil {
		slog.Error("failed to mark post failed", "post_id", id, "err", err)
		return false, err
	}
	return affected(result)
}

func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func expectOne(result sql.Result) error {
	ok, err := affected(result)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
