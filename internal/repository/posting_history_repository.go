package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/velvetqueue/internal/models"
)

// PostingHistoryRepository keeps the audit trail of publish attempts. Rows
// are only ever appended.
type PostingHistoryRepository interface {
	Create(ctx context.Context, ph *models.PostingHistory) (int64, error)
	ListByPost(ctx context.Context, postID int64) ([]*models.PostingHistory, error)
}

type postingHistoryRepository struct {
	db *sql.DB
}

func NewPostingHistoryRepository(db *sql.DB) PostingHistoryRepository {
	return &postingHistoryRepository{db: db}
}

func (r *postingHistoryRepository) Create(ctx context.Context, ph *models.PostingHistory) (int64, error) {
	query := `
		INSERT INTO posting_history (post_id, channel_id, platform, media_id, error_kind, error_message)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		ph.PostID, ph.ChannelID, ph.Platform, ph.MediaID, ph.ErrorKind, ph.ErrorMessage,
	).Scan(&ph.ID, &ph.CreatedAt)
	if err != nil {
		slog.Error("failed to insert posting history", "post_id", ph.PostID, "err", err)
		return 0, err
	}

	return ph.ID, nil
}

func (r *postingHistoryRepository) ListByPost(ctx context.Context, postID int64) ([]*models.PostingHistory, error) {
	query := `
		SELECT id, post_id, channel_id, platform, media_id, error_kind, error_message, created_at
		FROM posting_history
		WHERE post_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Error("failed to list posting history", "post_id", postID, "err", err)
		return nil, err
	}
	defer rows.Close()

	var phs []*models.PostingHistory
	for rows.Next() {
		var ph models.PostingHistory
		var channelID sql.NullInt64
		err := rows.Scan(&ph.ID, &ph.PostID, &channelID, &ph.Platform, &ph.MediaID, &ph.ErrorKind, &ph.ErrorMessage, &ph.CreatedAt)
		if err != nil {
			return nil, err
		}
		if channelID.Valid {
			ph.ChannelID = &channelID.Int64
		}
		phs = append(phs, &ph)
	}
	return phs, rows.Err()
}
