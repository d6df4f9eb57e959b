package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/maheshrc27/velvetqueue/internal/models"
)

type ChannelRepository interface {
	Create(ctx context.Context, ch *models.Channel) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Channel, error)
	List(ctx context.Context) ([]*models.Channel, error)
	GetCanonical(ctx context.Context, platform string) (*models.Channel, error)
	GetByPlatformAndName(ctx context.Context, platform, name string) (*models.Channel, error)
	SetCredentials(ctx context.Context, id int64, creds models.ChannelCredentials) error
}

type channelRepository struct {
	db *sql.DB
}

func NewChannelRepository(db *sql.DB) ChannelRepository {
	return &channelRepository{db: db}
}

const channelColumns = `id, platform, name, credentials, is_active, created_at, updated_at`

func scanChannel(row rowScanner) (*models.Channel, error) {
	var ch models.Channel
	err := row.Scan(&ch.ID, &ch.Platform, &ch.Name, &ch.Credentials, &ch.IsActive, &ch.CreatedAt, &ch.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *channelRepository) Create(ctx context.Context, ch *models.Channel) (int64, error) {
	query := `
		INSERT INTO channels (platform, name, credentials, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, ch.Platform, ch.Name, ch.Credentials, ch.IsActive).Scan(&id)
	if err != nil {
		slog.Error("failed to create channel", "platform", ch.Platform, "err", err)
		return 0, err
	}
	return id, nil
}

func (r *channelRepository) GetByID(ctx context.Context, id int64) (*models.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *channelRepository) List(ctx context.Context) ([]*models.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Error("failed to list channels", "err", err)
		return nil, err
	}
	defer rows.Close()

	var channels []*models.Channel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			slog.Error("failed to scan channel", "err", err)
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// GetCanonical returns the first active channel of platform, the single
// credential record publishing uses.
func (r *channelRepository) GetCanonical(ctx context.Context, platform string) (*models.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels WHERE platform = $1 AND is_active ORDER BY id LIMIT 1`
	return r.getOne(ctx, query, platform)
}

func (r *channelRepository) GetByPlatformAndName(ctx context.Context, platform, name string) (*models.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels WHERE platform = $1 AND name = $2`
	return r.getOne(ctx, query, platform, name)
}

func (r *channelRepository) getOne(ctx context.Context, query string, args ...any) (*models.Channel, error) {
	ch, err := scanChannel(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Error("failed to get channel", "err", err)
		return nil, err
	}
	return ch, nil
}

// SetCredentials overwrites the stored credential blob. Last write wins.
func (r *channelRepository) SetCredentials(ctx context.Context, id int64, creds models.ChannelCredentials) error {
	query := `
		UPDATE channels
		SET credentials = $2,
			updated_at = now()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, creds)
	if err != nil {
		slog.Error("failed to set channel credentials", "channel_id", id, "err", err)
		return err
	}
	return expectOne(result)
}
